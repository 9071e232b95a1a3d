package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	expenseapp "github.com/vendasys/backend/internal/application/expense"
	"github.com/vendasys/backend/internal/domain/rollup"
)

// ExpenseReportHandler serves the expense rollup summaries and the ranked
// classification breakdowns
type ExpenseReportHandler struct {
	BaseHandler
	deltas  *expenseapp.DeltaService
	classes *expenseapp.ClassificationService
}

// NewExpenseReportHandler creates a new ExpenseReportHandler
func NewExpenseReportHandler(deltas *expenseapp.DeltaService, classes *expenseapp.ClassificationService) *ExpenseReportHandler {
	return &ExpenseReportHandler{deltas: deltas, classes: classes}
}

// RegisterRoutes registers the expense report and rebuild routes
func (h *ExpenseReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports/expenses")
	reports.GET("/monthly/:ym", h.GetMonthly)
	reports.GET("/classes/monthly/:ym", h.GetClassesOfMonth)
	reports.GET("/classes/yearly/:year", h.GetClassesOfYear)
	reports.GET("/categories/monthly/:ym", h.GetCategoriesOfMonth)
	reports.GET("/categories/yearly/:year", h.GetCategoriesOfYear)

	admin := rg.Group("/admin/rollups/expenses")
	admin.POST("/classes/rebuild/:ym", h.RebuildMonth)
	admin.POST("/classes/rebuild-year/:year", h.RebuildYear)
}

// GetMonthly returns the to-pay and realized totals of one month
func (h *ExpenseReportHandler) GetMonthly(c *gin.Context) {
	partnerID, err := getPartnerID(c)
	if err != nil {
		h.Unauthorized(c, "Partner ID is required")
		return
	}

	ym, ok := h.bindMonth(c)
	if !ok {
		return
	}

	summary, err := h.deltas.MonthlySummary(c.Request.Context(), partnerID, ym)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// GetClassesOfMonth returns the ranked sub-classification breakdown of one month
func (h *ExpenseReportHandler) GetClassesOfMonth(c *gin.Context) {
	if ym, ok := h.bindMonth(c); ok {
		h.breakdown(c, ym, h.classes.ClassesOfMonth)
	}
}

// GetClassesOfYear returns the ranked sub-classification breakdown of one year
func (h *ExpenseReportHandler) GetClassesOfYear(c *gin.Context) {
	if year, ok := h.bindYear(c); ok {
		h.breakdown(c, year, h.classes.ClassesOfYear)
	}
}

// GetCategoriesOfMonth returns the ranked category breakdown of one month
func (h *ExpenseReportHandler) GetCategoriesOfMonth(c *gin.Context) {
	if ym, ok := h.bindMonth(c); ok {
		h.breakdown(c, ym, h.classes.CategoriesOfMonth)
	}
}

// GetCategoriesOfYear returns the ranked category breakdown of one year
func (h *ExpenseReportHandler) GetCategoriesOfYear(c *gin.Context) {
	if year, ok := h.bindYear(c); ok {
		h.breakdown(c, year, h.classes.CategoriesOfYear)
	}
}

// RebuildMonth rebuilds the classification cache of one month from the ledger
func (h *ExpenseReportHandler) RebuildMonth(c *gin.Context) {
	partnerID, err := getPartnerID(c)
	if err != nil {
		h.Unauthorized(c, "Partner ID is required")
		return
	}
	ym, ok := h.bindMonth(c)
	if !ok {
		return
	}
	scheme, ok := h.scheme(c)
	if !ok {
		return
	}

	if err := h.classes.RebuildMonth(c.Request.Context(), partnerID, ym, scheme); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"rebuilt": ym})
}

// RebuildYear rebuilds the classification cache of a whole year from the ledger
func (h *ExpenseReportHandler) RebuildYear(c *gin.Context) {
	partnerID, err := getPartnerID(c)
	if err != nil {
		h.Unauthorized(c, "Partner ID is required")
		return
	}
	year, ok := h.bindYear(c)
	if !ok {
		return
	}
	scheme, ok := h.scheme(c)
	if !ok {
		return
	}

	if err := h.classes.RebuildYear(c.Request.Context(), partnerID, year, scheme); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"rebuilt": year})
}

func (h *ExpenseReportHandler) breakdown(
	c *gin.Context,
	period string,
	read func(ctx context.Context, partnerID uuid.UUID, period string, scheme rollup.ClassificationScheme) (*expenseapp.Breakdown, error),
) {
	partnerID, err := getPartnerID(c)
	if err != nil {
		h.Unauthorized(c, "Partner ID is required")
		return
	}
	scheme, ok := h.scheme(c)
	if !ok {
		return
	}

	result, err := read(c.Request.Context(), partnerID, period, scheme)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// scheme parses the classification scheme query parameter, defaulting to legacy
func (h *ExpenseReportHandler) scheme(c *gin.Context) (rollup.ClassificationScheme, bool) {
	scheme := rollup.ClassificationScheme(c.DefaultQuery("scheme", string(rollup.SchemeLegacy)))
	if !scheme.Valid() {
		h.BadRequest(c, "Unknown classification scheme")
		return "", false
	}
	return scheme, true
}
