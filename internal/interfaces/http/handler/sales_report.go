package handler

import (
	"github.com/gin-gonic/gin"
	salesapp "github.com/vendasys/backend/internal/application/sales"
)

// SalesReportHandler serves the cached sales rollup reports
type SalesReportHandler struct {
	BaseHandler
	rollups *salesapp.RollupService
}

// NewSalesReportHandler creates a new SalesReportHandler
func NewSalesReportHandler(rollups *salesapp.RollupService) *SalesReportHandler {
	return &SalesReportHandler{rollups: rollups}
}

// RegisterRoutes registers the sales report routes
func (h *SalesReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports/sales")
	reports.GET("/monthly/:ym", h.GetMonthly)
	reports.GET("/yearly/:year", h.GetYearly)
	reports.GET("/years", h.GetAvailableYears)
}

// GetMonthly returns the sales summary of one month, with the per-type
// slices ranked by value
func (h *SalesReportHandler) GetMonthly(c *gin.Context) {
	partnerID, err := getPartnerID(c)
	if err != nil {
		h.Unauthorized(c, "Partner ID is required")
		return
	}

	ym, ok := h.bindMonth(c)
	if !ok {
		return
	}

	summary, err := h.rollups.GetMonthly(c.Request.Context(), partnerID, ym)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// GetYearly returns the sales summary of one year, including the monthly
// average over months that carry data
func (h *SalesReportHandler) GetYearly(c *gin.Context) {
	partnerID, err := getPartnerID(c)
	if err != nil {
		h.Unauthorized(c, "Partner ID is required")
		return
	}

	year, ok := h.bindYear(c)
	if !ok {
		return
	}

	summary, err := h.rollups.GetYear(c.Request.Context(), partnerID, year)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// GetAvailableYears returns every year with sales data, newest first
func (h *SalesReportHandler) GetAvailableYears(c *gin.Context) {
	partnerID, err := getPartnerID(c)
	if err != nil {
		h.Unauthorized(c, "Partner ID is required")
		return
	}

	years, err := h.rollups.GetAvailableYears(c.Request.Context(), partnerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"anos": years})
}
