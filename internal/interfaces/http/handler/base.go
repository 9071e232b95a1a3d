package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vendasys/backend/internal/domain/shared"
	"github.com/vendasys/backend/internal/interfaces/http/dto"
	"github.com/vendasys/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// getPartnerID extracts the partner ID set by the partner middleware
func getPartnerID(c *gin.Context) (uuid.UUID, error) {
	if id, ok := middleware.GetPartnerID(c); ok {
		return id, nil
	}
	return uuid.Nil, errors.New("partner ID not found in context")
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

type monthURI struct {
	YM string `uri:"ym" binding:"required,monthkey"`
}

type yearURI struct {
	Year string `uri:"year" binding:"required,yearkey"`
}

// bindMonth binds and validates the :ym path parameter
func (h *BaseHandler) bindMonth(c *gin.Context) (string, bool) {
	var p monthURI
	if err := c.ShouldBindUri(&p); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidPeriod, "Month key must be YYYYMM")
		return "", false
	}
	return p.YM, true
}

// bindYear binds and validates the :year path parameter
func (h *BaseHandler) bindYear(c *gin.Context) (string, bool) {
	var p yearURI
	if err := c.ShouldBindUri(&p); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidPeriod, "Year key must be YYYY")
		return "", false
	}
	return p.Year, true
}

// HandleError converts domain errors to HTTP responses, wrapped errors
// included. Unknown error types become 500s without leaking detail.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	h.InternalError(c, "An unexpected error occurred")
}
