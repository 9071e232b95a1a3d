package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vendasys/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Partner context keys
const (
	PartnerIDKey     = "partner_id"
	PartnerHeaderKey = "X-Partner-ID"
)

// PartnerConfig holds configuration for the partner middleware
type PartnerConfig struct {
	// SkipPaths are paths served without a partner context
	SkipPaths []string
	// Required rejects requests without a partner ID when true
	Required bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultPartnerConfig returns the default partner middleware configuration
func DefaultPartnerConfig() PartnerConfig {
	return PartnerConfig{
		SkipPaths: []string{"/health", "/ready"},
		Required:  true,
		Logger:    nil,
	}
}

// Partner extracts the partner ID from the X-Partner-ID header. Every rollup
// row and cache key is partitioned by partner, so reads and writes without
// one are rejected when Required is set.
func Partner() gin.HandlerFunc {
	return PartnerWithConfig(DefaultPartnerConfig())
}

// PartnerWithConfig returns partner middleware with custom configuration
func PartnerWithConfig(cfg PartnerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		raw := c.GetHeader(PartnerHeaderKey)
		if raw == "" {
			if cfg.Required {
				respondPartnerError(c, "Partner ID header is required")
				return
			}
			c.Next()
			return
		}

		partnerID, err := uuid.Parse(raw)
		if err != nil || partnerID == uuid.Nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rejected request with malformed partner ID",
					zap.String("path", path),
					zap.String("partner_header", raw),
				)
			}
			respondPartnerError(c, "Partner ID must be a valid UUID")
			return
		}

		c.Set(PartnerIDKey, partnerID)
		c.Next()
	}
}

// GetPartnerID returns the partner ID set by the partner middleware.
func GetPartnerID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(PartnerIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

func respondPartnerError(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeUnauthorized,
		message,
		c.GetString("request_id"),
	))
}
