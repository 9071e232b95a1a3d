package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vendasys/backend/internal/infrastructure/logger"
	"github.com/vendasys/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// HealthHandler serves the liveness and readiness endpoints
type HealthHandler struct {
	db *persistence.Database
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *persistence.Database) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health reports process liveness
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Ready reports whether the service can serve traffic. The ledger is the
// authoritative store, so a failed database ping means not ready; the
// aggregation cache is rebuildable and does not gate readiness.
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		logger.GetGinLogger(c).Warn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "error",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": "ok",
	})
}
