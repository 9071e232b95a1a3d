package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newPartnerRouter(cfg PartnerConfig) (*gin.Engine, *uuid.UUID) {
	var captured uuid.UUID
	router := gin.New()
	router.Use(PartnerWithConfig(cfg))
	router.GET("/reports", func(c *gin.Context) {
		if id, ok := GetPartnerID(c); ok {
			captured = id
		}
		c.Status(http.StatusOK)
	})
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router, &captured
}

func TestPartnerMiddleware_ValidHeader(t *testing.T) {
	router, captured := newPartnerRouter(DefaultPartnerConfig())
	partnerID := uuid.New()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set(PartnerHeaderKey, partnerID.String())
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, partnerID, *captured)
}

func TestPartnerMiddleware_MissingHeaderRejected(t *testing.T) {
	router, _ := newPartnerRouter(DefaultPartnerConfig())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")
}

func TestPartnerMiddleware_MalformedHeaderRejected(t *testing.T) {
	router, _ := newPartnerRouter(DefaultPartnerConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set(PartnerHeaderKey, "not-a-uuid")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPartnerMiddleware_SkipPaths(t *testing.T) {
	router, _ := newPartnerRouter(DefaultPartnerConfig())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPartnerMiddleware_OptionalWhenNotRequired(t *testing.T) {
	cfg := DefaultPartnerConfig()
	cfg.Required = false
	router, captured := newPartnerRouter(cfg)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uuid.Nil, *captured)
}
