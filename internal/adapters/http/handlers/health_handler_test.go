package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

func setupHealthTestRouter(handler *HealthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.RegisterRoutes(router)
	return router
}

func TestHealthHandler_Health(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		handler := NewHealthHandler(&mockPinger{}, "1.0.0")
		router := setupHealthTestRouter(handler)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "healthy", response["status"])
		assert.Equal(t, "1.0.0", response["version"])
	})

	t.Run("DatabaseDown", func(t *testing.T) {
		handler := NewHealthHandler(&mockPinger{err: errors.New("connection refused")}, "1.0.0")
		router := setupHealthTestRouter(handler)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var response map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "unhealthy", response["status"])
	})
}

func TestHealthHandler_Ready(t *testing.T) {
	t.Run("Ready", func(t *testing.T) {
		handler := NewHealthHandler(&mockPinger{}, "1.0.0")
		router := setupHealthTestRouter(handler)

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("NotReady", func(t *testing.T) {
		handler := NewHealthHandler(&mockPinger{err: errors.New("pool exhausted")}, "1.0.0")
		router := setupHealthTestRouter(handler)

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestHealthHandler_Live(t *testing.T) {
	handler := NewHealthHandler(nil, "1.0.0")
	router := setupHealthTestRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
