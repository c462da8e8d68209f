// Package http wires handlers and middleware into the REST entry point.
//
// Pattern: Composition Root. Handlers receive only the use cases they need;
// middleware is applied globally in a fixed order.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Haleralex/coinledger/internal/adapters/http/common"
	"github.com/Haleralex/coinledger/internal/adapters/http/handlers"
	"github.com/Haleralex/coinledger/internal/adapters/http/middleware"
)

// RouterConfig carries everything the router needs beyond the use cases.
type RouterConfig struct {
	Logger      *slog.Logger
	DB          handlers.Pinger
	Version     string
	Environment string
}

// DefaultRouterConfig is the development configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:      slog.Default(),
		Version:     "dev",
		Environment: "development",
	}
}

// UseCases bundles the application services the API exposes.
type UseCases struct {
	Movements      handlers.MovementUseCase
	GetTransaction handlers.GetTransactionUseCase
	GetBalance     handlers.BalanceUseCase
}

// NewRouter builds the configured gin engine.
func NewRouter(config *RouterConfig, useCases *UseCases) *gin.Engine {
	if config == nil {
		config = DefaultRouterConfig()
	}
	if config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupValidator()

	// Global middleware. Recovery first so everything downstream is covered;
	// RequestID before Logging so the log line carries the id.
	router.Use(middleware.Recovery(config.Logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logging(config.Logger))
	router.Use(middleware.Metrics())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	healthHandler := handlers.NewHealthHandler(config.DB, config.Version)
	healthHandler.RegisterRoutes(router)

	v1 := router.Group("/api/v1")
	{
		if useCases != nil {
			txHandler := handlers.NewTransactionHandler(
				useCases.Movements,
				useCases.GetTransaction,
				config.Logger,
			)
			txHandler.RegisterRoutes(v1)

			walletHandler := handlers.NewWalletHandler(useCases.GetBalance, config.Logger)
			walletHandler.RegisterRoutes(v1)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		common.Error(c, http.StatusNotFound, &common.APIError{
			Code:    common.ErrCodeNotFound,
			Message: "Endpoint not found",
			Details: map[string]any{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			},
		})
	})

	return router
}
