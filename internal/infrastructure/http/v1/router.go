// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"clinstock/internal/domain/ledger"
	"clinstock/internal/domain/movement"
	"clinstock/internal/infrastructure/http/v1/handlers"
	"clinstock/internal/infrastructure/http/v1/middleware"
	"clinstock/internal/infrastructure/storage/postgres"
	"clinstock/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	MovementService *movement.Service
	MovementQuery   *movement.Query
	LedgerService   *ledger.Service
	Products        movement.ProductCatalog

	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no actor required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()
	movementHandler := handlers.NewMovementHandler(base, cfg.MovementService, cfg.MovementQuery)
	stockHandler := handlers.NewStockHandler(base, cfg.LedgerService, cfg.Products)

	// API v1
	api := router.Group("/api/v1")
	api.Use(middleware.Actor())
	{
		movements := api.Group("/movements")
		{
			movements.POST("", movementHandler.Create)
			movements.GET("", movementHandler.List)
			movements.GET("/search", movementHandler.Search)
		}

		products := api.Group("/products")
		{
			products.GET("/:productId/movements", movementHandler.ListByProduct)
		}

		stock := api.Group("/stock")
		{
			stock.GET("/locations", stockHandler.Locations)
			stock.GET("/availability/:productId", stockHandler.Availability)
		}
	}

	return router
}
