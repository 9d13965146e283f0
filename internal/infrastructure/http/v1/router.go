// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"storeroom/internal/domain/catalogs/masteritem"
	"storeroom/internal/domain/catalogs/store"
	"storeroom/internal/domain/catalogs/storeitem"
	"storeroom/internal/domain/ledger"
	"storeroom/internal/domain/requisition"
	"storeroom/internal/domain/transfer"
	"storeroom/internal/infrastructure/http/v1/handlers"
	"storeroom/internal/infrastructure/http/v1/middleware"
	"storeroom/internal/infrastructure/storage/postgres"
	"storeroom/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	MasterItems  *masteritem.Service
	Stores       *store.Service
	StoreItems   *storeitem.Service
	Ledger       *ledger.Service
	Requisitions *requisition.Service
	Transfers    *transfer.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Actor())

	// Health endpoints (no actor required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()

	masterItemHandler := handlers.NewMasterItemHandler(base, cfg.MasterItems)
	storeHandler := handlers.NewStoreHandler(base, cfg.Stores)
	storeItemHandler := handlers.NewStoreItemHandler(base, cfg.StoreItems)
	stockHandler := handlers.NewStockHandler(base, cfg.Ledger)
	requisitionHandler := handlers.NewRequisitionHandler(base, cfg.Requisitions)
	transferHandler := handlers.NewTransferHandler(base, cfg.Transfers)

	apiV1 := router.Group("/api/v1")
	{
		masterItems := apiV1.Group("/master-items")
		{
			masterItems.POST("", masterItemHandler.Create)
			masterItems.GET("", masterItemHandler.List)
			masterItems.GET("/by-sku/:sku", masterItemHandler.GetBySKU)
			masterItems.GET("/:id", masterItemHandler.Get)
			masterItems.PUT("/:id", masterItemHandler.Update)
			masterItems.DELETE("/:id", masterItemHandler.Deactivate)
		}

		stores := apiV1.Group("/stores")
		{
			stores.POST("", storeHandler.Create)
			stores.GET("", storeHandler.List)
			stores.GET("/:id", storeHandler.Get)
			stores.DELETE("/:id", storeHandler.Deactivate)
			stores.GET("/:id/items", storeItemHandler.ListByStore)
		}

		storeItems := apiV1.Group("/store-items")
		{
			storeItems.POST("", storeItemHandler.Ensure)
			storeItems.GET("/:id", storeItemHandler.Get)
			storeItems.PUT("/:id/overrides", storeItemHandler.SetLocalOverrides)
			storeItems.PUT("/:id/reorder", storeItemHandler.SetReorderParameters)
			storeItems.DELETE("/:id", storeItemHandler.Deactivate)

			// Ledger views and operations scoped to one store item.
			storeItems.GET("/:id/balance", stockHandler.GetBalance)
			storeItems.GET("/:id/lots", stockHandler.GetLots)
			storeItems.GET("/:id/consume-preview", stockHandler.PreviewConsumption)
			storeItems.POST("/:id/consume", stockHandler.Consume)
			storeItems.POST("/:id/adjust", stockHandler.Adjust)
		}

		apiV1.GET("/movements", stockHandler.ListMovements)
		apiV1.GET("/reports/low-stock", storeItemHandler.ListLowStock)

		requisitions := apiV1.Group("/requisitions")
		{
			requisitions.POST("", requisitionHandler.Create)
			requisitions.GET("", requisitionHandler.List)
			requisitions.GET("/due", requisitionHandler.ListDue)
			requisitions.GET("/:id", requisitionHandler.Get)
			requisitions.POST("/:id/submit", requisitionHandler.Submit)
			requisitions.POST("/:id/receive", requisitionHandler.Receive)
			requisitions.POST("/:id/cancel", requisitionHandler.Cancel)
			requisitions.GET("/:id/order-references", requisitionHandler.OrderReferences)
		}

		transfers := apiV1.Group("/transfers")
		{
			transfers.POST("", transferHandler.Request)
			transfers.GET("", transferHandler.List)
			transfers.GET("/suggest-sources", transferHandler.SuggestSources)
			transfers.GET("/:id", transferHandler.Get)
			transfers.POST("/:id/approve", transferHandler.Approve)
			transfers.POST("/:id/reject", transferHandler.Reject)
			transfers.POST("/:id/execute", transferHandler.Execute)
		}
	}

	return router
}
