package routes

import (
	"asset-service/internal/config"
	"asset-service/internal/handlers"
	"asset-service/internal/middleware"
	"asset-service/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires every endpoint of the application.
func SetupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	inventoryHandler *handlers.InventoryHandler,
	transferHandler *handlers.TransferHandler,
	purchaseHandler *handlers.PurchaseHandler,
	expenditureHandler *handlers.ExpenditureHandler,
	assignmentHandler *handlers.AssignmentHandler,
	monitoringHandler *handlers.MonitoringHandler,
	healthChecker *middleware.HealthChecker,
) {
	auth := middleware.Auth(cfg.JWT.Secret)
	commandRoles := middleware.RequireRole(models.RoleAdmin, models.RoleBaseCommander)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	api := router.Group("/api", auth)
	{
		inventory := api.Group("/inventory")
		{
			inventory.GET("", inventoryHandler.List)
			inventory.GET("/:id", inventoryHandler.GetByID)
			inventory.GET("/base/:baseId", inventoryHandler.GetBaseInventory)
			inventory.POST("", commandRoles, inventoryHandler.CreateRow)
		}

		movements := api.Group("/movements")
		{
			movements.GET("", inventoryHandler.ListMovements)
		}

		assets := api.Group("/assets")
		{
			assets.GET("/types", inventoryHandler.ListAssetTypes)
		}

		transfers := api.Group("/transfers")
		{
			transfers.GET("", transferHandler.List)
			transfers.GET("/:id", transferHandler.GetByID)
			transfers.POST("", commandRoles, transferHandler.Create)
			transfers.POST("/:id/approve", adminOnly, transferHandler.Approve)
			transfers.POST("/:id/reject", adminOnly, transferHandler.Reject)
			transfers.DELETE("/:id", commandRoles, transferHandler.Delete)
		}

		purchases := api.Group("/purchases")
		{
			purchases.GET("", purchaseHandler.List)
			purchases.GET("/:id", purchaseHandler.GetByID)
			purchases.POST("", purchaseHandler.Create)
			purchases.POST("/:id/approve", adminOnly, purchaseHandler.Approve)
			purchases.POST("/:id/cancel", commandRoles, purchaseHandler.Cancel)
		}

		expenditures := api.Group("/expenditures")
		{
			expenditures.GET("", expenditureHandler.List)
			expenditures.GET("/:id", expenditureHandler.GetByID)
			expenditures.POST("", expenditureHandler.Create)
			expenditures.PUT("/:id", expenditureHandler.Update)
			expenditures.DELETE("/:id", adminOnly, expenditureHandler.Delete)
		}

		assignments := api.Group("/assignments")
		{
			assignments.GET("", assignmentHandler.List)
			assignments.GET("/:id", assignmentHandler.GetByID)
			assignments.POST("", commandRoles, assignmentHandler.Create)
			assignments.POST("/:id/return", assignmentHandler.Return)
			assignments.POST("/:id/status", commandRoles, assignmentHandler.UpdateStatus)
		}

		monitoring := api.Group("/monitoring")
		{
			monitoring.GET("/metrics", monitoringHandler.GetMetrics)
			monitoring.GET("/metrics/summary", monitoringHandler.GetMetricsSummary)
			monitoring.GET("/ws", monitoringHandler.WebSocketMetrics)
		}
	}

	router.GET("/health", healthChecker.HealthCheck)
	router.GET("/health/monitoring", monitoringHandler.HealthCheck)

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Asset Service API",
			"version": "1.0.0",
			"status":  "running",
			"endpoints": gin.H{
				"health":       "/health",
				"inventory":    "/api/inventory",
				"transfers":    "/api/transfers",
				"purchases":    "/api/purchases",
				"expenditures": "/api/expenditures",
				"assignments":  "/api/assignments",
				"monitoring":   "/api/monitoring/metrics",
			},
		})
	})
}
