package main

import (
	"time"

	"asset-service/internal/cache"
	"asset-service/internal/config"
	"asset-service/internal/database"
	"asset-service/internal/handlers"
	"asset-service/internal/middleware"
	"asset-service/internal/repository"
	"asset-service/internal/routes"
	"asset-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger := buildLogger(cfg.Logging.Level)
	defer logger.Sync()

	gin.SetMode(cfg.Server.GinMode)

	postgresDB, err := database.NewPostgresDB(
		cfg.Database.URL,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer postgresDB.Close()

	redisDB, err := database.NewRedisDB(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisDB.Close()

	inventoryRepo, err := repository.NewInventoryRepository(postgresDB.DB)
	if err != nil {
		logger.Fatal("Failed to prepare inventory repository", zap.Error(err))
	}
	transferRepo, err := repository.NewTransferRepository(postgresDB.DB)
	if err != nil {
		logger.Fatal("Failed to prepare transfer repository", zap.Error(err))
	}
	purchaseRepo, err := repository.NewPurchaseRepository(postgresDB.DB)
	if err != nil {
		logger.Fatal("Failed to prepare purchase repository", zap.Error(err))
	}
	expenditureRepo, err := repository.NewExpenditureRepository(postgresDB.DB)
	if err != nil {
		logger.Fatal("Failed to prepare expenditure repository", zap.Error(err))
	}
	assignmentRepo, err := repository.NewAssignmentRepository(postgresDB.DB)
	if err != nil {
		logger.Fatal("Failed to prepare assignment repository", zap.Error(err))
	}
	assetTypeRepo, err := repository.NewAssetTypeRepository(postgresDB.DB)
	if err != nil {
		logger.Fatal("Failed to prepare asset type repository", zap.Error(err))
	}

	txRunner := repository.NewTxRunner(postgresDB.DB)
	invCache := cache.NewInventoryCache(redisDB.Client, 500, 5*time.Minute, logger)

	inventoryService := services.NewInventoryService(inventoryRepo, assetTypeRepo, txRunner, invCache, logger)
	transferService := services.NewTransferService(transferRepo, inventoryRepo, assetTypeRepo, txRunner, invCache, logger)
	purchaseService := services.NewPurchaseService(purchaseRepo, assetTypeRepo, txRunner, invCache, logger)
	expenditureService := services.NewExpenditureService(expenditureRepo, assetTypeRepo, txRunner, invCache, logger)
	assignmentService := services.NewAssignmentService(assignmentRepo, assetTypeRepo, txRunner, invCache, logger)
	monitoringService := services.NewMonitoringService(logger, cfg, redisDB.Client, postgresDB.DB, invCache)

	inventoryHandler := handlers.NewInventoryHandler(inventoryService, logger)
	transferHandler := handlers.NewTransferHandler(transferService, logger)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService, logger)
	expenditureHandler := handlers.NewExpenditureHandler(expenditureService, logger)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService, logger)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService, logger)
	healthChecker := middleware.NewHealthChecker(postgresDB, redisDB, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORS(cfg.Server.CORSOrigin))
	router.Use(monitoringHandler.RecordRequestMiddleware())

	routes.SetupRoutes(
		router,
		cfg,
		inventoryHandler,
		transferHandler,
		purchaseHandler,
		expenditureHandler,
		assignmentHandler,
		monitoringHandler,
		healthChecker,
	)

	logger.Info("Server starting",
		zap.String("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.GinMode))

	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func buildLogger(level string) *zap.Logger {
	zapLevel := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		zapLevel = parsed
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	return logger
}
