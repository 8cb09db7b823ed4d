package middleware

import (
	"context"
	"net/http"
	"time"

	"asset-service/internal/database"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HealthChecker struct {
	postgresDB *database.PostgresDB
	redisDB    *database.RedisDB
	logger     *zap.Logger
}

func NewHealthChecker(postgresDB *database.PostgresDB, redisDB *database.RedisDB, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		postgresDB: postgresDB,
		redisDB:    redisDB,
		logger:     logger,
	}
}

func (h *HealthChecker) HealthCheck(c *gin.Context) {
	status := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"services":  make(map[string]interface{}),
	}

	postgresStatus := "healthy"
	if err := h.postgresDB.Ping(); err != nil {
		postgresStatus = "unhealthy"
		status["status"] = "unhealthy"
		h.logger.Error("PostgreSQL health check failed", zap.Error(err))
	}

	postgresStats := h.postgresDB.GetStats()
	status["services"].(map[string]interface{})["postgresql"] = gin.H{
		"status": postgresStatus,
		"stats": gin.H{
			"max_open_connections": postgresStats.MaxOpenConnections,
			"open_connections":     postgresStats.OpenConnections,
			"in_use":               postgresStats.InUse,
			"idle":                 postgresStats.Idle,
		},
	}

	redisStatus := "healthy"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.redisDB.Ping(ctx); err != nil {
		redisStatus = "unhealthy"
		status["status"] = "unhealthy"
		h.logger.Error("Redis health check failed", zap.Error(err))
	}

	redisStats, err := h.redisDB.GetStats(ctx)
	if err != nil {
		h.logger.Error("Failed to get Redis stats", zap.Error(err))
		redisStats = "unavailable"
	}

	status["services"].(map[string]interface{})["redis"] = gin.H{
		"status": redisStatus,
		"stats":  redisStats,
	}

	httpStatus := http.StatusOK
	if status["status"] == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, status)
}
