package handlers

import (
	"context"
	"net/http"
	"time"

	"asset-service/internal/models"
	"asset-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type MonitoringHandler struct {
	monitoringService services.MonitoringService
	logger            *zap.Logger
}

func NewMonitoringHandler(monitoringService services.MonitoringService, logger *zap.Logger) *MonitoringHandler {
	return &MonitoringHandler{
		monitoringService: monitoringService,
		logger:            logger,
	}
}

// GetMetrics returns the full metrics snapshot.
func (h *MonitoringHandler) GetMetrics(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "get_metrics"))

	ctx := c.Request.Context()
	metrics := h.monitoringService.GetMetrics(ctx)

	logger.Info("Metrics snapshot served",
		zap.Int("total_requests", metrics.Requests.TotalRequests),
		zap.Int("total_endpoints", metrics.Requests.Total),
		zap.String("avg_response_time", metrics.Performance.AvgResponseTimeMs))

	c.JSON(http.StatusOK, metrics)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketMetrics streams the metrics snapshot over a WebSocket every 10s.
func (h *MonitoringHandler) WebSocketMetrics(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "websocket_metrics"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	logger.Info("WebSocket connection established")

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics := h.monitoringService.GetMetrics(context.Background())

			if err := conn.WriteJSON(metrics); err != nil {
				logger.Error("Failed to write metrics to WebSocket", zap.Error(err))
				return
			}

			logger.Debug("Metrics pushed over WebSocket",
				zap.Int("total_requests", metrics.Requests.TotalRequests),
				zap.String("timestamp", metrics.Timestamp))

		case <-c.Request.Context().Done():
			logger.Info("WebSocket connection closed")
			return
		}
	}
}

// RecordRequestMiddleware feeds finished requests into the monitoring service.
func (h *MonitoringHandler) RecordRequestMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)

		path := c.Request.URL.Path
		if h.shouldSkipMonitoring(path) {
			return
		}

		h.monitoringService.RecordRequest(models.RequestData{
			Endpoint:   path,
			Method:     c.Request.Method,
			Duration:   duration,
			StatusCode: c.Writer.Status(),
			Timestamp:  time.Now(),
		})
	}
}

// shouldSkipMonitoring excludes the monitoring endpoints themselves.
func (h *MonitoringHandler) shouldSkipMonitoring(path string) bool {
	excludedPaths := []string{
		"/api/monitoring/metrics",
		"/api/monitoring/metrics/summary",
		"/api/monitoring/ws",
		"/health",
		"/",
	}

	for _, excludedPath := range excludedPaths {
		if path == excludedPath {
			return true
		}
	}

	return false
}

// HealthCheck reports liveness plus dependency status.
func (h *MonitoringHandler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	health := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   "1.0",
		"services": gin.H{
			"database": "online",
			"redis":    "online",
			"cache":    "online",
		},
	}

	redisMetrics := h.monitoringService.GetRedisStats(ctx)
	if !redisMetrics.Connected {
		health["services"].(gin.H)["redis"] = "offline"
		health["status"] = "degraded"
	}

	dbMetrics := h.monitoringService.GetDatabaseStats(ctx)
	if dbMetrics.Status != "online" {
		health["services"].(gin.H)["database"] = "offline"
		health["status"] = "degraded"
	}

	c.JSON(http.StatusOK, health)
}

// GetMetricsSummary returns a condensed view of the snapshot.
func (h *MonitoringHandler) GetMetricsSummary(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "get_metrics_summary"))

	ctx := c.Request.Context()
	metrics := h.monitoringService.GetMetrics(ctx)

	summary := gin.H{
		"requests": gin.H{
			"total":         metrics.Requests.TotalRequests,
			"endpoints":     metrics.Requests.Total,
			"errors":        metrics.Requests.ErrorsCount,
			"slow_requests": metrics.Requests.SlowRequestsCount,
		},
		"performance": gin.H{
			"avg_response_time": metrics.Performance.AvgResponseTimeMs,
			"max_response_time": metrics.Performance.MaxResponseTimeMs,
			"min_response_time": metrics.Performance.MinResponseTimeMs,
		},
		"cache": gin.H{
			"hit_rate":   metrics.Cache.HitRatePercentage,
			"total_keys": metrics.Cache.TotalKeys,
			"status":     metrics.Cache.Status,
		},
		"database": gin.H{
			"active_connections": metrics.Database.ActiveConnections,
			"idle_connections":   metrics.Database.IdleConnections,
			"status":             metrics.Database.Status,
		},
		"system": gin.H{
			"memory":   metrics.System.Memory.HeapUsed,
			"uptime":   metrics.System.UptimeHours,
			"platform": metrics.System.Platform,
		},
		"redis": gin.H{
			"connected": metrics.Redis.Connected,
			"keys":      metrics.Redis.Keys,
			"memory":    metrics.Redis.MemoryMB,
			"status":    metrics.Redis.Status,
		},
		"timestamp": metrics.Timestamp,
	}

	logger.Info("Metrics summary served",
		zap.Int("total_requests", metrics.Requests.TotalRequests),
		zap.String("avg_response_time", metrics.Performance.AvgResponseTimeMs))

	c.JSON(http.StatusOK, summary)
}
