package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	resetColor   = "\033[0m"
	redColor     = "\033[31m"
	greenColor   = "\033[32m"
	yellowColor  = "\033[33m"
	blueColor    = "\033[34m"
	magentaColor = "\033[35m"
	cyanColor    = "\033[36m"
	whiteColor   = "\033[37m"
)

// LoggerMiddleware writes one colored access line per request and mirrors it
// into the structured log.
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		statusColor := getStatusColor(param.StatusCode)
		methodColor := getMethodColor(param.Method)

		latency := param.Latency.Milliseconds()

		logLine := fmt.Sprintf(
			"%s %s %s %s %s %s %s\n",
			param.TimeStamp.Format("2006/01/02 - 15:04:05"),
			methodColor+param.Method+resetColor,
			param.Path,
			param.Request.Proto,
			statusColor+fmt.Sprintf("%d", param.StatusCode)+resetColor,
			fmt.Sprintf("%dms", latency),
			param.ClientIP,
		)

		logger.Info("HTTP Request",
			zap.String("method", param.Method),
			zap.String("path", param.Path),
			zap.String("client_ip", param.ClientIP),
			zap.String("user_agent", param.Request.UserAgent()),
			zap.Int("status_code", param.StatusCode),
			zap.Duration("latency", param.Latency),
			zap.Time("timestamp", param.TimeStamp),
		)

		return logLine
	})
}

// RequestIDMiddleware tags every request with an ID for tracing. An
// incoming X-Request-ID is honored, otherwise a fresh UUID is issued.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

func getStatusColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return greenColor
	case statusCode >= 300 && statusCode < 400:
		return cyanColor
	case statusCode >= 400 && statusCode < 500:
		return yellowColor
	case statusCode >= 500:
		return redColor
	default:
		return whiteColor
	}
}

func getMethodColor(method string) string {
	switch method {
	case "GET":
		return greenColor
	case "POST":
		return blueColor
	case "PUT":
		return yellowColor
	case "DELETE":
		return redColor
	case "PATCH":
		return magentaColor
	default:
		return whiteColor
	}
}
