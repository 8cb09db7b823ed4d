package models

import "time"

// MonitoringResponse is the full metrics snapshot served by /api/monitoring.
type MonitoringResponse struct {
	Requests    RequestMetrics     `json:"requests"`
	Performance PerformanceMetrics `json:"performance"`
	Cache       CacheMetrics       `json:"cache"`
	Database    DatabaseMetrics    `json:"database"`
	System      SystemMetrics      `json:"system"`
	Redis       RedisMetrics       `json:"redis"`
	Timestamp   string             `json:"timestamp"`
	Version     string             `json:"version"`
}

// RequestMetrics aggregates per-endpoint request counters.
type RequestMetrics struct {
	Total             int                        `json:"total"`
	ByEndpoint        map[string]EndpointMetrics `json:"by_endpoint"`
	SlowRequests      []SlowRequest              `json:"slow_requests"`
	Errors            []RequestError             `json:"errors"`
	TotalRequests     int                        `json:"total_requests"`
	SlowRequestsCount int                        `json:"slow_requests_count"`
	ErrorsCount       int                        `json:"errors_count"`
	TopEndpoints      []TopEndpoint              `json:"top_endpoints"`
}

// EndpointMetrics holds counters for a single method+path pair.
type EndpointMetrics struct {
	Count     int     `json:"count"`
	AvgTime   float64 `json:"avg_time"`
	TotalTime int64   `json:"total_time"`
}

// SlowRequest records a request that exceeded the slow threshold.
type SlowRequest struct {
	Endpoint  string    `json:"endpoint"`
	Duration  int64     `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
}

// RequestError records a request that finished with an error status.
type RequestError struct {
	Endpoint   string    `json:"endpoint"`
	StatusCode int       `json:"status_code"`
	Timestamp  time.Time `json:"timestamp"`
}

// TopEndpoint is a row in the most-hit endpoints ranking.
type TopEndpoint struct {
	Endpoint  string `json:"endpoint"`
	Count     int    `json:"count"`
	AvgTimeMs string `json:"avg_time_ms"`
}

// PerformanceMetrics summarizes response times across all endpoints.
type PerformanceMetrics struct {
	AvgResponseTime   float64 `json:"avg_response_time"`
	MaxResponseTime   int64   `json:"max_response_time"`
	MinResponseTime   int64   `json:"min_response_time"`
	AvgResponseTimeMs string  `json:"avg_response_time_ms"`
	MaxResponseTimeMs string  `json:"max_response_time_ms"`
	MinResponseTimeMs string  `json:"min_response_time_ms"`
}

// CacheMetrics reports the inventory cache hit ratio.
type CacheMetrics struct {
	Connected         bool    `json:"connected"`
	TotalKeys         int     `json:"total_keys"`
	HitRate           float64 `json:"hit_rate"`
	Status            string  `json:"status"`
	HitRatePercentage string  `json:"hit_rate_percentage"`
	TotalHits         int64   `json:"total_hits"`
	TotalMisses       int64   `json:"total_misses"`
	TotalRequests     int64   `json:"total_requests"`
}

// DatabaseMetrics reports connection pool state.
type DatabaseMetrics struct {
	ActiveConnections int    `json:"active_connections"`
	IdleConnections   int    `json:"idle_connections"`
	WaitCount         int64  `json:"wait_count"`
	Status            string `json:"status"`
}

// SystemMetrics reports runtime and process state.
type SystemMetrics struct {
	Uptime      float64       `json:"uptime"`
	UptimeHours string        `json:"uptime_hours"`
	Memory      MemoryMetrics `json:"memory"`
	GoVersion   string        `json:"go_version"`
	Goroutines  int           `json:"goroutines"`
	Platform    string        `json:"platform"`
	Environment string        `json:"environment"`
}

// MemoryMetrics reports heap usage.
type MemoryMetrics struct {
	HeapUsed  string `json:"heap_used"`
	HeapTotal string `json:"heap_total"`
	Sys       string `json:"sys"`
}

// RedisMetrics reports the Redis connection state.
type RedisMetrics struct {
	Connected bool   `json:"connected"`
	Keys      int    `json:"keys"`
	Memory    string `json:"memory"`
	Status    string `json:"status"`
	MemoryMB  string `json:"memory_mb"`
}

// RequestData carries one finished request into the monitoring service.
type RequestData struct {
	Endpoint   string
	Method     string
	Duration   time.Duration
	StatusCode int
	Timestamp  time.Time
	Error      error
}
