package middleware

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
)

// RequestID reuses an incoming X-Request-ID or generates a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// AccessLog writes one slog line per request.
func AccessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		logger.LogAttrs(c.Request.Context(), level, "[http] request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.String("request_id", c.GetString(RequestIDKey)),
			slog.String("client_ip", c.ClientIP()),
			slog.Duration("took", time.Since(start).Truncate(time.Microsecond)),
		)
	}
}

// Metrics counts requests and observes latency per route template.
func Metrics(set *metrics.Set) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		set.GetOrCreateCounter(fmt.Sprintf(`devicereg_http_requests_total{method=%q,path=%q,code="%d"}`,
			c.Request.Method, route, c.Writer.Status())).Inc()
		set.GetOrCreateHistogram(fmt.Sprintf(`devicereg_http_request_duration_seconds{path=%q}`, route)).
			UpdateDuration(start)
	}
}
