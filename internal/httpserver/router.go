package httpserver

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.uber.org/zap"

	"opsboard/internal/handler"
	"opsboard/pkg/metrics"
	"opsboard/pkg/mq"
	"opsboard/pkg/otel"
	"opsboard/pkg/trace"
)

func NewRouter(timelineHandler *handler.TimelineHandler, logger *zap.Logger, db *pgxpool.Pool, consumer *mq.Consumer) *gin.Engine {
	r := gin.Default()

	r.Use(otel.GinMiddleware())

	// 添加请求日志中间件
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		ctx, traceID := trace.Ensure(c.Request.Context(), c.GetHeader(trace.HeaderName()))
		c.Request = c.Request.WithContext(ctx)
		c.Header(trace.HeaderName(), traceID)

		c.Next()

		latency := time.Since(start)
		metrics.RecordHTTPRequestDuration(c.Request.Method, path,
			strconv.Itoa(c.Writer.Status()), latency)
		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("trace_id", traceID),
		)
	})

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if db != nil {
			if err := db.Ping(ctx); err != nil {
				c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
				return
			}
		}

		if consumer != nil && !consumer.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/timeline/layout", timelineHandler.GetLayout)
	r.GET("/projects/:id/milestones", timelineHandler.GetProjectMilestones)
	return r
}
