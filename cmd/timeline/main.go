package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"opsboard/internal/config"
	"opsboard/internal/datasource"
	"opsboard/internal/handler"
	"opsboard/internal/httpserver"
	"opsboard/internal/mqhandler"
	"opsboard/internal/repository"
	"opsboard/internal/timeline"
	"opsboard/pkg/db"
	"opsboard/pkg/logger"
	"opsboard/pkg/mq"
	"opsboard/pkg/otel"
	pkgredis "opsboard/pkg/redis"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting timeline-service...",
		zap.String("db_host", cfg.DB.Host),
		zap.String("mq_url", cfg.MQ.URL),
		zap.String("upstream", cfg.Upstream.BaseURL),
	)

	// Tracing
	otelShutdown, err := otel.Init(otel.Config{
		ServiceName:    "timeline-service",
		ServiceVersion: "1.0.0",
		Endpoint:       cfg.Otel.Endpoint,
		Enabled:        cfg.Otel.Enabled,
	}, log)
	if err != nil {
		log.Warn("Failed to init tracing, continuing without it", zap.Error(err))
	} else {
		defer otelShutdown()
	}

	// Data source: upstream HTTP API when configured, otherwise the database.
	var src timeline.Source
	var dbConn *pgxpool.Pool
	if cfg.Upstream.BaseURL != "" {
		log.Info("Using upstream HTTP source", zap.String("base_url", cfg.Upstream.BaseURL))
		src = datasource.NewHTTPSource(cfg.Upstream, log)
	} else {
		log.Info("Initializing database connection...")
		conn, err := db.NewConnection(cfg.DB, log)
		if err != nil {
			log.Fatal("Failed to init DB", zap.Error(err))
		}
		defer conn.Close()
		dbConn = conn
		log.Info("Database connection established successfully")

		projectRepo := repository.NewProjectRepository(conn, log)
		taskRepo := repository.NewTaskRepository(conn, log)
		milestoneRepo := repository.NewMilestoneRepository(conn, log)
		src = datasource.NewRepoSource(projectRepo, taskRepo, milestoneRepo)
	}

	// Redis: optional bulk-preload cache. Missing Redis only costs the cache.
	rdb := pkgredis.NewRedisClient(cfg.Redis)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Warn("Redis unreachable, preload cache disabled", zap.Error(err))
		rdb = nil
	}

	bus := timeline.NewFilterBus()

	// MQ publisher for timeline.recomputed
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Warn("Failed to init MQ publisher, recompute events disabled", zap.Error(err))
		publisher = nil
	} else {
		defer publisher.Close()
	}

	filterChangedHandler := mqhandler.NewFilterChangedHandler(bus, publisher, log)

	// MQ Consumer for filter.changed
	log.Info("Initializing MQ consumer for filter.changed...",
		zap.String("queue", "timeline.filter.changed.q"),
		zap.String("routing_key", "filter.changed"),
	)
	consumer, err := mq.NewConsumer(cfg.MQ.URL, "timeline.filter.changed.q", "filter.changed", log)
	if err != nil {
		log.Warn("Failed to init consumer, filter events disabled", zap.Error(err))
		consumer = nil
	} else {
		defer consumer.Close()
		consumer.SetHandler(filterChangedHandler.Handle)
		go func() {
			log.Info("Starting filter.changed consumer...")
			if err := consumer.StartConsuming(); err != nil {
				log.Error("Filter consumer failed", zap.Error(err))
			}
		}()
		log.Info("filter.changed consumer started successfully")
	}

	// HTTP Server
	preloadTTL := time.Duration(cfg.Timeline.PreloadTTLSeconds) * time.Second
	if preloadTTL <= 0 {
		preloadTTL = 5 * time.Minute
	}
	timelineHandler := handler.NewTimelineHandler(src, bus, rdb, preloadTTL, cfg.Timeline.CellWidth, log)
	router := httpserver.NewRouter(timelineHandler, log, dbConn, consumer)

	port := cfg.Server.Port
	if port == "" {
		port = "8087"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("timeline-service is fully initialized and running",
		zap.String("http_port", port),
		zap.String("mq_queue", "timeline.filter.changed.q"),
	)

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down timeline-service gracefully...")

	if consumer != nil {
		log.Info("Stopping MQ consumer...")
		consumer.Stop()
	}

	log.Info("Shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("timeline-service shutdown complete")
}
