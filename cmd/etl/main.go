package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/accident-data-warehouse/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/accident-data-warehouse/internal/adapter/kafka"
	"github.com/couchcryptid/accident-data-warehouse/internal/config"
	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
	"github.com/couchcryptid/accident-data-warehouse/internal/observability"
	"github.com/couchcryptid/accident-data-warehouse/internal/reconcile"
	"github.com/couchcryptid/accident-data-warehouse/internal/warehouse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	db, err := warehouse.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to warehouse", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := warehouse.Migrate(db); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	staging := warehouse.NewStagingRepository(db, logger)
	dims := warehouse.NewDimensionRepository(db, logger)
	facts := warehouse.NewFactRepository(db, logger)
	audit := warehouse.NewAuditRepository(db, logger)

	// Quality events always go to the log; a Kafka publisher is added when
	// enabled (feature-flagged via KAFKA_BROKERS / KAFKA_QUALITY_ENABLED).
	reporters := observability.MultiReporter{observability.NewLogReporter(logger)}
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaQualityTopic, cfg.KafkaTimeout, logger)
		reporters = append(reporters, publisher)
		logger.Info("kafka quality publishing enabled", "topic", cfg.KafkaQualityTopic)
	} else {
		logger.Info("kafka quality publishing disabled")
	}

	runner := reconcile.New(staging, dims, facts, audit, reporters, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, audit, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run one reconciliation pass over the enabled sources, then keep
	// serving metrics and the run audit until signaled.
	go func() {
		if err := runner.RunAll(ctx, cfg.Sources); err != nil {
			logger.Error("reconciliation failed", "error", err)
			return
		}
		logger.Info("reconciliation complete", "sources", sourceTags(cfg.Sources))
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func sourceTags(sources []domain.Source) []string {
	tags := make([]string, len(sources))
	for i, s := range sources {
		tags[i] = string(s)
	}
	return tags
}
