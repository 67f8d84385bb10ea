package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/storm-data-risk/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-data-risk/internal/adapter/kafka"
	"github.com/couchcryptid/storm-data-risk/internal/adapter/lightbox"
	"github.com/couchcryptid/storm-data-risk/internal/config"
	"github.com/couchcryptid/storm-data-risk/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if cfg.LightboxAPIKey == "" {
		logger.Warn("LIGHTBOX_API_KEY is not set; /readyz will report not ready")
	}
	client := lightbox.NewClient(cfg, logger, metrics)
	service := lightbox.NewCachedService(client, cfg.RiskCacheSize, metrics)
	logger.Info("lightbox client configured",
		"base_url", cfg.LightboxBaseURL,
		"buffer_meters", cfg.LightboxBufferMeters,
		"cache_size", cfg.RiskCacheSize,
		"timeout", cfg.LightboxTimeout,
	)

	// Lookup events are feature-flagged via KAFKA_ENABLED.
	var publisher httpadapter.LookupPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("lookup events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("lookup events disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, service, service, publisher, logger, metrics)
	srv.SetPublishTimeout(cfg.KafkaPublishTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
