package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/IgorGrieder/shortlinks/internal/config"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/db"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/logger"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/telemetry"
	"github.com/IgorGrieder/shortlinks/internal/messaging/kafka"
	"github.com/IgorGrieder/shortlinks/internal/processing/clicks"
	mongoStorage "github.com/IgorGrieder/shortlinks/internal/storage/mongo"
	postgresStorage "github.com/IgorGrieder/shortlinks/internal/storage/postgres"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.App.Env, cfg.App.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("click consumer failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service := cfg.App.Name + "-click-consumer"
	shutdownTracer, err := telemetry.Init(ctx, telemetry.Options{
		Enabled:        cfg.OTel.Enabled,
		Endpoint:       cfg.OTel.Endpoint,
		ServiceName:    service,
		ServiceVersion: cfg.App.Version,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", zap.Error(err))
		shutdownTracer = func(context.Context) error { return nil }
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("failed to shutdown tracer", zap.Error(err))
		}
	}()

	writer, closeStorage, err := initStatsWriter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.ClickTopic,
		GroupID: cfg.Kafka.GroupID,
		MaxWait: cfg.Clicks.FlushInterval,
	})
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Warn("failed to close kafka reader", zap.Error(err))
		}
	}()

	consumer := kafka.NewClickConsumer(reader, writer, kafka.ConsumerOptions{
		BatchSize: cfg.Clicks.MaxBatch,
		BatchWait: cfg.Clicks.FlushInterval,
	})

	logger.Info("click consumer started",
		zap.String("service", service),
		zap.String("storage", cfg.Storage.Backend),
		zap.Strings("kafka_brokers", cfg.Kafka.Brokers),
		zap.String("kafka_topic", cfg.Kafka.ClickTopic),
		zap.String("kafka_group", cfg.Kafka.GroupID),
	)

	if err := consumer.Run(ctx); err != nil {
		return err
	}
	logger.Info("click consumer stopped")
	return nil
}

// initStatsWriter opens only the daily stats side of the configured backend.
func initStatsWriter(ctx context.Context, cfg *config.Config) (clicks.BatchWriter, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pgConn, err := db.ConnectPostgres(ctx, db.PostgresOptions{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		repo, err := postgresStorage.NewClickStatsRepository(pgConn)
		if err != nil {
			pgConn.Close()
			return nil, nil, err
		}
		return repo, pgConn.Close, nil

	case config.BackendMongo:
		mongoConn, err := db.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		repo, err := mongoStorage.NewClickStatsRepository(mongoConn)
		if err != nil {
			_ = mongoConn.Disconnect()
			return nil, nil, err
		}
		return repo, func() { _ = mongoConn.Disconnect() }, nil

	default:
		return nil, nil, errors.New("click consumer needs a shared storage backend (postgres or mongo)")
	}
}
