package main

import (
	"context"
	"fmt"

	"github.com/IgorGrieder/shortlinks/internal/config"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/db"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/logger"
	"github.com/IgorGrieder/shortlinks/internal/processing/clicks"
	"github.com/IgorGrieder/shortlinks/internal/processing/keys"
	"github.com/IgorGrieder/shortlinks/internal/processing/links"
	"github.com/IgorGrieder/shortlinks/internal/processing/users"
	"github.com/IgorGrieder/shortlinks/internal/storage/memory"
	mongoStorage "github.com/IgorGrieder/shortlinks/internal/storage/mongo"
	postgresStorage "github.com/IgorGrieder/shortlinks/internal/storage/postgres"
	httpTransport "github.com/IgorGrieder/shortlinks/internal/transport/http"
	"go.uber.org/zap"
)

// statsStore is what every backend's stats repository offers: single-click
// writes for the service and batch writes for the aggregator.
type statsStore interface {
	links.StatsRepository
	clicks.BatchWriter
}

type storage struct {
	links    links.LinkRepository
	stats    statsStore
	users    users.UserRepository
	sequence keys.SequenceSource
	checks   map[string]httpTransport.HealthCheck
	close    func()
}

func initStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		return initPostgres(ctx, cfg)
	case config.BackendMongo:
		return initMongo(ctx, cfg)
	case config.BackendMemory:
		logger.Warn("Using in-memory storage, data is lost on restart")
		return &storage{
			links:    memory.NewLinksRepository(),
			stats:    memory.NewClickStatsRepository(),
			users:    memory.NewUsersRepository(),
			sequence: memory.NewKeySequence(keys.SequenceStart),
			checks:   map[string]httpTransport.HealthCheck{},
			close:    func() {},
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func initPostgres(ctx context.Context, cfg *config.Config) (*storage, error) {
	pgConn, err := db.ConnectPostgres(ctx, db.PostgresOptions{
		DSN:      cfg.Postgres.DSN,
		MaxConns: cfg.Postgres.MaxConns,
		MinConns: cfg.Postgres.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	fail := func(what string, err error) (*storage, error) {
		pgConn.Close()
		return nil, fmt.Errorf("%s: %w", what, err)
	}

	if cfg.Postgres.RunMigrations {
		applied, err := postgresStorage.Migrate(ctx, pgConn)
		if err != nil {
			return fail("run migrations", err)
		}
		if len(applied) > 0 {
			logger.Info("Applied migrations", zap.Strings("migrations", applied))
		}
	}

	linkRepo, err := postgresStorage.NewLinksRepository(pgConn)
	if err != nil {
		return fail("init postgres links repository", err)
	}
	statsRepo, err := postgresStorage.NewClickStatsRepository(pgConn)
	if err != nil {
		return fail("init postgres stats repository", err)
	}
	userRepo, err := postgresStorage.NewUsersRepository(pgConn)
	if err != nil {
		return fail("init postgres users repository", err)
	}
	seq, err := postgresStorage.NewKeySequence(pgConn)
	if err != nil {
		return fail("init postgres key sequence", err)
	}

	logger.Info("Storage backend selected", zap.String("backend", config.BackendPostgres))
	return &storage{
		links:    linkRepo,
		stats:    statsRepo,
		users:    userRepo,
		sequence: seq,
		checks:   map[string]httpTransport.HealthCheck{"postgres": pgConn.Ping},
		close:    pgConn.Close,
	}, nil
}

func initMongo(ctx context.Context, cfg *config.Config) (*storage, error) {
	mongoConn, err := db.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	fail := func(what string, err error) (*storage, error) {
		_ = mongoConn.Disconnect()
		return nil, fmt.Errorf("%s: %w", what, err)
	}

	linkRepo, err := mongoStorage.NewLinksRepository(mongoConn)
	if err != nil {
		return fail("init mongo links repository", err)
	}
	statsRepo, err := mongoStorage.NewClickStatsRepository(mongoConn)
	if err != nil {
		return fail("init mongo stats repository", err)
	}
	userRepo, err := mongoStorage.NewUsersRepository(mongoConn)
	if err != nil {
		return fail("init mongo users repository", err)
	}

	logger.Info("Storage backend selected", zap.String("backend", config.BackendMongo))
	return &storage{
		links:    linkRepo,
		stats:    statsRepo,
		users:    userRepo,
		sequence: mongoStorage.NewKeySequence(mongoConn),
		checks:   map[string]httpTransport.HealthCheck{"mongodb": mongoConn.Ping},
		close:    func() { _ = mongoConn.Disconnect() },
	}, nil
}
