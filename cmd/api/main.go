package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IgorGrieder/shortlinks/internal/config"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/auth"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/logger"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/qrcode"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/telemetry"
	"github.com/IgorGrieder/shortlinks/internal/messaging/kafka"
	"github.com/IgorGrieder/shortlinks/internal/processing/clicks"
	"github.com/IgorGrieder/shortlinks/internal/processing/keys"
	"github.com/IgorGrieder/shortlinks/internal/processing/links"
	"github.com/IgorGrieder/shortlinks/internal/processing/users"
	"github.com/IgorGrieder/shortlinks/internal/storage/memory"
	redisStorage "github.com/IgorGrieder/shortlinks/internal/storage/redis"
	httpTransport "github.com/IgorGrieder/shortlinks/internal/transport/http"
	"github.com/IgorGrieder/shortlinks/internal/transport/http/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.App.Env, cfg.App.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("Application error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("key_strategy", cfg.Keys.Strategy),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.Init(ctx, telemetry.Options{
		Enabled:        cfg.OTel.Enabled,
		Endpoint:       cfg.OTel.Endpoint,
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
	})
	if err != nil {
		logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
		shutdownTracer = func(context.Context) error { return nil }
	} else if cfg.OTel.Enabled {
		logger.Info("OpenTelemetry tracer initialized", zap.String("endpoint", cfg.OTel.Endpoint))
	}

	st, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redisStorage.New(redisStorage.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()
		st.checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	keyGen, err := newKeyGenerator(cfg, st, redisClient)
	if err != nil {
		return err
	}

	clickRecorder, closeClicks := newClickRecorder(cfg, st)

	linkSvc := links.NewService(st.links, st.stats, keyGen, links.Options{
		BaseURL:            cfg.Shortener.BaseURL,
		InsertAttempts:     cfg.Shortener.InsertAttempts,
		CustomKeyMaxLength: cfg.Shortener.CustomKeyMaxLength,
		ReservedKeys:       reservedKeys(cfg),
		Clicks:             clickRecorder,
		QR:                 qrcode.NewRenderer(),
		Owners:             st.users,
	})

	tokens, err := auth.NewHS256Service(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("init token service: %w", err)
	}
	userSvc := users.NewService(st.users, tokens, cfg.Auth.BcryptCost)

	var rateCounter middleware.Counter
	if redisClient != nil {
		rateCounter = redisStorage.NewFixedWindowLimiter(redisClient, "rl:create", cfg.Security.CreateRateLimitWindow)
	} else {
		rateCounter = memory.NewFixedWindowLimiter(cfg.Security.CreateRateLimitWindow)
	}

	router := httpTransport.NewRouter(cfg, httpTransport.Dependencies{
		Links:        linkSvc,
		Users:        userSvc,
		RateCounter:  rateCounter,
		HealthChecks: st.checks,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("address", fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)),
		)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	// Redirects may still hand clicks to the recorder until the server stops.
	if err := closeClicks(shutdownCtx); err != nil {
		logger.Error("Click recorder shutdown error", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Warn("Failed to shutdown tracer", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func reservedKeys(cfg *config.Config) []string {
	if len(cfg.Shortener.ReservedKeys) == 0 {
		return links.DefaultReservedKeys
	}
	return append(append([]string{}, links.DefaultReservedKeys...), cfg.Shortener.ReservedKeys...)
}

func newKeyGenerator(cfg *config.Config, st *storage, redisClient *redis.Client) (links.KeyGenerator, error) {
	if cfg.Keys.Strategy == config.KeyStrategyRandom {
		timeout := cfg.Keys.ExistsTimeout
		checker := keys.ExistenceCheckerFunc(func(ctx context.Context, key string) (bool, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return st.links.ExistsByKey(ctx, key)
		})
		return keys.NewGenerator(checker, keys.Options{
			Length:    cfg.Keys.Length,
			MaxLength: cfg.Keys.MaxLength,
		}), nil
	}

	source := st.sequence
	if cfg.Keys.SequenceSource == "redis" {
		source = redisStorage.NewKeySequence(redisClient, "shortlinks:key_seq", keys.SequenceStart)
	}

	var encoder keys.NumberEncoder = keys.Base62Encoder{}
	if cfg.Keys.Strategy == config.KeyStrategySqids {
		sq, err := keys.NewSqidsEncoder(cfg.Keys.SqidsAlphabet, cfg.Keys.SqidsMinLength)
		if err != nil {
			return nil, fmt.Errorf("init sqids encoder: %w", err)
		}
		encoder = sq
	}
	return keys.NewSequenceGenerator(source, encoder), nil
}

// newClickRecorder picks where redirect clicks go: Kafka for the click
// consumer, the in-process aggregator, or (nil) straight to the stats table.
func newClickRecorder(cfg *config.Config, st *storage) (links.ClickRecorder, func(context.Context) error) {
	switch {
	case cfg.Kafka.Enabled:
		topic := cfg.Kafka.ClickTopic
		publisher := kafka.NewClickPublisher(kafka.NewWriter(cfg.Kafka.Brokers, topic), topic, cfg.Kafka.WriteTimeout)
		logger.Info("Publishing clicks to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", topic))
		return publisher, func(context.Context) error { return publisher.Close() }

	case cfg.Clicks.Buffered:
		agg := clicks.NewAggregator(st.stats, clicks.Options{
			QueueSize:      cfg.Clicks.QueueSize,
			FlushInterval:  cfg.Clicks.FlushInterval,
			MaxBatchEvents: cfg.Clicks.MaxBatch,
		})
		return agg, agg.Shutdown

	default:
		return nil, func(context.Context) error { return nil }
	}
}
