package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Shortener ShortenerConfig
	Keys      KeysConfig
	Storage   StorageConfig
	Postgres  PostgresConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Clicks    ClicksConfig
	Auth      AuthConfig
	Security  SecurityConfig
	OTel      OTelConfig
}

type AppConfig struct {
	Name     string
	Version  string
	Env      string
	LogLevel string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

type ShortenerConfig struct {
	BaseURL            string
	RedirectStatus     int // 301 or 302
	CustomKeyMaxLength int
	InsertAttempts     int
	ReservedKeys       []string
}

const (
	KeyStrategyRandom   = "random"
	KeyStrategySequence = "sequence"
	KeyStrategySqids    = "sqids"
)

type KeysConfig struct {
	Strategy  string
	Length    int
	MaxLength int

	// SequenceSource picks the counter behind the sequence and sqids
	// strategies: storage (the selected storage backend) or redis.
	SequenceSource string
	SqidsAlphabet  string
	SqidsMinLength int
	ExistsTimeout  time.Duration
}

const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

type StorageConfig struct {
	Backend string
}

type PostgresConfig struct {
	DSN           string
	MaxConns      int32
	MinConns      int32
	RunMigrations bool
}

type MongoDBConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	ClickTopic   string
	GroupID      string
	WriteTimeout time.Duration
}

// ClicksConfig tunes the in-process aggregator used when Kafka is disabled.
type ClicksConfig struct {
	Buffered      bool
	QueueSize     int
	FlushInterval time.Duration
	MaxBatch      int
}

type AuthConfig struct {
	JWTSecret  string
	JWTIssuer  string
	TokenTTL   time.Duration
	BcryptCost int
}

type SecurityConfig struct {
	AdminAPIKeys          []string
	CreateRateLimit       int
	CreateRateLimitWindow time.Duration
}

type OTelConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds and validates a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:     GetEnv("APP_NAME", "shortlinks"),
			Version:  GetEnv("APP_VERSION", "0.1.0"),
			Env:      GetEnv("APP_ENV", "development"),
			LogLevel: GetEnv("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:            GetEnv("APP_PORT", "8080"),
			Host:            GetEnv("APP_HOST", "localhost"),
			ReadTimeout:     GetEnvDuration("HTTP_READ_TIMEOUT", 5*time.Second),
			WriteTimeout:    GetEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: GetEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSOrigins:     SplitCSV(GetEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		Shortener: ShortenerConfig{
			BaseURL:            GetEnv("SHORTENER_BASE_URL", "http://localhost:8080"),
			RedirectStatus:     GetEnvInt("REDIRECT_STATUS", 302),
			CustomKeyMaxLength: GetEnvInt("CUSTOM_KEY_MAX_LENGTH", 10),
			InsertAttempts:     GetEnvInt("KEY_INSERT_ATTEMPTS", 10),
			ReservedKeys:       SplitCSV(GetEnv("RESERVED_KEYS", "")),
		},
		Keys: KeysConfig{
			Strategy:       strings.ToLower(GetEnv("KEY_STRATEGY", KeyStrategyRandom)),
			Length:         GetEnvInt("KEY_LENGTH", 6),
			MaxLength:      GetEnvInt("KEY_MAX_LENGTH", 16),
			SequenceSource: strings.ToLower(GetEnv("KEY_SEQUENCE_SOURCE", "storage")),
			SqidsAlphabet:  GetEnv("SQIDS_ALPHABET", ""),
			SqidsMinLength: GetEnvInt("SQIDS_MIN_LENGTH", 6),
			ExistsTimeout:  GetEnvDuration("KEY_EXISTS_TIMEOUT", 500*time.Millisecond),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(GetEnv("STORAGE_BACKEND", BackendPostgres)),
		},
		Postgres: PostgresConfig{
			DSN:           GetEnv("DATABASE_URL", DefaultPostgresDSN()),
			MaxConns:      int32(GetEnvInt("DB_MAX_CONNS", 20)),
			MinConns:      int32(GetEnvInt("DB_MIN_CONNS", 2)),
			RunMigrations: GetEnvBool("DB_RUN_MIGRATIONS", true),
		},
		MongoDB: MongoDBConfig{
			URI:      GetEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: GetEnv("MONGODB_DATABASE", "shortlinks"),
		},
		Redis: RedisConfig{
			Enabled:  GetEnvBool("REDIS_ENABLED", false),
			Addr:     GetEnv("REDIS_ADDR", "localhost:6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled:      GetEnvBool("KAFKA_ENABLED", false),
			Brokers:      SplitCSV(GetEnv("KAFKA_BROKERS", "localhost:9092")),
			ClickTopic:   GetEnv("KAFKA_CLICK_TOPIC", "shortlinks.clicks"),
			GroupID:      GetEnv("KAFKA_GROUP_ID", "shortlinks-click-consumer"),
			WriteTimeout: GetEnvDuration("KAFKA_WRITE_TIMEOUT", 2*time.Second),
		},
		Clicks: ClicksConfig{
			Buffered:      GetEnvBool("CLICKS_BUFFERED", true),
			QueueSize:     GetEnvInt("CLICKS_QUEUE_SIZE", 100_000),
			FlushInterval: GetEnvDuration("CLICKS_FLUSH_INTERVAL", 250*time.Millisecond),
			MaxBatch:      GetEnvInt("CLICKS_MAX_BATCH", 50_000),
		},
		Auth: AuthConfig{
			JWTSecret:  GetEnv("JWT_SECRET", ""),
			JWTIssuer:  GetEnv("JWT_ISSUER", "shortlinks"),
			TokenTTL:   GetEnvDuration("JWT_TTL", 24*time.Hour),
			BcryptCost: GetEnvInt("BCRYPT_COST", 10),
		},
		Security: SecurityConfig{
			AdminAPIKeys:          SplitCSV(GetEnv("ADMIN_API_KEYS", "")),
			CreateRateLimit:       GetEnvInt("CREATE_RATE_LIMIT", 30),
			CreateRateLimitWindow: GetEnvDuration("CREATE_RATE_LIMIT_WINDOW", time.Minute),
		},
		OTel: OTelConfig{
			Enabled:  GetEnvBool("OTEL_ENABLED", false),
			Endpoint: GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		},
	}

	if cfg.Auth.JWTSecret == "" && cfg.App.Env == "development" {
		cfg.Auth.JWTSecret = "dev-secret-change-me"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Shortener.RedirectStatus != 301 && c.Shortener.RedirectStatus != 302 {
		errs = append(errs, fmt.Errorf("REDIRECT_STATUS must be 301 or 302 (got %d)", c.Shortener.RedirectStatus))
	}
	if c.Keys.Length < 1 || c.Keys.Length > c.Keys.MaxLength {
		errs = append(errs, fmt.Errorf("KEY_LENGTH must be between 1 and KEY_MAX_LENGTH (got %d)", c.Keys.Length))
	}
	if c.Keys.MaxLength > 32 {
		errs = append(errs, fmt.Errorf("KEY_MAX_LENGTH must be at most 32 (got %d)", c.Keys.MaxLength))
	}

	switch c.Keys.Strategy {
	case KeyStrategyRandom, KeyStrategySequence, KeyStrategySqids:
	default:
		errs = append(errs, fmt.Errorf("KEY_STRATEGY must be random, sequence or sqids (got %q)", c.Keys.Strategy))
	}
	switch c.Keys.SequenceSource {
	case "storage":
	case "redis":
		if !c.Redis.Enabled {
			errs = append(errs, errors.New("KEY_SEQUENCE_SOURCE=redis requires REDIS_ENABLED=true"))
		}
	default:
		errs = append(errs, fmt.Errorf("KEY_SEQUENCE_SOURCE must be storage or redis (got %q)", c.Keys.SequenceSource))
	}

	switch c.Storage.Backend {
	case BackendPostgres, BackendMongo, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be postgres, mongo or memory (got %q)", c.Storage.Backend))
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED=true"))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31 (got %d)", c.Auth.BcryptCost))
	}
	if c.Security.CreateRateLimit < 0 {
		errs = append(errs, fmt.Errorf("CREATE_RATE_LIMIT must not be negative (got %d)", c.Security.CreateRateLimit))
	}

	return errors.Join(errs...)
}
