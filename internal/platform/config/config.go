package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	id "idledger/pkg/domain"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Admin       id.Address
	Environment string

	Auth     AuthConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	RabbitMQ RabbitMQConfig
	Outbox   OutboxConfig
	Tracing  TracingConfig

	LedgerTxTimeout time.Duration
}

// AuthConfig configures bearer token validation.
type AuthConfig struct {
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
}

type LogConfig struct {
	Level  string
	Format string
}

// DatabaseConfig selects the Postgres backend. Empty URL means in-memory.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig selects the registration cache. Empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type OutboxConfig struct {
	Interval  time.Duration
	BatchSize int
}

// TracingConfig selects where spans go. Exporter is one of none, stdout or
// otlp; it defaults to otlp when an endpoint is configured and none otherwise.
type TracingConfig struct {
	SampleRatio  float64
	Exporter     string
	OTLPEndpoint string
}

const (
	defaultAddr          = ":8080"
	defaultJWTSigningKey = "dev-secret-key-change-in-production"
	defaultJWTIssuer     = "idledger"
	defaultJWTAudience   = "idledger-api"
)

// FromEnv builds a Server config from environment variables so main stays
// lean. A .env file in the working directory is loaded first when present;
// real environment variables win over it.
func FromEnv() (Server, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Server{}, fmt.Errorf("load .env: %w", err)
	}

	var errs []error
	cfg := Server{
		Addr:        getEnv("IDLEDGER_ADDR", defaultAddr),
		Environment: getEnv("ENVIRONMENT", "development"),
		Auth: AuthConfig{
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", defaultJWTSigningKey),
			JWTIssuer:     getEnv("JWT_ISSUER", defaultJWTIssuer),
			JWTAudience:   getEnv("JWT_AUDIENCE", defaultJWTAudience),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: getInt("DATABASE_MAX_OPEN_CONNS", 10, &errs),
			MaxIdleConns: getInt("DATABASE_MAX_IDLE_CONNS", 5, &errs),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2, &errs),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second, &errs),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
			CacheTTL:     getDuration("REDIS_CACHE_TTL", 0, &errs),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "idledger.events"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      os.Getenv("RABBITMQ_URL"),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "idledger.events"),
		},
		Outbox: OutboxConfig{
			Interval:  getDuration("OUTBOX_INTERVAL", 2*time.Second, &errs),
			BatchSize: getInt("OUTBOX_BATCH", 100, &errs),
		},
		Tracing: TracingConfig{
			SampleRatio:  getFloat("TRACE_SAMPLE_RATIO", 1, &errs),
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
		LedgerTxTimeout: getDuration("LEDGER_TX_TIMEOUT", 5*time.Second, &errs),
	}
	cfg.Tracing.Exporter = getEnv("TRACE_EXPORTER", defaultTraceExporter(cfg.Tracing.OTLPEndpoint))

	adminRaw := os.Getenv("IDLEDGER_ADMIN_ADDRESS")
	if adminRaw == "" {
		errs = append(errs, errors.New("IDLEDGER_ADMIN_ADDRESS is required"))
	} else if admin, err := id.ParseAddress(adminRaw); err != nil {
		errs = append(errs, fmt.Errorf("IDLEDGER_ADMIN_ADDRESS: %w", err))
	} else {
		cfg.Admin = admin
	}

	if err := errors.Join(errs...); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate reports configuration that cannot work.
func (c Server) Validate() error {
	var errs []error
	if c.Admin.IsZero() {
		errs = append(errs, errors.New("administrator address must be non-null"))
	}
	if c.Auth.JWTSigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must not be empty"))
	}
	if c.IsProduction() && c.Auth.JWTSigningKey == defaultJWTSigningKey {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Log.Format))
	}
	if c.Outbox.Interval < time.Second {
		errs = append(errs, errors.New("OUTBOX_INTERVAL must be at least 1s"))
	}
	if c.Outbox.BatchSize <= 0 {
		errs = append(errs, errors.New("OUTBOX_BATCH must be positive"))
	}
	if c.LedgerTxTimeout <= 0 {
		errs = append(errs, errors.New("LEDGER_TX_TIMEOUT must be positive"))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, errors.New("TRACE_SAMPLE_RATIO must be within [0, 1]"))
	}
	switch c.Tracing.Exporter {
	case "none", "stdout":
	case "otlp":
		if c.Tracing.OTLPEndpoint == "" {
			errs = append(errs, errors.New("OTEL_EXPORTER_OTLP_ENDPOINT is required when TRACE_EXPORTER is otlp"))
		}
	default:
		errs = append(errs, fmt.Errorf("TRACE_EXPORTER must be none, stdout or otlp, got %q", c.Tracing.Exporter))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}
	return errors.Join(errs...)
}

func defaultTraceExporter(endpoint string) string {
	if endpoint != "" {
		return "otlp"
	}
	return "none"
}

func (c Server) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64, errs *[]error) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
