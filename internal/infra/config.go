package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"player"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"player"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"players"`

	MigrationsDir string `env:"MIGRATIONS_DIR"`
	AutoMigrate   bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	// Server
	APIPort int `env:"API_PORT" envDefault:"8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Rate limiting per client IP. Disabled when RateLimitRequests is 0.
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"0"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	// Kafka
	KafkaBrokers          string        `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled          bool          `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaTopicPrefix      string        `env:"KAFKA_TOPIC_PREFIX" envDefault:"sps"`
	KafkaBreakerThreshold int           `env:"KAFKA_BREAKER_THRESHOLD" envDefault:"5"`
	KafkaBreakerReset     time.Duration `env:"KAFKA_BREAKER_RESET" envDefault:"30s"`

	// Outbox relay
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"500ms"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`

	// Image storage (S3 or MinIO). Disabled when ImageBucket is empty.
	ImageBucket          string        `env:"IMAGE_BUCKET"`
	ImageEndpoint        string        `env:"IMAGE_ENDPOINT"`
	ImageRegion          string        `env:"IMAGE_REGION" envDefault:"us-east-1"`
	ImageAccessKeyID     string        `env:"IMAGE_ACCESS_KEY_ID"`
	ImageSecretAccessKey string        `env:"IMAGE_SECRET_ACCESS_KEY"`
	ImageURLTTL          time.Duration `env:"IMAGE_URL_TTL" envDefault:"15m"`
}

// LoadConfig loads an optional .env file (from envFile, or ./.env when empty)
// and parses environment variables into a Config struct. Variables already set
// in the environment win over the file.
func LoadConfig(envFile string) (*Config, error) {
	path := envFile
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	} else if envFile != "" {
		return nil, fmt.Errorf("env file %s: %w", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configuration the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("API_PORT must be between 1 and 65535, got %d", c.APIPort))
	}
	if c.DatabaseURL == "" && (c.PGPort <= 0 || c.PGPort > 65535) {
		errs = append(errs, fmt.Errorf("PGPORT must be between 1 and 65535, got %d", c.PGPort))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.LogFormat); f != "json" && f != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	if c.OutboxBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", c.OutboxBatchSize))
	}
	if c.OutboxPollInterval <= 0 {
		errs = append(errs, fmt.Errorf("OUTBOX_POLL_INTERVAL must be positive, got %s", c.OutboxPollInterval))
	}
	if c.RateLimitRequests < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative, got %d", c.RateLimitRequests))
	}
	if c.RateLimitEnabled() && c.RateLimitWindow < time.Second {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s, got %s", c.RateLimitWindow))
	}
	if c.KafkaBreakerThreshold <= 0 {
		errs = append(errs, fmt.Errorf("KAFKA_BREAKER_THRESHOLD must be positive, got %d", c.KafkaBreakerThreshold))
	}
	if c.KafkaBreakerReset <= 0 {
		errs = append(errs, fmt.Errorf("KAFKA_BREAKER_RESET must be positive, got %s", c.KafkaBreakerReset))
	}
	if c.ImagesEnabled() {
		if c.ImageAccessKeyID == "" || c.ImageSecretAccessKey == "" {
			errs = append(errs, errors.New("IMAGE_ACCESS_KEY_ID and IMAGE_SECRET_ACCESS_KEY are required when IMAGE_BUCKET is set"))
		}
		if c.ImageURLTTL <= 0 {
			errs = append(errs, fmt.Errorf("IMAGE_URL_TTL must be positive, got %s", c.ImageURLTTL))
		}
	}
	return errors.Join(errs...)
}

// ImagesEnabled reports whether presigned image URLs can be issued.
func (c *Config) ImagesEnabled() bool {
	return c.ImageBucket != ""
}

// RateLimitEnabled reports whether the API rejects clients over RateLimitRequests per window.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitRequests > 0
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
