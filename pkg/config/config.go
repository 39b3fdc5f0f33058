package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/tair/replenishment/pkg/database"
)

// Config holds the replenishment service configuration
type Config struct {
	ServiceName    string
	Environment    string
	LogLevel       string
	HTTPPort       string
	Database       database.Config
	Redis          RedisConfig
	Kafka          KafkaConfig
	Email          EmailConfig
	Breaker        BreakerConfig
	JaegerURL      string
	DefaultTaxRate decimal.Decimal
	// RateLimit is the number of requests per client and minute; 0 disables it.
	RateLimit int
}

// RedisConfig holds the suggestion cache settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// KafkaConfig holds the event bus settings. An empty broker list disables publishing.
type KafkaConfig struct {
	Brokers []string
	GroupID string
}

// EmailConfig holds the notification gateway settings
type EmailConfig struct {
	APIKey      string
	FromAddress string
	FromName    string
	Endpoint    string
	Timeout     time.Duration
}

// BreakerConfig holds circuit breaker settings for the notification gateway
type BreakerConfig struct {
	MaxFailures int
	OpenTimeout time.Duration
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads an optional .env file and then the process environment
func Load() *Config {
	// .env is optional; the process environment always wins
	_ = godotenv.Load()

	return &Config{
		ServiceName: getEnv("OTEL_SERVICE_NAME", "replenishment-service"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HTTPPort:    getEnv("HTTP_PORT", "8084"),
		Database: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "replenishmentdb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			LogSQL:   getEnvBool("DB_LOG_SQL", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("SUGGESTION_CACHE_TTL", 2*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			GroupID: getEnv("KAFKA_GROUP_ID", "replenishment-service"),
		},
		Email: EmailConfig{
			APIKey:      getEnv("RESEND_API_KEY", ""),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
			FromName:    getEnv("EMAIL_FROM_NAME", "Purchasing"),
			Endpoint:    getEnv("EMAIL_API_URL", "https://api.resend.com/emails"),
			Timeout:     getEnvDuration("EMAIL_TIMEOUT", 10*time.Second),
		},
		Breaker: BreakerConfig{
			MaxFailures: getEnvInt("EMAIL_BREAKER_MAX_FAILURES", 5),
			OpenTimeout: getEnvDuration("EMAIL_BREAKER_OPEN_TIMEOUT", 30*time.Second),
		},
		JaegerURL:      getEnv("JAEGER_ENDPOINT", ""),
		DefaultTaxRate: getEnvDecimal("DEFAULT_TAX_RATE", decimal.RequireFromString("0.07")),
		RateLimit:      getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if d, err := decimal.NewFromString(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
