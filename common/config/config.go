package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Broker    BrokerConfig
	Consumer  ConsumerConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
	// QueryTimeout bounds individual store operations; an expired
	// timeout aborts the surrounding unit of work.
	QueryTimeout time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// BrokerConfig holds event stream settings
type BrokerConfig struct {
	// StreamPrefix names the partitioned stream set; partition p lives
	// at "<StreamPrefix>.<p>".
	StreamPrefix string
	Partitions   int
}

// ConsumerConfig holds event consumer settings
type ConsumerConfig struct {
	Group        string
	BlockTimeout time.Duration
	// RetryBackoff is the fixed delay between attempts for a failed
	// mutation. Attempts are unbounded; the partition stays blocked
	// until the event applies.
	RetryBackoff time.Duration
}

// RateLimitConfig holds read-path rate limit settings
type RateLimitConfig struct {
	Enabled   bool
	PerMinute int64
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("POSTGRES_HOST", "localhost"),
			Port:         getEnvInt("POSTGRES_PORT", 5432),
			Database:     getEnv("POSTGRES_DB", "caseview"),
			User:         getEnv("POSTGRES_USER", "caseview"),
			Password:     getEnv("POSTGRES_PASSWORD", "caseview"),
			MaxConns:     getEnvInt("POSTGRES_MAX_CONNS", 20),
			MinConns:     getEnvInt("POSTGRES_MIN_CONNS", 2),
			MaxIdleTime:  getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime:  getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
			QueryTimeout: getEnvDuration("POSTGRES_QUERY_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Broker: BrokerConfig{
			StreamPrefix: getEnv("BROKER_STREAM_PREFIX", "case.events"),
			Partitions:   getEnvInt("BROKER_PARTITIONS", 4),
		},
		Consumer: ConsumerConfig{
			Group:        getEnv("CONSUMER_GROUP", "case_consumers"),
			BlockTimeout: getEnvDuration("CONSUMER_BLOCK_TIMEOUT", 5*time.Second),
			RetryBackoff: getEnvDuration("CONSUMER_RETRY_BACKOFF", 2*time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled:   getEnvBool("RATE_LIMIT_ENABLED", true),
			PerMinute: int64(getEnvInt("RATE_LIMIT_PER_MINUTE", 120)),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", true),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.Broker.Partitions < 1 {
		return fmt.Errorf("broker partitions must be >= 1, got %d", c.Broker.Partitions)
	}

	if c.Consumer.RetryBackoff <= 0 {
		return fmt.Errorf("consumer retry backoff must be positive")
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns the Redis host:port address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
