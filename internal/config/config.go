// Package config loads the notification service's configuration from
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every tunable the notification service reads at startup.
type Config struct {
	Environment string
	LogLevel    string

	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig

	RateLimit    RateLimitConfig
	Idempotency  IdempotencyConfig
	Retry        RetryConfig
	Sweeper      SweeperConfig
	ConsumerPool ConsumerPoolConfig

	Email EmailConfig
	SMS   SMSConfig
	Push  PushConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORS         CORSConfig
}

// CORSConfig holds CORS settings for the HTTP server.
type CORSConfig struct {
	AllowOrigins     []string
	AllowCredentials bool
	MaxAge           int
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds the KV store connection used by the rate limiter and
// idempotency gate.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	Database     int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the message-log connection settings shared by the
// queue publisher and every channel's consumer pool.
type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string
	GroupID     string
	SASLEnabled bool
	SASLUser    string
	SASLPass    string
	TLSEnabled  bool
}

// RateLimitConfig configures the fixed-window limiter.
type RateLimitConfig struct {
	WindowSize   time.Duration
	MaxPerWindow int
	FailOpen     bool
	// PerChannel overrides MaxPerWindow for a specific channel, keyed by
	// models.Channel string value (e.g. "email", "sms").
	PerChannel map[string]int
}

// IdempotencyConfig configures the dedup gate.
type IdempotencyConfig struct {
	TTL      time.Duration
	FailOpen bool
}

// RetryConfig configures the backoff policy.
type RetryConfig struct {
	BaseDelay   time.Duration
	Multiplier  float64
	MaxRetries  int
	JitterPct   int
	MaxDelay    time.Duration
}

// SweeperConfig configures the retry-sweeper timer.
type SweeperConfig struct {
	Interval          time.Duration
	BatchSize         int
	StuckThreshold    time.Duration
}

// ConsumerPoolConfig configures per-channel consumer concurrency.
type ConsumerPoolConfig struct {
	WorkersPerChannel int
	HandlerTimeout    time.Duration
}

// EmailConfig holds SMTP settings for the email channel handler.
type EmailConfig struct {
	SMTPHost string
	SMTPPort int
	Username string
	Password string
	From     string
}

// SMSConfig holds Twilio settings for the SMS channel handler.
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// PushConfig holds FCM/APNS settings for the push channel handler.
type PushConfig struct {
	FCMServerKey string
	APNSKeyID    string
	APNSTeamID   string
	BundleID     string
}

// Load reads configuration from the environment, applying the same
// defaults a local developer setup needs.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: GetEnv("ENVIRONMENT", "development"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),

		Server: ServerConfig{
			Host:         GetEnv("SERVER_HOST", "0.0.0.0"),
			Port:         GetIntEnv("NOTIFICATION_SERVICE_PORT", 8085),
			ReadTimeout:  GetDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: GetDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  GetDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			CORS: CORSConfig{
				AllowOrigins:     strings.Split(GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000"), ","),
				AllowCredentials: GetBoolEnv("CORS_ALLOW_CREDENTIALS", true),
				MaxAge:           GetIntEnv("CORS_MAX_AGE", 3600),
			},
		},

		Database: DatabaseConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetIntEnv("DB_PORT", 5432),
			Username:        GetEnv("DB_USERNAME", "postgres"),
			Password:        GetEnv("DB_PASSWORD", ""),
			Database:        GetEnv("DB_DATABASE", "notifyhub"),
			SSLMode:         GetEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			Host:         GetEnv("REDIS_HOST", "localhost"),
			Port:         GetIntEnv("REDIS_PORT", 6379),
			Password:     GetEnv("REDIS_PASSWORD", ""),
			Database:     GetIntEnv("REDIS_DATABASE", 0),
			PoolSize:     GetIntEnv("REDIS_POOL_SIZE", 10),
			DialTimeout:  GetDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  GetDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: GetDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},

		Kafka: KafkaConfig{
			Brokers:     strings.Split(GetEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicPrefix: GetEnv("KAFKA_TOPIC_PREFIX", "notifications"),
			GroupID:     GetEnv("KAFKA_CONSUMER_GROUP", "notification-dispatch"),
			SASLEnabled: GetBoolEnv("KAFKA_SASL_ENABLED", false),
			SASLUser:    GetEnv("KAFKA_SASL_USERNAME", ""),
			SASLPass:    GetEnv("KAFKA_SASL_PASSWORD", ""),
			TLSEnabled:  GetBoolEnv("KAFKA_TLS_ENABLED", false),
		},

		RateLimit: RateLimitConfig{
			WindowSize:   time.Duration(GetIntEnv("RATE_LIMIT_WINDOW_SECONDS", 3600)) * time.Second,
			MaxPerWindow: GetIntEnv("RATE_LIMIT_MAX_PER_WINDOW", 100),
			FailOpen:     GetBoolEnv("RATE_LIMIT_FAIL_OPEN", true),
			PerChannel: map[string]int{
				"email":  GetIntEnv("RATE_LIMIT_EMAIL", 10),
				"sms":    GetIntEnv("RATE_LIMIT_SMS", 5),
				"push":   GetIntEnv("RATE_LIMIT_PUSH", 20),
				"in_app": GetIntEnv("RATE_LIMIT_IN_APP", 100),
			},
		},

		Idempotency: IdempotencyConfig{
			TTL:      time.Duration(GetIntEnv("DEDUP_TTL_SECONDS", 86400)) * time.Second,
			FailOpen: GetBoolEnv("IDEMPOTENCY_FAIL_OPEN", true),
		},

		Retry: RetryConfig{
			BaseDelay:  GetDurationEnv("RETRY_BASE_DELAY", time.Minute),
			Multiplier: getFloatEnv("RETRY_MULTIPLIER", 5.0),
			MaxRetries: GetIntEnv("RETRY_MAX_ATTEMPTS_DEFAULT", 3),
			JitterPct:  GetIntEnv("RETRY_JITTER_PERCENT", 10),
			MaxDelay:   GetDurationEnv("RETRY_MAX_DELAY", 1*time.Hour),
		},

		Sweeper: SweeperConfig{
			Interval:       GetDurationEnv("SWEEPER_INTERVAL", 60*time.Second),
			BatchSize:      GetIntEnv("SWEEPER_BATCH_LIMIT", 100),
			StuckThreshold: GetDurationEnv("SWEEPER_STUCK_THRESHOLD", 600*time.Second),
		},

		ConsumerPool: ConsumerPoolConfig{
			WorkersPerChannel: GetIntEnv("CONSUMER_WORKERS_PER_CHANNEL", 4),
			HandlerTimeout:    GetDurationEnv("HANDLER_TIMEOUT", 10*time.Second),
		},

		Email: EmailConfig{
			SMTPHost: GetEnv("SMTP_HOST", "localhost"),
			SMTPPort: GetIntEnv("SMTP_PORT", 587),
			Username: GetEnv("SMTP_USERNAME", ""),
			Password: GetEnv("SMTP_PASSWORD", ""),
			From:     GetEnv("SMTP_FROM", "noreply@notifyhub.dev"),
		},

		SMS: SMSConfig{
			AccountSID: GetEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  GetEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: GetEnv("TWILIO_FROM_NUMBER", ""),
		},

		Push: PushConfig{
			FCMServerKey: GetEnv("FCM_SERVER_KEY", ""),
			APNSKeyID:    GetEnv("APNS_KEY_ID", ""),
			APNSTeamID:   GetEnv("APNS_TEAM_ID", ""),
			BundleID:     GetEnv("APNS_BUNDLE_ID", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error, for use in main().
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func (c *Config) validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, "NOTIFICATION_SERVICE_PORT must be between 1 and 65535")
	}
	if c.Retry.MaxRetries < 0 {
		problems = append(problems, "RETRY_MAX_ATTEMPTS_DEFAULT must not be negative")
	}
	if c.Retry.Multiplier <= 1.0 {
		problems = append(problems, "RETRY_MULTIPLIER must be greater than 1.0")
	}
	if c.RateLimit.MaxPerWindow <= 0 {
		problems = append(problems, "RATE_LIMIT_MAX_PER_WINDOW must be positive")
	}
	if c.ConsumerPool.WorkersPerChannel <= 0 {
		problems = append(problems, "CONSUMER_WORKERS_PER_CHANNEL must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// DatabaseDSN returns the Postgres connection string gorm's driver expects.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.Username,
		c.Database.Password, c.Database.Database, c.Database.SSLMode,
	)
}

// RedisAddr returns the host:port go-redis expects.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// GetEnv returns the environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetIntEnv returns an integer environment variable or a default value.
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetBoolEnv returns a boolean environment variable or a default value.
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
