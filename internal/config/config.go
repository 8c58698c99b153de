package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Collector      CollectorConfig
	Logging        LoggingConfig
	Tracking       TrackingConfig
	Rules          RulesConfig
	Funnel         FunnelConfig
	Archive        ArchiveConfig
	Admin          AdminConfig
	CircuitBreaker CircuitBreakerConfig
}

type ServerConfig struct {
	Port                int `mapstructure:"port"`
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig
	Redis         RedisConfig
	MongoDB       MongoDBConfig
	RunMigrations bool `mapstructure:"run_migrations"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// CollectorConfig selects and configures the outbound transport for
// fully built event documents.
type CollectorConfig struct {
	Type  string              `mapstructure:"type"` // "http" or "kafka"
	HTTP  HTTPCollectorConfig `mapstructure:"http"`
	Kafka KafkaConfig         `mapstructure:"kafka"`
}

type HTTPCollectorConfig struct {
	Endpoint       string      `mapstructure:"endpoint"`
	TimeoutSeconds int         `mapstructure:"timeout_seconds"`
	Retry          RetryConfig `mapstructure:"retry"`
}

type KafkaConfig struct {
	Brokers []string    `mapstructure:"brokers"`
	Topic   string      `mapstructure:"topic"`
	Retry   RetryConfig `mapstructure:"retry"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TrackingConfig tunes the lifecycle controller. Zero values fall back to
// the constants package defaults.
type TrackingConfig struct {
	ReadyMaxAttempts      int           `mapstructure:"ready_max_attempts"`
	ReadyPollInterval     time.Duration `mapstructure:"ready_poll_interval"`
	PageViewRetryDelay    time.Duration `mapstructure:"page_view_retry_delay"`
	MinNavigationInterval time.Duration `mapstructure:"min_navigation_interval"`
	MinPageViewInterval   time.Duration `mapstructure:"min_page_view_interval"`
	PageNamePollInterval  time.Duration `mapstructure:"page_name_poll_interval"`
	LinkDedupeWindow      time.Duration `mapstructure:"link_dedupe_window"`
	LinkClickDelayWindow  time.Duration `mapstructure:"link_click_delay_window"`
	LinkClickDelayFloor   time.Duration `mapstructure:"link_click_delay_floor"`
}

type RulesConfig struct {
	Reload   ReloadConfig   `mapstructure:"reload"`
	Fallback FallbackConfig `mapstructure:"fallback"`
}

type ReloadConfig struct {
	IntervalSeconds       int `mapstructure:"interval_seconds"`
	JitterMaxMilliseconds int `mapstructure:"jitter_max_milliseconds"`
}

type FallbackConfig struct {
	OnError string `mapstructure:"on_error"` // "skip" or "abort" (default: "skip")
}

type FunnelConfig struct {
	Backend    string `mapstructure:"backend"` // "memory" or "redis"
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type ArchiveConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Collection string `mapstructure:"collection"`
}

type AdminConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	RPS             float64 `mapstructure:"rps"`
	Burst           int     `mapstructure:"burst"`
	CleanupInterval int     `mapstructure:"cleanup_interval"`
	MaxAge          int     `mapstructure:"max_age"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
