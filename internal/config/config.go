// Package config provides configuration management for the CKBFS faucet.
// Configuration can be loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Quota    QuotaConfig    `mapstructure:"quota"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// MaxBodySize caps the request body buffered for signing. 0 means unlimited.
	MaxBodySize int64 `mapstructure:"max_body_size"`
}

// Addr returns the listen address in host:port format.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database connection settings.
// Supports both PostgreSQL and SQLite backends.
type DatabaseConfig struct {
	// Driver specifies the database driver: "postgres" or "sqlite".
	Driver string `mapstructure:"driver"`

	// PostgreSQL settings (used when Driver is "postgres"). URL, when set,
	// replaces the individual connection fields.
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	// SQLite settings (used when Driver is "sqlite")
	Path        string `mapstructure:"path"`         // Path to SQLite database file
	JournalMode string `mapstructure:"journal_mode"` // WAL, DELETE, TRUNCATE, etc.
	BusyTimeout int    `mapstructure:"busy_timeout"` // Milliseconds to wait for locks
}

// DSN returns the PostgreSQL connection string.
// Only valid when Driver is "postgres".
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// IsEmbedded returns true if using an embedded database (SQLite).
func (c DatabaseConfig) IsEmbedded() bool {
	return c.Driver == "sqlite"
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Enabled     bool          `mapstructure:"enabled"`
}

// Addr returns the Redis address in host:port format.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig holds identity cache settings.
type CacheConfig struct {
	// Backend is "memory" or "redis". "redis" requires redis.enabled.
	Backend string `mapstructure:"backend"`

	// IdentityTTL is how long active identities stay cached. 0 disables
	// identity caching. Only the redis backend may cache identities, since
	// faucet-admin must be able to evict an entry when a key changes status.
	IdentityTTL time.Duration `mapstructure:"identity_ttl"`

	// ProductTTL is how long products stay cached for claims. 0 disables it.
	ProductTTL time.Duration `mapstructure:"product_ttl"`

	// CleanupInterval is how often the memory cache evicts expired entries.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// EncryptionKey protects access key secrets at rest. A 64 character hex
	// value is used as the raw AES-256 key; anything else is a passphrase
	// run through HKDF.
	EncryptionKey string `mapstructure:"encryption_key"`

	// TimestampTolerance is the maximum allowed skew of x-ckbfs-date.
	TimestampTolerance time.Duration `mapstructure:"timestamp_tolerance"`
}

// QuotaConfig holds claim quota settings.
type QuotaConfig struct {
	// H24TotalQuota is the number of claims all products may make in 24 hours.
	H24TotalQuota int64 `mapstructure:"h24_total_quota"`

	// DefaultH24Quota is the per-product quota given to new products.
	DefaultH24Quota int64 `mapstructure:"default_h24_quota"`

	// DefaultH24QuotaPerRequestType is the per-request-type quota given to new products.
	DefaultH24QuotaPerRequestType int64 `mapstructure:"default_h24_quota_per_request_type"`

	// LockTTL is how long the claim quota lock is held at most.
	LockTTL time.Duration `mapstructure:"lock_ttl"`

	// LockWait is how long a claim waits for the quota lock.
	LockWait time.Duration `mapstructure:"lock_wait"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled determines if metrics collection is active.
	Enabled bool `mapstructure:"enabled"`

	// Path is the URL path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// Load reads configuration from the specified file and environment variables.
// Environment variables take precedence over file values.
// Environment variables are prefixed with FAUCET_ and use _ as separator.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Environment variable configuration
	v.SetEnvPrefix("FAUCET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file configuration
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/ckbfs-faucet")
	}

	// Read config file (optional - environment variables can be used instead)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.max_body_size", 0)

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "faucet")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "faucet")
	v.SetDefault("database.ssl_mode", "prefer")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)
	// SQLite defaults
	v.SetDefault("database.path", "./data/faucet.db")
	v.SetDefault("database.journal_mode", "WAL")
	v.SetDefault("database.busy_timeout", 5000)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.enabled", false)

	// Cache defaults
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.identity_ttl", time.Duration(0))
	v.SetDefault("cache.product_ttl", 5*time.Minute)
	v.SetDefault("cache.cleanup_interval", time.Minute)

	// Auth defaults
	v.SetDefault("auth.encryption_key", "") // Must be provided
	v.SetDefault("auth.timestamp_tolerance", 5*time.Minute)

	// Quota defaults
	v.SetDefault("quota.h24_total_quota", 1000)
	v.SetDefault("quota.default_h24_quota", 100)
	v.SetDefault("quota.default_h24_quota_per_request_type", 50)
	v.SetDefault("quota.lock_ttl", 10*time.Second)
	v.SetDefault("quota.lock_wait", 5*time.Second)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks the configuration for required values and valid ranges.
func (c *Config) Validate() error {
	// Validate server configuration
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.MaxBodySize < 0 {
		return fmt.Errorf("server.max_body_size must not be negative")
	}

	// Validate database configuration
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL != "" {
			break
		}
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required for postgres driver")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required for postgres driver")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required for postgres driver")
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite driver")
		}
	default:
		return fmt.Errorf("database.driver must be 'postgres' or 'sqlite'")
	}

	// Validate cache configuration
	switch c.Cache.Backend {
	case "memory":
		if c.Cache.IdentityTTL != 0 {
			return fmt.Errorf("cache.identity_ttl requires cache.backend 'redis'")
		}
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("cache.backend 'redis' requires redis.enabled")
		}
	default:
		return fmt.Errorf("cache.backend must be 'memory' or 'redis'")
	}
	if c.Cache.IdentityTTL < 0 || c.Cache.ProductTTL < 0 {
		return fmt.Errorf("cache TTLs must not be negative")
	}

	// Validate auth configuration
	if c.Auth.TimestampTolerance <= 0 {
		return fmt.Errorf("auth.timestamp_tolerance must be positive")
	}

	// Validate quota configuration
	if c.Quota.H24TotalQuota < 0 || c.Quota.DefaultH24Quota < 0 || c.Quota.DefaultH24QuotaPerRequestType < 0 {
		return fmt.Errorf("quota values must not be negative")
	}

	// Validate logging configuration
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, fatal, panic")
	}

	return nil
}
