package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, int64(0), cfg.Server.MaxBodySize)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.True(t, cfg.Database.IsEmbedded())
	require.Equal(t, "memory", cfg.Cache.Backend)
	require.Zero(t, cfg.Cache.IdentityTTL)
	require.Equal(t, 5*time.Minute, cfg.Cache.ProductTTL)
	require.Equal(t, 5*time.Minute, cfg.Auth.TimestampTolerance)
	require.Equal(t, int64(1000), cfg.Quota.H24TotalQuota)
	require.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: 9100
  max_body_size: 1048576
database:
  driver: postgres
  host: db.internal
auth:
  timestamp_tolerance: 2m
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("FAUCET_DATABASE_USER", "svc")
	t.Setenv("FAUCET_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:9100", cfg.Server.Addr())
	require.Equal(t, int64(1<<20), cfg.Server.MaxBodySize)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "svc", cfg.Database.User)
	require.Contains(t, cfg.Database.DSN(), "host=db.internal")
	require.Equal(t, 2*time.Minute, cfg.Auth.TimestampTolerance)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: "sqlite", Path: "faucet.db"},
			Cache:    CacheConfig{Backend: "memory"},
			Auth:     AuthConfig{TimestampTolerance: 5 * time.Minute},
			Logging:  LoggingConfig{Level: "info"},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "port", mutate: func(c *Config) { c.Server.Port = 0 }},
		{name: "negative body size", mutate: func(c *Config) { c.Server.MaxBodySize = -1 }},
		{name: "driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }},
		{name: "sqlite path", mutate: func(c *Config) { c.Database.Path = "" }},
		{name: "postgres host", mutate: func(c *Config) { c.Database = DatabaseConfig{Driver: "postgres", User: "u", Database: "d"} }},
		{name: "cache backend", mutate: func(c *Config) { c.Cache.Backend = "memcached" }},
		{name: "redis cache without redis", mutate: func(c *Config) { c.Cache.Backend = "redis" }},
		{name: "identity ttl on memory cache", mutate: func(c *Config) { c.Cache.IdentityTTL = 30 * time.Second }},
		{name: "negative product ttl", mutate: func(c *Config) { c.Cache.ProductTTL = -time.Second }},
		{name: "tolerance", mutate: func(c *Config) { c.Auth.TimestampTolerance = 0 }},
		{name: "quota", mutate: func(c *Config) { c.Quota.DefaultH24Quota = -1 }},
		{name: "log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}

	t.Run("postgres url", func(t *testing.T) {
		cfg := valid()
		cfg.Database = DatabaseConfig{Driver: "postgres", URL: "postgres://u@db/faucet"}
		require.NoError(t, cfg.Validate())
		require.Equal(t, "postgres://u@db/faucet", cfg.Database.DSN())
	})

	t.Run("identity ttl on redis cache", func(t *testing.T) {
		cfg := valid()
		cfg.Redis.Enabled = true
		cfg.Cache = CacheConfig{Backend: "redis", IdentityTTL: 30 * time.Second}
		require.NoError(t, cfg.Validate())
	})
}
