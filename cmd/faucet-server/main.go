// Package main is the entry point for the CKBFS faucet API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prn-tf/ckbfs-faucet/internal/auth"
	"github.com/prn-tf/ckbfs-faucet/internal/cache/memory"
	rediscache "github.com/prn-tf/ckbfs-faucet/internal/cache/redis"
	"github.com/prn-tf/ckbfs-faucet/internal/config"
	"github.com/prn-tf/ckbfs-faucet/internal/database"
	"github.com/prn-tf/ckbfs-faucet/internal/handler"
	"github.com/prn-tf/ckbfs-faucet/internal/lock"
	"github.com/prn-tf/ckbfs-faucet/internal/logging"
	"github.com/prn-tf/ckbfs-faucet/internal/metrics"
	"github.com/prn-tf/ckbfs-faucet/internal/pkg/crypto"
	"github.com/prn-tf/ckbfs-faucet/internal/repository"
	"github.com/prn-tf/ckbfs-faucet/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	lastUsedQueueSize = 1024
	lastUsedTimeout   = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Starting CKBFS faucet server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
}

// cacheSet holds the cache collaborators selected by cache.backend.
type cacheSet struct {
	identity service.IdentityServiceConfig
	product  repository.Cache
	stop     func()
}

// newCaches builds the caches for backend. Identities are cached only in
// redis, where faucet-admin evicts them on a status change; a memory cache
// would keep serving a deactivated key.
func newCaches(cfg config.CacheConfig, redisClient goredis.UniversalClient) cacheSet {
	if cfg.Backend == "redis" {
		shared := rediscache.NewCache(redisClient)
		return cacheSet{
			identity: service.IdentityServiceConfig{Cache: shared, CacheTTL: cfg.IdentityTTL},
			product:  shared,
			stop:     func() {},
		}
	}

	mem := memory.NewCache(cfg.CleanupInterval)
	return cacheSet{
		product: mem,
		stop:    mem.Stop,
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	encryptor, err := crypto.NewEncryptorFromConfig(cfg.Auth.EncryptionKey)
	if err != nil {
		return fmt.Errorf("auth.encryption_key: %w", err)
	}

	db, repos, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = rediscache.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		logger.Info().Str("addr", cfg.Redis.Addr()).Msg("connected to Redis")
	}

	caches := newCaches(cfg.Cache, redisClient)
	defer caches.stop()

	// Quota counts must be serialized across every node sharing the store.
	var locker lock.Locker = lock.NewMemoryLocker()
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient)
	}

	identityService := service.NewIdentityService(repos.Product, repos.AccessKey, encryptor, caches.identity, logger)

	claimService := service.NewClaimService(repos.Product, repos.ClaimEvent, locker, service.ClaimServiceConfig{
		H24TotalQuota:   cfg.Quota.H24TotalQuota,
		LockTTL:         cfg.Quota.LockTTL,
		LockWait:        cfg.Quota.LockWait,
		ProductCache:    caches.product,
		ProductCacheTTL: cfg.Cache.ProductTTL,
	}, logger)

	authConfig := auth.DefaultConfig()
	authConfig.Tolerance = cfg.Auth.TimestampTolerance
	authenticator := auth.NewAuthenticator(identityService, authConfig, logger)

	// Closed before the deferred db.Close, after the server has drained.
	lastUsed := auth.NewLastUsedQueue(identityService, lastUsedQueueSize, lastUsedTimeout, logger)
	defer lastUsed.Close()

	middlewareConfig := auth.MiddlewareConfig{
		MaxBodySize: cfg.Server.MaxBodySize,
		LastUsed:    lastUsed,
	}
	claimConfig := handler.ClaimHandlerConfig{
		Claims: claimService,
		Logger: logger,
	}
	routerConfig := handler.RouterConfig{
		Health: db,
		Logger: logger,
	}
	if cfg.Metrics.Enabled {
		m := metrics.New()
		middlewareConfig.Observer = m
		claimConfig.Observer = m
		routerConfig.Metrics = m
		routerConfig.MetricsPath = cfg.Metrics.Path
	}

	routerConfig.ClaimHandler = handler.NewClaimHandler(claimConfig)
	routerConfig.AuthMiddleware = auth.Middleware(authenticator, middlewareConfig, logger)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler.NewRouter(routerConfig).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
