package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/scout/internal/aggregator"
	"github.com/MrSnakeDoc/scout/internal/config"
	"github.com/MrSnakeDoc/scout/internal/httpserver"
	"github.com/MrSnakeDoc/scout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/scout/internal/keypool"
	"github.com/MrSnakeDoc/scout/internal/logger"
	"github.com/MrSnakeDoc/scout/internal/provider/youtube"
	"github.com/MrSnakeDoc/scout/internal/redis"
	"github.com/MrSnakeDoc/scout/internal/scheduler"
	"github.com/MrSnakeDoc/scout/internal/sources/credfile"
	redisstore "github.com/MrSnakeDoc/scout/internal/store/redis"
	"github.com/MrSnakeDoc/scout/internal/tokencache"
	"github.com/MrSnakeDoc/scout/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	keys        *keypool.Manager
	tokens      *tokencache.Cache
	quotaReset  *scheduler.QuotaResetScheduler
	tokenSweep  *scheduler.TokenSweeper
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	// Redis store backs the credential ledger, page-token cache, exclusions
	// and search history.
	store := redisstore.NewStore(redisClient)

	keys := keypool.New(store, loggerClient)
	tokens := tokencache.New(store, loggerClient, cfg.TokenTTL)

	// Try to restore engine state from Redis on startup
	syncer := scheduler.NewStateSyncer(keys, tokens, loggerClient)
	if err := syncer.Sync(context.Background()); err != nil {
		loggerClient.Warn("failed to restore state from redis on startup, starting empty",
			logger.Error(err))
	}

	// Seed credentials from file (if configured). Registration keeps any
	// quota ledger already restored from Redis for the same key id.
	if cfg.CredentialsFile != "" {
		seeds, err := credfile.NewLoader(cfg.CredentialsFile).Load()
		if err != nil {
			loggerClient.Errorf("Failed to load credentials file: %v", err)
			os.Exit(1)
		}
		for _, seed := range seeds {
			if err := keys.Register(context.Background(), seed.ID, seed.Secret); err != nil {
				loggerClient.Warn("failed to register seed credential",
					logger.String("id", seed.ID), logger.Error(err))
			}
		}
		loggerClient.Info("credentials seeded from file",
			logger.String("file", cfg.CredentialsFile),
			logger.Int("count", len(seeds)))
	} else {
		loggerClient.Info("no credentials file configured, keys come from the API only")
	}

	client := youtube.New(cfg.ProviderBaseURL, cfg.ProviderTimeout)

	agg := aggregator.New(keys, tokens, client, client, store, loggerClient)

	quotaReset := scheduler.NewQuotaResetScheduler(keys, loggerClient, cfg.ResetInterval)
	tokenSweep := scheduler.NewTokenSweeper(tokens, loggerClient, cfg.SweepInterval)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		RedisClient:     redisClient,
		Store:           store,
		Aggregator:      agg,
		KeyPool:         keys,
		DefaultCount:    cfg.DefaultCount,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		keys:        keys,
		tokens:      tokens,
		quotaReset:  quotaReset,
		tokenSweep:  tokenSweep,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Scout v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Scout %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start quota reset scheduler (also runs one pass immediately)
	if err := a.quotaReset.Start(ctx); err != nil {
		return fmt.Errorf("failed to start quota reset scheduler: %w", err)
	}
	a.logger.Info("quota reset scheduler started",
		logger.Duration("interval", a.cfg.ResetInterval))

	// Start page-token sweeper
	if err := a.tokenSweep.Start(ctx); err != nil {
		return fmt.Errorf("failed to start token sweeper: %w", err)
	}
	a.logger.Info("token sweeper started",
		logger.Duration("interval", a.cfg.SweepInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	// Stop schedulers
	a.quotaReset.Stop()
	a.tokenSweep.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Scout stopped cleanly")
	return nil
}
