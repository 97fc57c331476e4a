package container

import (
	"context"
	"fmt"

	"leaguevote/internal/config"
	"leaguevote/internal/handler"
	"leaguevote/internal/notify"
	"leaguevote/internal/realtime"
	"leaguevote/internal/repository"
	"leaguevote/internal/repository/sqlite"
	"leaguevote/internal/service"
	"leaguevote/internal/service/auth"
	"leaguevote/pkg/database"
	"leaguevote/pkg/logger"
	"leaguevote/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *logger.Logger
	Repositories  *repository.Repositories
	RedisClient   *redis.Client
	Cache         *service.CacheService
	Hub           *realtime.Hub
	Notifications *notify.Queue

	Auth   service.AuthService
	Voting *service.VotingService
	Awards *service.AwardService

	postgres *database.PostgresDB
	sqlite   *sqlite.Store
}

// New creates a new dependency injection container. The record store is
// required; Redis and Supabase are optional.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: log}

	if err := c.openStore(ctx); err != nil {
		return nil, err
	}

	// Initialize Redis client if Redis URL is configured
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Named("redis").Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			c.RedisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}
	c.Cache = service.NewCacheService(c.RedisClient, log.Named("cache").Logger)

	authService, err := auth.NewService(ctx, cfg.SupabaseJWTSecret, cfg.GoogleClientID, log.Named("auth"))
	if err != nil {
		_ = c.closeStore()
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}
	c.Auth = authService

	var sender notify.Sender
	if cfg.SupabaseConfigured() && cfg.NotifyFunction != "" {
		sender = notify.NewSupabaseFunctionSender(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.NotifyFunction, log.Named("notify"))
	} else {
		log.Info("Supabase not configured, vote confirmations are only logged")
		sender = notify.NewLogSender(log.Named("notify"))
	}
	c.Notifications = notify.NewQueue(sender, notify.Options{
		Workers:     cfg.NotifyWorkers,
		Size:        cfg.NotifyQueueSize,
		MaxAttempts: cfg.NotifyMaxAttempts,
	}, log.Named("notify_queue").Logger)

	c.Hub = realtime.NewHub(log.Named("realtime").Logger)

	c.Voting = service.NewVotingService(c.Repositories, c.Cache, cfg.GracePeriod, log.Named("voting").Logger,
		service.WithNotifier(c.Notifications),
		service.WithEvents(c.Hub),
	)
	c.Awards = service.NewAwardService(c.Repositories, c.Cache, cfg.GracePeriod, cfg.MOTMVoteThreshold, log.Named("awards").Logger,
		service.WithEvents(c.Hub),
	)

	return c, nil
}

func (c *Container) openStore(ctx context.Context) error {
	if c.Config.UsePostgres() {
		db, err := database.NewPostgresDB(ctx, c.Config.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.postgres = db
		c.Repositories = repository.NewPostgresRepositories(db)
		c.Logger.Info("Using Postgres record store")
		return nil
	}

	store, err := sqlite.Open(c.Config.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to open sqlite store: %w", err)
	}
	c.sqlite = store
	c.Repositories = store.Repositories()
	c.Logger.WithField("path", c.Config.SQLitePath).Info("Using SQLite record store")
	return nil
}

// Start launches the background notification workers
func (c *Container) Start(ctx context.Context) {
	c.Notifications.Start(ctx)
}

// HealthChecks returns the probes reported by GET /health
func (c *Container) HealthChecks() []handler.HealthCheck {
	checks := []handler.HealthCheck{{Name: "database", Check: c.storeHealth}}
	if c.HasRedis() {
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: c.Cache.HealthCheck})
	}
	return checks
}

func (c *Container) storeHealth(ctx context.Context) error {
	if c.postgres != nil {
		return c.postgres.Health(ctx)
	}
	return c.sqlite.Health(ctx)
}

// RouterConfig describes the HTTP surface built from the container's services
func (c *Container) RouterConfig(version string) handler.RouterConfig {
	return handler.RouterConfig{
		AllowedOrigins: c.Config.AllowedOrigins,
		CronSecret:     c.Config.CronSecret,
		Version:        version,
		AuthService:    c.Auth,
		VotingService:  c.Voting,
		AwardService:   c.Awards,
		Realtime:       handler.NewRealtimeHandler(c.Hub, c.Config.AllowedOrigins, c.Logger),
		HealthChecks:   c.HealthChecks(),
		Logger:         c.Logger,
	}
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// Close releases everything in reverse order of construction
func (c *Container) Close(ctx context.Context) error {
	var errs []error

	if c.Notifications != nil {
		if err := c.Notifications.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("notification queue: %w", err))
		}
	}
	if c.Hub != nil {
		c.Hub.Close()
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if err := c.closeStore(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errs), errs)
	}
	return nil
}

func (c *Container) closeStore() error {
	if c.postgres != nil {
		c.postgres.Close()
		c.postgres = nil
	}
	if c.sqlite != nil {
		err := c.sqlite.Close()
		c.sqlite = nil
		if err != nil {
			return fmt.Errorf("sqlite close: %w", err)
		}
	}
	return nil
}
