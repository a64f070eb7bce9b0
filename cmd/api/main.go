// Package main provides the entrypoint for the NestMap API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/activity"
	"github.com/nestmap/nestmap/internal/api"
	"github.com/nestmap/nestmap/internal/api/handler"
	"github.com/nestmap/nestmap/internal/api/middleware"
	"github.com/nestmap/nestmap/internal/auth"
	"github.com/nestmap/nestmap/internal/cache"
	"github.com/nestmap/nestmap/internal/config"
	"github.com/nestmap/nestmap/internal/database"
	"github.com/nestmap/nestmap/internal/export"
	"github.com/nestmap/nestmap/internal/featureflags"
	"github.com/nestmap/nestmap/internal/planner"
	"github.com/nestmap/nestmap/internal/provider/resilience"
	"github.com/nestmap/nestmap/internal/routing"
	"github.com/nestmap/nestmap/internal/routing/openrouteservice"
	"github.com/nestmap/nestmap/internal/telemetry"
	"github.com/nestmap/nestmap/internal/todo"
	"github.com/nestmap/nestmap/internal/travel"
	"github.com/nestmap/nestmap/internal/trip"
	"github.com/nestmap/nestmap/internal/worker"
)

const serviceName = "nestmap-api"

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("api exited")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.Environment).
		Msg("starting NestMap API")

	telemetryCfg := cfg.Telemetry
	telemetryCfg.ServiceVersion = Version
	telemetryCfg.Environment = cfg.Environment
	shutdownTelemetry, err := telemetry.Setup(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			log.Error().Err(err).Msg("failed to flush telemetry")
		}
	}()
	if telemetryCfg.Enabled {
		log.Info().Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).Msg("exporting telemetry")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		return fmt.Errorf("http metrics: %w", err)
	}
	cacheMetrics, err := middleware.NewCacheMetrics()
	if err != nil {
		return fmt.Errorf("cache metrics: %w", err)
	}
	itineraryMetrics, err := telemetry.NewItineraryMetricsFromGlobal()
	if err != nil {
		return fmt.Errorf("itinerary metrics: %w", err)
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.Database).
		Msg("database connected")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, log); err != nil {
			return err
		}
	}

	checks := map[string]handler.CheckFunc{"database": pool.Ping}

	store, closeStore, err := openStore(ctx, cfg.Redis, checks, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var publisher activity.RefreshPublisher
	if cfg.PubSub.Enabled() {
		pub, err := worker.NewPublisher(ctx, cfg.PubSub.ProjectID, cfg.PubSub.Topic)
		if err != nil {
			return fmt.Errorf("travel refresh publisher: %w", err)
		}
		defer pub.Close()
		publisher = pub
		log.Info().Str("topic", cfg.PubSub.Topic).Msg("queueing travel refreshes on pubsub")
	}

	flags := featureflags.NewService(featureflags.ServiceConfig{
		Repository:   featureflags.NewPostgresRepository(pool),
		Logger:       log,
		CacheTTL:     time.Minute,
		DefaultFlags: cfg.Scheduling.DefaultFlags(),
	})

	tripRepo := trip.NewPostgresRepository(pool)
	activityService := activity.NewService(activity.ServiceConfig{
		Repository: activity.NewPostgresRepository(pool),
		Trips:      tripRepo,
		Cache:      store,
		CacheTTL:   cfg.Scheduling.CacheTTL,
		Observer:   cacheMetrics,
		Refresher:  publisher,
		Logger:     log,
	})
	todoService := todo.NewService(todo.ServiceConfig{
		Repository: todo.NewPostgresRepository(pool),
		Trips:      tripRepo,
		Cache:      store,
		CacheTTL:   cfg.Scheduling.CacheTTL,
		Logger:     log,
	})
	tripService := trip.NewService(trip.ServiceConfig{
		Repository: tripRepo,
		Cache:      store,
		Cascade:    []trip.Cascader{activityService, todoService},
		Logger:     log,
	})
	planService := planner.NewService(planner.ServiceConfig{
		Trips:      tripRepo,
		Activities: activityService,
		Settings:   flags,
		Cache:      store,
		CacheTTL:   cfg.Scheduling.CacheTTL,
		Observer:   cacheMetrics,
		Metrics:    itineraryMetrics,
		Logger:     log,
	})

	registry := resilience.NewRegistry()
	estimatorCfg := travel.EstimatorConfig{
		Activities: activityService,
		Switch:     flags,
		Logger:     log,
	}
	if cfg.Routing.Enabled() {
		estimatorCfg.Router = routing.NewService(routing.ServiceConfig{
			Provider: openrouteservice.NewClient(openrouteservice.ClientConfig{
				APIKey:   cfg.Routing.APIKey,
				BaseURL:  cfg.Routing.BaseURL,
				Timeout:  cfg.Routing.Timeout,
				Registry: registry,
				Logger:   log,
			}),
			Cache:    store,
			Observer: cacheMetrics,
			CacheTTL: cfg.Routing.CacheTTL,
			Logger:   log,
		})
	} else {
		log.Warn().Msg("routing provider not configured, travel times will be estimated")
	}

	if cfg.JWT.SigningKey == config.DevSigningKey {
		log.Warn().Msg("using the development JWT signing key")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		RequireTLS:  cfg.RequireTLS,
		Tokens: auth.NewJWTService(auth.JWTConfig{
			SigningKey: cfg.JWT.SigningKey,
			Issuer:     cfg.JWT.Issuer,
			Audience:   cfg.JWT.Audience,
			Leeway:     cfg.JWT.Leeway,
		}),
		TripService:        tripService,
		ActivityService:    activityService,
		TodoService:        todoService,
		Planner:            planService,
		Estimator:          travel.NewEstimator(estimatorCfg),
		ExportService:      export.NewService(planService, flags),
		FeatureFlagService: flags,
		RefreshPublisher:   publisher,
		Checks:             checks,
		Registry:           registry,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// openStore connects to Redis when configured and registers its readiness
// check, falling back to an in-process store for single instance setups.
func openStore(ctx context.Context, cfg cache.RedisConfig, checks map[string]handler.CheckFunc, log zerolog.Logger) (cache.Store, func(), error) {
	if !cfg.Enabled() {
		memory := cache.NewMemoryStore()
		memory.StartCleanup(ctx, 5*time.Minute)
		log.Warn().Msg("redis not configured, using in-process cache")
		return memory, func() {}, nil
	}

	client, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	log.Info().Str("addr", cfg.Addr).Msg("redis cache connected")
	return cache.NewRedisStore(client, cfg.KeyPrefix), func() { _ = client.Close() }, nil
}
