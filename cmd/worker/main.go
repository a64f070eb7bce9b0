// Package main provides the entrypoint for the NestMap travel refresh worker.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/activity"
	"github.com/nestmap/nestmap/internal/cache"
	"github.com/nestmap/nestmap/internal/config"
	"github.com/nestmap/nestmap/internal/database"
	"github.com/nestmap/nestmap/internal/featureflags"
	"github.com/nestmap/nestmap/internal/provider/resilience"
	"github.com/nestmap/nestmap/internal/routing"
	"github.com/nestmap/nestmap/internal/routing/openrouteservice"
	"github.com/nestmap/nestmap/internal/telemetry"
	"github.com/nestmap/nestmap/internal/travel"
	"github.com/nestmap/nestmap/internal/trip"
	"github.com/nestmap/nestmap/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "nestmap-worker"

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

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting NestMap worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := cfg.Telemetry
	telemetryCfg.ServiceName = serviceName
	telemetryCfg.ServiceVersion = Version
	telemetryCfg.Environment = cfg.Environment
	shutdownTelemetry, err := telemetry.Setup(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			log.Error().Err(err).Msg("failed to flush telemetry")
		}
	}()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	// Activity writes made here must evict the API's cached copies.
	var store cache.Store = cache.NewMemoryStore()
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		store = cache.NewRedisStore(client, cfg.Redis.KeyPrefix)
	} else {
		log.Warn().Msg("redis not configured, API caches will not see worker updates until they expire")
	}

	tripRepo := trip.NewPostgresRepository(pool)
	activityService := activity.NewService(activity.ServiceConfig{
		Repository: activity.NewPostgresRepository(pool),
		Trips:      tripRepo,
		Cache:      store,
		Logger:     log,
	})

	flags := featureflags.NewService(featureflags.ServiceConfig{
		Repository:   featureflags.NewPostgresRepository(pool),
		Logger:       log,
		CacheTTL:     1 * time.Minute,
		DefaultFlags: cfg.Scheduling.DefaultFlags(),
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
			CacheTTL: cfg.Routing.CacheTTL,
			Logger:   log,
		})
	} else {
		log.Warn().Msg("routing provider not configured, travel times will be estimated")
	}

	job, err := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: cfg.Refresh,
		Logger: log,
		Travel: travel.NewEstimator(estimatorCfg),
		Trips:  tripRepo,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create refresh job")
	}

	// Cloud Run probes the worker over HTTP.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Status  string       `json:"status"`
			Version string       `json:"version"`
			Refresh worker.Stats `json:"refresh"`
		}{"healthy", Version, job.Stats()})
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	if cfg.PubSub.Enabled() {
		consumer, err := worker.NewConsumer(ctx, worker.ConsumerConfig{
			ProjectID:      cfg.PubSub.ProjectID,
			SubscriptionID: cfg.PubSub.SubscriptionID,
			Job:            job,
			MaxOutstanding: 10,
			Logger:         log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub consumer")
		}
		defer consumer.Close()

		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub consumer stopped")
			}
		}()
	} else {
		log.Info().Dur("interval", cfg.Refresh.SweepInterval).Msg("no subscription configured, sweeping active trips on a timer")
		go job.Sweep(ctx)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
