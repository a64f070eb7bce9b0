// Package api provides the HTTP API for NestMap.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/activity"
	"github.com/nestmap/nestmap/internal/api/handler"
	"github.com/nestmap/nestmap/internal/api/middleware"
	"github.com/nestmap/nestmap/internal/export"
	"github.com/nestmap/nestmap/internal/featureflags"
	"github.com/nestmap/nestmap/internal/planner"
	"github.com/nestmap/nestmap/internal/provider/resilience"
	"github.com/nestmap/nestmap/internal/todo"
	"github.com/nestmap/nestmap/internal/travel"
	"github.com/nestmap/nestmap/internal/trip"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool

	Tokens             middleware.TokenValidator
	TripService        *trip.Service
	ActivityService    *activity.Service
	TodoService        *todo.Service
	Planner            *planner.Service
	Estimator          *travel.Estimator
	ExportService      *export.Service
	FeatureFlagService *featureflags.Service
	// RefreshPublisher queues asynchronous travel recomputation. Optional.
	RefreshPublisher activity.RefreshPublisher

	Checks   map[string]handler.CheckFunc
	Registry *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "nestmap-api"
	}

	// Request id first so every later middleware can log it. Metrics and
	// tracing wrap the router so they see the matched route pattern.
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.RequireJSON)

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Checks:    cfg.Checks,
		Registry:  cfg.Registry,
	})
	tripHandler := handler.NewTripHandler(cfg.TripService, cfg.Logger)
	activityHandler := handler.NewActivityHandler(cfg.ActivityService, cfg.Logger)
	todoHandler := handler.NewTodoHandler(cfg.TodoService, cfg.Logger)
	itineraryHandler := handler.NewItineraryHandler(cfg.Planner, cfg.Logger)
	travelHandler := handler.NewTravelHandler(cfg.Planner, cfg.Estimator, cfg.RefreshPublisher, cfg.Logger)
	exportHandler := handler.NewExportHandler(cfg.ExportService, cfg.Logger)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.Tokens)
	userRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit) // 100 req/min per user
	computeRateLimit := middleware.RateLimitByUser(middleware.ComputeRateLimit)
	exportRateLimit := middleware.RateLimitByUser(middleware.ExportRateLimit)

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Trips (authenticated) - user-based rate limiting
		r.Route("/trips", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(userRateLimit)

			r.Get("/", tripHandler.ListTrips)
			r.Post("/", tripHandler.CreateTrip)

			r.Route("/{tripId}", func(r chi.Router) {
				r.Get("/", tripHandler.GetTrip)
				r.Put("/", tripHandler.UpdateTrip)
				r.Delete("/", tripHandler.DeleteTrip)
				r.Put("/completed", tripHandler.SetTripCompleted)

				r.Route("/activities", func(r chi.Router) {
					r.Get("/", activityHandler.ListActivities)
					r.Post("/", activityHandler.CreateActivity)
					r.Route("/{activityId}", func(r chi.Router) {
						r.Get("/", activityHandler.GetActivity)
						r.Put("/", activityHandler.UpdateActivity)
						r.Delete("/", activityHandler.DeleteActivity)
						r.Put("/completed", activityHandler.SetActivityCompleted)
					})
				})
				r.Post("/days/{date}:reorder", activityHandler.ReorderDay)

				// Computed views, rebuilt on every request
				r.Get("/itinerary", itineraryHandler.GetItinerary)
				r.Get("/itinerary/days/{date}", itineraryHandler.GetDay)
				r.Get("/itinerary/days/{date}/path", itineraryHandler.GetDayPath)
				r.Get("/budget", itineraryHandler.GetBudget)

				// Travel recomputation calls the routing provider per leg
				r.With(computeRateLimit).Post("/travel-times:compute", travelHandler.ComputeTravelTimes)

				r.With(exportRateLimit).Get("/export.ics", exportHandler.ExportCalendar)
				r.With(exportRateLimit).Get("/export.csv", exportHandler.ExportCSV)

				r.Route("/todos", func(r chi.Router) {
					r.Get("/", todoHandler.ListTodos)
					r.Post("/", todoHandler.CreateTodo)
					r.Put("/{todoId}", todoHandler.UpdateTodo)
					r.Delete("/{todoId}", todoHandler.DeleteTodo)
					r.Post("/{todoId}:toggle", todoHandler.ToggleTodo)
				})
			})
		})

		// Admin endpoints (authenticated) - for internal operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(userRateLimit)

			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
				r.Delete("/{flagKey}", featureFlagsHandler.ResetFeatureFlag)
			})
		})
	})

	return r
}
