// Package planner serves the read side of a trip: its day-by-day
// itinerary, single days, day paths and the budget summary.
package planner

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/activity"
	"github.com/nestmap/nestmap/internal/api/models"
	"github.com/nestmap/nestmap/internal/budget"
	"github.com/nestmap/nestmap/internal/cache"
	"github.com/nestmap/nestmap/internal/itinerary"
	"github.com/nestmap/nestmap/internal/telemetry"
	"github.com/nestmap/nestmap/internal/trip"
	"github.com/nestmap/nestmap/pkg/polyline"
)

// DefaultTripCacheTTL bounds how long a trip record stays cached.
const DefaultTripCacheTTL = 10 * time.Minute

// TripSource loads a trip by id regardless of owner.
type TripSource interface {
	Get(ctx context.Context, tripID string) (*trip.Trip, error)
}

// ActivitySource returns the stored activities of a trip.
type ActivitySource interface {
	ForTrip(ctx context.Context, tripID string) ([]*activity.Activity, error)
}

// Settings supplies the scheduling knobs that can change at runtime.
type Settings interface {
	TravelConflictThreshold(ctx context.Context) time.Duration
	IsOrderTieBreakEnabled(ctx context.Context) bool
}

// ServiceConfig holds configuration for the planner.
type ServiceConfig struct {
	Trips      TripSource
	Activities ActivitySource
	Settings   Settings
	Cache      cache.Store
	CacheTTL   time.Duration
	Observer   cache.Observer
	Metrics    *telemetry.ItineraryMetrics
	Logger     zerolog.Logger
}

// Service builds itineraries on demand.
type Service struct {
	trips      TripSource
	activities ActivitySource
	settings   Settings
	cache      cache.Store
	cacheTTL   time.Duration
	observer   cache.Observer
	metrics    *telemetry.ItineraryMetrics
	logger     zerolog.Logger
	now        func() time.Time
}

// NewService creates a planner. A nil Settings uses the scheduler defaults.
func NewService(cfg ServiceConfig) *Service {
	store := cfg.Cache
	if store == nil {
		store = cache.NewMemoryStore()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultTripCacheTTL
	}
	return &Service{
		trips:      cfg.Trips,
		activities: cfg.Activities,
		settings:   cfg.Settings,
		cache:      store,
		cacheTTL:   ttl,
		observer:   cfg.Observer,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// Result is a built plan together with the trip and the activities it was
// built from.
type Result struct {
	Trip       *trip.Trip
	Activities []itinerary.Activity
	Plan       *itinerary.Plan
	Threshold  time.Duration
}

// Trip returns the trip owned by userID through the cache. A trip owned by
// someone else is reported as ErrTripNotFound.
func (s *Service) Trip(ctx context.Context, userID, tripID string) (*trip.Trip, error) {
	t, err := cache.GetOrLoad(ctx, s.cache, cache.TripKey(tripID), s.cacheTTL, s.observer, s.logger,
		func(ctx context.Context) (*trip.Trip, error) {
			return s.trips.Get(ctx, tripID)
		})
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, trip.ErrTripNotFound
	}
	return t, nil
}

// Build loads a trip and its activities and schedules them. The plan itself
// is never cached.
func (s *Service) Build(ctx context.Context, userID, tripID string) (*Result, error) {
	t, err := s.Trip(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}
	stored, err := s.activities.ForTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	start := s.now()
	scheduler := s.scheduler(ctx)
	acts := activity.Schedulable(stored)
	plan := scheduler.Build(t.Itinerary(), acts)
	s.metrics.RecordBuild(ctx, statsOf(plan), s.now().Sub(start))

	return &Result{
		Trip:       t,
		Activities: acts,
		Plan:       plan,
		Threshold:  scheduler.Policy().Threshold,
	}, nil
}

// Itinerary returns the full day-by-day plan of a trip.
func (s *Service) Itinerary(ctx context.Context, userID, tripID string) (*models.Itinerary, error) {
	res, err := s.Build(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}

	days := make([]models.ItineraryDay, 0, len(res.Plan.Days))
	for i, d := range res.Plan.Days {
		days = append(days, DayToAPI(d, i+1))
	}
	unscheduled := make([]models.Activity, 0, len(res.Plan.Unscheduled))
	for _, a := range res.Plan.Unscheduled {
		unscheduled = append(unscheduled, activity.FromItinerary(a))
	}

	return &models.Itinerary{
		TripID:                 tripID,
		GeneratedAt:            models.Timestamp(s.now()),
		TravelThresholdMinutes: int(res.Threshold / time.Minute),
		Days:                   days,
		Unscheduled:            unscheduled,
	}, nil
}

// Day returns the plan of one trip day. Dates outside the trip report
// ErrDayOutOfRange.
func (s *Service) Day(ctx context.Context, userID, tripID string, date itinerary.Date) (*models.ItineraryDay, error) {
	res, err := s.Build(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}
	day, ok := res.Plan.Day(date)
	if !ok {
		return nil, ErrDayOutOfRange
	}
	result := DayToAPI(day, res.Trip.StartDate.DaysUntil(date)+1)
	return &result, nil
}

// DayPath encodes the route through a day's located activities in display
// order. Activities without usable coordinates are skipped.
func (s *Service) DayPath(ctx context.Context, userID, tripID string, date itinerary.Date) (*models.DayPath, error) {
	res, err := s.Build(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}
	day, ok := res.Plan.Day(date)
	if !ok {
		return nil, ErrDayOutOfRange
	}

	coords := make([]polyline.Coordinate, 0, len(day.Activities))
	ids := make([]string, 0, len(day.Activities))
	for _, a := range day.Activities {
		lat, lon, ok := a.Coordinates()
		if !ok {
			continue
		}
		coords = append(coords, polyline.Coordinate{Lat: lat, Lon: lon})
		ids = append(ids, a.ID)
	}

	return &models.DayPath{
		Date:           date.String(),
		Polyline:       polyline.Encode(coords),
		ActivityIDs:    ids,
		DistanceMeters: int(polyline.Length(coords)),
	}, nil
}

// Budget returns the spending summary of a trip.
func (s *Service) Budget(ctx context.Context, userID, tripID string) (*models.BudgetSummary, error) {
	t, err := s.Trip(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}
	stored, err := s.activities.ForTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	summary := budget.Summarize(t, activity.Schedulable(stored))
	return &summary, nil
}

func (s *Service) scheduler(ctx context.Context) *itinerary.Scheduler {
	if s.settings == nil {
		return itinerary.NewScheduler()
	}
	return itinerary.NewScheduler(
		itinerary.WithTravelPolicy(itinerary.TravelPolicy{Threshold: s.settings.TravelConflictThreshold(ctx)}),
		itinerary.WithOrderTieBreak(s.settings.IsOrderTieBreakEnabled(ctx)),
	)
}

func statsOf(p *itinerary.Plan) telemetry.PlanStats {
	stats := telemetry.PlanStats{
		Days:        len(p.Days),
		Unscheduled: len(p.Unscheduled),
	}
	for _, d := range p.Days {
		for _, a := range d.Activities {
			if a.TimeConflict {
				stats.TimeConflicts++
			}
			if a.TravelConflict {
				stats.TravelConflicts++
			}
		}
	}
	return stats
}
