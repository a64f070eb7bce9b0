package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/nestmap/nestmap/internal/api/models"
	"github.com/nestmap/nestmap/internal/itinerary"
	"github.com/nestmap/nestmap/internal/telemetry"
	"github.com/nestmap/nestmap/internal/trip"
)

const meterName = "nestmap/worker"

// TravelComputer recomputes the travel legs of one trip.
type TravelComputer interface {
	Compute(ctx context.Context, tripID string) (*models.TravelComputeResponse, error)
}

// ActiveTrips lists trips that still have days ahead of them.
type ActiveTrips interface {
	ListActive(ctx context.Context, from itinerary.Date, limit int) ([]*trip.Trip, error)
}

// RefreshJobConfig wires a RefreshJob. Meter defaults to the global provider.
type RefreshJobConfig struct {
	Config RefreshConfig
	Logger zerolog.Logger
	Travel TravelComputer
	Trips  ActiveTrips
	Meter  metric.Meter
}

// RefreshJob recomputes travel times for batches of trips.
type RefreshJob struct {
	cfg    RefreshConfig
	log    zerolog.Logger
	travel TravelComputer
	trips  ActiveTrips
	now    func() time.Time

	refreshed metric.Int64Counter
	runTime   metric.Float64Histogram

	mu    sync.RWMutex
	stats Stats
}

// Stats accumulates over the lifetime of a job.
type Stats struct {
	Runs            int64         `json:"runs"`
	TripsRefreshed  int64         `json:"tripsRefreshed"`
	TripsFailed     int64         `json:"tripsFailed"`
	LegsComputed    int64         `json:"legsComputed"`
	LegsUpdated     int64         `json:"legsUpdated"`
	LastRunAt       time.Time     `json:"lastRunAt"`
	LastRunDuration time.Duration `json:"lastRunDurationNs"`
}

// RunResult summarises one Run.
type RunResult struct {
	StartedAt    time.Time
	Duration     time.Duration
	TotalTrips   int
	Successful   int
	Failed       int
	LegsComputed int
	LegsUpdated  int
	// Errors is ordered by trip ID.
	Errors []TripError
}

// TripError records why one trip could not be refreshed.
type TripError struct {
	TripID string
	Error  string
}

// NewRefreshJob builds a job and its instruments.
func NewRefreshJob(cfg RefreshJobConfig) (*RefreshJob, error) {
	meter := cfg.Meter
	if meter == nil {
		meter = telemetry.Meter(meterName)
	}

	refreshed, err := meter.Int64Counter("nestmap.worker.trips",
		metric.WithDescription("Trips processed by the travel refresh job"),
		metric.WithUnit("{trip}"))
	if err != nil {
		return nil, fmt.Errorf("create trip counter: %w", err)
	}
	runTime, err := meter.Float64Histogram("nestmap.worker.run.duration",
		metric.WithDescription("Duration of travel refresh runs"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create run histogram: %w", err)
	}

	return &RefreshJob{
		cfg:       cfg.Config.withDefaults(),
		log:       cfg.Logger.With().Str("component", "travel_refresh").Logger(),
		travel:    cfg.Travel,
		trips:     cfg.Trips,
		now:       time.Now,
		refreshed: refreshed,
		runTime:   runTime,
	}, nil
}

// RunActive refreshes the trips that have not ended yet, at most BatchSize
// of them.
func (j *RefreshJob) RunActive(ctx context.Context) (*RunResult, error) {
	active, err := j.trips.ListActive(ctx, itinerary.DateOf(j.now().UTC()), j.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(active))
	for i, t := range active {
		ids[i] = t.ID
	}
	return j.Run(ctx, ids), nil
}

// Run recomputes the given trips, Concurrency at a time. Per-trip failures
// are collected rather than aborting the batch.
func (j *RefreshJob) Run(ctx context.Context, tripIDs []string) *RunResult {
	res := &RunResult{StartedAt: j.now(), TotalTrips: len(tripIDs)}
	if len(tripIDs) > 0 {
		j.log.Info().
			Int("trips", len(tripIDs)).
			Int("concurrency", j.cfg.Concurrency).
			Msg("travel refresh started")
	}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(j.cfg.Concurrency)
	for _, id := range tripIDs {
		g.Go(func() error {
			resp, err := j.refreshTrip(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				res.Errors = append(res.Errors, TripError{TripID: id, Error: err.Error()})
				return nil
			}
			res.Successful++
			res.LegsComputed += len(resp.Legs)
			res.LegsUpdated += resp.Updated
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(res.Errors, func(a, b int) bool { return res.Errors[a].TripID < res.Errors[b].TripID })
	res.Duration = j.now().Sub(res.StartedAt)
	j.record(ctx, res)

	if len(tripIDs) > 0 {
		j.log.Info().
			Dur("duration", res.Duration).
			Int("successful", res.Successful).
			Int("failed", res.Failed).
			Int("legs_updated", res.LegsUpdated).
			Msg("travel refresh finished")
	}
	return res
}

func (j *RefreshJob) refreshTrip(ctx context.Context, tripID string) (*models.TravelComputeResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, j.cfg.Timeout)
	defer cancel()

	resp, err := j.travel.Compute(ctx, tripID)
	if err != nil {
		j.log.Warn().Err(err).Str("trip_id", tripID).Msg("trip refresh failed")
		return nil, err
	}
	return resp, nil
}

func (j *RefreshJob) record(ctx context.Context, res *RunResult) {
	j.refreshed.Add(ctx, int64(res.Successful), metric.WithAttributes(attribute.String("outcome", "refreshed")))
	j.refreshed.Add(ctx, int64(res.Failed), metric.WithAttributes(attribute.String("outcome", "failed")))
	j.runTime.Record(ctx, res.Duration.Seconds())

	j.mu.Lock()
	defer j.mu.Unlock()
	j.stats.Runs++
	j.stats.TripsRefreshed += int64(res.Successful)
	j.stats.TripsFailed += int64(res.Failed)
	j.stats.LegsComputed += int64(res.LegsComputed)
	j.stats.LegsUpdated += int64(res.LegsUpdated)
	j.stats.LastRunAt = res.StartedAt.Add(res.Duration)
	j.stats.LastRunDuration = res.Duration
}

// Stats returns a copy of the accumulated counters.
func (j *RefreshJob) Stats() Stats {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.stats
}

// Sweep calls RunActive every SweepInterval until ctx is done.
func (j *RefreshJob) Sweep(ctx context.Context) {
	ticker := time.NewTicker(j.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.RunActive(ctx); err != nil && ctx.Err() == nil {
				j.log.Error().Err(err).Msg("active trip sweep failed")
			}
		}
	}
}
