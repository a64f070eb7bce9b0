package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/nestmap/nestmap/internal/api/models"
	"github.com/nestmap/nestmap/internal/itinerary"
	"github.com/nestmap/nestmap/internal/trip"
	"github.com/nestmap/nestmap/internal/worker"
)

type fakeTravel struct {
	mu       sync.Mutex
	calls    []string
	fail     map[string]bool
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (f *fakeTravel) Compute(_ context.Context, tripID string) (*models.TravelComputeResponse, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, tripID)
	if f.fail[tripID] {
		return nil, errors.New("routing unavailable")
	}
	return &models.TravelComputeResponse{
		TripID:  tripID,
		Updated: 1,
		Legs:    []models.TravelLeg{{FromActivityID: "a", ToActivityID: "b"}, {FromActivityID: "b", ToActivityID: "c"}},
	}, nil
}

func (f *fakeTravel) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeActive struct {
	mu    sync.Mutex
	trips []*trip.Trip
	err   error
	limit int
	calls int
}

func (f *fakeActive) ListActive(_ context.Context, _ itinerary.Date, limit int) ([]*trip.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit = limit
	f.calls++
	return f.trips, f.err
}

func (f *fakeActive) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newJob(t *testing.T, travel worker.TravelComputer, trips worker.ActiveTrips) *worker.RefreshJob {
	t.Helper()
	job, err := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{Concurrency: 2, Timeout: time.Second, BatchSize: 50, SweepInterval: 10 * time.Millisecond},
		Logger: zerolog.Nop(),
		Travel: travel,
		Trips:  trips,
		Meter:  sdkmetric.NewMeterProvider().Meter("test"),
	})
	require.NoError(t, err)
	return job
}

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 200, cfg.BatchSize)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
}

func TestRefreshJob_Run(t *testing.T) {
	travel := &fakeTravel{fail: map[string]bool{"trp_2": true, "trp_0": true}}
	job := newJob(t, travel, nil)

	res := job.Run(context.Background(), []string{"trp_1", "trp_2", "trp_3", "trp_0"})

	assert.Equal(t, 4, res.TotalTrips)
	assert.Equal(t, 2, res.Successful)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 4, res.LegsComputed)
	assert.Equal(t, 2, res.LegsUpdated)
	assert.Equal(t, []worker.TripError{
		{TripID: "trp_0", Error: "routing unavailable"},
		{TripID: "trp_2", Error: "routing unavailable"},
	}, res.Errors)
	assert.ElementsMatch(t, []string{"trp_0", "trp_1", "trp_2", "trp_3"}, travel.called())
}

func TestRefreshJob_Run_BoundedConcurrency(t *testing.T) {
	travel := &fakeTravel{delay: 20 * time.Millisecond}
	job := newJob(t, travel, nil)

	res := job.Run(context.Background(), []string{"a", "b", "c", "d", "e", "f"})

	assert.Equal(t, 6, res.Successful)
	assert.LessOrEqual(t, travel.peak.Load(), int32(2))
}

func TestRefreshJob_Run_Empty(t *testing.T) {
	job := newJob(t, &fakeTravel{}, nil)

	res := job.Run(context.Background(), nil)

	assert.Zero(t, res.TotalTrips)
	assert.Zero(t, res.Successful)
	assert.Empty(t, res.Errors)
}

func TestRefreshJob_Run_ContextCancellation(t *testing.T) {
	travel := &fakeTravel{}
	job := newJob(t, travel, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := job.Run(ctx, []string{"trp_1", "trp_2"})

	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, context.Canceled.Error(), res.Errors[0].Error)
	assert.Empty(t, travel.called())
}

func TestRefreshJob_RunActive(t *testing.T) {
	travel := &fakeTravel{}
	active := &fakeActive{trips: []*trip.Trip{{ID: "trp_1"}, {ID: "trp_4"}}}
	job := newJob(t, travel, active)

	res, err := job.RunActive(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 50, active.limit)
	assert.Equal(t, 2, res.Successful)
	assert.ElementsMatch(t, []string{"trp_1", "trp_4"}, travel.called())
}

func TestRefreshJob_RunActive_ListError(t *testing.T) {
	job := newJob(t, &fakeTravel{}, &fakeActive{err: errors.New("db down")})

	_, err := job.RunActive(context.Background())

	assert.EqualError(t, err, "db down")
}

func TestRefreshJob_Stats(t *testing.T) {
	job := newJob(t, &fakeTravel{fail: map[string]bool{"trp_2": true}}, nil)

	assert.Zero(t, job.Stats().Runs)

	job.Run(context.Background(), []string{"trp_1", "trp_2"})
	job.Run(context.Background(), []string{"trp_3"})

	s := job.Stats()
	assert.Equal(t, int64(2), s.Runs)
	assert.Equal(t, int64(2), s.TripsRefreshed)
	assert.Equal(t, int64(1), s.TripsFailed)
	assert.Equal(t, int64(4), s.LegsComputed)
	assert.Equal(t, int64(2), s.LegsUpdated)
	assert.False(t, s.LastRunAt.IsZero())
}

func TestRefreshJob_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	job, err := worker.NewRefreshJob(worker.RefreshJobConfig{
		Logger: zerolog.Nop(),
		Travel: &fakeTravel{fail: map[string]bool{"trp_2": true}},
		Meter:  mp.Meter("test"),
	})
	require.NoError(t, err)

	job.Run(context.Background(), []string{"trp_1", "trp_2", "trp_3"})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	byOutcome := map[string]int64{}
	var runs uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				require.Equal(t, "nestmap.worker.trips", m.Name)
				for _, dp := range data.DataPoints {
					outcome, _ := dp.Attributes.Value("outcome")
					byOutcome[outcome.AsString()] = dp.Value
				}
			case metricdata.Histogram[float64]:
				require.Equal(t, "nestmap.worker.run.duration", m.Name)
				runs = data.DataPoints[0].Count
			}
		}
	}
	assert.Equal(t, map[string]int64{"refreshed": 2, "failed": 1}, byOutcome)
	assert.Equal(t, uint64(1), runs)
}

func TestRefreshJob_Sweep(t *testing.T) {
	travel := &fakeTravel{}
	active := &fakeActive{trips: []*trip.Trip{{ID: "trp_1"}}}
	job := newJob(t, travel, active)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Sweep(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return active.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep did not stop after cancellation")
	}
	assert.Contains(t, travel.called(), "trp_1")
}
