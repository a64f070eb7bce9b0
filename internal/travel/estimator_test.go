package travel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestmap/nestmap/internal/activity"
	"github.com/nestmap/nestmap/internal/itinerary"
	"github.com/nestmap/nestmap/internal/routing"
)

type fakeRouter struct {
	duration int
	err      error
	profiles []routing.RouteProfile
}

func (r *fakeRouter) Leg(_ context.Context, _, _ routing.Coordinate, profile routing.RouteProfile) (*routing.Route, error) {
	r.profiles = append(r.profiles, profile)
	if r.err != nil {
		return nil, r.err
	}
	return &routing.Route{DurationSeconds: r.duration}, nil
}

type fakeSwitch struct {
	routing  bool
	tieBreak bool
}

func (s fakeSwitch) IsRoutingProviderEnabled(context.Context) bool { return s.routing }

func (s fakeSwitch) IsOrderTieBreakEnabled(context.Context) bool { return s.tieBreak }

type fakeStore struct {
	acts    []*activity.Activity
	applied map[string]string
}

func (s *fakeStore) ForTrip(context.Context, string) ([]*activity.Activity, error) {
	return s.acts, nil
}

func (s *fakeStore) ApplyTravelTimes(_ context.Context, _ string, times map[string]string) (int, error) {
	s.applied = times
	return len(times), nil
}

func located(id, date, hhmm, lat, lon string, mode itinerary.TravelMode) *activity.Activity {
	a := &activity.Activity{}
	a.ID, a.TripID, a.Title = id, "trp_1", id
	a.Date = itinerary.MustParseDate(date)
	a.Time = hhmm
	a.TravelMode = mode
	if lat != "" {
		a.Latitude, a.Longitude = &lat, &lon
	}
	return a
}

func TestEstimator_Compute_UsesProvider(t *testing.T) {
	store := &fakeStore{acts: []*activity.Activity{
		located("b", "2024-05-10", "11:00", "41.9009", "12.4833", itinerary.TravelModeDriving),
		located("a", "2024-05-10", "09:00", "41.8986", "12.4769", itinerary.TravelModeWalking),
		located("c", "2024-05-10", "13:00", "41.9029", "12.4534", itinerary.TravelModeWalking),
	}}
	router := &fakeRouter{duration: 900}

	e := NewEstimator(EstimatorConfig{Activities: store, Router: router, Switch: fakeSwitch{routing: true}, Logger: zerolog.Nop()})
	res, err := e.Compute(context.Background(), "trp_1")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"b": "15 min", "c": "15 min"}, store.applied)
	assert.Equal(t, 2, res.Updated)
	require.Len(t, res.Legs, 2)
	assert.Equal(t, "a", res.Legs[0].FromActivityID)
	assert.Equal(t, "b", res.Legs[0].ToActivityID)
	assert.Equal(t, SourceProvider, res.Legs[0].Source)
	assert.Equal(t, []routing.RouteProfile{routing.ProfileDrive, routing.ProfileWalk}, router.profiles)
}

func TestEstimator_Compute_TransitIsEstimated(t *testing.T) {
	store := &fakeStore{acts: []*activity.Activity{
		located("a", "2024-05-10", "09:00", "41.8986", "12.4769", itinerary.TravelModeWalking),
		located("b", "2024-05-10", "10:00", "41.9009", "12.4833", itinerary.TravelModeTransit),
	}}
	router := &fakeRouter{duration: 900}

	e := NewEstimator(EstimatorConfig{Activities: store, Router: router, Logger: zerolog.Nop()})
	res, err := e.Compute(context.Background(), "trp_1")
	require.NoError(t, err)

	assert.Empty(t, router.profiles)
	require.Len(t, res.Legs, 1)
	assert.Equal(t, SourceEstimate, res.Legs[0].Source)
	// ~590 m at 22 km/h is under two minutes, plus the wait.
	assert.Equal(t, "7 min", store.applied["b"])
}

func TestEstimator_Compute_ProviderDisabledOrFailing(t *testing.T) {
	acts := func() []*activity.Activity {
		return []*activity.Activity{
			located("a", "2024-05-10", "09:00", "41.8986", "12.4769", itinerary.TravelModeWalking),
			located("b", "2024-05-10", "10:00", "41.9009", "12.4833", itinerary.TravelModeWalking),
		}
	}

	t.Run("disabled", func(t *testing.T) {
		store := &fakeStore{acts: acts()}
		router := &fakeRouter{duration: 900}
		e := NewEstimator(EstimatorConfig{Activities: store, Router: router, Switch: fakeSwitch{}, Logger: zerolog.Nop()})

		res, err := e.Compute(context.Background(), "trp_1")
		require.NoError(t, err)
		assert.Empty(t, router.profiles)
		assert.Equal(t, SourceEstimate, res.Legs[0].Source)
	})

	t.Run("failing", func(t *testing.T) {
		store := &fakeStore{acts: acts()}
		router := &fakeRouter{err: errors.New("upstream down")}
		e := NewEstimator(EstimatorConfig{Activities: store, Router: router, Logger: zerolog.Nop()})

		res, err := e.Compute(context.Background(), "trp_1")
		require.NoError(t, err)
		assert.Len(t, router.profiles, 1)
		assert.Equal(t, SourceEstimate, res.Legs[0].Source)
		assert.NotEmpty(t, store.applied["b"])
	})
}

func TestEstimator_Compute_OrderTieBreak(t *testing.T) {
	acts := func() []*activity.Activity {
		late := located("late", "2024-05-10", "09:00", "41.8986", "12.4769", itinerary.TravelModeWalking)
		late.Order = 2
		early := located("early", "2024-05-10", "09:00", "41.9009", "12.4833", itinerary.TravelModeWalking)
		early.Order = 1
		return []*activity.Activity{late, early}
	}

	tests := []struct {
		name     string
		tieBreak bool
		from, to string
	}{
		{"off keeps stored order", false, "late", "early"},
		{"on sequences by order", true, "early", "late"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{acts: acts()}
			e := NewEstimator(EstimatorConfig{
				Activities: store,
				Router:     &fakeRouter{duration: 600},
				Switch:     fakeSwitch{routing: true, tieBreak: tt.tieBreak},
				Logger:     zerolog.Nop(),
			})

			res, err := e.Compute(context.Background(), "trp_1")
			require.NoError(t, err)
			require.Len(t, res.Legs, 1)
			assert.Equal(t, tt.from, res.Legs[0].FromActivityID)
			assert.Equal(t, tt.to, res.Legs[0].ToActivityID)
			assert.Equal(t, map[string]string{tt.to: "10 min"}, store.applied)
		})
	}
}

func TestEstimator_Compute_SkipsUnlocatedAndFirstOfDay(t *testing.T) {
	store := &fakeStore{acts: []*activity.Activity{
		located("a", "2024-05-10", "09:00", "41.8986", "12.4769", itinerary.TravelModeWalking),
		located("b", "2024-05-10", "10:00", "", "", itinerary.TravelModeWalking),
		located("c", "2024-05-11", "09:00", "41.9009", "12.4833", itinerary.TravelModeWalking),
	}}
	router := &fakeRouter{duration: 600}

	e := NewEstimator(EstimatorConfig{Activities: store, Router: router, Logger: zerolog.Nop()})
	res, err := e.Compute(context.Background(), "trp_1")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, res.Legs)
	assert.Nil(t, store.applied)
}

func TestEstimate(t *testing.T) {
	from := routing.Coordinate{Lat: 41.8902, Lon: 12.4922}
	to := routing.Coordinate{Lat: 41.8902, Lon: 12.4922}
	assert.Equal(t, TransitWait, Estimate(from, to, itinerary.TravelModeTransit))
	assert.Zero(t, Estimate(from, to, itinerary.TravelModeWalking))

	// One degree of latitude is ~111 km.
	far := routing.Coordinate{Lat: 42.8902, Lon: 12.4922}
	walk := Estimate(from, far, itinerary.TravelModeWalking)
	drive := Estimate(from, far, itinerary.TravelModeDriving)
	assert.InDelta(t, 23.2, walk.Hours(), 0.2)
	assert.Less(t, drive, walk)
	assert.InDelta(t, (111.2/DrivingSpeedKmh)*float64(time.Hour), float64(drive), float64(2*time.Minute))
}
