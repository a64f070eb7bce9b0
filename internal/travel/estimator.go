// Package travel fills in the travel time between consecutive activities of
// a day from a routing provider or, failing that, a straight-line estimate.
package travel

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/activity"
	"github.com/nestmap/nestmap/internal/api/models"
	"github.com/nestmap/nestmap/internal/itinerary"
	"github.com/nestmap/nestmap/internal/routing"
	"github.com/nestmap/nestmap/pkg/polyline"
)

// Straight-line estimate parameters.
const (
	TransitSpeedKmh = 22.0
	TransitWait     = 5 * time.Minute
	WalkingSpeedKmh = 4.8
	DrivingSpeedKmh = 35.0
)

// Leg sources reported in TravelLeg.Source.
const (
	SourceProvider = "provider"
	SourceEstimate = "estimate"
)

// Router looks up a single leg.
type Router interface {
	Leg(ctx context.Context, from, to routing.Coordinate, profile routing.RouteProfile) (*routing.Route, error)
}

// ActivityStore reads a trip's activities and writes travel times back.
type ActivityStore interface {
	ForTrip(ctx context.Context, tripID string) ([]*activity.Activity, error)
	ApplyTravelTimes(ctx context.Context, tripID string, times map[string]string) (int, error)
}

// Switch reports whether the routing provider may be used and whether
// same-time activities are sequenced by their manual order.
type Switch interface {
	IsRoutingProviderEnabled(ctx context.Context) bool
	IsOrderTieBreakEnabled(ctx context.Context) bool
}

// EstimatorConfig holds configuration for the estimator.
type EstimatorConfig struct {
	Activities ActivityStore
	// Router is optional; without it every leg is estimated.
	Router Router
	Switch Switch
	Logger zerolog.Logger
}

// Estimator computes travel times for a trip.
type Estimator struct {
	activities ActivityStore
	router     Router
	sw         Switch
	logger     zerolog.Logger
}

// NewEstimator creates an Estimator.
func NewEstimator(cfg EstimatorConfig) *Estimator {
	return &Estimator{
		activities: cfg.Activities,
		router:     cfg.Router,
		sw:         cfg.Switch,
		logger:     cfg.Logger,
	}
}

// Compute recomputes travelTimeFromPrevious for every activity that follows
// another located activity on the same day. The first activity of a day and
// pairs missing coordinates are left untouched.
func (e *Estimator) Compute(ctx context.Context, tripID string) (*models.TravelComputeResponse, error) {
	stored, err := e.activities.ForTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	useProvider := e.router != nil && (e.sw == nil || e.sw.IsRoutingProviderEnabled(ctx))
	tieBreak := e.sw != nil && e.sw.IsOrderTieBreakEnabled(ctx)

	result := &models.TravelComputeResponse{
		TripID: tripID,
		Legs:   []models.TravelLeg{},
	}
	times := make(map[string]string)

	for _, day := range byDay(activity.Schedulable(stored), tieBreak) {
		for i := 1; i < len(day); i++ {
			prev, cur := day[i-1], day[i]

			fromLat, fromLon, ok1 := prev.Coordinates()
			toLat, toLon, ok2 := cur.Coordinates()
			if !ok1 || !ok2 {
				result.Skipped++
				continue
			}
			from := routing.Coordinate{Lat: fromLat, Lon: fromLon}
			to := routing.Coordinate{Lat: toLat, Lon: toLon}

			d, source := e.leg(ctx, from, to, cur.TravelMode, useProvider)
			if d <= 0 {
				result.Skipped++
				continue
			}
			text := itinerary.FormatTravelDuration(d)
			times[cur.ID] = text

			result.Legs = append(result.Legs, models.TravelLeg{
				FromActivityID:  prev.ID,
				ToActivityID:    cur.ID,
				Mode:            string(cur.TravelMode),
				Duration:        text,
				DurationSeconds: int(d / time.Second),
				Source:          source,
			})
		}
	}

	if len(times) == 0 {
		return result, nil
	}

	updated, err := e.activities.ApplyTravelTimes(ctx, tripID, times)
	if err != nil {
		return nil, err
	}
	result.Updated = updated

	e.logger.Debug().
		Str("trip_id", tripID).
		Int("legs", len(result.Legs)).
		Int("updated", updated).
		Int("skipped", result.Skipped).
		Msg("travel times computed")

	return result, nil
}

func (e *Estimator) leg(ctx context.Context, from, to routing.Coordinate, mode itinerary.TravelMode, useProvider bool) (time.Duration, string) {
	profile, routable := routing.ProfileFor(mode)
	if useProvider && routable {
		route, err := e.router.Leg(ctx, from, to, profile)
		if err == nil && route.DurationSeconds > 0 {
			return route.Duration(), SourceProvider
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			e.logger.Warn().
				Err(err).
				Str("profile", string(profile)).
				Msg("routing lookup failed, using estimate")
		}
	}
	return Estimate(from, to, mode), SourceEstimate
}

// Estimate derives a travel time from the great-circle distance between two
// points and a nominal speed per mode. Transit adds a fixed wait.
func Estimate(from, to routing.Coordinate, mode itinerary.TravelMode) time.Duration {
	meters := polyline.Distance(
		polyline.Coordinate{Lat: from.Lat, Lon: from.Lon},
		polyline.Coordinate{Lat: to.Lat, Lon: to.Lon},
	)

	speed := WalkingSpeedKmh
	var wait time.Duration
	switch mode {
	case itinerary.TravelModeDriving:
		speed = DrivingSpeedKmh
	case itinerary.TravelModeTransit:
		speed = TransitSpeedKmh
		wait = TransitWait
	}

	hours := meters / 1000 / speed
	travel := time.Duration(math.Round(hours*3600)) * time.Second
	return travel + wait
}

// byDay groups activities by date in display order. Dates come back in
// ascending order; which trip day they belong to does not matter here.
func byDay(acts []itinerary.Activity, orderTieBreak bool) [][]itinerary.Activity {
	groups := make(map[itinerary.Date][]itinerary.Activity)
	var dates []itinerary.Date
	for _, a := range acts {
		if _, ok := groups[a.Date]; !ok {
			dates = append(dates, a.Date)
		}
		groups[a.Date] = append(groups[a.Date], a)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	days := make([][]itinerary.Activity, 0, len(dates))
	for _, d := range dates {
		days = append(days, itinerary.SortByTime(groups[d], orderTieBreak))
	}
	return days
}
