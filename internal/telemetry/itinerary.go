package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const itineraryMeterName = "nestmap/itinerary"

// ItineraryMetrics records itinerary builds and the conflicts they flag.
type ItineraryMetrics struct {
	builds      metric.Int64Counter
	conflicts   metric.Int64Counter
	unscheduled metric.Int64Counter
	duration    metric.Float64Histogram
}

// PlanStats summarizes one built plan.
type PlanStats struct {
	Days            int
	TimeConflicts   int
	TravelConflicts int
	Unscheduled     int
}

// NewItineraryMetrics creates the itinerary instruments on meter.
func NewItineraryMetrics(meter metric.Meter) (*ItineraryMetrics, error) {
	builds, err := meter.Int64Counter(
		"itinerary.builds",
		metric.WithDescription("Number of itinerary plans built"),
		metric.WithUnit("{plan}"),
	)
	if err != nil {
		return nil, err
	}

	conflicts, err := meter.Int64Counter(
		"itinerary.conflicts",
		metric.WithDescription("Activities flagged with a conflict"),
		metric.WithUnit("{activity}"),
	)
	if err != nil {
		return nil, err
	}

	unscheduled, err := meter.Int64Counter(
		"itinerary.unscheduled",
		metric.WithDescription("Activities dated outside their trip"),
		metric.WithUnit("{activity}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"itinerary.build.duration",
		metric.WithDescription("Time spent building an itinerary plan"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2, 5, 10, 25, 50, 100, 250),
	)
	if err != nil {
		return nil, err
	}

	return &ItineraryMetrics{
		builds:      builds,
		conflicts:   conflicts,
		unscheduled: unscheduled,
		duration:    duration,
	}, nil
}

// NewItineraryMetricsFromGlobal creates the instruments on the global meter.
func NewItineraryMetricsFromGlobal() (*ItineraryMetrics, error) {
	return NewItineraryMetrics(Meter(itineraryMeterName))
}

// RecordBuild records one served plan. A nil receiver is a no-op.
func (m *ItineraryMetrics) RecordBuild(ctx context.Context, stats PlanStats, elapsed time.Duration) {
	if m == nil {
		return
	}

	conflicted := attribute.Bool("conflicted", stats.TimeConflicts+stats.TravelConflicts > 0)
	m.builds.Add(ctx, 1, metric.WithAttributes(conflicted))
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000)

	if stats.TimeConflicts > 0 {
		m.conflicts.Add(ctx, int64(stats.TimeConflicts), metric.WithAttributes(attribute.String("kind", "time")))
	}
	if stats.TravelConflicts > 0 {
		m.conflicts.Add(ctx, int64(stats.TravelConflicts), metric.WithAttributes(attribute.String("kind", "travel")))
	}
	if stats.Unscheduled > 0 {
		m.unscheduled.Add(ctx, int64(stats.Unscheduled))
	}
}
