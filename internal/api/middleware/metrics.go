package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/nestmap/nestmap/internal/api/middleware"

// instruments creates instruments on one meter and keeps the first errors.
type instruments struct {
	meter metric.Meter
	err   error
}

func (in *instruments) counter(name, desc, unit string) metric.Int64Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	in.err = errors.Join(in.err, err)
	return c
}

func (in *instruments) gauge(name, desc, unit string) metric.Int64UpDownCounter {
	g, err := in.meter.Int64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	in.err = errors.Join(in.err, err)
	return g
}

func (in *instruments) seconds(name, desc string) metric.Float64Histogram {
	h, err := in.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10))
	in.err = errors.Join(in.err, err)
	return h
}

func (in *instruments) bytes(name, desc string) metric.Int64Histogram {
	h, err := in.meter.Int64Histogram(name, metric.WithDescription(desc), metric.WithUnit("By"))
	in.err = errors.Join(in.err, err)
	return h
}

// Metrics holds the HTTP server instruments.
type Metrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	active   metric.Int64UpDownCounter
	size     metric.Int64Histogram
}

// NewMetrics creates the HTTP server instruments on the global meter.
func NewMetrics() (*Metrics, error) {
	in := &instruments{meter: otel.Meter(meterName)}
	m := &Metrics{
		duration: in.seconds("http.server.request.duration", "Duration of HTTP server requests"),
		total:    in.counter("http.server.request.total", "HTTP server requests served", "{request}"),
		active:   in.gauge("http.server.active_requests", "HTTP server requests in progress", "{request}"),
		size:     in.bytes("http.server.response.body.size", "Size of HTTP response bodies"),
	}
	if in.err != nil {
		return nil, in.err
	}
	return m, nil
}

// Middleware records duration, count and size per request, labelled by
// route pattern rather than raw path.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()
			inFlight := metric.WithAttributes(attribute.String("http.request.method", r.Method))
			m.active.Add(ctx, 1, inFlight)
			defer m.active.Add(ctx, -1, inFlight)

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			done := metric.WithAttributeSet(attribute.NewSet(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", routeOf(r)),
				attribute.String("http.response.status_code", strconv.Itoa(rec.status)),
				attribute.Bool("error", rec.status >= http.StatusBadRequest),
			))
			m.duration.Record(ctx, time.Since(start).Seconds(), done)
			m.total.Add(ctx, 1, done)
			m.size.Record(ctx, rec.written, done)
		})
	}
}

// CacheMetrics counts cache lookups by outcome. It satisfies cache.Observer.
type CacheMetrics struct {
	hits   metric.Int64Counter
	misses metric.Int64Counter
}

func NewCacheMetrics() (*CacheMetrics, error) {
	in := &instruments{meter: otel.Meter(meterName)}
	m := &CacheMetrics{
		hits:   in.counter("nestmap.cache.hits", "Cache lookups answered from the cache", "{hit}"),
		misses: in.counter("nestmap.cache.misses", "Cache lookups that fell through to the source", "{miss}"),
	}
	if in.err != nil {
		return nil, in.err
	}
	return m, nil
}

func (m *CacheMetrics) RecordCacheHit(store, resource string) {
	m.hits.Add(context.Background(), 1, cacheAttrs(store, resource))
}

func (m *CacheMetrics) RecordCacheMiss(store, resource string) {
	m.misses.Add(context.Background(), 1, cacheAttrs(store, resource))
}

func cacheAttrs(store, resource string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("cache.store", store),
		attribute.String("cache.resource", resource),
	)
}
