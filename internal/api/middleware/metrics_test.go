package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/nestmap/nestmap/internal/api/middleware"
)

func setupTestMeter(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok, "%s is not an int64 sum", name)
				return sum
			}
		}
	}
	t.Fatalf("metric %s not recorded", name)
	return metricdata.Sum[int64]{}
}

func TestMetrics_Middleware_LabelsByRoute(t *testing.T) {
	reader := setupTestMeter(t)
	metrics, err := middleware.NewMetrics()
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(metrics.Middleware())
	r.Get("/v1/trips/{tripId}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})

	for _, id := range []string{"trp_1", "trp_2", "trp_3"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/trips/"+id, http.NoBody))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	total := collectSum(t, reader, "http.server.request.total")
	require.Len(t, total.DataPoints, 1)
	assert.Equal(t, int64(3), total.DataPoints[0].Value)

	route, ok := total.DataPoints[0].Attributes.Value(attribute.Key("http.route"))
	require.True(t, ok)
	assert.Equal(t, "/v1/trips/{tripId}", route.AsString())
}

func TestMetrics_Middleware_ErrorStatus(t *testing.T) {
	reader := setupTestMeter(t)
	metrics, err := middleware.NewMetrics()
	require.NoError(t, err)

	handler := metrics.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/trips", http.NoBody))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	total := collectSum(t, reader, "http.server.request.total")
	require.Len(t, total.DataPoints, 1)
	status, ok := total.DataPoints[0].Attributes.Value(attribute.Key("http.response.status_code"))
	require.True(t, ok)
	assert.Equal(t, "500", status.AsString())
	failed, ok := total.DataPoints[0].Attributes.Value(attribute.Key("error"))
	require.True(t, ok)
	assert.True(t, failed.AsBool())
}

func TestMetrics_Middleware_PassesBodyThrough(t *testing.T) {
	metrics, err := middleware.NewMetrics()
	require.NoError(t, err)

	handler := metrics.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("response"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "response", w.Body.String())
}

func TestCacheMetrics(t *testing.T) {
	reader := setupTestMeter(t)
	cm, err := middleware.NewCacheMetrics()
	require.NoError(t, err)

	cm.RecordCacheHit("memory", "trip")
	cm.RecordCacheHit("memory", "trip")
	cm.RecordCacheMiss("redis", "activities")

	hits := collectSum(t, reader, "nestmap.cache.hits")
	require.Len(t, hits.DataPoints, 1)
	assert.Equal(t, int64(2), hits.DataPoints[0].Value)

	misses := collectSum(t, reader, "nestmap.cache.misses")
	require.Len(t, misses.DataPoints, 1)
	resource, ok := misses.DataPoints[0].Attributes.Value(attribute.Key("cache.resource"))
	require.True(t, ok)
	assert.Equal(t, "activities", resource.AsString())
}
