package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestmap/nestmap/internal/api/middleware"
)

func hit(handler http.Handler, remoteAddr, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/trips", http.NoBody)
	req.RemoteAddr = remoteAddr
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP_BlocksOverLimit(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.RateLimitConfig{RequestLimit: 3, WindowLength: time.Minute})(okHandler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:12345", "").Code, "request %d", i+1)
	}

	rec := hit(handler, "10.0.0.1:12345", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")

	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.2:12345", "").Code)
}

func TestRateLimitByIP_RetryAfterFollowsWindow(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.RateLimitConfig{RequestLimit: 1, WindowLength: 90 * time.Second})(okHandler())

	hit(handler, "10.0.1.1:12345", "")
	rec := hit(handler, "10.0.1.1:12345", "")

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))
}

func TestRateLimitByUser_KeysOnUser(t *testing.T) {
	limit := middleware.RateLimitByUser(middleware.RateLimitConfig{RequestLimit: 2, WindowLength: time.Minute})
	handler := middleware.Auth(stubTokens("usr_roaming"))(limit(okHandler()))

	// Same user from two addresses shares one budget.
	assert.Equal(t, http.StatusOK, hit(handler, "192.168.1.1:1", "t").Code)
	assert.Equal(t, http.StatusOK, hit(handler, "192.168.1.2:1", "t").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "192.168.1.3:1", "t").Code)
}

func TestRateLimitByUser_FallsBackToIP(t *testing.T) {
	handler := middleware.RateLimitByUser(middleware.RateLimitConfig{RequestLimit: 1, WindowLength: time.Minute})(okHandler())

	assert.Equal(t, http.StatusOK, hit(handler, "172.16.0.1:1", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "172.16.0.1:1", "").Code)
	assert.Equal(t, http.StatusOK, hit(handler, "172.16.0.2:1", "").Code)
}

func TestRateLimitExceeded_ProblemBody(t *testing.T) {
	handler := middleware.RequestID(
		middleware.RateLimitByIP(middleware.RateLimitConfig{RequestLimit: 1, WindowLength: time.Minute})(okHandler()),
	)

	hit(handler, "203.0.113.1:1", "")
	rec := hit(handler, "203.0.113.1:1", "")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "too-many-requests")
	assert.Contains(t, rec.Body.String(), `"instance":"/v1/trips"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestDefaultRateLimitConfigs(t *testing.T) {
	assert.Less(t, middleware.ComputeRateLimit.RequestLimit, middleware.ExportRateLimit.RequestLimit)
	assert.Less(t, middleware.ExportRateLimit.RequestLimit, middleware.StandardRateLimit.RequestLimit)
	assert.Equal(t, time.Minute, middleware.StandardRateLimit.WindowLength)
}
