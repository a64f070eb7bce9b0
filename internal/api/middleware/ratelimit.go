package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/nestmap/nestmap/internal/api/models"
)

// RateLimitConfig is a fixed request budget per window.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

// Budgets for the route groups.
var (
	// ComputeRateLimit covers travel-time recomputation, which may call the
	// routing provider once per leg.
	ComputeRateLimit = RateLimitConfig{RequestLimit: 10, WindowLength: time.Minute}

	// ExportRateLimit covers calendar and CSV downloads.
	ExportRateLimit = RateLimitConfig{RequestLimit: 30, WindowLength: time.Minute}

	// StandardRateLimit covers everything else behind auth.
	StandardRateLimit = RateLimitConfig{RequestLimit: 100, WindowLength: time.Minute}
)

// RateLimitByIP limits by client address. Run chi's RealIP first so
// proxied requests are keyed by the original caller.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return cfg.limiter(httprate.KeyByRealIP)
}

// RateLimitByUser limits by authenticated user, falling back to the client
// address on requests Auth has not seen.
func RateLimitByUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return cfg.limiter(func(r *http.Request) (string, error) {
		if userID := GetUserID(r.Context()); userID != "" {
			return "user:" + userID, nil
		}
		return httprate.KeyByRealIP(r)
	})
}

func (cfg RateLimitConfig) limiter(key httprate.KeyFunc) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(cfg.WindowLength.Seconds())))

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			// httprate does not expose the reset time; a full window is the
			// upper bound.
			w.Header().Set("Retry-After", retryAfter)

			problem := models.NewTooManyRequests(GetRequestID(r.Context()), "Rate limit exceeded. Please try again later.")
			problem.Instance = r.URL.Path
			problem.Write(w)
		}),
	)
}
