// Package resilience wraps calls to external providers in retries with
// exponential backoff behind a circuit breaker, and keeps a registry of
// provider health for the status endpoint.
package resilience

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig controls when a provider's circuit opens.
type BreakerConfig struct {
	// HalfOpenRequests is how many probes may run while half-open.
	HalfOpenRequests uint32
	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration
	// MinRequests is the sample size below which the circuit never trips.
	MinRequests uint32
	// FailureRatio trips the circuit once reached.
	FailureRatio float64
}

// DefaultBreakerConfig opens after half of at least five requests fail and
// probes again after a minute.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		HalfOpenRequests: 1,
		OpenTimeout:      time.Minute,
		MinRequests:      5,
		FailureRatio:     0.5,
	}
}

// ReadyToTrip reports whether counts should open the circuit.
func (c BreakerConfig) ReadyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < c.MinRequests || counts.Requests == 0 {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= c.FailureRatio
}

func newBreaker(name string, cfg BreakerConfig, log zerolog.Logger) *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: cfg.ReadyToTrip,
		// A provider that is throttling us is up; only outages count.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			return err == nil || (errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			event := log.Info()
			if to == gobreaker.StateOpen {
				event = log.Warn()
			}
			event.Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}
