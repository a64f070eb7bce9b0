// Package worker recomputes trip travel times in the background, either on
// request over Pub/Sub or in periodic sweeps of the active trips.
package worker

import "time"

// RefreshConfig tunes the travel refresh job. It is read from REFRESH_*
// variables.
type RefreshConfig struct {
	// Concurrency is how many trips are recomputed at once.
	Concurrency int `env:"REFRESH_CONCURRENCY" envDefault:"3"`

	// Timeout bounds the recomputation of a single trip.
	Timeout time.Duration `env:"REFRESH_TRIP_TIMEOUT" envDefault:"30s"`

	// BatchSize caps how many active trips one sweep picks up.
	BatchSize int `env:"REFRESH_BATCH_SIZE" envDefault:"200"`

	// SweepInterval is the period of the fallback sweep that runs when no
	// subscription is configured.
	SweepInterval time.Duration `env:"REFRESH_SWEEP_INTERVAL" envDefault:"15m"`
}

// DefaultRefreshConfig mirrors the envDefault tags.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Concurrency:   3,
		Timeout:       30 * time.Second,
		BatchSize:     200,
		SweepInterval: 15 * time.Minute,
	}
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	def := DefaultRefreshConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
	return c
}
