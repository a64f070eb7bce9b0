package routing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/nestmap/nestmap/internal/cache"
)

// Defaults for ServiceConfig.
const (
	DefaultCacheTTL        = 30 * time.Minute
	DefaultStaleIfErrorTTL = 6 * time.Hour
	DefaultGridSize        = 0.001 // about 110m of latitude
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	Provider Provider
	Logger   zerolog.Logger

	// Cache stores leg results. Defaults to a process-local store; pass the
	// shared store so the API and the worker reuse each other's lookups.
	Cache    cache.Store
	Observer cache.Observer

	// CacheTTL is how long a leg is served without asking the provider.
	CacheTTL time.Duration
	// StaleIfErrorTTL is how much longer an expired leg is kept as a
	// fallback for provider failures.
	StaleIfErrorTTL time.Duration
	// GridSize quantizes endpoints in degrees so nearby lookups share an
	// entry.
	GridSize float64
}

// Service looks up legs through the provider with a read-through cache.
// Concurrent lookups of the same leg share one provider call.
type Service struct {
	provider Provider
	logger   zerolog.Logger
	store    cache.Store
	observer cache.Observer
	ttl      time.Duration
	staleTTL time.Duration
	grid     float64

	inflight singleflight.Group
}

// legEntry is the cached form of a leg.
type legEntry struct {
	Route     Route     `json:"route"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// NewService creates a routing service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
		store:    cfg.Cache,
		observer: cfg.Observer,
		ttl:      cfg.CacheTTL,
		staleTTL: cfg.StaleIfErrorTTL,
		grid:     cfg.GridSize,
	}
	if s.store == nil {
		s.store = cache.NewMemoryStore()
	}
	if s.ttl <= 0 {
		s.ttl = DefaultCacheTTL
	}
	if s.staleTTL <= 0 {
		s.staleTTL = DefaultStaleIfErrorTTL
	}
	if s.grid <= 0 {
		s.grid = DefaultGridSize
	}
	return s
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// Leg returns the fastest route from one point to another. A fresh cached
// leg is returned as is; when the provider fails, an expired one still
// inside the stale window is returned instead of the error.
func (s *Service) Leg(ctx context.Context, from, to Coordinate, profile RouteProfile) (*Route, error) {
	if err := from.Validate(); err != nil {
		return nil, s.invalid("INVALID_ORIGIN", "invalid origin coordinates")
	}
	if err := to.Validate(); err != nil {
		return nil, s.invalid("INVALID_DESTINATION", "invalid destination coordinates")
	}

	key := cache.LegKey(s.legID(from, to, profile))

	var cached legEntry
	hit, err := s.store.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key.String()).Msg("leg cache read failed")
		hit = false
	}
	if hit && time.Since(cached.FetchedAt) < s.ttl {
		s.record(true)
		return &cached.Route, nil
	}
	s.record(false)

	v, err, _ := s.inflight.Do(key.ID, func() (interface{}, error) {
		return s.fetch(ctx, key, from, to, profile)
	})
	if err != nil {
		if hit {
			s.logger.Warn().Err(err).
				Time("fetched_at", cached.FetchedAt).
				Str("key", key.String()).
				Msg("serving stale leg after provider error")
			return &cached.Route, nil
		}
		return nil, err
	}
	route := v.(Route)
	return &route, nil
}

func (s *Service) fetch(ctx context.Context, key cache.Key, from, to Coordinate, profile RouteProfile) (Route, error) {
	resp, err := s.provider.GetDirections(ctx, DirectionsRequest{Origin: from, Destination: to, Profile: profile})
	if err != nil {
		return Route{}, err
	}
	if len(resp.Routes) == 0 {
		return Route{}, &Error{
			Provider: s.provider.Name(),
			Code:     "NO_ROUTE",
			Message:  "provider returned no routes",
			Err:      ErrNoRouteFound,
		}
	}

	best := resp.Routes[0]
	for _, r := range resp.Routes[1:] {
		if r.DurationSeconds < best.DurationSeconds {
			best = r
		}
	}

	entry := legEntry{Route: best, FetchedAt: time.Now()}
	if err := s.store.Set(ctx, key, entry, s.ttl+s.staleTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key.String()).Msg("leg cache write failed")
	}

	s.logger.Debug().
		Str("key", key.String()).
		Int("duration_seconds", best.DurationSeconds).
		Int("alternatives", len(resp.Routes)).
		Msg("leg fetched from provider")
	return best, nil
}

// legID quantizes both endpoints onto the grid:
// "{profile}:{lat},{lon}:{lat},{lon}".
func (s *Service) legID(from, to Coordinate, profile RouteProfile) string {
	q := func(v float64) float64 { return math.Floor(v/s.grid) * s.grid }
	return fmt.Sprintf("%s:%.4f,%.4f:%.4f,%.4f", profile, q(from.Lat), q(from.Lon), q(to.Lat), q(to.Lon))
}

func (s *Service) record(hit bool) {
	if s.observer == nil {
		return
	}
	if hit {
		s.observer.RecordCacheHit(cacheName(s.store), string(cache.ResourceLeg))
	} else {
		s.observer.RecordCacheMiss(cacheName(s.store), string(cache.ResourceLeg))
	}
}

func (s *Service) invalid(code, msg string) error {
	return &Error{Provider: s.provider.Name(), Code: code, Message: msg, Err: ErrInvalidCoordinates}
}

func cacheName(st cache.Store) string {
	if named, ok := st.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "cache"
}
