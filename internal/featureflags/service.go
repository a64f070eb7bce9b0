package featureflags

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/api/models"
)

// ValidationError lists the rejected updates of a batch.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid feature flags: %d errors", len(e.Errors))
}

// ServiceConfig holds configuration for the flag service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
	// CacheTTL is how long overrides are served from memory. Defaults to a
	// minute.
	CacheTTL time.Duration
	// DefaultFlags replaces the built-in defaults, typically with values
	// from the environment.
	DefaultFlags map[string]*Flag
}

// Service resolves flags as stored overrides on top of defaults. Overrides
// are loaded as one snapshot and refreshed when it expires; a failed
// refresh keeps serving the previous snapshot.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	ttl      time.Duration
	defaults map[string]*Flag

	mu        sync.RWMutex
	overrides map[string]*Flag
	expires   time.Time
}

// NewService creates a flag service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	defaults := cfg.DefaultFlags
	if defaults == nil {
		defaults = DefaultFlags()
	}
	return &Service{
		repo:      cfg.Repository,
		logger:    cfg.Logger,
		ttl:       ttl,
		defaults:  defaults,
		overrides: map[string]*Flag{},
	}
}

func (s *Service) snapshot(ctx context.Context) map[string]*Flag {
	s.mu.RLock()
	overrides, fresh := s.overrides, time.Now().Before(s.expires)
	s.mu.RUnlock()
	if fresh {
		return overrides
	}

	loaded, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load feature flags, serving previous values")
		return overrides
	}
	for _, f := range loaded {
		f.Overridden = true
	}

	s.mu.Lock()
	s.overrides = loaded
	s.expires = time.Now().Add(s.ttl)
	s.mu.Unlock()
	return loaded
}

// GetFlag returns the effective flag, or nil for an unknown key.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	if f, ok := s.snapshot(ctx)[key]; ok {
		return f
	}
	return s.defaults[key]
}

// GetAllFlags returns every effective flag keyed by name.
func (s *Service) GetAllFlags(ctx context.Context) map[string]*Flag {
	out := make(map[string]*Flag, len(s.defaults))
	for k, f := range s.defaults {
		out[k] = f
	}
	for k, f := range s.snapshot(ctx) {
		out[k] = f
	}
	return out
}

// SetFlag stores one override.
func (s *Service) SetFlag(ctx context.Context, flag *Flag) error {
	return s.SetFlags(ctx, []*Flag{flag})
}

// SetFlags validates and stores a batch of overrides. Nothing is written
// when any update is rejected.
func (s *Service) SetFlags(ctx context.Context, flags []*Flag) error {
	now := time.Now().UTC()
	var errs []models.FieldError
	for i, f := range flags {
		field := fmt.Sprintf("updates[%d]", i)
		def, ok := Lookup(f.Key)
		if !ok {
			errs = append(errs, models.FieldError{Field: field + ".key", Message: "unknown flag " + f.Key, Code: "UNKNOWN_FLAG"})
			continue
		}
		v, err := def.Normalize(f.Value)
		if err != nil {
			errs = append(errs, models.FieldError{Field: field + ".value", Message: err.Error(), Code: "INVALID_VALUE"})
			continue
		}
		f.Value = v
		f.UpdatedAt = now
		f.Overridden = true
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}

	if err := s.repo.Upsert(ctx, flags); err != nil {
		return fmt.Errorf("store feature flags: %w", err)
	}

	s.mu.Lock()
	next := make(map[string]*Flag, len(s.overrides)+len(flags))
	for k, f := range s.overrides {
		next[k] = f
	}
	for _, f := range flags {
		next[f.Key] = f
	}
	s.overrides = next
	s.mu.Unlock()
	return nil
}

// ResetFlag removes the override of key so its default applies again.
func (s *Service) ResetFlag(ctx context.Context, key string) error {
	if _, ok := Lookup(key); !ok {
		return ErrFlagNotFound
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		if errors.Is(err, ErrFlagNotFound) {
			return err
		}
		return fmt.Errorf("reset feature flag: %w", err)
	}
	s.InvalidateCache()
	return nil
}

// InvalidateCache forces the next read to reload overrides.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	s.expires = time.Time{}
	s.mu.Unlock()
}

// IsEnabled reports whether a boolean flag is on. Unknown flags are off.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	return s.GetFlag(ctx, key).BoolValue(false)
}

// TravelConflictThreshold returns the travel time above which an activity is
// flagged.
func (s *Service) TravelConflictThreshold(ctx context.Context) time.Duration {
	return s.GetFlag(ctx, FlagTravelConflictThresholdMinutes).Minutes(DefaultTravelConflictThresholdMinutes)
}

func (s *Service) IsOrderTieBreakEnabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagOrderTieBreakSameTime)
}

// CalendarEventDuration returns the length of exported calendar events.
func (s *Service) CalendarEventDuration(ctx context.Context) time.Duration {
	return s.GetFlag(ctx, FlagCalendarEventMinutes).Minutes(DefaultCalendarEventMinutes)
}

// IsRoutingProviderEnabled reports whether provider lookups are allowed. It
// is on unless explicitly disabled.
func (s *Service) IsRoutingProviderEnabled(ctx context.Context) bool {
	return s.GetFlag(ctx, FlagRoutingProviderEnabled).BoolValue(true)
}
