package featureflags

import (
	"context"
	"errors"
)

// ErrFlagNotFound is returned when a flag has no stored override.
var ErrFlagNotFound = errors.New("feature flag not found")

// Repository stores flag overrides. Flags without an override take their
// configured default.
type Repository interface {
	List(ctx context.Context) (map[string]*Flag, error)
	// Upsert writes all flags or none.
	Upsert(ctx context.Context, flags []*Flag) error
	Delete(ctx context.Context, key string) error
}
