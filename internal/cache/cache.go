// Package cache provides the trip-scoped read cache shared by the API and
// the worker.
//
// Entries are keyed by (resource, id). Trip resources use the trip id and
// writers invalidate the keys they affect; readers keep seeing the previous
// value until they do. That window is the only consistency guarantee.
// Routing legs are keyed by their quantized endpoints and only expire.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Resource names a kind of cached trip data.
type Resource string

const (
	ResourceActivities Resource = "activities"
	ResourceTrip       Resource = "trip"
	ResourceTodos      Resource = "todos"
	// ResourceLeg is a routing provider result. It is not trip-scoped.
	ResourceLeg Resource = "leg"
)

// Resources lists every resource a trip can have cached.
var Resources = []Resource{ResourceTrip, ResourceActivities, ResourceTodos}

// ErrUnavailable wraps backend failures. Callers should treat it as a miss.
var ErrUnavailable = errors.New("cache unavailable")

// Key identifies one cached value.
type Key struct {
	Resource Resource
	ID       string
}

// String renders the key as "resource:id".
func (k Key) String() string {
	return string(k.Resource) + ":" + k.ID
}

// ActivitiesKey returns the key of a trip's activity list.
func ActivitiesKey(tripID string) Key { return Key{Resource: ResourceActivities, ID: tripID} }

// TripKey returns the key of a stored trip record.
func TripKey(tripID string) Key { return Key{Resource: ResourceTrip, ID: tripID} }

// TodosKey returns the key of a trip's todo list.
func TodosKey(tripID string) Key { return Key{Resource: ResourceTodos, ID: tripID} }

// LegKey returns the key of a routing leg.
func LegKey(id string) Key { return Key{Resource: ResourceLeg, ID: id} }

// Store is a keyed cache of JSON-serializable values.
type Store interface {
	// Get decodes the value stored under key into dest. It reports false on
	// a miss or an expired entry.
	Get(ctx context.Context, key Key, dest any) (bool, error)

	// Set stores value under key for ttl. A zero ttl never expires.
	Set(ctx context.Context, key Key, value any, ttl time.Duration) error

	// Invalidate removes keys. Missing keys are not an error.
	Invalidate(ctx context.Context, keys ...Key) error
}

// InvalidateTrip removes every cached resource of a trip.
func InvalidateTrip(ctx context.Context, s Store, tripID string) error {
	keys := make([]Key, 0, len(Resources))
	for _, r := range Resources {
		keys = append(keys, Key{Resource: r, ID: tripID})
	}
	return s.Invalidate(ctx, keys...)
}

// Observer receives hit and miss notifications, labelled by store kind
// and resource.
type Observer interface {
	RecordCacheHit(store, resource string)
	RecordCacheMiss(store, resource string)
}

// storeName labels s for observers.
func storeName(s Store) string {
	if named, ok := s.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "cache"
}

// Loader fetches a value on a cache miss.
type Loader[T any] func(ctx context.Context) (T, error)

// GetOrLoad returns the cached value under key, or calls load and caches its
// result. Cache failures are logged and fall through to load; only load errors
// are returned.
func GetOrLoad[T any](ctx context.Context, s Store, key Key, ttl time.Duration, obs Observer, log zerolog.Logger, load Loader[T]) (T, error) {
	var cached T
	hit, err := s.Get(ctx, key, &cached)
	if err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("cache read failed")
	}
	if err == nil && hit {
		if obs != nil {
			obs.RecordCacheHit(storeName(s), string(key.Resource))
		}
		return cached, nil
	}
	if obs != nil {
		obs.RecordCacheMiss(storeName(s), string(key.Resource))
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := s.Set(ctx, key, value, ttl); err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("cache write failed")
	}
	return value, nil
}
