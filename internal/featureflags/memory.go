package featureflags

import (
	"context"
	"sync"
)

// InMemoryRepository keeps overrides in a map. It backs tests and local runs.
type InMemoryRepository struct {
	mu    sync.RWMutex
	flags map[string]Flag
}

// NewInMemoryRepository returns a repository seeded with the given overrides.
func NewInMemoryRepository(seed ...*Flag) *InMemoryRepository {
	r := &InMemoryRepository{flags: make(map[string]Flag, len(seed))}
	for _, f := range seed {
		r.flags[f.Key] = *f
	}
	return r
}

func (r *InMemoryRepository) List(_ context.Context) (map[string]*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*Flag, len(r.flags))
	for k, f := range r.flags {
		f := f
		out[k] = &f
	}
	return out, nil
}

func (r *InMemoryRepository) Upsert(_ context.Context, flags []*Flag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range flags {
		r.flags[f.Key] = *f
	}
	return nil
}

func (r *InMemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.flags[key]; !ok {
		return ErrFlagNotFound
	}
	delete(r.flags, key)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
