package trip

import (
	"context"
	"sort"
	"sync"

	"github.com/nestmap/nestmap/internal/itinerary"
)

const defaultListLimit = 50

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and the CLI. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu    sync.RWMutex
	trips map[string]*Trip
}

// NewInMemoryRepository creates a new in-memory trip repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		trips: make(map[string]*Trip),
	}
}

// Get retrieves a trip by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trips[id]
	if !ok {
		return nil, ErrTripNotFound
	}
	cpy := *t
	return &cpy, nil
}

// GetByUserAndID retrieves a trip owned by userID.
func (r *InMemoryRepository) GetByUserAndID(_ context.Context, userID, tripID string) (*Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trips[tripID]
	if !ok || t.UserID != userID {
		return nil, ErrTripNotFound
	}
	cpy := *t
	return &cpy, nil
}

// List retrieves a user's trips, newest first.
func (r *InMemoryRepository) List(_ context.Context, userID string, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	var trips []*Trip
	for _, t := range r.trips {
		if t.UserID == userID {
			cpy := *t
			trips = append(trips, &cpy)
		}
	}
	r.mu.RUnlock()

	sort.Slice(trips, func(i, j int) bool {
		if !trips[i].CreatedAt.Equal(trips[j].CreatedAt) {
			return trips[i].CreatedAt.After(trips[j].CreatedAt)
		}
		return trips[i].ID > trips[j].ID
	})

	if opts.Cursor != "" {
		for i, t := range trips {
			if t.ID == opts.Cursor {
				trips = trips[i+1:]
				break
			}
		}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	result := &ListResult{Items: trips}
	if len(trips) > limit {
		result.Items = trips[:limit]
		result.NextCursor = trips[limit-1].ID
	}
	return result, nil
}

// ListActive retrieves trips that are not completed and end on or after from.
func (r *InMemoryRepository) ListActive(_ context.Context, from itinerary.Date, limit int) ([]*Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var trips []*Trip
	for _, t := range r.trips {
		if t.Completed || t.EndDate.Before(from) {
			continue
		}
		cpy := *t
		trips = append(trips, &cpy)
	}

	sort.Slice(trips, func(i, j int) bool {
		if trips[i].StartDate != trips[j].StartDate {
			return trips[i].StartDate.Before(trips[j].StartDate)
		}
		return trips[i].ID < trips[j].ID
	})
	if limit > 0 && len(trips) > limit {
		trips = trips[:limit]
	}
	return trips, nil
}

// Create creates a new trip.
func (r *InMemoryRepository) Create(_ context.Context, t *Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *t
	r.trips[t.ID] = &cpy
	return nil
}

// Update updates an existing trip.
func (r *InMemoryRepository) Update(_ context.Context, t *Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.trips[t.ID]; !ok {
		return ErrTripNotFound
	}
	cpy := *t
	r.trips[t.ID] = &cpy
	return nil
}

// Delete deletes a trip by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.trips, id)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
