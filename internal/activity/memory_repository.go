package activity

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and the CLI. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu         sync.RWMutex
	activities map[string]*Activity
}

// NewInMemoryRepository creates a new in-memory activity repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		activities: make(map[string]*Activity),
	}
}

// Get retrieves an activity by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.activities[id]
	if !ok {
		return nil, ErrActivityNotFound
	}
	cpy := *a
	return &cpy, nil
}

// GetByTripAndID retrieves an activity that belongs to tripID.
func (r *InMemoryRepository) GetByTripAndID(_ context.Context, tripID, id string) (*Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.activities[id]
	if !ok || a.TripID != tripID {
		return nil, ErrActivityNotFound
	}
	cpy := *a
	return &cpy, nil
}

// ListByTrip retrieves a trip's activities ordered by date, time and order.
func (r *InMemoryRepository) ListByTrip(_ context.Context, tripID string) ([]*Activity, error) {
	r.mu.RLock()
	activities := make([]*Activity, 0)
	for _, a := range r.activities {
		if a.TripID == tripID {
			cpy := *a
			activities = append(activities, &cpy)
		}
	}
	r.mu.RUnlock()

	sort.Slice(activities, func(i, j int) bool {
		a, b := activities[i], activities[j]
		if c := a.Date.Compare(b.Date); c != 0 {
			return c < 0
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
	return activities, nil
}

// Create creates a new activity.
func (r *InMemoryRepository) Create(_ context.Context, a *Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *a
	r.activities[a.ID] = &cpy
	return nil
}

// Update updates an existing activity.
func (r *InMemoryRepository) Update(_ context.Context, a *Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.activities[a.ID]; !ok {
		return ErrActivityNotFound
	}
	cpy := *a
	r.activities[a.ID] = &cpy
	return nil
}

// Delete deletes an activity by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.activities, id)
	return nil
}

// DeleteByTrip deletes every activity of a trip.
func (r *InMemoryRepository) DeleteByTrip(_ context.Context, tripID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, a := range r.activities {
		if a.TripID == tripID {
			delete(r.activities, id)
		}
	}
	return nil
}

// UpdateTravelTimes sets travelTimeFromPrevious for activities of a trip.
func (r *InMemoryRepository) UpdateTravelTimes(_ context.Context, tripID string, times map[string]string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	updated := 0
	for id, value := range times {
		a, ok := r.activities[id]
		if !ok || a.TripID != tripID || a.TravelTimeFromPrevious == value {
			continue
		}
		cpy := *a
		cpy.TravelTimeFromPrevious = value
		cpy.UpdatedAt = now
		r.activities[id] = &cpy
		updated++
	}
	return updated, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
