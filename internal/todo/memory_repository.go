package todo

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu    sync.RWMutex
	todos map[string]*Todo
}

// NewInMemoryRepository creates a new in-memory todo repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		todos: make(map[string]*Todo),
	}
}

func (r *InMemoryRepository) GetByTripAndID(_ context.Context, tripID, id string) (*Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.todos[id]
	if !ok || t.TripID != tripID {
		return nil, ErrTodoNotFound
	}
	cpy := *t
	return &cpy, nil
}

func (r *InMemoryRepository) ListByTrip(_ context.Context, tripID string) ([]*Todo, error) {
	r.mu.RLock()
	todos := make([]*Todo, 0)
	for _, t := range r.todos {
		if t.TripID == tripID {
			cpy := *t
			todos = append(todos, &cpy)
		}
	}
	r.mu.RUnlock()

	sort.Slice(todos, func(i, j int) bool {
		if !todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
			return todos[i].CreatedAt.Before(todos[j].CreatedAt)
		}
		return todos[i].ID < todos[j].ID
	})
	return todos, nil
}

func (r *InMemoryRepository) Create(_ context.Context, t *Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *t
	r.todos[t.ID] = &cpy
	return nil
}

func (r *InMemoryRepository) Update(_ context.Context, t *Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.todos[t.ID]; !ok {
		return ErrTodoNotFound
	}
	cpy := *t
	r.todos[t.ID] = &cpy
	return nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.todos, id)
	return nil
}

func (r *InMemoryRepository) DeleteByTrip(_ context.Context, tripID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.todos {
		if t.TripID == tripID {
			delete(r.todos, id)
		}
	}
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
