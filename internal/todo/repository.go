package todo

import "context"

// Repository defines the interface for todo data persistence.
type Repository interface {
	GetByTripAndID(ctx context.Context, tripID, id string) (*Todo, error)

	// ListByTrip retrieves a trip's todos, oldest first.
	ListByTrip(ctx context.Context, tripID string) ([]*Todo, error)

	Create(ctx context.Context, todo *Todo) error
	Update(ctx context.Context, todo *Todo) error
	Delete(ctx context.Context, id string) error
	DeleteByTrip(ctx context.Context, tripID string) error
}
