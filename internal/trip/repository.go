package trip

import (
	"context"

	"github.com/nestmap/nestmap/internal/itinerary"
)

// ListOptions contains options for listing trips.
type ListOptions struct {
	Limit  int
	Cursor string
}

// ListResult contains the results of listing trips.
type ListResult struct {
	Items      []*Trip
	NextCursor string
}

// Repository defines the interface for trip data persistence.
type Repository interface {
	// Get retrieves a trip by ID.
	Get(ctx context.Context, id string) (*Trip, error)

	// GetByUserAndID retrieves a trip owned by userID.
	// Returns ErrTripNotFound if the trip doesn't exist or belongs to someone else.
	GetByUserAndID(ctx context.Context, userID, tripID string) (*Trip, error)

	// List retrieves a user's trips, newest first.
	List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error)

	// ListActive retrieves trips that are not completed and end on or after from.
	ListActive(ctx context.Context, from itinerary.Date, limit int) ([]*Trip, error)

	// Create creates a new trip.
	Create(ctx context.Context, trip *Trip) error

	// Update updates an existing trip.
	Update(ctx context.Context, trip *Trip) error

	// Delete deletes a trip by ID.
	Delete(ctx context.Context, id string) error
}
