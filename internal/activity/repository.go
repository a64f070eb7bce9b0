package activity

import "context"

// Repository defines the interface for activity data persistence.
type Repository interface {
	// Get retrieves an activity by ID.
	Get(ctx context.Context, id string) (*Activity, error)

	// GetByTripAndID retrieves an activity that belongs to tripID.
	// Returns ErrActivityNotFound if it doesn't exist or belongs to another trip.
	GetByTripAndID(ctx context.Context, tripID, id string) (*Activity, error)

	// ListByTrip retrieves a trip's activities ordered by date, time and order.
	ListByTrip(ctx context.Context, tripID string) ([]*Activity, error)

	// Create creates a new activity.
	Create(ctx context.Context, activity *Activity) error

	// Update updates an existing activity.
	Update(ctx context.Context, activity *Activity) error

	// Delete deletes an activity by ID.
	Delete(ctx context.Context, id string) error

	// DeleteByTrip deletes every activity of a trip.
	DeleteByTrip(ctx context.Context, tripID string) error

	// UpdateTravelTimes sets travelTimeFromPrevious for the given activity
	// IDs of a trip and returns how many rows changed.
	UpdateTravelTimes(ctx context.Context, tripID string, times map[string]string) (int, error)
}
