// Package activity provides activity management services.
package activity

import (
	"errors"
	"time"

	"github.com/nestmap/nestmap/internal/itinerary"
)

// Repository errors.
var (
	ErrActivityNotFound = errors.New("activity not found")
)

// Activity is a stored activity.
type Activity struct {
	itinerary.Activity

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Schedulable strips storage fields for the scheduler.
func Schedulable(stored []*Activity) []itinerary.Activity {
	out := make([]itinerary.Activity, len(stored))
	for i, a := range stored {
		out[i] = a.Activity
	}
	return out
}
