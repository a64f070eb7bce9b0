// Package trip provides trip management services.
package trip

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nestmap/nestmap/internal/itinerary"
)

// Repository errors.
var (
	ErrTripNotFound = errors.New("trip not found")
)

// Defaults applied to new trips.
const (
	DefaultTimeZone       = "UTC"
	DefaultCurrency       = "USD"
	DefaultAlertThreshold = 80
)

// Trip is a stored trip.
type Trip struct {
	ID             string
	UserID         string
	Title          string
	StartDate      itinerary.Date
	EndDate        itinerary.Date
	TimeZone       string
	Completed      bool
	Budget         *decimal.Decimal
	Currency       string
	AlertThreshold int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Itinerary returns the scheduling view of the trip.
func (t *Trip) Itinerary() itinerary.Trip {
	return itinerary.Trip{
		ID:        t.ID,
		Title:     t.Title,
		StartDate: t.StartDate,
		EndDate:   t.EndDate,
		Completed: t.Completed,
	}
}

// Location returns the trip's time zone, falling back to UTC when the stored
// name no longer loads.
func (t *Trip) Location() *time.Location {
	if t.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
