// Package itinerary turns a trip's flat activity list into an ordered,
// per-day plan with derived display and conflict attributes.
//
// Everything in this package is pure and synchronous. Malformed input
// (garbled times, missing travel data, dates outside the trip) degrades to
// placeholder values or omitted flags; no function here returns an error for
// activity data.
package itinerary

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trip is the date range activities are scheduled into.
type Trip struct {
	ID        string
	Title     string
	StartDate Date
	EndDate   Date
	Completed bool
}

// Days returns the inclusive sequence of calendar dates spanned by the trip.
func (t Trip) Days() []Date {
	return TripDays(t.StartDate, t.EndDate)
}

// Activity is a single dated, timed itinerary entry. Optional feature fields
// are nil when the source never set them.
type Activity struct {
	ID           string
	TripID       string
	Title        string
	Date         Date
	Time         string // "HH:MM", 24-hour, may be empty or malformed
	LocationName string
	Latitude     *string
	Longitude    *string
	Tag          Tag
	Notes        string

	TravelMode             TravelMode
	TravelTimeFromPrevious string // e.g. "15 min"; empty when unknown

	Order     int
	Completed bool

	Price        *decimal.Decimal
	ActualCost   *decimal.Decimal
	IsPaid       bool
	CostCategory CostCategory
	SplitBetween int

	KidFriendly        *bool
	StrollerAccessible *bool
}

// ScheduledActivity is an Activity with the attributes derived for display.
type ScheduledActivity struct {
	Activity

	DisplayTime    string
	TimeConflict   bool
	TravelConflict bool
	TravelDuration time.Duration // zero when absent or unparseable
	ModeIcon       Icon
	Warnings       []string
}

// DayPlan is one day bucket in display order.
type DayPlan struct {
	Date       Date
	Activities []ScheduledActivity
}

// HasConflicts reports whether any activity of the day carries a flag.
func (d DayPlan) HasConflicts() bool {
	for _, a := range d.Activities {
		if a.TimeConflict || a.TravelConflict {
			return true
		}
	}
	return false
}

// Plan is the full schedule of a trip.
type Plan struct {
	TripID string
	Days   []DayPlan

	// Unscheduled holds activities whose date falls outside the trip range.
	// They never appear in Days.
	Unscheduled []Activity
}

// Day returns the plan for date, if the trip spans it.
func (p *Plan) Day(date Date) (DayPlan, bool) {
	for _, d := range p.Days {
		if d.Date == date {
			return d, true
		}
	}
	return DayPlan{}, false
}

// Coordinates returns the activity position when both parts parse as
// decimal degrees in range.
func (a Activity) Coordinates() (lat, lon float64, ok bool) {
	return ParseCoordinates(a.Latitude, a.Longitude)
}
