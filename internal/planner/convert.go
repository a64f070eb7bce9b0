package planner

import (
	"errors"
	"time"

	"github.com/nestmap/nestmap/internal/activity"
	"github.com/nestmap/nestmap/internal/api/models"
	"github.com/nestmap/nestmap/internal/itinerary"
)

// ErrDayOutOfRange is returned when a requested date is not a day of the trip.
var ErrDayOutOfRange = errors.New("date is outside the trip")

// DayToAPI converts a scheduled day. dayNumber is 1-based.
func DayToAPI(d itinerary.DayPlan, dayNumber int) models.ItineraryDay {
	acts := make([]models.ItineraryActivity, 0, len(d.Activities))
	for _, a := range d.Activities {
		acts = append(acts, ActivityToAPI(a))
	}
	return models.ItineraryDay{
		Date:         d.Date.String(),
		DayNumber:    dayNumber,
		HasConflicts: d.HasConflicts(),
		Activities:   acts,
	}
}

// ActivityToAPI converts a scheduled activity. Conflict carries the travel
// flag; TimeConflict the same-time flag.
func ActivityToAPI(a itinerary.ScheduledActivity) models.ItineraryActivity {
	result := models.ItineraryActivity{
		Activity:     activity.FromItinerary(a.Activity),
		DisplayTime:  a.DisplayTime,
		TimeConflict: a.TimeConflict,
		Conflict:     a.TravelConflict,
		ModeIcon:     string(a.ModeIcon),
		Warnings:     a.Warnings,
	}
	if a.TravelDuration > 0 {
		minutes := int(a.TravelDuration / time.Minute)
		result.TravelMinutes = &minutes
	}
	return result
}
