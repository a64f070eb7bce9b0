package models

// ItineraryActivity is an activity with its derived display and conflict
// attributes.
type ItineraryActivity struct {
	Activity

	DisplayTime   string   `json:"displayTime"`
	TimeConflict  bool     `json:"timeConflict"`
	Conflict      bool     `json:"conflict"`
	TravelMinutes *int     `json:"travelMinutes,omitempty"`
	ModeIcon      string   `json:"modeIcon"`
	Warnings      []string `json:"warnings,omitempty"`
}

// ItineraryDay is one day bucket of a trip.
type ItineraryDay struct {
	Date         string              `json:"date"`
	DayNumber    int                 `json:"dayNumber"`
	HasConflicts bool                `json:"hasConflicts"`
	Activities   []ItineraryActivity `json:"activities"`
}

// Itinerary is the day-by-day plan of a trip.
type Itinerary struct {
	TripID                 string         `json:"tripId"`
	GeneratedAt            Timestamp      `json:"generatedAt"`
	TravelThresholdMinutes int            `json:"travelThresholdMinutes"`
	Days                   []ItineraryDay `json:"days"`
	Unscheduled            []Activity     `json:"unscheduled"`
}

// DayPath is the encoded route through a day's located activities.
type DayPath struct {
	Date           string   `json:"date"`
	Polyline       string   `json:"polyline"`
	ActivityIDs    []string `json:"activityIds"`
	DistanceMeters int      `json:"distanceMeters"`
}

// TravelLeg reports the travel time computed between two activities.
type TravelLeg struct {
	FromActivityID  string `json:"fromActivityId"`
	ToActivityID    string `json:"toActivityId"`
	Mode            string `json:"mode"`
	Duration        string `json:"duration"`
	DurationSeconds int    `json:"durationSeconds"`
	Source          string `json:"source"`
}

// TravelComputeResponse is the response for recomputing a trip's travel times.
type TravelComputeResponse struct {
	TripID  string      `json:"tripId"`
	Updated int         `json:"updated"`
	Skipped int         `json:"skipped"`
	Legs    []TravelLeg `json:"legs"`
}
