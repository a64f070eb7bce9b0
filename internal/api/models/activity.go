package models

import "github.com/shopspring/decimal"

// Activity represents a single itinerary entry.
type Activity struct {
	ID                     string           `json:"id"`
	TripID                 string           `json:"tripId"`
	Title                  string           `json:"title"`
	Date                   string           `json:"date"`
	Time                   string           `json:"time"`
	LocationName           string           `json:"locationName,omitempty"`
	Latitude               *string          `json:"latitude,omitempty"`
	Longitude              *string          `json:"longitude,omitempty"`
	Tag                    string           `json:"tag"`
	Notes                  string           `json:"notes,omitempty"`
	TravelMode             string           `json:"travelMode"`
	TravelTimeFromPrevious *string          `json:"travelTimeFromPrevious,omitempty"`
	Order                  int              `json:"order"`
	Completed              bool             `json:"completed"`
	Price                  *decimal.Decimal `json:"price,omitempty"`
	ActualCost             *decimal.Decimal `json:"actualCost,omitempty"`
	IsPaid                 bool             `json:"isPaid"`
	CostCategory           string           `json:"costCategory"`
	SplitBetween           int              `json:"splitBetween,omitempty"`
	KidFriendly            *bool            `json:"kidFriendly,omitempty"`
	StrollerAccessible     *bool            `json:"strollerAccessible,omitempty"`
	CreatedAt              Timestamp        `json:"createdAt"`
	UpdatedAt              Timestamp        `json:"updatedAt"`
}

// ActivityCreateRequest is the request body for creating an activity.
type ActivityCreateRequest struct {
	Title                  string           `json:"title"`
	Date                   string           `json:"date"`
	Time                   string           `json:"time"`
	LocationName           *string          `json:"locationName,omitempty"`
	Latitude               *string          `json:"latitude,omitempty"`
	Longitude              *string          `json:"longitude,omitempty"`
	Tag                    *string          `json:"tag,omitempty"`
	Notes                  *string          `json:"notes,omitempty"`
	TravelMode             *string          `json:"travelMode,omitempty"`
	TravelTimeFromPrevious *string          `json:"travelTimeFromPrevious,omitempty"`
	Order                  *int             `json:"order,omitempty"`
	Price                  *decimal.Decimal `json:"price,omitempty"`
	ActualCost             *decimal.Decimal `json:"actualCost,omitempty"`
	IsPaid                 *bool            `json:"isPaid,omitempty"`
	CostCategory           *string          `json:"costCategory,omitempty"`
	SplitBetween           *int             `json:"splitBetween,omitempty"`
	KidFriendly            *bool            `json:"kidFriendly,omitempty"`
	StrollerAccessible     *bool            `json:"strollerAccessible,omitempty"`
}

// ActivityUpdateRequest is the request body for updating an activity.
// Absent fields are left unchanged.
type ActivityUpdateRequest struct {
	Title                  *string          `json:"title,omitempty"`
	Date                   *string          `json:"date,omitempty"`
	Time                   *string          `json:"time,omitempty"`
	LocationName           *string          `json:"locationName,omitempty"`
	Latitude               *string          `json:"latitude,omitempty"`
	Longitude              *string          `json:"longitude,omitempty"`
	Tag                    *string          `json:"tag,omitempty"`
	Notes                  *string          `json:"notes,omitempty"`
	TravelMode             *string          `json:"travelMode,omitempty"`
	TravelTimeFromPrevious *string          `json:"travelTimeFromPrevious,omitempty"`
	Order                  *int             `json:"order,omitempty"`
	Completed              *bool            `json:"completed,omitempty"`
	Price                  *decimal.Decimal `json:"price,omitempty"`
	ActualCost             *decimal.Decimal `json:"actualCost,omitempty"`
	IsPaid                 *bool            `json:"isPaid,omitempty"`
	CostCategory           *string          `json:"costCategory,omitempty"`
	SplitBetween           *int             `json:"splitBetween,omitempty"`
	KidFriendly            *bool            `json:"kidFriendly,omitempty"`
	StrollerAccessible     *bool            `json:"strollerAccessible,omitempty"`
}

// ActivityList is the response for listing a trip's activities.
type ActivityList struct {
	Items []Activity `json:"items"`
}

// ReorderRequest assigns manual order to a day's activities, first to last.
type ReorderRequest struct {
	ActivityIDs []string `json:"activityIds"`
}
