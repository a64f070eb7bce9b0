package models

import "github.com/shopspring/decimal"

// Trip represents a trip and its date range.
type Trip struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	StartDate      string           `json:"startDate"`
	EndDate        string           `json:"endDate"`
	Days           []string         `json:"days"`
	TimeZone       string           `json:"timeZone"`
	Completed      bool             `json:"completed"`
	Budget         *decimal.Decimal `json:"budget,omitempty"`
	Currency       string           `json:"currency"`
	AlertThreshold int              `json:"alertThreshold"`
	CreatedAt      Timestamp        `json:"createdAt"`
	UpdatedAt      Timestamp        `json:"updatedAt"`
}

// TripCreateRequest is the request body for creating a trip.
type TripCreateRequest struct {
	Title          string           `json:"title"`
	StartDate      string           `json:"startDate"`
	EndDate        string           `json:"endDate"`
	TimeZone       *string          `json:"timeZone,omitempty"`
	Budget         *decimal.Decimal `json:"budget,omitempty"`
	Currency       *string          `json:"currency,omitempty"`
	AlertThreshold *int             `json:"alertThreshold,omitempty"`
}

// TripUpdateRequest is the request body for updating a trip.
type TripUpdateRequest struct {
	Title          *string          `json:"title,omitempty"`
	StartDate      *string          `json:"startDate,omitempty"`
	EndDate        *string          `json:"endDate,omitempty"`
	TimeZone       *string          `json:"timeZone,omitempty"`
	Budget         *decimal.Decimal `json:"budget,omitempty"`
	Currency       *string          `json:"currency,omitempty"`
	AlertThreshold *int             `json:"alertThreshold,omitempty"`
}

// PagedTrips represents a paginated list of trips.
type PagedTrips struct {
	Items []Trip            `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}
