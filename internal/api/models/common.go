// Package models holds the JSON request and response bodies of the NestMap
// API.
package models

import (
	"bytes"
	"fmt"
	"time"
)

// PagedResponseMeta describes a page of a cursor-paginated listing.
type PagedResponseMeta struct {
	Limit      int     `json:"limit"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// CompletedRequest sets the completion flag of a trip, activity or todo.
type CompletedRequest struct {
	Completed bool `json:"completed"`
}

// Timestamp is a time.Time that encodes as RFC 3339 in UTC without
// fractional seconds.
type Timestamp time.Time

func (t Timestamp) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, len(time.RFC3339)+2)
	b = append(b, '"')
	b = time.Time(t).UTC().AppendFormat(b, time.RFC3339)
	return append(b, '"'), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("timestamp must be a JSON string, got %s", data)
	}
	parsed, err := time.Parse(time.RFC3339, string(data[1:len(data)-1]))
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}
