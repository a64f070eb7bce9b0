// Package todo provides per-trip checklist services.
package todo

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrTodoNotFound = errors.New("todo not found")
)

// Todo is a stored checklist item.
type Todo struct {
	ID        string    `json:"id"`
	TripID    string    `json:"tripId"`
	Task      string    `json:"task"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
