package models

// Todo represents a trip checklist item.
type Todo struct {
	ID        string    `json:"id"`
	TripID    string    `json:"tripId"`
	Task      string    `json:"task"`
	Completed bool      `json:"completed"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// TodoCreateRequest is the request body for creating a todo.
type TodoCreateRequest struct {
	Task string `json:"task"`
}

// TodoUpdateRequest is the request body for updating a todo.
type TodoUpdateRequest struct {
	Task      *string `json:"task,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// TodoList is the response for listing a trip's todos.
type TodoList struct {
	Items []Todo `json:"items"`
}
