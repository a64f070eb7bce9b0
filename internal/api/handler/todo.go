package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/api/models"
	"github.com/nestmap/nestmap/internal/api/response"
	"github.com/nestmap/nestmap/internal/todo"
)

// TodoHandler handles trip checklist endpoints.
type TodoHandler struct {
	service *todo.Service
	logger  zerolog.Logger
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(service *todo.Service, logger zerolog.Logger) *TodoHandler {
	return &TodoHandler{service: service, logger: logger}
}

// ListTodos handles GET /v1/trips/{tripId}/todos.
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	list, err := h.service.List(r.Context(), userID, tripParam(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, list)
}

// CreateTodo handles POST /v1/trips/{tripId}/todos.
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.TodoCreateRequest
	if err := response.Decode(r, &input); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	tripID := tripParam(r)
	created, err := h.service.Create(r.Context(), userID, tripID, &input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Created(w, r, "/v1/trips/"+tripID+"/todos/"+created.ID, created)
}

// UpdateTodo handles PUT /v1/trips/{tripId}/todos/{todoId}.
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.TodoUpdateRequest
	if err := response.Decode(r, &input); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	t, err := h.service.Update(r.Context(), userID, tripParam(r), todoParam(r), &input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, t)
}

// ToggleTodo handles POST /v1/trips/{tripId}/todos/{todoId}:toggle.
func (h *TodoHandler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	t, err := h.service.Toggle(r.Context(), userID, tripParam(r), todoParam(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, t)
}

// DeleteTodo handles DELETE /v1/trips/{tripId}/todos/{todoId}.
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, tripParam(r), todoParam(r)); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.NoContent(w, r)
}
