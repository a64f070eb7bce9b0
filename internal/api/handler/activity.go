package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/activity"
	"github.com/nestmap/nestmap/internal/api/models"
	"github.com/nestmap/nestmap/internal/api/response"
)

// ActivityHandler handles activity endpoints.
type ActivityHandler struct {
	service *activity.Service
	logger  zerolog.Logger
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(service *activity.Service, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{service: service, logger: logger}
}

// ListActivities handles GET /v1/trips/{tripId}/activities.
func (h *ActivityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
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

// CreateActivity handles POST /v1/trips/{tripId}/activities.
func (h *ActivityHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.ActivityCreateRequest
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
	response.Created(w, r, "/v1/trips/"+tripID+"/activities/"+created.ID, created)
}

// GetActivity handles GET /v1/trips/{tripId}/activities/{activityId}.
func (h *ActivityHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	a, err := h.service.Get(r.Context(), userID, tripParam(r), activityParam(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, a)
}

// UpdateActivity handles PUT /v1/trips/{tripId}/activities/{activityId}.
func (h *ActivityHandler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.ActivityUpdateRequest
	if err := response.Decode(r, &input); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	a, err := h.service.Update(r.Context(), userID, tripParam(r), activityParam(r), &input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, a)
}

// SetActivityCompleted handles PUT /v1/trips/{tripId}/activities/{activityId}/completed.
func (h *ActivityHandler) SetActivityCompleted(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.CompletedRequest
	if err := response.Decode(r, &input); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	a, err := h.service.SetCompleted(r.Context(), userID, tripParam(r), activityParam(r), input.Completed)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, a)
}

// DeleteActivity handles DELETE /v1/trips/{tripId}/activities/{activityId}.
func (h *ActivityHandler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, tripParam(r), activityParam(r)); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.NoContent(w, r)
}

// ReorderDay handles POST /v1/trips/{tripId}/days/{date}:reorder.
func (h *ActivityHandler) ReorderDay(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.ReorderRequest
	if err := response.Decode(r, &input); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	list, err := h.service.Reorder(r.Context(), userID, tripParam(r), dateParam(r), input.ActivityIDs)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, list)
}
