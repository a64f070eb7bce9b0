package handler

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/api/models"
	"github.com/nestmap/nestmap/internal/api/response"
	"github.com/nestmap/nestmap/internal/trip"
)

// Page size bounds for trip listings.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// TripHandler handles trip endpoints.
type TripHandler struct {
	service *trip.Service
	logger  zerolog.Logger
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(service *trip.Service, logger zerolog.Logger) *TripHandler {
	return &TripHandler{service: service, logger: logger}
}

// ListTrips handles GET /v1/trips.
func (h *TripHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			response.BadRequest(w, r, "validation failed", []models.FieldError{
				{Field: "limit", Message: "must be between 1 and 100"},
			})
			return
		}
		limit = n
	}

	trips, err := h.service.List(r.Context(), userID, limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, trips)
}

// CreateTrip handles POST /v1/trips.
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.TripCreateRequest
	if err := response.Decode(r, &input); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	created, err := h.service.Create(r.Context(), userID, &input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Created(w, r, "/v1/trips/"+created.ID, created)
}

// GetTrip handles GET /v1/trips/{tripId}.
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	t, err := h.service.Get(r.Context(), userID, tripParam(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, t)
}

// UpdateTrip handles PUT /v1/trips/{tripId}.
func (h *TripHandler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.TripUpdateRequest
	if err := response.Decode(r, &input); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	t, err := h.service.Update(r.Context(), userID, tripParam(r), &input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, t)
}

// SetTripCompleted handles PUT /v1/trips/{tripId}/completed.
func (h *TripHandler) SetTripCompleted(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.CompletedRequest
	if err := response.Decode(r, &input); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	t, err := h.service.SetCompleted(r.Context(), userID, tripParam(r), input.Completed)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, t)
}

// DeleteTrip handles DELETE /v1/trips/{tripId}.
func (h *TripHandler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, tripParam(r)); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.NoContent(w, r)
}
