package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/api/models"
	"github.com/nestmap/nestmap/internal/api/response"
	"github.com/nestmap/nestmap/internal/itinerary"
	"github.com/nestmap/nestmap/internal/planner"
)

// ItineraryHandler serves the computed views of a trip.
type ItineraryHandler struct {
	planner *planner.Service
	logger  zerolog.Logger
}

// NewItineraryHandler creates a new ItineraryHandler.
func NewItineraryHandler(p *planner.Service, logger zerolog.Logger) *ItineraryHandler {
	return &ItineraryHandler{planner: p, logger: logger}
}

// GetItinerary handles GET /v1/trips/{tripId}/itinerary.
func (h *ItineraryHandler) GetItinerary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	it, err := h.planner.Itinerary(r.Context(), userID, tripParam(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, it)
}

// GetDay handles GET /v1/trips/{tripId}/itinerary/days/{date}.
func (h *ItineraryHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	date, ok := parseDateParam(w, r)
	if !ok {
		return
	}

	day, err := h.planner.Day(r.Context(), userID, tripParam(r), date)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, day)
}

// GetDayPath handles GET /v1/trips/{tripId}/itinerary/days/{date}/path.
func (h *ItineraryHandler) GetDayPath(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	date, ok := parseDateParam(w, r)
	if !ok {
		return
	}

	path, err := h.planner.DayPath(r.Context(), userID, tripParam(r), date)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, path)
}

// GetBudget handles GET /v1/trips/{tripId}/budget.
func (h *ItineraryHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	summary, err := h.planner.Budget(r.Context(), userID, tripParam(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, summary)
}

func parseDateParam(w http.ResponseWriter, r *http.Request) (itinerary.Date, bool) {
	date, err := itinerary.ParseDate(dateParam(r))
	if err != nil {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "date", Message: "must be a date in YYYY-MM-DD format"},
		})
		return itinerary.Date{}, false
	}
	return date, true
}
