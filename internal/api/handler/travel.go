package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/activity"
	"github.com/nestmap/nestmap/internal/api/response"
	"github.com/nestmap/nestmap/internal/planner"
	"github.com/nestmap/nestmap/internal/travel"
)

// TravelHandler recomputes travel times between activities.
type TravelHandler struct {
	planner   *planner.Service
	estimator *travel.Estimator
	publisher activity.RefreshPublisher
	logger    zerolog.Logger
}

// NewTravelHandler creates a new TravelHandler. A nil publisher disables
// asynchronous recomputation.
func NewTravelHandler(p *planner.Service, e *travel.Estimator, publisher activity.RefreshPublisher, logger zerolog.Logger) *TravelHandler {
	return &TravelHandler{planner: p, estimator: e, publisher: publisher, logger: logger}
}

// ComputeTravelTimes handles POST /v1/trips/{tripId}/travel-times:compute.
// With ?async=true and a configured publisher the work is queued for the
// worker and 202 is returned.
func (h *TravelHandler) ComputeTravelTimes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	tripID := tripParam(r)
	if _, err := h.planner.Trip(r.Context(), userID, tripID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if r.URL.Query().Get("async") == "true" && h.publisher != nil {
		if err := h.publisher.PublishTravelRefresh(r.Context(), tripID); err != nil {
			h.logger.Warn().Err(err).Str("trip_id", tripID).Msg("failed to queue travel refresh")
			response.ServiceUnavailable(w, r, "travel refresh queue unavailable")
			return
		}
		response.Accepted(w, r, "/v1/trips/"+tripID+"/itinerary", map[string]string{
			"tripId": tripID,
			"status": "queued",
		})
		return
	}

	result, err := h.estimator.Compute(r.Context(), tripID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}
