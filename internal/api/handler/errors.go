package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/activity"
	"github.com/nestmap/nestmap/internal/api/response"
	"github.com/nestmap/nestmap/internal/featureflags"
	"github.com/nestmap/nestmap/internal/planner"
	"github.com/nestmap/nestmap/internal/routing"
	"github.com/nestmap/nestmap/internal/todo"
	"github.com/nestmap/nestmap/internal/trip"
)

// writeError maps service errors onto problem responses. Anything it does
// not recognise is logged and reported as a 500.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var (
		tripInvalid     *trip.ValidationError
		activityInvalid *activity.ValidationError
		todoInvalid     *todo.ValidationError
		flagsInvalid    *featureflags.ValidationError
	)

	switch {
	case errors.As(err, &tripInvalid):
		response.BadRequest(w, r, "validation failed", tripInvalid.Errors)
	case errors.As(err, &activityInvalid):
		response.BadRequest(w, r, "validation failed", activityInvalid.Errors)
	case errors.As(err, &todoInvalid):
		response.BadRequest(w, r, "validation failed", todoInvalid.Errors)
	case errors.As(err, &flagsInvalid):
		response.BadRequest(w, r, "validation failed", flagsInvalid.Errors)
	case errors.Is(err, trip.ErrTripNotFound):
		response.NotFound(w, r, "trip not found")
	case errors.Is(err, activity.ErrActivityNotFound):
		response.NotFound(w, r, "activity not found")
	case errors.Is(err, todo.ErrTodoNotFound):
		response.NotFound(w, r, "todo not found")
	case errors.Is(err, featureflags.ErrFlagNotFound):
		response.NotFound(w, r, "feature flag has no override")
	case errors.Is(err, planner.ErrDayOutOfRange):
		response.NotFound(w, r, err.Error())
	case errors.Is(err, activity.ErrInvalidReorder):
		response.Conflict(w, r, err.Error())
	case errors.Is(err, routing.ErrProviderUnavailable):
		response.ServiceUnavailable(w, r, "routing provider unavailable")
	default:
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		response.InternalError(w, r, "internal server error")
	}
}
