package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/api/models"
)

// Recovery turns a handler panic into a logged 500 problem response.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recovery(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				requestID := GetRequestID(r.Context())
				event := log.Error().
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("route", routeOf(r)).
					Interface("panic", rec).
					Bytes("stack", debug.Stack())
				if st := stateFrom(r.Context()); st != nil && st.userID != "" {
					event = event.Str("user_id", st.userID)
				}
				event.Msg("panic recovered")

				problem := models.NewInternalError(requestID, "an unexpected error occurred")
				problem.Instance = r.URL.Path
				problem.Write(w)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
