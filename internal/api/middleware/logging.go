package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger returns a middleware that writes one line per request. Server
// errors log at error level and client errors at warn.
func Logger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			var event *zerolog.Event
			switch {
			case rec.status >= http.StatusInternalServerError:
				event = log.Error()
			case rec.status >= http.StatusBadRequest:
				event = log.Warn()
			default:
				event = log.Info()
			}

			event = event.
				Str("request_id", GetRequestID(r.Context())).
				Str("method", r.Method).
				Str("route", routeOf(r)).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Int64("bytes", rec.written).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Str("user_agent", r.UserAgent())

			if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
				event = event.
					Str("trace_id", sc.TraceID().String()).
					Str("span_id", sc.SpanID().String())
			}
			if st := stateFrom(r.Context()); st != nil && st.userID != "" {
				event = event.Str("user_id", st.userID)
			}
			if tripID := tripOf(r); tripID != "" {
				event = event.Str("trip_id", tripID)
			}

			event.Msg("request completed")
		})
	}
}
