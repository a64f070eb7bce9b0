package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/nestmap/nestmap/internal/api/middleware"

// Tracing returns a middleware that opens a server span per request,
// continuing any W3C trace context the caller sent. The span is named after
// the matched route once routing has finished, so "/v1/trips/{tripId}"
// aggregates across trips.
func Tracing(serviceName string) func(http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			propagator := otel.GetTextMapPropagator()
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(ctx, r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("service.name", serviceName),
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
					attribute.String("url.scheme", scheme(r)),
					attribute.String("server.address", r.Host),
					attribute.String("user_agent.original", r.UserAgent()),
				),
			)
			defer span.End()

			if requestID := GetRequestID(ctx); requestID != "" {
				span.SetAttributes(attribute.String("request.id", requestID))
			}

			rec := newStatusRecorder(w)
			r = r.WithContext(ctx)
			next.ServeHTTP(rec, r)

			route := routeOf(r)
			span.SetName(r.Method + " " + route)
			span.SetAttributes(
				attribute.String("http.route", route),
				attribute.Int("http.response.status_code", rec.status),
				attribute.Int64("http.response.body.size", rec.written),
			)
			if st := stateFrom(ctx); st != nil && st.userID != "" {
				span.SetAttributes(attribute.String("enduser.id", st.userID))
			}
			if tripID := tripOf(r); tripID != "" {
				span.SetAttributes(attribute.String("nestmap.trip_id", tripID))
			}

			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			}
		})
	}
}

// scheme returns the request scheme, trusting X-Forwarded-Proto from the
// load balancer.
func scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	return "http"
}
