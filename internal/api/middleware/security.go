package middleware

import (
	"net/http"

	"github.com/nestmap/nestmap/internal/api/models"
)

// securityHeaders are sent on every response. Trip data is private, so
// responses are not stored by shared caches unless a handler says otherwise.
var securityHeaders = map[string]string{
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
	"Referrer-Policy":           "no-referrer",
	"Permissions-Policy":        "geolocation=(), camera=(), microphone=()",
}

// SecurityHeaders sets the hardening headers and a default Cache-Control of
// no-store before the handler runs.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range securityHeaders {
			h.Set(k, v)
		}
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// RequireTLS rejects requests the load balancer forwarded over plain HTTP.
// Requests without X-Forwarded-Proto reached the server directly and pass.
func RequireTLS(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" && proto != "https" {
				problem := models.NewTLSRequired(GetRequestID(r.Context()))
				problem.Instance = r.URL.Path
				problem.Write(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
