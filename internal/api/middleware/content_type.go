package middleware

import (
	"mime"
	"net/http"
	"strings"

	"github.com/nestmap/nestmap/internal/api/models"
)

// ContentTypeJSON defaults the response Content-Type to JSON. Export
// handlers set text/calendar or text/csv themselves.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// RequireJSON answers 415 when a POST, PUT or PATCH declares a body that is
// not JSON. A missing Content-Type is tolerated; the decoder rejects
// anything unparsable.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if ct := r.Header.Get("Content-Type"); ct != "" && !isJSON(ct) {
				problem := models.NewUnsupportedMediaType(GetRequestID(r.Context()), "Content-Type must be application/json")
				problem.Instance = r.URL.Path
				problem.Write(w)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// isJSON accepts application/json and structured +json types, with or
// without parameters.
func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" ||
		(strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json"))
}
