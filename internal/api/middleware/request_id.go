// Package middleware provides HTTP middleware for the NestMap API.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// maxRequestIDLength bounds client-supplied request ids.
const maxRequestIDLength = 128

// requestStateKey is the context key for the per-request state.
type requestStateKey struct{}

// requestState is shared by every middleware of one request. Inner
// middleware such as Auth fill it in so outer ones can log it.
type requestState struct {
	id     string
	userID string
}

// RequestID assigns every request an id, reusing a well-formed X-Request-Id
// header when the client sent one. The id is echoed in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if !validRequestID(requestID) {
			requestID = "req_" + uuid.New().String()[:22]
		}

		w.Header().Set("X-Request-Id", requestID)

		ctx := context.WithValue(r.Context(), requestStateKey{}, &requestState{id: requestID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if st := stateFrom(ctx); st != nil {
		return st.id
	}
	return ""
}

func stateFrom(ctx context.Context) *requestState {
	st, _ := ctx.Value(requestStateKey{}).(*requestState)
	return st
}

// validRequestID accepts short ids made of printable ASCII without spaces.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
