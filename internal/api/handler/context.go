// Package handler implements the HTTP handlers of the NestMap API.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nestmap/nestmap/internal/api/middleware"
	"github.com/nestmap/nestmap/internal/api/response"
)

// Route parameters, as named in the router patterns.
const (
	paramTrip     = "tripId"
	paramActivity = "activityId"
	paramTodo     = "todoId"
	paramDate     = "date"
	paramFlag     = "flagKey"
)

func tripParam(r *http.Request) string     { return chi.URLParam(r, paramTrip) }
func activityParam(r *http.Request) string { return chi.URLParam(r, paramActivity) }
func todoParam(r *http.Request) string     { return chi.URLParam(r, paramTodo) }
func dateParam(r *http.Request) string     { return chi.URLParam(r, paramDate) }
func flagParam(r *http.Request) string     { return chi.URLParam(r, paramFlag) }

// userOf returns the authenticated caller, or "" on public routes.
func userOf(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}

// requireUser returns the authenticated user id, writing a 401 when absent.
// Every trip resource is owned, so handlers call this before anything else.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := userOf(r)
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return "", false
	}
	return userID, true
}
