// Package response writes JSON and problem+json responses and decodes JSON
// request bodies. Every response carries the request's X-Request-Id.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/nestmap/nestmap/internal/api/middleware"
	"github.com/nestmap/nestmap/internal/api/models"
)

// MaxBodyBytes caps request bodies read by Decode.
const MaxBodyBytes = 1 << 20

func stamp(w http.ResponseWriter, r *http.Request) string {
	id := middleware.GetRequestID(r.Context())
	if id != "" {
		w.Header().Set("X-Request-Id", id)
	}
	return id
}

// JSON writes data with the given status. A nil data writes no body.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	stamp(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Created writes a 201 pointing at location.
func Created(w http.ResponseWriter, r *http.Request, location string, data interface{}) {
	if location != "" {
		w.Header().Set("Location", location)
	}
	JSON(w, r, http.StatusCreated, data)
}

// Accepted writes a 202 pointing at location, where the outcome can be
// polled.
func Accepted(w http.ResponseWriter, r *http.Request, location string, data interface{}) {
	if location != "" {
		w.Header().Set("Location", location)
	}
	JSON(w, r, http.StatusAccepted, data)
}

func NoContent(w http.ResponseWriter, r *http.Request) {
	stamp(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// Attachment sends the 200 headers of a file download named filename. The
// caller streams the body afterwards.
func Attachment(w http.ResponseWriter, r *http.Request, contentType, filename string) {
	stamp(w, r)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
}

func write(w http.ResponseWriter, r *http.Request, p *models.Problem) {
	p.WithInstance(r.URL.Path).Write(w)
}

// BadRequest writes a 400 listing the offending fields.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errs []models.FieldError) {
	write(w, r, models.NewBadRequest(stamp(w, r), detail, errs))
}

func Unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	write(w, r, models.NewUnauthorized(stamp(w, r), detail))
}

func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	write(w, r, models.NewNotFound(stamp(w, r), detail))
}

func Conflict(w http.ResponseWriter, r *http.Request, detail string) {
	write(w, r, models.NewConflict(stamp(w, r), detail))
}

func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	write(w, r, models.NewInternalError(stamp(w, r), detail))
}

// ServiceUnavailable writes a 503, used when a dependency the request
// cannot do without is down.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	write(w, r, models.NewServiceUnavailable(stamp(w, r), detail))
}

// Decode reads exactly one JSON value from the request body into dest.
// Empty or oversized bodies, unknown fields and trailing data are errors.
func Decode(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		case errors.As(err, &tooLarge):
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}
