package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/api/response"
	"github.com/nestmap/nestmap/internal/export"
)

// ExportHandler serves trip downloads.
type ExportHandler struct {
	service *export.Service
	logger  zerolog.Logger
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(service *export.Service, logger zerolog.Logger) *ExportHandler {
	return &ExportHandler{service: service, logger: logger}
}

// ExportCalendar handles GET /v1/trips/{tripId}/export.ics.
func (h *ExportHandler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "text/calendar; charset=utf-8", ".ics", h.service.Calendar)
}

// ExportCSV handles GET /v1/trips/{tripId}/export.csv.
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "text/csv; charset=utf-8", ".csv", h.service.CSV)
}

type renderFunc func(ctx context.Context, w io.Writer, userID, tripID string) error

// serve renders into a buffer first so failures still produce a problem
// response instead of a truncated file.
func (h *ExportHandler) serve(w http.ResponseWriter, r *http.Request, contentType, ext string, render renderFunc) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	tripID := tripParam(r)
	var buf bytes.Buffer
	if err := render(r.Context(), &buf, userID, tripID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.Attachment(w, r, contentType, tripID+ext)
	_, _ = buf.WriteTo(w)
}
