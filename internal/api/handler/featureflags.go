package handler

import (
	"net/http"
	"sort"

	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/api/models"
	"github.com/nestmap/nestmap/internal/api/response"
	"github.com/nestmap/nestmap/internal/featureflags"
)

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service *featureflags.Service
	logger  zerolog.Logger
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service, logger zerolog.Logger) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service, logger: logger}
}

// ListFeatureFlags handles GET /v1/admin/feature-flags - list all feature flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	flags := h.service.GetAllFlags(r.Context())

	list := featureflags.FlagList{Items: make([]featureflags.Flag, 0, len(flags))}
	for _, f := range flags {
		list.Items = append(list.Items, *f)
	}
	sort.Slice(list.Items, func(i, j int) bool { return list.Items[i].Key < list.Items[j].Key })

	response.JSON(w, r, http.StatusOK, list)
}

// UpsertFeatureFlags handles PUT /v1/admin/feature-flags - update feature flags.
func (h *FeatureFlagsHandler) UpsertFeatureFlags(w http.ResponseWriter, r *http.Request) {
	var input featureflags.FlagUpdateRequest
	if err := response.Decode(r, &input); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	var fieldErrors []models.FieldError
	if len(input.Updates) == 0 {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "updates", Message: "must not be empty", Code: "REQUIRED"})
	}
	if input.Reason == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "reason", Message: "is required", Code: "REQUIRED"})
	}
	for _, u := range input.Updates {
		if u.Key == "" || u.Value == nil {
			fieldErrors = append(fieldErrors, models.FieldError{Field: "updates", Message: "every update needs a key and a value", Code: "REQUIRED"})
			break
		}
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	flags := make([]*featureflags.Flag, 0, len(input.Updates))
	for _, u := range input.Updates {
		flags = append(flags, &featureflags.Flag{Key: u.Key, Value: u.Value})
	}
	if err := h.service.SetFlags(r.Context(), flags); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info().
		Str("user_id", userOf(r)).
		Int("flags", len(flags)).
		Str("reason", input.Reason).
		Msg("feature flags updated")

	response.NoContent(w, r)
}

// ResetFeatureFlag handles DELETE /v1/admin/feature-flags/{flagKey} - drop an
// override so the configured default applies again.
func (h *FeatureFlagsHandler) ResetFeatureFlag(w http.ResponseWriter, r *http.Request) {
	key := flagParam(r)
	if err := h.service.ResetFlag(r.Context(), key); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info().
		Str("user_id", userOf(r)).
		Str("flag", key).
		Msg("feature flag reset")

	response.NoContent(w, r)
}

// InvalidateCache handles POST /v1/admin/feature-flags/invalidate - invalidate flag cache.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateCache()
	response.NoContent(w, r)
}
