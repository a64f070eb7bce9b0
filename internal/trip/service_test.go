package trip_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nestmap/nestmap/internal/api/models"
	"github.com/nestmap/nestmap/internal/cache"
	"github.com/nestmap/nestmap/internal/trip"
)

type recordingCascade struct {
	deleted []string
}

func (c *recordingCascade) DeleteByTrip(_ context.Context, tripID string) error {
	c.deleted = append(c.deleted, tripID)
	return nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func newService(t *testing.T) (*trip.Service, *cache.MemoryStore, *recordingCascade) {
	t.Helper()
	store := cache.NewMemoryStore()
	cascade := &recordingCascade{}
	svc := trip.NewService(trip.ServiceConfig{
		Repository: trip.NewInMemoryRepository(),
		Cache:      store,
		Cascade:    []trip.Cascader{cascade},
	})
	return svc, store, cascade
}

func TestService_Create(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	result, err := svc.Create(ctx, "user123", &models.TripCreateRequest{
		Title:     "  Lisbon  ",
		StartDate: "2024-06-01",
		EndDate:   "2024-06-03",
	})
	if err != nil {
		t.Fatalf("failed to create trip: %v", err)
	}

	if !strings.HasPrefix(result.ID, "trp_") {
		t.Errorf("expected trip ID to start with 'trp_', got %q", result.ID)
	}
	if result.Title != "Lisbon" {
		t.Errorf("expected trimmed title, got %q", result.Title)
	}
	if len(result.Days) != 3 || result.Days[0] != "2024-06-01" || result.Days[2] != "2024-06-03" {
		t.Errorf("unexpected days %v", result.Days)
	}
	if result.TimeZone != trip.DefaultTimeZone || result.Currency != trip.DefaultCurrency {
		t.Errorf("expected defaults, got tz=%q currency=%q", result.TimeZone, result.Currency)
	}
	if result.AlertThreshold != trip.DefaultAlertThreshold {
		t.Errorf("expected default threshold, got %d", result.AlertThreshold)
	}
}

func TestService_Create_SingleDay(t *testing.T) {
	svc, _, _ := newService(t)

	result, err := svc.Create(context.Background(), "user123", &models.TripCreateRequest{
		Title:     "Day trip",
		StartDate: "2024-06-01",
		EndDate:   "2024-06-01",
	})
	if err != nil {
		t.Fatalf("failed to create trip: %v", err)
	}
	if len(result.Days) != 1 {
		t.Errorf("expected 1 day, got %d", len(result.Days))
	}
}

func TestService_Create_ValidationErrors(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	negative := decimal.NewFromInt(-5)

	tests := []struct {
		name      string
		input     *models.TripCreateRequest
		wantField string
	}{
		{
			name:      "empty title",
			input:     &models.TripCreateRequest{Title: " ", StartDate: "2024-06-01", EndDate: "2024-06-02"},
			wantField: "title",
		},
		{
			name:      "title too long",
			input:     &models.TripCreateRequest{Title: strings.Repeat("a", 201), StartDate: "2024-06-01", EndDate: "2024-06-02"},
			wantField: "title",
		},
		{
			name:      "malformed start",
			input:     &models.TripCreateRequest{Title: "T", StartDate: "06/01/2024", EndDate: "2024-06-02"},
			wantField: "startDate",
		},
		{
			name:      "end before start",
			input:     &models.TripCreateRequest{Title: "T", StartDate: "2024-06-05", EndDate: "2024-06-01"},
			wantField: "endDate",
		},
		{
			name:      "too long",
			input:     &models.TripCreateRequest{Title: "T", StartDate: "2024-01-01", EndDate: "2025-06-01"},
			wantField: "endDate",
		},
		{
			name:      "unknown time zone",
			input:     &models.TripCreateRequest{Title: "T", StartDate: "2024-06-01", EndDate: "2024-06-02", TimeZone: strPtr("Mars/Olympus")},
			wantField: "timeZone",
		},
		{
			name:      "bad currency",
			input:     &models.TripCreateRequest{Title: "T", StartDate: "2024-06-01", EndDate: "2024-06-02", Currency: strPtr("euro")},
			wantField: "currency",
		},
		{
			name:      "threshold out of range",
			input:     &models.TripCreateRequest{Title: "T", StartDate: "2024-06-01", EndDate: "2024-06-02", AlertThreshold: intPtr(0)},
			wantField: "alertThreshold",
		},
		{
			name:      "negative budget",
			input:     &models.TripCreateRequest{Title: "T", StartDate: "2024-06-01", EndDate: "2024-06-02", Budget: &negative},
			wantField: "budget",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "user123", tt.input)
			if err == nil {
				t.Fatal("expected validation error")
			}

			var valErr *trip.ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}

			found := false
			for _, e := range valErr.Errors {
				if e.Field == tt.wantField {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected error for field %q, got %+v", tt.wantField, valErr.Errors)
			}
		})
	}
}

func TestService_Get_NotOwned(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user123", &models.TripCreateRequest{Title: "T", StartDate: "2024-06-01", EndDate: "2024-06-02"})
	if err != nil {
		t.Fatalf("failed to create trip: %v", err)
	}

	_, err = svc.Get(ctx, "someone-else", created.ID)
	if !trip.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_Update_InvalidatesCachedTrip(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user123", &models.TripCreateRequest{Title: "T", StartDate: "2024-06-01", EndDate: "2024-06-02"})
	if err != nil {
		t.Fatalf("failed to create trip: %v", err)
	}
	if err := store.Set(ctx, cache.TripKey(created.ID), "stale", 0); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	updated, err := svc.Update(ctx, "user123", created.ID, &models.TripUpdateRequest{EndDate: strPtr("2024-06-04")})
	if err != nil {
		t.Fatalf("failed to update trip: %v", err)
	}
	if len(updated.Days) != 4 {
		t.Errorf("expected 4 days after extending, got %d", len(updated.Days))
	}

	var cached string
	hit, _ := store.Get(ctx, cache.TripKey(created.ID), &cached)
	if hit {
		t.Error("expected cached trip to be invalidated")
	}
}

func TestService_Update_RejectsInvertedRange(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user123", &models.TripCreateRequest{Title: "T", StartDate: "2024-06-10", EndDate: "2024-06-12"})
	if err != nil {
		t.Fatalf("failed to create trip: %v", err)
	}

	_, err = svc.Update(ctx, "user123", created.ID, &models.TripUpdateRequest{EndDate: strPtr("2024-06-01")})
	var valErr *trip.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	got, err := svc.Get(ctx, "user123", created.ID)
	if err != nil {
		t.Fatalf("failed to get trip: %v", err)
	}
	if got.EndDate != "2024-06-12" {
		t.Errorf("expected stored trip unchanged, got end %s", got.EndDate)
	}
}

func TestService_SetCompleted(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user123", &models.TripCreateRequest{Title: "T", StartDate: "2024-06-01", EndDate: "2024-06-02"})
	if err != nil {
		t.Fatalf("failed to create trip: %v", err)
	}

	result, err := svc.SetCompleted(ctx, "user123", created.ID, true)
	if err != nil {
		t.Fatalf("failed to complete trip: %v", err)
	}
	if !result.Completed {
		t.Error("expected trip to be completed")
	}
	if result.StartDate != created.StartDate || result.EndDate != created.EndDate {
		t.Error("expected dates unchanged")
	}
}

func TestService_Delete_Cascades(t *testing.T) {
	svc, store, cascade := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user123", &models.TripCreateRequest{Title: "T", StartDate: "2024-06-01", EndDate: "2024-06-02"})
	if err != nil {
		t.Fatalf("failed to create trip: %v", err)
	}
	_ = store.Set(ctx, cache.TodosKey(created.ID), []string{"pack"}, 0)

	if err := svc.Delete(ctx, "user123", created.ID); err != nil {
		t.Fatalf("failed to delete trip: %v", err)
	}

	if len(cascade.deleted) != 1 || cascade.deleted[0] != created.ID {
		t.Errorf("expected cascade for %s, got %v", created.ID, cascade.deleted)
	}
	if store.Len() != 0 {
		t.Errorf("expected cache cleared, %d entries left", store.Len())
	}
	if _, err := svc.Get(ctx, "user123", created.ID); !trip.IsNotFound(err) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestService_List(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		if _, err := svc.Create(ctx, "user123", &models.TripCreateRequest{Title: title, StartDate: "2024-06-01", EndDate: "2024-06-02"}); err != nil {
			t.Fatalf("failed to create trip: %v", err)
		}
	}
	if _, err := svc.Create(ctx, "other", &models.TripCreateRequest{Title: "X", StartDate: "2024-06-01", EndDate: "2024-06-02"}); err != nil {
		t.Fatalf("failed to create trip: %v", err)
	}

	page, err := svc.List(ctx, "user123", 2, "")
	if err != nil {
		t.Fatalf("failed to list trips: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	if page.Meta.NextCursor == nil {
		t.Fatal("expected a next cursor")
	}

	rest, err := svc.List(ctx, "user123", 2, *page.Meta.NextCursor)
	if err != nil {
		t.Fatalf("failed to list trips: %v", err)
	}
	if len(rest.Items) != 1 {
		t.Errorf("expected 1 remaining item, got %d", len(rest.Items))
	}
}
