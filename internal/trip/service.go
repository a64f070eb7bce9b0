package trip

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nestmap/nestmap/internal/api/models"
	"github.com/nestmap/nestmap/internal/cache"
	"github.com/nestmap/nestmap/internal/itinerary"
)

// Validation constants.
const (
	MaxTitleLength = 200
	MaxTripDays    = 366
)

var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// Cascader removes data owned by a trip. Postgres cascades through foreign
// keys; in-memory repositories need to be told.
type Cascader interface {
	DeleteByTrip(ctx context.Context, tripID string) error
}

// ServiceConfig holds configuration for the trip service.
type ServiceConfig struct {
	Repository Repository
	Cache      cache.Store
	Cascade    []Cascader
	Logger     zerolog.Logger
}

// Service provides trip operations.
type Service struct {
	repo    Repository
	cache   cache.Store
	cascade []Cascader
	logger  zerolog.Logger
	now     func() time.Time
}

// NewService creates a new trip service.
func NewService(cfg ServiceConfig) *Service {
	store := cfg.Cache
	if store == nil {
		store = cache.NewMemoryStore()
	}
	return &Service{
		repo:    cfg.Repository,
		cache:   store,
		cascade: cfg.Cascade,
		logger:  cfg.Logger,
		now:     time.Now,
	}
}

// Lookup returns the stored trip owned by userID.
func (s *Service) Lookup(ctx context.Context, userID, tripID string) (*Trip, error) {
	return s.repo.GetByUserAndID(ctx, userID, tripID)
}

// List retrieves a user's trips.
func (s *Service) List(ctx context.Context, userID string, limit int, cursor string) (*models.PagedTrips, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	result, err := s.repo.List(ctx, userID, ListOptions{Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, err
	}

	items := make([]models.Trip, 0, len(result.Items))
	for _, t := range result.Items {
		items = append(items, ToAPI(t))
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	return &models.PagedTrips{
		Items: items,
		Meta: models.PagedResponseMeta{
			Limit:      limit,
			NextCursor: nextCursor,
		},
	}, nil
}

// Get retrieves a trip owned by userID.
func (s *Service) Get(ctx context.Context, userID, tripID string) (*models.Trip, error) {
	t, err := s.repo.GetByUserAndID(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}
	result := ToAPI(t)
	return &result, nil
}

// Create creates a trip for userID.
func (s *Service) Create(ctx context.Context, userID string, input *models.TripCreateRequest) (*models.Trip, error) {
	start, end, errs := validateRange(input.StartDate, input.EndDate)
	errs = append(errs, validateTitle(input.Title, true)...)

	t := &Trip{
		UserID:         userID,
		Title:          strings.TrimSpace(input.Title),
		StartDate:      start,
		EndDate:        end,
		TimeZone:       DefaultTimeZone,
		Currency:       DefaultCurrency,
		AlertThreshold: DefaultAlertThreshold,
		Budget:         input.Budget,
	}
	if input.TimeZone != nil {
		t.TimeZone = *input.TimeZone
	}
	if input.Currency != nil {
		t.Currency = strings.ToUpper(strings.TrimSpace(*input.Currency))
	}
	if input.AlertThreshold != nil {
		t.AlertThreshold = *input.AlertThreshold
	}
	errs = append(errs, validateSettings(t)...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	now := s.now()
	t.ID = "trp_" + uuid.New().String()[:22]
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	result := ToAPI(t)
	return &result, nil
}

// Update updates a trip owned by userID and drops its cached record.
func (s *Service) Update(ctx context.Context, userID, tripID string, input *models.TripUpdateRequest) (*models.Trip, error) {
	t, err := s.repo.GetByUserAndID(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}

	var errs []models.FieldError
	if input.Title != nil {
		errs = append(errs, validateTitle(*input.Title, false)...)
		t.Title = strings.TrimSpace(*input.Title)
	}

	startRaw, endRaw := t.StartDate.String(), t.EndDate.String()
	if input.StartDate != nil {
		startRaw = *input.StartDate
	}
	if input.EndDate != nil {
		endRaw = *input.EndDate
	}
	start, end, rangeErrs := validateRange(startRaw, endRaw)
	errs = append(errs, rangeErrs...)
	t.StartDate, t.EndDate = start, end

	if input.TimeZone != nil {
		t.TimeZone = *input.TimeZone
	}
	if input.Budget != nil {
		t.Budget = input.Budget
	}
	if input.Currency != nil {
		t.Currency = strings.ToUpper(strings.TrimSpace(*input.Currency))
	}
	if input.AlertThreshold != nil {
		t.AlertThreshold = *input.AlertThreshold
	}
	errs = append(errs, validateSettings(t)...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	t.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(ctx, cache.TripKey(t.ID))

	result := ToAPI(t)
	return &result, nil
}

// SetCompleted toggles the trip's lifecycle flag without touching its dates.
func (s *Service) SetCompleted(ctx context.Context, userID, tripID string, completed bool) (*models.Trip, error) {
	t, err := s.repo.GetByUserAndID(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}

	t.Completed = completed
	t.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(ctx, cache.TripKey(t.ID))

	result := ToAPI(t)
	return &result, nil
}

// Delete deletes a trip owned by userID together with everything it owns.
func (s *Service) Delete(ctx context.Context, userID, tripID string) error {
	if _, err := s.repo.GetByUserAndID(ctx, userID, tripID); err != nil {
		return err
	}

	for _, c := range s.cascade {
		if err := c.DeleteByTrip(ctx, tripID); err != nil {
			return fmt.Errorf("delete trip data: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, tripID); err != nil {
		return err
	}

	if err := cache.InvalidateTrip(ctx, s.cache, tripID); err != nil {
		s.logger.Warn().Err(err).Str("trip_id", tripID).Msg("failed to invalidate trip cache")
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, keys ...cache.Key) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate cache")
	}
}

func validateTitle(title string, required bool) []models.FieldError {
	title = strings.TrimSpace(title)
	if title == "" {
		if required {
			return []models.FieldError{{Field: "title", Message: "is required"}}
		}
		return []models.FieldError{{Field: "title", Message: "cannot be empty"}}
	}
	if len(title) > MaxTitleLength {
		return []models.FieldError{{Field: "title", Message: fmt.Sprintf("must be at most %d characters", MaxTitleLength)}}
	}
	return nil
}

func validateRange(startRaw, endRaw string) (itinerary.Date, itinerary.Date, []models.FieldError) {
	var errs []models.FieldError

	start, err := itinerary.ParseDate(startRaw)
	if err != nil {
		errs = append(errs, models.FieldError{Field: "startDate", Message: "must be a date in YYYY-MM-DD format"})
	}
	end, err := itinerary.ParseDate(endRaw)
	if err != nil {
		errs = append(errs, models.FieldError{Field: "endDate", Message: "must be a date in YYYY-MM-DD format"})
	}
	if len(errs) > 0 {
		return start, end, errs
	}

	if end.Before(start) {
		errs = append(errs, models.FieldError{Field: "endDate", Message: "must not be before startDate"})
	} else if start.DaysUntil(end)+1 > MaxTripDays {
		errs = append(errs, models.FieldError{Field: "endDate", Message: fmt.Sprintf("trip cannot span more than %d days", MaxTripDays)})
	}
	return start, end, errs
}

func validateSettings(t *Trip) []models.FieldError {
	var errs []models.FieldError

	if _, err := time.LoadLocation(t.TimeZone); err != nil || t.TimeZone == "" {
		errs = append(errs, models.FieldError{Field: "timeZone", Message: "must be an IANA time zone name"})
	}
	if !currencyRegex.MatchString(t.Currency) {
		errs = append(errs, models.FieldError{Field: "currency", Message: "must be a three-letter ISO 4217 code"})
	}
	if t.AlertThreshold < 1 || t.AlertThreshold > 100 {
		errs = append(errs, models.FieldError{Field: "alertThreshold", Message: "must be between 1 and 100"})
	}
	if t.Budget != nil && t.Budget.LessThan(decimal.Zero) {
		errs = append(errs, models.FieldError{Field: "budget", Message: "must not be negative"})
	}
	return errs
}

// ToAPI converts a stored Trip to its API representation.
func ToAPI(t *Trip) models.Trip {
	days := t.Itinerary().Days()
	dayStrings := make([]string, len(days))
	for i, d := range days {
		dayStrings[i] = d.String()
	}

	return models.Trip{
		ID:             t.ID,
		Title:          t.Title,
		StartDate:      t.StartDate.String(),
		EndDate:        t.EndDate.String(),
		Days:           dayStrings,
		TimeZone:       t.TimeZone,
		Completed:      t.Completed,
		Budget:         t.Budget,
		Currency:       t.Currency,
		AlertThreshold: t.AlertThreshold,
		CreatedAt:      models.Timestamp(t.CreatedAt),
		UpdatedAt:      models.Timestamp(t.UpdatedAt),
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// IsNotFound reports whether err means the trip does not exist for the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTripNotFound)
}
