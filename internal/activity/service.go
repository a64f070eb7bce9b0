package activity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nestmap/nestmap/internal/api/models"
	"github.com/nestmap/nestmap/internal/cache"
	"github.com/nestmap/nestmap/internal/itinerary"
	"github.com/nestmap/nestmap/internal/trip"
)

// Validation constants.
const (
	MaxTitleLength        = 200
	MaxNotesLength        = 2000
	MaxLocationNameLength = 300
	MaxTravelTimeLength   = 50

	// DefaultCacheTTL bounds how long a trip's activity list stays cached.
	DefaultCacheTTL = 10 * time.Minute
)

// timeRegex matches stored times. Plans sort times as strings, so the hour
// is always two digits.
var timeRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// normalizeTime pads a single-digit hour ("9:00" becomes "09:00"). Anything
// else is returned trimmed and left to validation.
func normalizeTime(raw string) string {
	t := strings.TrimSpace(raw)
	if len(t) == 4 && t[1] == ':' && t[0] >= '0' && t[0] <= '9' {
		return "0" + t
	}
	return t
}

// ErrInvalidReorder is returned when a reorder request names activities
// that are not on the given day of the trip.
var ErrInvalidReorder = errors.New("invalid reorder request")

// TripReader resolves a trip for its owner.
type TripReader interface {
	GetByUserAndID(ctx context.Context, userID, tripID string) (*trip.Trip, error)
}

// RefreshPublisher requests an asynchronous travel-time recomputation.
type RefreshPublisher interface {
	PublishTravelRefresh(ctx context.Context, tripID string) error
}

// ServiceConfig holds configuration for the activity service.
type ServiceConfig struct {
	Repository Repository
	Trips      TripReader
	Cache      cache.Store
	CacheTTL   time.Duration
	Observer   cache.Observer
	Refresher  RefreshPublisher
	Logger     zerolog.Logger
}

// Service provides activity operations.
type Service struct {
	repo      Repository
	trips     TripReader
	cache     cache.Store
	cacheTTL  time.Duration
	observer  cache.Observer
	refresher RefreshPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a new activity service.
func NewService(cfg ServiceConfig) *Service {
	store := cfg.Cache
	if store == nil {
		store = cache.NewMemoryStore()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		repo:      cfg.Repository,
		trips:     cfg.Trips,
		cache:     store,
		cacheTTL:  ttl,
		observer:  cfg.Observer,
		refresher: cfg.Refresher,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// ForTrip returns a trip's stored activities through the cache. Ownership is
// the caller's concern.
func (s *Service) ForTrip(ctx context.Context, tripID string) ([]*Activity, error) {
	return cache.GetOrLoad(ctx, s.cache, cache.ActivitiesKey(tripID), s.cacheTTL, s.observer, s.logger,
		func(ctx context.Context) ([]*Activity, error) {
			return s.repo.ListByTrip(ctx, tripID)
		})
}

// List retrieves the activities of a trip owned by userID.
func (s *Service) List(ctx context.Context, userID, tripID string) (*models.ActivityList, error) {
	if _, err := s.trips.GetByUserAndID(ctx, userID, tripID); err != nil {
		return nil, err
	}

	stored, err := s.ForTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	items := make([]models.Activity, 0, len(stored))
	for _, a := range stored {
		items = append(items, ToAPI(a))
	}
	return &models.ActivityList{Items: items}, nil
}

// Get retrieves an activity of a trip owned by userID.
func (s *Service) Get(ctx context.Context, userID, tripID, activityID string) (*models.Activity, error) {
	if _, err := s.trips.GetByUserAndID(ctx, userID, tripID); err != nil {
		return nil, err
	}

	a, err := s.repo.GetByTripAndID(ctx, tripID, activityID)
	if err != nil {
		return nil, err
	}
	result := ToAPI(a)
	return &result, nil
}

// Create adds an activity to a trip owned by userID. The date is not checked
// against the trip range; activities outside it are reported as unscheduled.
func (s *Service) Create(ctx context.Context, userID, tripID string, input *models.ActivityCreateRequest) (*models.Activity, error) {
	if _, err := s.trips.GetByUserAndID(ctx, userID, tripID); err != nil {
		return nil, err
	}

	var errs []models.FieldError
	errs = append(errs, validateTitle(input.Title, true)...)

	date, err := itinerary.ParseDate(input.Date)
	if err != nil {
		errs = append(errs, models.FieldError{Field: "date", Message: "must be a date in YYYY-MM-DD format"})
	}

	a := &Activity{}
	a.TripID = tripID
	a.Title = strings.TrimSpace(input.Title)
	a.Date = date
	a.Time = normalizeTime(input.Time)
	a.TravelMode = itinerary.DefaultTravelMode
	a.Tag = itinerary.TagUnknown
	a.CostCategory = itinerary.CostUnknown

	errs = append(errs, applyFields(a, fields{
		LocationName:           input.LocationName,
		Latitude:               input.Latitude,
		Longitude:              input.Longitude,
		Tag:                    input.Tag,
		Notes:                  input.Notes,
		TravelMode:             input.TravelMode,
		TravelTimeFromPrevious: input.TravelTimeFromPrevious,
		Order:                  input.Order,
		Price:                  input.Price,
		ActualCost:             input.ActualCost,
		IsPaid:                 input.IsPaid,
		CostCategory:           input.CostCategory,
		SplitBetween:           input.SplitBetween,
		KidFriendly:            input.KidFriendly,
		StrollerAccessible:     input.StrollerAccessible,
	})...)
	errs = append(errs, validate(a)...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	now := s.now()
	a.ID = "act_" + uuid.New().String()[:22]
	a.CreatedAt = now
	a.UpdatedAt = now

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.changed(ctx, tripID)

	result := ToAPI(a)
	return &result, nil
}

// Update updates an activity of a trip owned by userID.
func (s *Service) Update(ctx context.Context, userID, tripID, activityID string, input *models.ActivityUpdateRequest) (*models.Activity, error) {
	if _, err := s.trips.GetByUserAndID(ctx, userID, tripID); err != nil {
		return nil, err
	}

	a, err := s.repo.GetByTripAndID(ctx, tripID, activityID)
	if err != nil {
		return nil, err
	}

	var errs []models.FieldError
	if input.Title != nil {
		errs = append(errs, validateTitle(*input.Title, false)...)
		a.Title = strings.TrimSpace(*input.Title)
	}
	if input.Date != nil {
		date, err := itinerary.ParseDate(*input.Date)
		if err != nil {
			errs = append(errs, models.FieldError{Field: "date", Message: "must be a date in YYYY-MM-DD format"})
		}
		a.Date = date
	}
	if input.Time != nil {
		a.Time = normalizeTime(*input.Time)
	}
	if input.Completed != nil {
		a.Completed = *input.Completed
	}

	errs = append(errs, applyFields(a, fields{
		LocationName:           input.LocationName,
		Latitude:               input.Latitude,
		Longitude:              input.Longitude,
		Tag:                    input.Tag,
		Notes:                  input.Notes,
		TravelMode:             input.TravelMode,
		TravelTimeFromPrevious: input.TravelTimeFromPrevious,
		Order:                  input.Order,
		Price:                  input.Price,
		ActualCost:             input.ActualCost,
		IsPaid:                 input.IsPaid,
		CostCategory:           input.CostCategory,
		SplitBetween:           input.SplitBetween,
		KidFriendly:            input.KidFriendly,
		StrollerAccessible:     input.StrollerAccessible,
	})...)
	errs = append(errs, validate(a)...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.changed(ctx, tripID)

	result := ToAPI(a)
	return &result, nil
}

// SetCompleted toggles the completion flag of an activity.
func (s *Service) SetCompleted(ctx context.Context, userID, tripID, activityID string, completed bool) (*models.Activity, error) {
	return s.Update(ctx, userID, tripID, activityID, &models.ActivityUpdateRequest{Completed: &completed})
}

// Delete deletes an activity of a trip owned by userID.
func (s *Service) Delete(ctx context.Context, userID, tripID, activityID string) error {
	if _, err := s.trips.GetByUserAndID(ctx, userID, tripID); err != nil {
		return err
	}
	if _, err := s.repo.GetByTripAndID(ctx, tripID, activityID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, activityID); err != nil {
		return err
	}
	s.changed(ctx, tripID)
	return nil
}

// Reorder assigns manual order 1..n to the listed activities of one day, in
// the order given. Activities of the day that are not listed keep theirs.
func (s *Service) Reorder(ctx context.Context, userID, tripID, day string, activityIDs []string) (*models.ActivityList, error) {
	if _, err := s.trips.GetByUserAndID(ctx, userID, tripID); err != nil {
		return nil, err
	}

	date, err := itinerary.ParseDate(day)
	if err != nil {
		return nil, &ValidationError{Errors: []models.FieldError{{Field: "date", Message: "must be a date in YYYY-MM-DD format"}}}
	}
	if len(activityIDs) == 0 {
		return nil, &ValidationError{Errors: []models.FieldError{{Field: "activityIds", Message: "must not be empty"}}}
	}

	stored, err := s.repo.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	onDay := make(map[string]*Activity)
	for _, a := range stored {
		if a.Date == date {
			onDay[a.ID] = a
		}
	}

	seen := make(map[string]bool, len(activityIDs))
	for _, id := range activityIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: %s listed twice", ErrInvalidReorder, id)
		}
		seen[id] = true
		if _, ok := onDay[id]; !ok {
			return nil, fmt.Errorf("%w: %s is not scheduled on %s", ErrInvalidReorder, id, date)
		}
	}

	now := s.now()
	for i, id := range activityIDs {
		a := onDay[id]
		if a.Order == i+1 {
			continue
		}
		a.Order = i + 1
		a.UpdatedAt = now
		if err := s.repo.Update(ctx, a); err != nil {
			return nil, err
		}
	}
	s.invalidate(ctx, tripID)

	ordered := make([]*Activity, 0, len(onDay))
	for _, a := range stored {
		if a.Date == date {
			ordered = append(ordered, a)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Time != ordered[j].Time {
			return ordered[i].Time < ordered[j].Time
		}
		return ordered[i].Order < ordered[j].Order
	})

	items := make([]models.Activity, 0, len(ordered))
	for _, a := range ordered {
		items = append(items, ToAPI(a))
	}
	return &models.ActivityList{Items: items}, nil
}

// ApplyTravelTimes stores computed travel times and drops the affected cache
// entries. It does not request another refresh.
func (s *Service) ApplyTravelTimes(ctx context.Context, tripID string, times map[string]string) (int, error) {
	updated, err := s.repo.UpdateTravelTimes(ctx, tripID, times)
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		s.invalidate(ctx, tripID)
	}
	return updated, nil
}

// DeleteByTrip removes every activity of a trip. It satisfies trip.Cascader.
func (s *Service) DeleteByTrip(ctx context.Context, tripID string) error {
	if err := s.repo.DeleteByTrip(ctx, tripID); err != nil {
		return err
	}
	s.invalidate(ctx, tripID)
	return nil
}

func (s *Service) changed(ctx context.Context, tripID string) {
	s.invalidate(ctx, tripID)

	if s.refresher == nil {
		return
	}
	if err := s.refresher.PublishTravelRefresh(ctx, tripID); err != nil {
		s.logger.Warn().Err(err).Str("trip_id", tripID).Msg("failed to request travel refresh")
	}
}

func (s *Service) invalidate(ctx context.Context, tripID string) {
	if err := s.cache.Invalidate(ctx, cache.ActivitiesKey(tripID)); err != nil {
		s.logger.Warn().Err(err).Str("trip_id", tripID).Msg("failed to invalidate activity cache")
	}
}

// fields carries the optional attributes shared by create and update.
type fields struct {
	LocationName           *string
	Latitude               *string
	Longitude              *string
	Tag                    *string
	Notes                  *string
	TravelMode             *string
	TravelTimeFromPrevious *string
	Order                  *int
	Price                  *decimal.Decimal
	ActualCost             *decimal.Decimal
	IsPaid                 *bool
	CostCategory           *string
	SplitBetween           *int
	KidFriendly            *bool
	StrollerAccessible     *bool
}

func applyFields(a *Activity, f fields) []models.FieldError {
	var errs []models.FieldError

	if f.LocationName != nil {
		a.LocationName = strings.TrimSpace(*f.LocationName)
		if len(a.LocationName) > MaxLocationNameLength {
			errs = append(errs, models.FieldError{Field: "locationName", Message: fmt.Sprintf("must be at most %d characters", MaxLocationNameLength)})
		}
	}
	if f.Latitude != nil {
		a.Latitude = emptyToNil(*f.Latitude)
	}
	if f.Longitude != nil {
		a.Longitude = emptyToNil(*f.Longitude)
	}
	if f.Tag != nil {
		a.Tag = itinerary.ParseTag(*f.Tag)
	}
	if f.Notes != nil {
		a.Notes = *f.Notes
		if len(a.Notes) > MaxNotesLength {
			errs = append(errs, models.FieldError{Field: "notes", Message: fmt.Sprintf("must be at most %d characters", MaxNotesLength)})
		}
	}
	if f.TravelMode != nil {
		a.TravelMode = itinerary.ParseTravelMode(*f.TravelMode)
	}
	if f.TravelTimeFromPrevious != nil {
		a.TravelTimeFromPrevious = strings.TrimSpace(*f.TravelTimeFromPrevious)
		if len(a.TravelTimeFromPrevious) > MaxTravelTimeLength {
			errs = append(errs, models.FieldError{Field: "travelTimeFromPrevious", Message: fmt.Sprintf("must be at most %d characters", MaxTravelTimeLength)})
		}
	}
	if f.Order != nil {
		a.Order = *f.Order
	}
	if f.Price != nil {
		a.Price = f.Price
	}
	if f.ActualCost != nil {
		a.ActualCost = f.ActualCost
	}
	if f.IsPaid != nil {
		a.IsPaid = *f.IsPaid
	}
	if f.CostCategory != nil {
		a.CostCategory = itinerary.ParseCostCategory(*f.CostCategory)
	}
	if f.SplitBetween != nil {
		a.SplitBetween = *f.SplitBetween
	}
	if f.KidFriendly != nil {
		a.KidFriendly = f.KidFriendly
	}
	if f.StrollerAccessible != nil {
		a.StrollerAccessible = f.StrollerAccessible
	}
	return errs
}

func validate(a *Activity) []models.FieldError {
	var errs []models.FieldError

	if a.Time != "" && !timeRegex.MatchString(a.Time) {
		errs = append(errs, models.FieldError{Field: "time", Message: "must be in HH:mm format"})
	}
	if a.Latitude != nil || a.Longitude != nil {
		if _, _, ok := itinerary.ParseCoordinates(a.Latitude, a.Longitude); !ok {
			errs = append(errs, models.FieldError{Field: "latitude", Message: "latitude and longitude must both be decimal degrees in range"})
		}
	}
	if a.Order < 0 {
		errs = append(errs, models.FieldError{Field: "order", Message: "must not be negative"})
	}
	if a.SplitBetween < 0 {
		errs = append(errs, models.FieldError{Field: "splitBetween", Message: "must not be negative"})
	}
	if a.Price != nil && a.Price.IsNegative() {
		errs = append(errs, models.FieldError{Field: "price", Message: "must not be negative"})
	}
	if a.ActualCost != nil && a.ActualCost.IsNegative() {
		errs = append(errs, models.FieldError{Field: "actualCost", Message: "must not be negative"})
	}
	return errs
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

func emptyToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ToAPI converts a stored Activity to its API representation.
func ToAPI(a *Activity) models.Activity {
	result := FromItinerary(a.Activity)
	result.CreatedAt = models.Timestamp(a.CreatedAt)
	result.UpdatedAt = models.Timestamp(a.UpdatedAt)
	return result
}

// FromItinerary converts a scheduling Activity to its API representation
// without timestamps.
func FromItinerary(a itinerary.Activity) models.Activity {
	result := models.Activity{
		ID:                 a.ID,
		TripID:             a.TripID,
		Title:              a.Title,
		Date:               a.Date.String(),
		Time:               a.Time,
		LocationName:       a.LocationName,
		Latitude:           a.Latitude,
		Longitude:          a.Longitude,
		Tag:                string(a.Tag),
		Notes:              a.Notes,
		TravelMode:         string(a.TravelMode),
		Order:              a.Order,
		Completed:          a.Completed,
		Price:              a.Price,
		ActualCost:         a.ActualCost,
		IsPaid:             a.IsPaid,
		CostCategory:       string(a.CostCategory),
		SplitBetween:       a.SplitBetween,
		KidFriendly:        a.KidFriendly,
		StrollerAccessible: a.StrollerAccessible,
	}
	if a.TravelTimeFromPrevious != "" {
		tt := a.TravelTimeFromPrevious
		result.TravelTimeFromPrevious = &tt
	}
	return result
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// Ensure Service can cascade trip deletes.
var _ trip.Cascader = (*Service)(nil)
