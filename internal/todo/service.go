package todo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/api/models"
	"github.com/nestmap/nestmap/internal/cache"
	"github.com/nestmap/nestmap/internal/trip"
)

// MaxTaskLength is the longest accepted task text.
const MaxTaskLength = 500

// TripReader resolves a trip for its owner.
type TripReader interface {
	GetByUserAndID(ctx context.Context, userID, tripID string) (*trip.Trip, error)
}

// ServiceConfig holds configuration for the todo service.
type ServiceConfig struct {
	Repository Repository
	Trips      TripReader
	Cache      cache.Store
	CacheTTL   time.Duration
	Logger     zerolog.Logger
}

// Service provides todo operations.
type Service struct {
	repo     Repository
	trips    TripReader
	cache    cache.Store
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates a new todo service.
func NewService(cfg ServiceConfig) *Service {
	store := cfg.Cache
	if store == nil {
		store = cache.NewMemoryStore()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{
		repo:     cfg.Repository,
		trips:    cfg.Trips,
		cache:    store,
		cacheTTL: ttl,
		logger:   cfg.Logger,
		now:      time.Now,
	}
}

// List retrieves the todos of a trip owned by userID.
func (s *Service) List(ctx context.Context, userID, tripID string) (*models.TodoList, error) {
	if _, err := s.trips.GetByUserAndID(ctx, userID, tripID); err != nil {
		return nil, err
	}

	todos, err := cache.GetOrLoad(ctx, s.cache, cache.TodosKey(tripID), s.cacheTTL, nil, s.logger,
		func(ctx context.Context) ([]*Todo, error) {
			return s.repo.ListByTrip(ctx, tripID)
		})
	if err != nil {
		return nil, err
	}

	items := make([]models.Todo, 0, len(todos))
	for _, t := range todos {
		items = append(items, ToAPI(t))
	}
	return &models.TodoList{Items: items}, nil
}

// Create adds a todo to a trip owned by userID.
func (s *Service) Create(ctx context.Context, userID, tripID string, input *models.TodoCreateRequest) (*models.Todo, error) {
	if _, err := s.trips.GetByUserAndID(ctx, userID, tripID); err != nil {
		return nil, err
	}
	if errs := validateTask(input.Task); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	now := s.now()
	t := &Todo{
		ID:        "tdo_" + uuid.New().String()[:22],
		TripID:    tripID,
		Task:      strings.TrimSpace(input.Task),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(ctx, tripID)

	result := ToAPI(t)
	return &result, nil
}

// Update changes the task text or completion of a todo.
func (s *Service) Update(ctx context.Context, userID, tripID, todoID string, input *models.TodoUpdateRequest) (*models.Todo, error) {
	if _, err := s.trips.GetByUserAndID(ctx, userID, tripID); err != nil {
		return nil, err
	}

	t, err := s.repo.GetByTripAndID(ctx, tripID, todoID)
	if err != nil {
		return nil, err
	}

	if input.Task != nil {
		if errs := validateTask(*input.Task); len(errs) > 0 {
			return nil, &ValidationError{Errors: errs}
		}
		t.Task = strings.TrimSpace(*input.Task)
	}
	if input.Completed != nil {
		t.Completed = *input.Completed
	}

	t.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(ctx, tripID)

	result := ToAPI(t)
	return &result, nil
}

// Toggle flips the completion flag of a todo.
func (s *Service) Toggle(ctx context.Context, userID, tripID, todoID string) (*models.Todo, error) {
	if _, err := s.trips.GetByUserAndID(ctx, userID, tripID); err != nil {
		return nil, err
	}
	t, err := s.repo.GetByTripAndID(ctx, tripID, todoID)
	if err != nil {
		return nil, err
	}
	completed := !t.Completed
	return s.Update(ctx, userID, tripID, todoID, &models.TodoUpdateRequest{Completed: &completed})
}

// Delete deletes a todo of a trip owned by userID.
func (s *Service) Delete(ctx context.Context, userID, tripID, todoID string) error {
	if _, err := s.trips.GetByUserAndID(ctx, userID, tripID); err != nil {
		return err
	}
	if _, err := s.repo.GetByTripAndID(ctx, tripID, todoID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, todoID); err != nil {
		return err
	}
	s.invalidate(ctx, tripID)
	return nil
}

// DeleteByTrip removes every todo of a trip. It satisfies trip.Cascader.
func (s *Service) DeleteByTrip(ctx context.Context, tripID string) error {
	if err := s.repo.DeleteByTrip(ctx, tripID); err != nil {
		return err
	}
	s.invalidate(ctx, tripID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, tripID string) {
	if err := s.cache.Invalidate(ctx, cache.TodosKey(tripID)); err != nil {
		s.logger.Warn().Err(err).Str("trip_id", tripID).Msg("failed to invalidate todo cache")
	}
}

func validateTask(task string) []models.FieldError {
	task = strings.TrimSpace(task)
	if task == "" {
		return []models.FieldError{{Field: "task", Message: "is required"}}
	}
	if len(task) > MaxTaskLength {
		return []models.FieldError{{Field: "task", Message: fmt.Sprintf("must be at most %d characters", MaxTaskLength)}}
	}
	return nil
}

// ToAPI converts a stored Todo to its API representation.
func ToAPI(t *Todo) models.Todo {
	return models.Todo{
		ID:        t.ID,
		TripID:    t.TripID,
		Task:      t.Task,
		Completed: t.Completed,
		CreatedAt: models.Timestamp(t.CreatedAt),
		UpdatedAt: models.Timestamp(t.UpdatedAt),
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

var _ trip.Cascader = (*Service)(nil)
