package export

import (
	"context"
	"io"
	"time"

	"github.com/nestmap/nestmap/internal/planner"
)

// PlanBuilder builds the plan of a trip owned by a user.
type PlanBuilder interface {
	Build(ctx context.Context, userID, tripID string) (*planner.Result, error)
}

// EventLength supplies the calendar event duration.
type EventLength interface {
	CalendarEventDuration(ctx context.Context) time.Duration
}

// Service exports stored trips.
type Service struct {
	plans  PlanBuilder
	length EventLength
	now    func() time.Time
}

// NewService creates an export service. A nil EventLength uses
// DefaultEventDuration.
func NewService(plans PlanBuilder, length EventLength) *Service {
	return &Service{plans: plans, length: length, now: time.Now}
}

// Calendar writes the iCalendar feed of a trip.
func (s *Service) Calendar(ctx context.Context, w io.Writer, userID, tripID string) error {
	res, err := s.plans.Build(ctx, userID, tripID)
	if err != nil {
		return err
	}

	opts := CalendarOptions{EventDuration: DefaultEventDuration, Now: s.now()}
	if s.length != nil {
		opts.EventDuration = s.length.CalendarEventDuration(ctx)
	}

	return WriteCalendar(w, Document{
		TripID:   res.Trip.ID,
		Title:    res.Trip.Title,
		Location: res.Trip.Location(),
		Plan:     res.Plan,
	}, opts)
}

// CSV writes the spreadsheet export of a trip.
func (s *Service) CSV(ctx context.Context, w io.Writer, userID, tripID string) error {
	res, err := s.plans.Build(ctx, userID, tripID)
	if err != nil {
		return err
	}
	return WriteCSV(w, res.Plan)
}
