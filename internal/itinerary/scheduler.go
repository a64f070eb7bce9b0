package itinerary

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTravelPolicy overrides the travel conflict threshold.
func WithTravelPolicy(p TravelPolicy) Option {
	return func(s *Scheduler) {
		s.policy = p
	}
}

// WithOrderTieBreak makes the manual Order field break ties between
// activities sharing a time, and stops flagging such pairs as conflicts
// when both carry distinct orders.
func WithOrderTieBreak(enabled bool) Option {
	return func(s *Scheduler) {
		s.orderTieBreak = enabled
	}
}

// Scheduler builds day plans. The zero value is not usable; use NewScheduler.
type Scheduler struct {
	policy        TravelPolicy
	orderTieBreak bool
}

// NewScheduler creates a Scheduler with the default travel policy and no
// order tie-break.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{policy: DefaultTravelPolicy()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the travel policy in use.
func (s *Scheduler) Policy() TravelPolicy {
	return s.policy
}

// Build computes the plan for a trip: one DayPlan per trip day, each sorted
// and annotated, plus the activities that fall outside the trip range.
func (s *Scheduler) Build(trip Trip, activities []Activity) *Plan {
	days := trip.Days()
	buckets, outside := BucketByDay(days, activities)

	plan := &Plan{
		TripID:      trip.ID,
		Days:        make([]DayPlan, 0, len(days)),
		Unscheduled: outside,
	}
	for _, d := range days {
		plan.Days = append(plan.Days, s.ScheduleDay(d, buckets[d]))
	}
	return plan
}

// ScheduleDay sorts one day's activities and derives their display and
// conflict attributes. The caller is responsible for passing only
// activities of that date.
func (s *Scheduler) ScheduleDay(date Date, activities []Activity) DayPlan {
	sorted := SortByTime(activities, s.orderTieBreak)

	day := make([]ScheduledActivity, len(sorted))
	for i, a := range sorted {
		day[i] = ScheduledActivity{
			Activity:    a,
			DisplayTime: FormatTime(a.Time),
			ModeIcon:    ModeIcon(a.TravelMode),
		}
	}

	MarkTimeConflicts(day, s.orderTieBreak)
	MarkTravelConflicts(day, s.policy)

	for i := range day {
		day[i].Warnings = warningsFor(day[i])
	}
	return DayPlan{Date: date, Activities: day}
}

func warningsFor(a ScheduledActivity) []string {
	var w []string
	if a.TimeConflict {
		w = append(w, TimeConflictMessage)
	}
	if a.TravelConflict {
		w = append(w, TravelConflictMessage)
	}
	return w
}
