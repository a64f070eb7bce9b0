// Package export renders a trip plan as an iCalendar feed or a CSV sheet.
package export

import (
	"io"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/nestmap/nestmap/internal/itinerary"
)

// DefaultEventDuration is the length given to every timed calendar event.
const DefaultEventDuration = 2 * time.Hour

const productID = "-//NestMap//Itinerary//EN"

// Document is the data a calendar export is built from.
type Document struct {
	TripID   string
	Title    string
	Location *time.Location
	Plan     *itinerary.Plan
}

// CalendarOptions tune the iCalendar output.
type CalendarOptions struct {
	EventDuration time.Duration
	Now           time.Time
}

// EventUID returns the stable calendar UID of an activity.
func EventUID(activityID string) string {
	return activityID + "@nestmap"
}

// WriteCalendar writes one VEVENT per scheduled activity. Activities whose
// time is empty or unreadable become all-day events. Unscheduled activities
// and conflict flags are not exported.
func WriteCalendar(w io.Writer, doc Document, opts CalendarOptions) error {
	loc := doc.Location
	if loc == nil {
		loc = time.UTC
	}
	duration := opts.EventDuration
	if duration <= 0 {
		duration = DefaultEventDuration
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if doc.Title != "" {
		cal.SetXWRCalName(doc.Title)
	}
	cal.SetXWRTimezone(loc.String())

	for _, day := range doc.Plan.Days {
		for _, a := range day.Activities {
			event := cal.AddEvent(EventUID(a.ID))
			event.SetDtStampTime(now)
			event.SetSummary(a.Title)
			if a.LocationName != "" {
				event.SetLocation(a.LocationName)
			}
			if a.Notes != "" {
				event.SetDescription(a.Notes)
			}

			if start, ok := StartTime(a.Date, a.Time, loc); ok {
				event.SetStartAt(start)
				event.SetEndAt(start.Add(duration))
				continue
			}
			midnight := a.Date.In(time.UTC)
			event.SetAllDayStartAt(midnight)
			event.SetAllDayEndAt(midnight.AddDate(0, 0, 1))
		}
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}

// StartTime combines a date and an "HH:MM" string in loc. It reports false
// when the time does not parse.
func StartTime(date itinerary.Date, hhmm string, loc *time.Location) (time.Time, bool) {
	hourPart, minutePart, found := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !found {
		return time.Time{}, false
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, false
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, false
	}

	return time.Date(date.Year, date.Month, date.Day, hour, minute, 0, 0, loc), true
}
