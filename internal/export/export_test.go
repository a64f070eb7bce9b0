package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestmap/nestmap/internal/itinerary"
)

func testPlan() *itinerary.Plan {
	trip := itinerary.Trip{
		ID:        "trp_1",
		Title:     "Rome",
		StartDate: itinerary.MustParseDate("2024-05-10"),
		EndDate:   itinerary.MustParseDate("2024-05-11"),
	}
	acts := []itinerary.Activity{
		{ID: "act_1", Title: "Museum", Date: trip.StartDate, Time: "10:00", LocationName: "Vatican", Notes: "Tickets"},
		{ID: "act_2", Title: "Lunch", Date: trip.StartDate, Time: "10:00"},
		{ID: "act_3", Title: "Market", Date: trip.EndDate, Time: "soon", TravelTimeFromPrevious: "2 hr", TravelMode: itinerary.TravelModeTransit},
		{ID: "act_4", Title: "Outside", Date: itinerary.MustParseDate("2024-06-01"), Time: "09:00"},
	}
	return itinerary.NewScheduler().Build(trip, acts)
}

func TestWriteCalendar(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	var buf bytes.Buffer
	err = WriteCalendar(&buf, Document{TripID: "trp_1", Title: "Rome", Location: rome, Plan: testPlan()}, CalendarOptions{
		Now: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Equal(t, 3, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "UID:act_1@nestmap")
	assert.Contains(t, out, "SUMMARY:Museum")
	assert.Contains(t, out, "LOCATION:Vatican")
	assert.Contains(t, out, "DESCRIPTION:Tickets")
	// 10:00 CEST is 08:00 UTC; two hours later by default.
	assert.Contains(t, out, "DTSTART:20240510T080000Z")
	assert.Contains(t, out, "DTEND:20240510T100000Z")
	// Unreadable time becomes an all-day event.
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20240511")
	assert.NotContains(t, out, "act_4@nestmap")
}

func TestWriteCalendar_EventDuration(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCalendar(&buf, Document{Plan: testPlan()}, CalendarOptions{EventDuration: 45 * time.Minute})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "DTSTART:20240510T100000Z")
	assert.Contains(t, buf.String(), "DTEND:20240510T104500Z")
}

func TestStartTime(t *testing.T) {
	date := itinerary.MustParseDate("2024-05-10")

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"09:30", "2024-05-10T09:30:00Z", true},
		{"9:05", "2024-05-10T09:05:00Z", true},
		{"23:59", "2024-05-10T23:59:00Z", true},
		{"", "", false},
		{"24:00", "", false},
		{"12:60", "", false},
		{"noon", "", false},
		{"12", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := StartTime(date, tt.in, time.UTC)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format(time.RFC3339))
			}
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testPlan()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"1", "2024-05-10", "10:00 AM", "Museum", "Vatican", "", "", "", "true", "false"}, rows[1])
	assert.Equal(t, "Lunch", rows[2][3])
	assert.Equal(t, []string{"2", "2024-05-11", "soon", "Market", "", "", "transit", "2 hr", "false", "true"}, rows[3])
}
