package itinerary_test

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestmap/nestmap/internal/itinerary"
)

func date(s string) itinerary.Date {
	return itinerary.MustParseDate(s)
}

func TestTripDays(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{"single day", "2024-06-01", "2024-06-01", 1},
		{"two days", "2024-06-01", "2024-06-02", 2},
		{"across month", "2024-01-30", "2024-02-02", 4},
		{"leap day", "2024-02-28", "2024-03-01", 3},
		{"across year", "2023-12-31", "2024-01-01", 2},
		{"reversed", "2024-06-02", "2024-06-01", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := itinerary.TripDays(date(tt.start), date(tt.end))
			require.Len(t, days, tt.want)
			if tt.want > 0 {
				assert.Equal(t, date(tt.start), days[0])
				assert.Equal(t, date(tt.end), days[len(days)-1])
			}
			for i := 1; i < len(days); i++ {
				assert.Equal(t, 1, days[i-1].DaysUntil(days[i]))
			}
		})
	}
}

func TestParseDate_IgnoresTimeOfDay(t *testing.T) {
	d, err := itinerary.ParseDate("2024-06-01T23:30:00-07:00")
	require.NoError(t, err)
	assert.Equal(t, date("2024-06-01"), d)

	d, err = itinerary.ParseDate("2024-06-01T00:15:00+09:00")
	require.NoError(t, err)
	assert.Equal(t, date("2024-06-01"), d)

	_, err = itinerary.ParseDate("June 1st")
	assert.Error(t, err)
}

func TestBucketByDay_Partitions(t *testing.T) {
	days := itinerary.TripDays(date("2024-06-01"), date("2024-06-03"))
	activities := []itinerary.Activity{
		{ID: "a", Date: date("2024-06-01")},
		{ID: "b", Date: date("2024-06-03")},
		{ID: "c", Date: date("2024-05-31")},
		{ID: "d", Date: date("2024-06-01")},
		{ID: "e", Date: date("2024-06-04")},
	}

	buckets, outside := itinerary.BucketByDay(days, activities)

	require.Len(t, buckets, 3)
	assert.Equal(t, []string{"a", "d"}, ids(buckets[date("2024-06-01")]))
	assert.Empty(t, buckets[date("2024-06-02")])
	assert.NotNil(t, buckets[date("2024-06-02")])
	assert.Equal(t, []string{"b"}, ids(buckets[date("2024-06-03")]))
	assert.Equal(t, []string{"c", "e"}, ids(outside))

	seen := map[string]int{}
	for _, bucket := range buckets {
		for _, a := range bucket {
			seen[a.ID]++
		}
	}
	for _, id := range []string{"a", "b", "d"} {
		assert.Equal(t, 1, seen[id], id)
	}
}

func TestSortByTime_Stable(t *testing.T) {
	in := []itinerary.Activity{
		{ID: "late", Time: "18:00"},
		{ID: "first-nine", Time: "09:00"},
		{ID: "noon", Time: "12:00"},
		{ID: "second-nine", Time: "09:00"},
		{ID: "third-nine", Time: "09:00"},
	}

	out := itinerary.SortByTime(in, false)

	assert.Equal(t, []string{"first-nine", "second-nine", "third-nine", "noon", "late"}, ids(out))
	assert.Equal(t, "late", in[0].ID, "input is not modified")
}

func TestSortByTime_OrderTieBreak(t *testing.T) {
	in := []itinerary.Activity{
		{ID: "unset", Time: "12:00"},
		{ID: "second", Time: "12:00", Order: 2},
		{ID: "first", Time: "12:00", Order: 1},
	}

	assert.Equal(t, []string{"unset", "second", "first"}, ids(itinerary.SortByTime(in, false)))
	assert.Equal(t, []string{"first", "second", "unset"}, ids(itinerary.SortByTime(in, true)))
}

func TestSortByTime_LexicographicMatchesNumeric(t *testing.T) {
	var times []string
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m++ {
			times = append(times, fmt.Sprintf("%02d:%02d", h, m))
		}
	}

	rng := rand.New(rand.NewSource(7))
	rng.Shuffle(len(times), func(i, j int) { times[i], times[j] = times[j], times[i] })

	activities := make([]itinerary.Activity, len(times))
	for i, tm := range times {
		activities[i] = itinerary.Activity{ID: tm, Time: tm}
	}
	lexical := itinerary.SortByTime(activities, false)

	numeric := make([]string, len(times))
	copy(numeric, times)
	sort.Slice(numeric, func(i, j int) bool {
		var hi, mi, hj, mj int
		fmt.Sscanf(numeric[i], "%d:%d", &hi, &mi)
		fmt.Sscanf(numeric[j], "%d:%d", &hj, &mj)
		if hi != hj {
			return hi < hj
		}
		return mi < mj
	})

	assert.Equal(t, numeric, ids(lexical))
}

func TestScheduler_EndToEnd(t *testing.T) {
	trip := itinerary.Trip{
		ID:        "trp_1",
		StartDate: date("2024-06-01"),
		EndDate:   date("2024-06-02"),
	}
	activities := []itinerary.Activity{
		{ID: "breakfast", Date: date("2024-06-01"), Time: "09:00"},
		{ID: "museum", Date: date("2024-06-01"), Time: "09:00"},
		{ID: "market", Date: date("2024-06-02"), Time: "14:00"},
	}

	plan := itinerary.NewScheduler().Build(trip, activities)

	require.Len(t, plan.Days, 2)
	assert.Empty(t, plan.Unscheduled)

	day1 := plan.Days[0]
	assert.Equal(t, date("2024-06-01"), day1.Date)
	require.Len(t, day1.Activities, 2)
	assert.Equal(t, "breakfast", day1.Activities[0].ID)
	assert.Equal(t, "museum", day1.Activities[1].ID)
	assert.True(t, day1.Activities[0].TimeConflict)
	assert.True(t, day1.Activities[1].TimeConflict)
	assert.Equal(t, []string{itinerary.TimeConflictMessage}, day1.Activities[0].Warnings)
	assert.True(t, day1.HasConflicts())

	day2 := plan.Days[1]
	require.Len(t, day2.Activities, 1)
	assert.Equal(t, "market", day2.Activities[0].ID)
	assert.False(t, day2.Activities[0].TimeConflict)
	assert.Equal(t, "2:00 PM", day2.Activities[0].DisplayTime)
	assert.False(t, day2.HasConflicts())
}

func TestScheduler_DerivedFields(t *testing.T) {
	trip := itinerary.Trip{ID: "trp_1", StartDate: date("2024-06-01"), EndDate: date("2024-06-03")}
	activities := []itinerary.Activity{
		{ID: "drive", Date: date("2024-06-01"), Time: "13:30", TravelMode: itinerary.TravelModeDriving, TravelTimeFromPrevious: "2 hours"},
		{ID: "walk", Date: date("2024-06-01"), Time: "08:00", TravelMode: itinerary.TravelModeWalking, TravelTimeFromPrevious: "15 min"},
		{ID: "mystery", Date: date("2024-06-01"), Time: "", TravelMode: itinerary.ParseTravelMode("null")},
		{ID: "orphan", Date: date("2024-07-01"), Time: "10:00"},
	}

	plan := itinerary.NewScheduler().Build(trip, activities)

	day1, ok := plan.Day(date("2024-06-01"))
	require.True(t, ok)
	require.Len(t, day1.Activities, 3)

	mystery, walk, drive := day1.Activities[0], day1.Activities[1], day1.Activities[2]
	assert.Equal(t, "mystery", mystery.ID)
	assert.Equal(t, itinerary.TimePlaceholder, mystery.DisplayTime)
	assert.Equal(t, itinerary.IconUnknown, mystery.ModeIcon)
	assert.Empty(t, mystery.Warnings)

	assert.Equal(t, "8:00 AM", walk.DisplayTime)
	assert.Equal(t, itinerary.IconWalking, walk.ModeIcon)
	assert.False(t, walk.TravelConflict)

	assert.Equal(t, "1:30 PM", drive.DisplayTime)
	assert.Equal(t, itinerary.IconDriving, drive.ModeIcon)
	assert.True(t, drive.TravelConflict)
	assert.Equal(t, 2*time.Hour, drive.TravelDuration)
	assert.Equal(t, []string{itinerary.TravelConflictMessage}, drive.Warnings)

	day2, ok := plan.Day(date("2024-06-02"))
	require.True(t, ok)
	assert.Empty(t, day2.Activities)

	require.Len(t, plan.Unscheduled, 1)
	assert.Equal(t, "orphan", plan.Unscheduled[0].ID)

	_, ok = plan.Day(date("2024-07-01"))
	assert.False(t, ok)
}

func TestScheduler_CustomPolicy(t *testing.T) {
	trip := itinerary.Trip{ID: "trp_1", StartDate: date("2024-06-01"), EndDate: date("2024-06-01")}
	activities := []itinerary.Activity{
		{ID: "a", Date: date("2024-06-01"), Time: "10:00", TravelTimeFromPrevious: "20 min"},
	}

	strict := itinerary.NewScheduler(itinerary.WithTravelPolicy(itinerary.TravelPolicy{Threshold: 10 * time.Minute}))
	plan := strict.Build(trip, activities)

	assert.True(t, plan.Days[0].Activities[0].TravelConflict)
	assert.Equal(t, 10*time.Minute, strict.Policy().Threshold)
}

func TestScheduler_OrderTieBreak(t *testing.T) {
	trip := itinerary.Trip{ID: "trp_1", StartDate: date("2024-06-01"), EndDate: date("2024-06-01")}
	activities := []itinerary.Activity{
		{ID: "reservation", Date: date("2024-06-01"), Time: "12:00", Order: 2},
		{ID: "lunch", Date: date("2024-06-01"), Time: "12:00", Order: 1},
	}

	plan := itinerary.NewScheduler(itinerary.WithOrderTieBreak(true)).Build(trip, activities)

	day := plan.Days[0].Activities
	assert.Equal(t, "lunch", day[0].ID)
	assert.Equal(t, "reservation", day[1].ID)
	assert.False(t, day[0].TimeConflict)
	assert.False(t, day[1].TimeConflict)
}

func ids(activities []itinerary.Activity) []string {
	out := make([]string, len(activities))
	for i, a := range activities {
		out[i] = a.ID
	}
	return out
}
