package itinerary

import (
	"math"
	"sort"
)

// TripDays returns every calendar date from start to end inclusive. The
// result is empty when end is before start.
func TripDays(start, end Date) []Date {
	if end.Before(start) {
		return []Date{}
	}
	n := start.DaysUntil(end) + 1
	days := make([]Date, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, start.AddDays(i))
	}
	return days
}

// BucketByDay groups activities by calendar date. Every entry of days is a
// key of the result, with an empty slice when nothing is scheduled that day.
// Activities dated outside days are returned separately, in input order.
// Input order is preserved inside each bucket.
func BucketByDay(days []Date, activities []Activity) (map[Date][]Activity, []Activity) {
	buckets := make(map[Date][]Activity, len(days))
	for _, d := range days {
		buckets[d] = []Activity{}
	}

	var outside []Activity
	for _, a := range activities {
		bucket, ok := buckets[a.Date]
		if !ok {
			outside = append(outside, a)
			continue
		}
		buckets[a.Date] = append(bucket, a)
	}
	return buckets, outside
}

// SortByTime returns the activities ordered by their raw time string.
// Zero-padded "HH:MM" strings sort chronologically under plain string
// comparison. Equal times keep their input order, unless orderTieBreak is
// set, in which case a lower Order wins and unset (zero) orders go last.
func SortByTime(activities []Activity, orderTieBreak bool) []Activity {
	sorted := make([]Activity, len(activities))
	copy(sorted, activities)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Time != sorted[j].Time {
			return sorted[i].Time < sorted[j].Time
		}
		if orderTieBreak {
			return orderKey(sorted[i].Order) < orderKey(sorted[j].Order)
		}
		return false
	})
	return sorted
}

func orderKey(order int) int {
	if order <= 0 {
		return math.MaxInt
	}
	return order
}
