package itinerary

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Warning messages attached to flagged activities.
const (
	TimeConflictMessage   = "TIME CONFLICT: Another activity is scheduled at the same time!"
	TravelConflictMessage = "Travel time may be too long"
)

// DefaultTravelThreshold is the travel time above which a leg is flagged.
const DefaultTravelThreshold = 60 * time.Minute

// TravelPolicy decides when travel from the previous activity is too long.
type TravelPolicy struct {
	Threshold time.Duration
}

// DefaultTravelPolicy returns the policy used when nothing is configured.
func DefaultTravelPolicy() TravelPolicy {
	return TravelPolicy{Threshold: DefaultTravelThreshold}
}

// Exceeds reports whether d is over the threshold. A zero duration never
// exceeds it.
func (p TravelPolicy) Exceeds(d time.Duration) bool {
	if d <= 0 || p.Threshold <= 0 {
		return false
	}
	return d > p.Threshold
}

// MarkTimeConflicts sets TimeConflict on every activity that shares its exact
// time string with another activity of the same day. Activities without a
// time are never flagged.
//
// With orderTieBreak, two same-time activities carrying different explicit
// orders are treated as planned back-to-back and do not conflict.
func MarkTimeConflicts(day []ScheduledActivity, orderTieBreak bool) {
	byTime := make(map[string][]int, len(day))
	for i := range day {
		day[i].TimeConflict = false
		if day[i].Time == "" {
			continue
		}
		byTime[day[i].Time] = append(byTime[day[i].Time], i)
	}

	for _, idx := range byTime {
		if len(idx) < 2 {
			continue
		}
		for _, i := range idx {
			for _, j := range idx {
				if i == j {
					continue
				}
				if orderTieBreak && sequenced(day[i].Order, day[j].Order) {
					continue
				}
				day[i].TimeConflict = true
				break
			}
		}
	}
}

func sequenced(a, b int) bool {
	return a > 0 && b > 0 && a != b
}

// MarkTravelConflicts parses each activity's travel time and flags the ones
// the policy rejects. Missing or unparseable durations leave the activity
// unflagged.
func MarkTravelConflicts(day []ScheduledActivity, policy TravelPolicy) {
	for i := range day {
		d, ok := ParseTravelDuration(day[i].TravelTimeFromPrevious)
		if !ok {
			day[i].TravelDuration = 0
			day[i].TravelConflict = false
			continue
		}
		day[i].TravelDuration = d
		day[i].TravelConflict = policy.Exceeds(d)
	}
}

var durationPart = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(hours?|hrs?|h|minutes?|mins?|m)\b`)

// ParseTravelDuration reads the loose duration strings routing data comes
// with: "15 min", "1 hr 30 min", "2 hours", "1h30m" or a bare number of
// minutes. It returns false for empty, zero or unreadable input.
func ParseTravelDuration(s string) (time.Duration, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "null" {
		return 0, false
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d, d > 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		d := time.Duration(n) * time.Minute
		return d, d > 0
	}

	matches := durationPart.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0, false
	}

	var total time.Duration
	for _, m := range matches {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		unit := time.Minute
		if strings.HasPrefix(m[2], "h") {
			unit = time.Hour
		}
		total += time.Duration(n * float64(unit))
	}
	return total, total > 0
}

// FormatTravelDuration renders d the way ParseTravelDuration reads it back:
// "15 min", "1 hr", "2 hr 5 min". Durations under a minute round up to one.
func FormatTravelDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	minutes := int(math.Round(d.Minutes()))
	if minutes == 0 {
		minutes = 1
	}

	hours, rest := minutes/60, minutes%60
	switch {
	case hours == 0:
		return fmt.Sprintf("%d min", rest)
	case rest == 0:
		return fmt.Sprintf("%d hr", hours)
	default:
		return fmt.Sprintf("%d hr %d min", hours, rest)
	}
}
