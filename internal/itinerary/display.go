package itinerary

import (
	"fmt"
	"strconv"
	"strings"
)

// TimePlaceholder is shown for activities without a time.
const TimePlaceholder = "--:--"

// FormatTime converts "HH:MM" into a 12-hour clock string ("13:30" becomes
// "1:30 PM"). Input it cannot read is returned unchanged.
func FormatTime(s string) string {
	if s == "" {
		return TimePlaceholder
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return s
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 {
		return s
	}

	minute := parts[1]
	if minute == "" {
		minute = "00"
	}

	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%s %s", h, minute, period)
}

// Icon identifies the travel-mode glyph shown next to an activity.
type Icon string

const (
	IconWalking Icon = "walking"
	IconDriving Icon = "driving"
	IconTransit Icon = "transit"
	IconUnknown Icon = "unknown"
)

// ModeIcon maps a travel mode onto its icon.
func ModeIcon(m TravelMode) Icon {
	switch m {
	case TravelModeWalking:
		return IconWalking
	case TravelModeDriving:
		return IconDriving
	case TravelModeTransit:
		return IconTransit
	default:
		return IconUnknown
	}
}

// IconFor maps a raw travel-mode string onto its icon.
func IconFor(raw string) Icon {
	return ModeIcon(ParseTravelMode(raw))
}

// ParseCoordinates reads string-encoded decimal degrees. Either part missing,
// unparseable or out of range yields ok == false.
func ParseCoordinates(lat, lon *string) (float64, float64, bool) {
	if lat == nil || lon == nil {
		return 0, 0, false
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(*lat), 64)
	if err != nil || la < -90 || la > 90 {
		return 0, 0, false
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(*lon), 64)
	if err != nil || lo < -180 || lo > 180 {
		return 0, 0, false
	}
	return la, lo, true
}
