package itinerary

import "strings"

// TravelMode is the declared way of getting to an activity from the one
// before it.
type TravelMode string

const (
	TravelModeWalking TravelMode = "walking"
	TravelModeDriving TravelMode = "driving"
	TravelModeTransit TravelMode = "transit"
	TravelModeUnknown TravelMode = "unknown"
)

// DefaultTravelMode is applied to new activities that do not declare one.
const DefaultTravelMode = TravelModeWalking

// ParseTravelMode maps free-form input onto a TravelMode. Matching ignores
// case and surrounding whitespace; empty input, "null" and anything
// unrecognized become TravelModeUnknown.
func ParseTravelMode(s string) TravelMode {
	switch normalize(s) {
	case "walking", "walk":
		return TravelModeWalking
	case "driving", "drive", "car":
		return TravelModeDriving
	case "transit", "public_transit", "public transport":
		return TravelModeTransit
	default:
		return TravelModeUnknown
	}
}

// Known reports whether m is one of the declared modes.
func (m TravelMode) Known() bool {
	return m == TravelModeWalking || m == TravelModeDriving || m == TravelModeTransit
}

// Tag categorizes an activity.
type Tag string

const (
	TagFood          Tag = "food"
	TagCulture       Tag = "culture"
	TagOutdoor       Tag = "outdoor"
	TagShopping      Tag = "shopping"
	TagEntertainment Tag = "entertainment"
	TagTransport     Tag = "transport"
	TagLodging       Tag = "lodging"
	TagOther         Tag = "other"
	TagUnknown       Tag = "unknown"
)

var knownTags = map[string]Tag{
	"food":          TagFood,
	"culture":       TagCulture,
	"outdoor":       TagOutdoor,
	"shopping":      TagShopping,
	"entertainment": TagEntertainment,
	"transport":     TagTransport,
	"lodging":       TagLodging,
	"other":         TagOther,
}

// ParseTag maps free-form input onto a Tag, falling back to TagUnknown.
func ParseTag(s string) Tag {
	if tag, ok := knownTags[normalize(s)]; ok {
		return tag
	}
	return TagUnknown
}

// CostCategory buckets activity spend for budget reporting.
type CostCategory string

const (
	CostFood       CostCategory = "food"
	CostTransport  CostCategory = "transport"
	CostLodging    CostCategory = "lodging"
	CostActivities CostCategory = "activities"
	CostShopping   CostCategory = "shopping"
	CostOther      CostCategory = "other"
	CostUnknown    CostCategory = "unknown"
)

var knownCostCategories = map[string]CostCategory{
	"food":           CostFood,
	"transport":      CostTransport,
	"transportation": CostTransport,
	"lodging":        CostLodging,
	"accommodation":  CostLodging,
	"activities":     CostActivities,
	"activity":       CostActivities,
	"shopping":       CostShopping,
	"other":          CostOther,
}

// ParseCostCategory maps free-form input onto a CostCategory, falling back
// to CostUnknown.
func ParseCostCategory(s string) CostCategory {
	if c, ok := knownCostCategories[normalize(s)]; ok {
		return c
	}
	return CostUnknown
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "null" || s == "undefined" {
		return ""
	}
	return s
}
