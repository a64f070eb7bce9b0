// Package featureflags holds the scheduling settings operators can change
// at runtime without a deploy.
package featureflags

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Flag keys.
const (
	// FlagTravelConflictThresholdMinutes is the travel time above which an
	// activity is flagged as hard to reach.
	FlagTravelConflictThresholdMinutes = "travel_conflict_threshold_minutes"

	// FlagOrderTieBreakSameTime lets manual order separate activities that
	// share a start time.
	FlagOrderTieBreakSameTime = "order_tiebreak_same_time"

	// FlagCalendarEventMinutes is the length of exported calendar events.
	FlagCalendarEventMinutes = "calendar_event_minutes"

	// FlagRoutingProviderEnabled routes travel-time lookups through the
	// external routing provider instead of the distance estimate.
	FlagRoutingProviderEnabled = "routing_provider_enabled"
)

// Defaults for the numeric flags.
const (
	DefaultTravelConflictThresholdMinutes = 60
	DefaultCalendarEventMinutes           = 120
)

// Kind is the type of value a flag holds.
type Kind int

const (
	KindBool Kind = iota
	// KindMinutes is a whole, positive number of minutes.
	KindMinutes
)

// Definition describes a known flag.
type Definition struct {
	Key     string
	Kind    Kind
	Default interface{}
	// MaxMinutes bounds KindMinutes values.
	MaxMinutes int
}

var definitions = map[string]Definition{
	FlagTravelConflictThresholdMinutes: {
		Key: FlagTravelConflictThresholdMinutes, Kind: KindMinutes,
		Default: float64(DefaultTravelConflictThresholdMinutes), MaxMinutes: 24 * 60,
	},
	FlagOrderTieBreakSameTime: {
		Key: FlagOrderTieBreakSameTime, Kind: KindBool, Default: false,
	},
	FlagCalendarEventMinutes: {
		Key: FlagCalendarEventMinutes, Kind: KindMinutes,
		Default: float64(DefaultCalendarEventMinutes), MaxMinutes: 24 * 60,
	},
	FlagRoutingProviderEnabled: {
		Key: FlagRoutingProviderEnabled, Kind: KindBool, Default: true,
	},
}

// Lookup returns the definition of key.
func Lookup(key string) (Definition, bool) {
	d, ok := definitions[key]
	return d, ok
}

// Normalize checks value against the definition and returns it in stored
// form: bool for KindBool, float64 minutes for KindMinutes.
func (d Definition) Normalize(value interface{}) (interface{}, error) {
	switch d.Kind {
	case KindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, errors.New("must be true or false")
		}
		return b, nil
	case KindMinutes:
		var m float64
		switch v := value.(type) {
		case float64:
			m = v
		case int:
			m = float64(v)
		default:
			return nil, errors.New("must be a number of minutes")
		}
		if m != math.Trunc(m) || m < 1 || m > float64(d.MaxMinutes) {
			return nil, fmt.Errorf("must be a whole number of minutes between 1 and %d", d.MaxMinutes)
		}
		return m, nil
	}
	return nil, fmt.Errorf("unsupported flag kind %d", d.Kind)
}

// Flag is the current value of one setting.
type Flag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt time.Time   `json:"updatedAt"`
	// Overridden is false when the value is the built-in default.
	Overridden bool `json:"overridden"`
}

// FlagList is the list response body.
type FlagList struct {
	Items []Flag `json:"items"`
}

// FlagUpdate sets one flag.
type FlagUpdate struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// FlagUpdateRequest is an audited batch of updates.
type FlagUpdateRequest struct {
	Updates []FlagUpdate `json:"updates"`
	Reason  string       `json:"reason"`
}

// BoolValue returns the value as a bool, or def when f is nil or not a bool.
func (f *Flag) BoolValue(def bool) bool {
	if f == nil {
		return def
	}
	if v, ok := f.Value.(bool); ok {
		return v
	}
	return def
}

// IntValue returns the value as an int. JSON numbers decode as float64.
func (f *Flag) IntValue(def int) int {
	if f == nil {
		return def
	}
	switch v := f.Value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// Minutes reads a KindMinutes flag, using def for missing or non-positive
// values.
func (f *Flag) Minutes(def int) time.Duration {
	m := f.IntValue(def)
	if m <= 0 {
		m = def
	}
	return time.Duration(m) * time.Minute
}

// DefaultFlags returns a fresh copy of every flag at its built-in value.
func DefaultFlags() map[string]*Flag {
	out := make(map[string]*Flag, len(definitions))
	for key, d := range definitions {
		out[key] = &Flag{Key: key, Value: d.Default}
	}
	return out
}
