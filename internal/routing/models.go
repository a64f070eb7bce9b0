// Package routing times the legs between consecutive activities using an
// external directions provider, with a shared read-through cache in front.
package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nestmap/nestmap/internal/itinerary"
)

var (
	// ErrProviderUnavailable means the provider failed or its circuit is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	ErrNoRouteFound        = errors.New("no route found between the given points")
	// ErrRateLimitExceeded means the provider quota is used up for now.
	ErrRateLimitExceeded  = errors.New("routing provider rate limit exceeded")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Provider computes routes between two points.
type Provider interface {
	// GetDirections returns one or more alternative routes.
	GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error)
	Name() string
}

// RouteProfile is a provider's name for a mode of transport.
type RouteProfile string

const (
	ProfileWalk  RouteProfile = "foot-walking"
	ProfileDrive RouteProfile = "driving-car"
)

// ProfileFor maps an activity travel mode onto a provider profile. Transit
// has no provider profile and reports false. Unknown modes route as walking.
func ProfileFor(mode itinerary.TravelMode) (RouteProfile, bool) {
	switch mode {
	case itinerary.TravelModeDriving:
		return ProfileDrive, true
	case itinerary.TravelModeTransit:
		return "", false
	default:
		return ProfileWalk, true
	}
}

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Validate reports an error unless c lies within latitude and longitude
// bounds.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", c.Lon)
	}
	return nil
}

type DirectionsRequest struct {
	Origin      Coordinate
	Destination Coordinate
	Profile     RouteProfile
}

type DirectionsResponse struct {
	Routes    []Route
	Provider  string
	FetchedAt time.Time
}

// Route is one way of travelling a leg. Geometry is an encoded polyline
// with precision 5.
type Route struct {
	Geometry        string `json:"geometry,omitempty"`
	DistanceMeters  int    `json:"distanceMeters"`
	DurationSeconds int    `json:"durationSeconds"`
}

// Duration returns the travel time of the route.
func (r Route) Duration() time.Duration {
	return time.Duration(r.DurationSeconds) * time.Second
}

// Error describes a failed routing lookup. Code is a stable upper-case
// identifier such as NO_ROUTE or RATE_LIMIT.
type Error struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable reports whether the lookup may succeed if tried again later.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
