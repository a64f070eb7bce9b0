package openrouteservice

import (
	"encoding/json"
	"math"
	"time"

	"github.com/nestmap/nestmap/internal/routing"
)

// codeRouteNotFound is the ORS error code for points with no route between
// them.
const codeRouteNotFound = 2009

// directionsBody is the POST body of /v2/directions/{profile}. Coordinates
// are [lon, lat] pairs.
type directionsBody struct {
	Coordinates  [][2]float64 `json:"coordinates"`
	Instructions bool         `json:"instructions"`
	Units        string       `json:"units"`
}

func newDirectionsBody(req routing.DirectionsRequest) directionsBody {
	return directionsBody{
		Coordinates: [][2]float64{
			{req.Origin.Lon, req.Origin.Lat},
			{req.Destination.Lon, req.Destination.Lat},
		},
		Units: "m",
	}
}

type directionsResult struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

func (d directionsResult) toResponse(fetchedAt time.Time) *routing.DirectionsResponse {
	out := &routing.DirectionsResponse{
		Routes:    make([]routing.Route, 0, len(d.Routes)),
		Provider:  ProviderName,
		FetchedAt: fetchedAt,
	}
	for _, r := range d.Routes {
		out.Routes = append(out.Routes, routing.Route{
			Geometry:        r.Geometry,
			DistanceMeters:  int(math.Round(r.Summary.Distance)),
			DurationSeconds: int(math.Round(r.Summary.Duration)),
		})
	}
	return out
}

// errorBody is the ORS error envelope. Other top level fields vary by
// version and are ignored.
type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseErrorBody(body []byte) (errorBody, bool) {
	var e errorBody
	if err := json.Unmarshal(body, &e); err != nil {
		return errorBody{}, false
	}
	return e, e.Error.Code != 0 || e.Error.Message != ""
}
