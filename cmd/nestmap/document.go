package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nestmap/nestmap/internal/itinerary"
)

// document is the file format read by every command. Keys follow the API
// field names; matching is case-insensitive.
type document struct {
	Trip       itinerary.Trip       `json:"trip"`
	Activities []itinerary.Activity `json:"activities"`
}

// readDocument decodes a trip document from path, or stdin when path is "-".
func readDocument(path string, stdin io.Reader) (*document, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return decodeDocument(r)
}

func decodeDocument(r io.Reader) (*document, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode trip document: %w", err)
	}
	if doc.Trip.StartDate.IsZero() || doc.Trip.EndDate.IsZero() {
		return nil, errors.New("trip needs a startDate and an endDate")
	}
	if doc.Trip.EndDate.Before(doc.Trip.StartDate) {
		return nil, errors.New("trip endDate is before its startDate")
	}

	for i := range doc.Activities {
		a := &doc.Activities[i]
		if a.TripID == "" {
			a.TripID = doc.Trip.ID
		}
		if a.TravelMode == "" {
			a.TravelMode = itinerary.DefaultTravelMode
		} else {
			a.TravelMode = itinerary.ParseTravelMode(string(a.TravelMode))
		}
		a.Tag = itinerary.ParseTag(string(a.Tag))
		a.CostCategory = itinerary.ParseCostCategory(string(a.CostCategory))
	}
	return &doc, nil
}
