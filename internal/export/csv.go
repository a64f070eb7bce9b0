package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/nestmap/nestmap/internal/itinerary"
)

var csvHeader = []string{
	"day", "date", "time", "title", "location", "tag",
	"travel_mode", "travel_time", "time_conflict", "travel_conflict",
}

// WriteCSV writes one row per scheduled activity in display order.
func WriteCSV(w io.Writer, plan *itinerary.Plan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for i, day := range plan.Days {
		for _, a := range day.Activities {
			row := []string{
				strconv.Itoa(i + 1),
				day.Date.String(),
				a.DisplayTime,
				a.Title,
				a.LocationName,
				string(a.Tag),
				string(a.TravelMode),
				a.TravelTimeFromPrevious,
				strconv.FormatBool(a.TimeConflict),
				strconv.FormatBool(a.TravelConflict),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
