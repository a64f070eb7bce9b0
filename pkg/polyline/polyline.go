// Package polyline encodes day paths in the Encoded Polyline Algorithm
// Format (precision 5) and measures great-circle distances.
//
// See https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"errors"
	"math"
	"strings"
)

const (
	scale             = 1e5
	earthRadiusMeters = 6371008.8
)

// ErrTruncated is returned by Decode when the input ends inside a value or
// holds a latitude without its longitude.
var ErrTruncated = errors.New("polyline: truncated input")

// Coordinate is a WGS84 point in degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Encode returns the polyline for path. An empty path encodes to "".
func Encode(path []Coordinate) string {
	var sb strings.Builder
	sb.Grow(len(path) * 8)

	var lastLat, lastLon int64
	for _, c := range path {
		lat, lon := quantize(c.Lat), quantize(c.Lon)
		writeDelta(&sb, lat-lastLat)
		writeDelta(&sb, lon-lastLon)
		lastLat, lastLon = lat, lon
	}
	return sb.String()
}

func quantize(deg float64) int64 { return int64(math.Round(deg * scale)) }

// writeDelta appends one zig-zag encoded value as 5-bit groups, low group
// first, with 0x20 marking continuation.
func writeDelta(sb *strings.Builder, v int64) {
	u := uint64(v) << 1
	if v < 0 {
		u = ^u
	}
	for ; u >= 0x20; u >>= 5 {
		sb.WriteByte(byte(0x20|(u&0x1f)) + 63)
	}
	sb.WriteByte(byte(u) + 63)
}

// Decode parses a polyline back into coordinates.
func Decode(s string) ([]Coordinate, error) {
	var (
		out      []Coordinate
		lat, lon int64
	)
	for pos := 0; pos < len(s); {
		dLat, next, ok := readDelta(s, pos)
		if !ok {
			return nil, ErrTruncated
		}
		dLon, next, ok := readDelta(s, next)
		if !ok {
			return nil, ErrTruncated
		}
		pos = next
		lat += dLat
		lon += dLon
		out = append(out, Coordinate{Lat: float64(lat) / scale, Lon: float64(lon) / scale})
	}
	return out, nil
}

func readDelta(s string, pos int) (int64, int, bool) {
	var u uint64
	for shift := uint(0); pos < len(s); shift += 5 {
		b := uint64(s[pos]) - 63
		pos++
		u |= (b & 0x1f) << shift
		if b < 0x20 {
			v := int64(u >> 1)
			if u&1 == 1 {
				v = ^v
			}
			return v, pos, true
		}
	}
	return 0, pos, false
}

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b Coordinate) float64 {
	const rad = math.Pi / 180
	lat1, lat2 := a.Lat*rad, b.Lat*rad
	sinLat := math.Sin((b.Lat - a.Lat) * rad / 2)
	sinLon := math.Sin((b.Lon - a.Lon) * rad / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Length sums the distances between consecutive points of path.
func Length(path []Coordinate) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += Distance(path[i-1], path[i])
	}
	return total
}
