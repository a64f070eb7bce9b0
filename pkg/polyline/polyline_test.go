package polyline

import (
	"errors"
	"math"
	"testing"
)

// googleExample is the worked example from the format's documentation.
const googleExample = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

var googlePoints = []Coordinate{
	{Lat: 38.5, Lon: -120.2},
	{Lat: 40.7, Lon: -120.95},
	{Lat: 43.252, Lon: -126.453},
}

func near(a, b Coordinate) bool {
	return math.Abs(a.Lat-b.Lat) < 1e-6 && math.Abs(a.Lon-b.Lon) < 1e-6
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		path []Coordinate
		want string
	}{
		{"empty", nil, ""},
		{"origin", []Coordinate{{0, 0}}, "??"},
		{"first point", googlePoints[:1], "_p~iF~ps|U"},
		{"documented example", googlePoints, googleExample},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.path); got != tt.want {
				t.Errorf("Encode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	got, err := Decode(googleExample)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != len(googlePoints) {
		t.Fatalf("decoded %d points, want %d", len(got), len(googlePoints))
	}
	for i := range got {
		if !near(got[i], googlePoints[i]) {
			t.Errorf("point %d = %+v, want %+v", i, got[i], googlePoints[i])
		}
	}

	empty, err := Decode("")
	if err != nil || len(empty) != 0 {
		t.Errorf("Decode(\"\") = %v, %v", empty, err)
	}
}

func TestDecode_Truncated(t *testing.T) {
	for _, s := range []string{"_p~iF", "_p~iF~ps|", "_"} {
		if _, err := Decode(s); !errors.Is(err, ErrTruncated) {
			t.Errorf("Decode(%q) error = %v, want ErrTruncated", s, err)
		}
	}
}

func TestDayPathSurvivesEncoding(t *testing.T) {
	day := []Coordinate{
		{Lat: 41.89021, Lon: 12.49223},
		{Lat: 41.89861, Lon: 12.47687},
		{Lat: 41.90094, Lon: 12.48331},
		{Lat: 41.90593, Lon: 12.48276},
		{Lat: -33.85678, Lon: 151.21530},
	}
	got, err := Decode(Encode(day))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != len(day) {
		t.Fatalf("got %d points, want %d", len(got), len(day))
	}
	for i := range day {
		if !near(got[i], day[i]) {
			t.Errorf("point %d = %+v, want %+v", i, got[i], day[i])
		}
	}
}

func TestDistance(t *testing.T) {
	colosseum := Coordinate{Lat: 41.8902, Lon: 12.4922}
	pantheon := Coordinate{Lat: 41.8986, Lon: 12.4769}

	d := Distance(colosseum, pantheon)
	if math.Abs(d-1580) > 100 {
		t.Errorf("Colosseum to Pantheon = %.0fm, want about 1580m", d)
	}
	if Distance(colosseum, colosseum) != 0 {
		t.Error("distance to self is not zero")
	}
	if math.Abs(Distance(pantheon, colosseum)-d) > 1e-9 {
		t.Error("distance is not symmetric")
	}
	if antipodal := Distance(Coordinate{0, 0}, Coordinate{0, 180}); math.Abs(antipodal-math.Pi*earthRadiusMeters) > 1 {
		t.Errorf("antipodal distance = %.0fm", antipodal)
	}
}

func TestLength(t *testing.T) {
	tests := []struct {
		name      string
		path      []Coordinate
		want      float64
		tolerance float64
	}{
		{"empty", nil, 0, 0},
		{"single stop", []Coordinate{{Lat: 41.9, Lon: 12.5}}, 0, 0},
		{"one degree of latitude", []Coordinate{{0, 0}, {1, 0}}, 111195, 50},
		{"there and back", []Coordinate{{0, 0}, {1, 0}, {0, 0}}, 222390, 100},
		{"Rome to Florence", []Coordinate{{Lat: 41.9028, Lon: 12.4964}, {Lat: 43.7696, Lon: 11.2558}}, 231000, 3000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Length(tt.path); math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("Length = %.0fm, want %.0f ±%.0f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func BenchmarkEncode(b *testing.B) {
	path := make([]Coordinate, 200)
	for i := range path {
		path[i] = Coordinate{Lat: 41.89 + float64(i)*1e-4, Lon: 12.49 - float64(i)*1e-4}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Encode(path)
	}
}
