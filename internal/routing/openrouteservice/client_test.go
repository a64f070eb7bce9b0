package openrouteservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/provider/resilience"
	"github.com/nestmap/nestmap/internal/routing"
)

var (
	baixa  = routing.Coordinate{Lat: 38.7139, Lon: -9.1334}
	chiado = routing.Coordinate{Lat: 38.7078, Lon: -9.1366}
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return b
}

func testClient(server *httptest.Server) *Client {
	return NewClient(ClientConfig{
		APIKey:     "ors-test-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})
}

func respond(status int, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}
}

func TestGetDirections(t *testing.T) {
	payload := fixture(t, "directions_response.json")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v2/directions/foot-walking" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "ors-test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var body directionsBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		want := [][2]float64{{-9.1334, 38.7139}, {-9.1366, 38.7078}}
		if len(body.Coordinates) != 2 || body.Coordinates[0] != want[0] || body.Coordinates[1] != want[1] {
			t.Errorf("coordinates = %v, want lon/lat pairs %v", body.Coordinates, want)
		}
		if body.Units != "m" {
			t.Errorf("units = %q", body.Units)
		}

		respond(http.StatusOK, payload)(w, r)
	}))
	defer server.Close()

	resp, err := testClient(server).GetDirections(context.Background(), routing.DirectionsRequest{
		Origin:      baixa,
		Destination: chiado,
		Profile:     routing.ProfileWalk,
	})
	if err != nil {
		t.Fatalf("GetDirections: %v", err)
	}
	if resp.Provider != ProviderName {
		t.Errorf("provider = %s", resp.Provider)
	}
	if len(resp.Routes) != 2 {
		t.Fatalf("routes = %d, want 2", len(resp.Routes))
	}
	first := resp.Routes[0]
	if first.DistanceMeters != 1180 || first.DurationSeconds != 912 {
		t.Errorf("first route = %+v", first)
	}
	if first.Geometry == "" {
		t.Error("geometry is empty")
	}
	if resp.Routes[1].DurationSeconds != 1005 {
		t.Errorf("second route duration = %d", resp.Routes[1].DurationSeconds)
	}
	if resp.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestGetDirections_DefaultsToWalking(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		respond(http.StatusOK, fixture(t, "directions_response.json"))(w, r)
	}))
	defer server.Close()

	_, err := testClient(server).GetDirections(context.Background(), routing.DirectionsRequest{Origin: baixa, Destination: chiado})
	if err != nil {
		t.Fatalf("GetDirections: %v", err)
	}
	if path != "/v2/directions/foot-walking" {
		t.Errorf("path = %s", path)
	}
}

func TestGetDirections_RouteNotFound(t *testing.T) {
	server := httptest.NewServer(respond(http.StatusBadRequest, fixture(t, "error_response.json")))
	defer server.Close()

	_, err := testClient(server).GetDirections(context.Background(), routing.DirectionsRequest{
		Origin:      baixa,
		Destination: chiado,
		Profile:     routing.ProfileDrive,
	})

	var rerr *routing.Error
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *routing.Error", err)
	}
	if rerr.Code != "NO_ROUTE" || !errors.Is(err, routing.ErrNoRouteFound) {
		t.Errorf("error = %+v", rerr)
	}
	if !strings.Contains(rerr.Message, "Route could not be found") {
		t.Errorf("message = %q", rerr.Message)
	}
	if rerr.IsRetryable() {
		t.Error("missing route must not be retryable")
	}
}

func TestGetDirections_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		code      string
		sentinel  error
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, "RATE_LIMIT", routing.ErrRateLimitExceeded, true},
		{"bad key", http.StatusForbidden, `{"error":"Access to this API has been disallowed"}`, "FORBIDDEN", routing.ErrProviderUnavailable, true},
		{"not found", http.StatusNotFound, ``, "NO_ROUTE", routing.ErrNoRouteFound, false},
		{"bad request", http.StatusBadRequest, `{"error":{"code":2003,"message":"Parameter 'coordinates' is out of range"}}`, "BAD_REQUEST", routing.ErrInvalidCoordinates, false},
		{"unparseable bad request", http.StatusBadRequest, `<html>`, "HTTP_400", routing.ErrProviderUnavailable, true},
		{"server error", http.StatusServiceUnavailable, `{}`, "SERVER_503", routing.ErrProviderUnavailable, true},
		{"unexpected status", http.StatusTeapot, `{}`, "HTTP_418", routing.ErrProviderUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(respond(tt.status, []byte(tt.body)))
			defer server.Close()

			_, err := testClient(server).GetDirections(context.Background(), routing.DirectionsRequest{Origin: baixa, Destination: chiado})

			var rerr *routing.Error
			if !errors.As(err, &rerr) {
				t.Fatalf("error = %v, want *routing.Error", err)
			}
			if rerr.Code != tt.code {
				t.Errorf("code = %s, want %s", rerr.Code, tt.code)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("error %v does not wrap %v", err, tt.sentinel)
			}
			if rerr.IsRetryable() != tt.retryable {
				t.Errorf("IsRetryable = %v, want %v", rerr.IsRetryable(), tt.retryable)
			}
			if rerr.Provider != ProviderName {
				t.Errorf("provider = %s", rerr.Provider)
			}
		})
	}
}

func TestGetDirections_EmptyRoutes(t *testing.T) {
	server := httptest.NewServer(respond(http.StatusOK, []byte(`{"routes":[]}`)))
	defer server.Close()

	_, err := testClient(server).GetDirections(context.Background(), routing.DirectionsRequest{Origin: baixa, Destination: chiado})
	if !errors.Is(err, routing.ErrNoRouteFound) {
		t.Fatalf("error = %v, want ErrNoRouteFound", err)
	}
}

func TestGetDirections_InvalidCoordinates(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer server.Close()
	client := testClient(server)

	tests := []struct {
		name string
		req  routing.DirectionsRequest
		code string
	}{
		{"origin", routing.DirectionsRequest{Origin: routing.Coordinate{Lat: 91}, Destination: chiado}, "INVALID_ORIGIN"},
		{"destination", routing.DirectionsRequest{Origin: baixa, Destination: routing.Coordinate{Lon: -181}}, "INVALID_DESTINATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.GetDirections(context.Background(), tt.req)
			var rerr *routing.Error
			if !errors.As(err, &rerr) || rerr.Code != tt.code {
				t.Fatalf("error = %v, want %s", err, tt.code)
			}
			if !errors.Is(err, routing.ErrInvalidCoordinates) {
				t.Errorf("error does not wrap ErrInvalidCoordinates")
			}
		})
	}
	if called {
		t.Error("provider called with invalid coordinates")
	}
}

type failingDoer struct{}

func (failingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestGetDirections_TransportFailure(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "k", HTTPClient: failingDoer{}, Logger: zerolog.Nop()})

	_, err := client.GetDirections(context.Background(), routing.DirectionsRequest{Origin: baixa, Destination: chiado})

	var rerr *routing.Error
	if !errors.As(err, &rerr) || rerr.Code != "REQUEST_FAILED" {
		t.Fatalf("error = %v, want REQUEST_FAILED", err)
	}
	if !rerr.IsRetryable() {
		t.Error("transport failure should be retryable")
	}
}

func TestNewClient_RegistersResilientClient(t *testing.T) {
	registry := resilience.NewRegistry()
	client := NewClient(ClientConfig{APIKey: "k", Registry: registry, Logger: zerolog.Nop()})

	if client.Name() != ProviderName {
		t.Errorf("Name = %s", client.Name())
	}
	if client.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %s", client.baseURL)
	}
	if _, ok := client.doer.(*resilience.Client); !ok {
		t.Errorf("doer = %T, want *resilience.Client", client.doer)
	}
	if _, ok := registry.Health(ProviderName); !ok {
		t.Error("provider not registered")
	}
}
