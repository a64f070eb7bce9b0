// Package openrouteservice implements routing.Provider on top of the
// OpenRouteService directions API.
package openrouteservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/internal/provider/resilience"
	"github.com/nestmap/nestmap/internal/routing"
)

const (
	ProviderName   = "openrouteservice"
	DefaultBaseURL = "https://api.openrouteservice.org"
	DefaultTimeout = 10 * time.Second

	// maxBody caps how much of a response is read.
	maxBody = 4 << 20
)

// HTTPDoer executes HTTP requests. *http.Client and *resilience.Client
// both satisfy it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenRouteService client.
type ClientConfig struct {
	APIKey  string
	BaseURL string

	// HTTPClient replaces the default resilient client. Timeout and
	// Registry are ignored when it is set.
	HTTPClient HTTPDoer
	Timeout    time.Duration
	Registry   *resilience.Registry

	Logger zerolog.Logger
}

// Client is an OpenRouteService directions client.
type Client struct {
	apiKey  string
	baseURL string
	doer    HTTPDoer
	logger  zerolog.Logger
	now     func() time.Time
}

// NewClient creates a client. Without an HTTPClient it builds a
// resilience.Client registered under ProviderName.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		doer:    cfg.HTTPClient,
		logger:  cfg.Logger.With().Str("provider", ProviderName).Logger(),
		now:     time.Now,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.doer == nil {
		rc := resilience.DefaultClientConfig(ProviderName)
		if cfg.Timeout > 0 {
			rc.Timeout = cfg.Timeout
		} else {
			rc.Timeout = DefaultTimeout
		}
		rc.Registry = cfg.Registry
		rc.Logger = c.logger
		c.doer = resilience.NewClient(rc)
	}
	return c
}

func (c *Client) Name() string { return ProviderName }

// GetDirections asks ORS for routes between the request's endpoints.
// Responses without any route are reported as routing.ErrNoRouteFound.
func (c *Client) GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error) {
	if err := req.Origin.Validate(); err != nil {
		return nil, c.fail("INVALID_ORIGIN", err.Error(), routing.ErrInvalidCoordinates)
	}
	if err := req.Destination.Validate(); err != nil {
		return nil, c.fail("INVALID_DESTINATION", err.Error(), routing.ErrInvalidCoordinates)
	}
	if req.Profile == "" {
		req.Profile = routing.ProfileWalk
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := c.now()
	resp, err := c.doer.Do(httpReq)
	if err != nil {
		c.logger.Warn().Err(err).Str("profile", string(req.Profile)).Msg("directions request failed")
		return nil, c.fail("REQUEST_FAILED", "failed to reach routing provider", routing.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read directions response: %w", err)
	}

	c.logger.Debug().
		Str("profile", string(req.Profile)).
		Int("status", resp.StatusCode).
		Dur("duration", c.now().Sub(start)).
		Msg("directions response")

	if resp.StatusCode != http.StatusOK {
		return nil, c.classify(resp.StatusCode, body)
	}

	var result directionsResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode directions response: %w", err)
	}
	if len(result.Routes) == 0 {
		return nil, c.fail("NO_ROUTE", "provider returned no routes", routing.ErrNoRouteFound)
	}
	return result.toResponse(c.now()), nil
}

func (c *Client) newRequest(ctx context.Context, req routing.DirectionsRequest) (*http.Request, error) {
	payload, err := json.Marshal(newDirectionsBody(req))
	if err != nil {
		return nil, fmt.Errorf("encode directions request: %w", err)
	}

	url := c.baseURL + "/v2/directions/" + string(req.Profile)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build directions request: %w", err)
	}
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, application/geo+json")
	return httpReq, nil
}

// classify maps a non-200 ORS response onto a routing error.
func (c *Client) classify(status int, body []byte) error {
	parsed, ok := parseErrorBody(body)
	msg := parsed.Error.Message

	switch {
	case status == http.StatusTooManyRequests:
		return c.fail("RATE_LIMIT", "routing quota exceeded", routing.ErrRateLimitExceeded)
	case status == http.StatusNotFound, ok && parsed.Error.Code == codeRouteNotFound:
		if msg == "" {
			msg = "no route found between the given points"
		}
		return c.fail("NO_ROUTE", msg, routing.ErrNoRouteFound)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return c.fail("FORBIDDEN", "routing provider rejected the API key", routing.ErrProviderUnavailable)
	case status == http.StatusBadRequest && ok:
		return c.fail("BAD_REQUEST", msg, routing.ErrInvalidCoordinates)
	case status >= http.StatusInternalServerError:
		return c.fail(fmt.Sprintf("SERVER_%d", status), "routing provider is temporarily unavailable", routing.ErrProviderUnavailable)
	}
	if msg == "" {
		msg = fmt.Sprintf("routing provider returned status %d", status)
	}
	return c.fail(fmt.Sprintf("HTTP_%d", status), msg, routing.ErrProviderUnavailable)
}

func (c *Client) fail(code, msg string, err error) *routing.Error {
	return &routing.Error{Provider: ProviderName, Code: code, Message: msg, Err: err}
}
