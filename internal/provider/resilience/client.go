package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned without calling the provider while its circuit
// is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// StatusError is a provider response worth retrying: 429 or any 5xx.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider responded %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// ClientConfig holds configuration for a provider client.
type ClientConfig struct {
	// Name labels the breaker, the logs and the registry entry.
	Name string
	// Timeout bounds each attempt, not the whole call.
	Timeout         time.Duration
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Breaker         BreakerConfig
	// Registry, when set, receives the client under Name and every outcome.
	Registry *Registry
	Logger   zerolog.Logger
	// Transport overrides http.DefaultTransport.
	Transport http.RoundTripper
}

// DefaultClientConfig returns the settings used for routing providers.
func DefaultClientConfig(name string) ClientConfig {
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Breaker:         DefaultBreakerConfig(),
	}
}

// Client is an http.Client that retries transient failures and stops
// calling a provider that keeps failing.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// NewClient creates a client. Zero fields take their DefaultClientConfig
// values.
func NewClient(cfg ClientConfig) *Client {
	def := DefaultClientConfig(cfg.Name)
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = def.MaxInterval
	}
	if cfg.Breaker == (BreakerConfig{}) {
		cfg.Breaker = def.Breaker
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		breaker: newBreaker(cfg.Name, cfg.Breaker, cfg.Logger),
	}
	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, c)
	}
	return c
}

// Name returns the configured provider name.
func (c *Client) Name() string { return c.cfg.Name }

// State returns the circuit breaker state.
func (c *Client) State() gobreaker.State { return c.breaker.State() }

// Counts returns the circuit breaker counters of the current window.
func (c *Client) Counts() gobreaker.Counts { return c.breaker.Counts() }

// Do sends req, retrying network errors, 429s and 5xx with exponential
// backoff. Request bodies are replayed through req.GetBody. Once retries
// are exhausted the last retryable response is returned with a nil error so
// the caller can read the provider's error body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.InitialInterval
	exp.MaxInterval = c.cfg.MaxInterval
	exp.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, c.cfg.MaxRetries), ctx)

	var last *http.Response
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if last != nil {
			drain(last)
			last = nil
		}

		try, err := rewind(ctx, req)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			resp, err := c.http.Do(try)
			if err != nil {
				return nil, err
			}
			if retryable(resp.StatusCode) {
				return resp, &StatusError{StatusCode: resp.StatusCode}
			}
			return resp, nil
		})
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return backoff.Permanent(ErrCircuitOpen)
		case err != nil:
			last = resp
			c.cfg.Logger.Debug().Err(err).
				Str("provider", c.cfg.Name).
				Int("attempt", attempt).
				Msg("provider attempt failed")
			return err
		}
		last = resp
		return nil
	}, policy)

	if err != nil {
		c.record(err)
		if last != nil {
			return last, nil
		}
		return nil, err
	}
	c.record(nil)
	return last, nil
}

func (c *Client) record(err error) {
	if c.cfg.Registry == nil {
		return
	}
	if err != nil {
		c.cfg.Registry.RecordFailure(c.cfg.Name, err)
		return
	}
	c.cfg.Registry.RecordSuccess(c.cfg.Name)
}

// rewind returns a copy of req with a fresh body for another attempt.
func rewind(ctx context.Context, req *http.Request) (*http.Request, error) {
	try := req.Clone(ctx)
	if req.Body == nil || req.Body == http.NoBody {
		return try, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed: GetBody is nil")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("replay request body: %w", err)
	}
	try.Body = body
	return try, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
