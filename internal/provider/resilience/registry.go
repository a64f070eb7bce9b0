package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ProviderHealth is a point-in-time view of one provider.
type ProviderHealth struct {
	Name          string
	CircuitState  gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// IsHealthy reports a closed circuit.
func (h *ProviderHealth) IsHealthy() bool { return h.CircuitState == gobreaker.StateClosed }

// IsDegraded reports a half-open circuit, which is probing for recovery.
func (h *ProviderHealth) IsDegraded() bool { return h.CircuitState == gobreaker.StateHalfOpen }

// IsUnhealthy reports an open circuit.
func (h *ProviderHealth) IsUnhealthy() bool { return h.CircuitState == gobreaker.StateOpen }

// breakerView is the part of a Client the registry reads.
type breakerView interface {
	State() gobreaker.State
	Counts() gobreaker.Counts
}

type providerEntry struct {
	breaker       breakerView
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// Registry tracks the health of every provider client built with it.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*providerEntry
	now       func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*providerEntry), now: time.Now}
}

// Register adds a client under name, replacing any previous one.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = &providerEntry{breaker: client}
}

// RecordSuccess notes a successful call. Unknown names are ignored.
func (r *Registry) RecordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[name]; ok {
		now := r.now()
		p.lastSuccessAt = &now
	}
}

// RecordFailure notes a failed call and its error. Unknown names are ignored.
func (r *Registry) RecordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[name]; ok {
		now := r.now()
		p.lastFailureAt = &now
		if err != nil {
			p.lastError = err.Error()
		}
	}
}

// Health returns the health of one provider.
func (r *Registry) Health(name string) (*ProviderHealth, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, false
	}
	return p.health(name), true
}

// GetAllHealth returns every provider's health, ordered by name.
func (r *Registry) GetAllHealth() []*ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ProviderHealth, 0, len(r.providers))
	for name, p := range r.providers {
		out = append(out, p.health(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (p *providerEntry) health(name string) *ProviderHealth {
	return &ProviderHealth{
		Name:          name,
		CircuitState:  p.breaker.State(),
		Counts:        p.breaker.Counts(),
		LastSuccessAt: p.lastSuccessAt,
		LastFailureAt: p.lastFailureAt,
		LastError:     p.lastError,
	}
}
