package resilience_test

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestmap/nestmap/internal/provider/resilience"
)

func TestRegistry_RegisteredByClient(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("ors")
	cfg.Registry = registry
	resilience.NewClient(cfg)

	health, ok := registry.Health("ors")
	require.True(t, ok)
	assert.Equal(t, "ors", health.Name)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.True(t, health.IsHealthy())
	assert.False(t, health.IsDegraded())
	assert.False(t, health.IsUnhealthy())
	assert.Nil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)

	_, ok = registry.Health("missing")
	assert.False(t, ok)
}

func TestRegistry_RecordOutcomes(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("ors", resilience.NewClient(resilience.DefaultClientConfig("ors")))

	registry.RecordSuccess("ors")
	registry.RecordFailure("ors", errors.New("connection reset"))
	registry.RecordSuccess("unknown")

	health, ok := registry.Health("ors")
	require.True(t, ok)
	require.NotNil(t, health.LastSuccessAt)
	require.NotNil(t, health.LastFailureAt)
	assert.Equal(t, "connection reset", health.LastError)
	assert.Len(t, registry.GetAllHealth(), 1)
}

func TestRegistry_GetAllHealthSorted(t *testing.T) {
	registry := resilience.NewRegistry()
	for _, name := range []string{"valhalla", "ors", "osrm"} {
		registry.Register(name, resilience.NewClient(resilience.DefaultClientConfig(name)))
	}

	all := registry.GetAllHealth()
	require.Len(t, all, 3)
	assert.Equal(t, "ors", all[0].Name)
	assert.Equal(t, "osrm", all[1].Name)
	assert.Equal(t, "valhalla", all[2].Name)
}

func TestRegistry_Empty(t *testing.T) {
	assert.Empty(t, resilience.NewRegistry().GetAllHealth())
}

func TestProviderHealth_States(t *testing.T) {
	tests := []struct {
		state                        gobreaker.State
		healthy, degraded, unhealthy bool
	}{
		{gobreaker.StateClosed, true, false, false},
		{gobreaker.StateHalfOpen, false, true, false},
		{gobreaker.StateOpen, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := &resilience.ProviderHealth{CircuitState: tt.state}
			assert.Equal(t, tt.healthy, h.IsHealthy())
			assert.Equal(t, tt.degraded, h.IsDegraded())
			assert.Equal(t, tt.unhealthy, h.IsUnhealthy())
		})
	}
}
