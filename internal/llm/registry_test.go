package llm

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := NewProviderRegistry()

	require.NoError(t, registry.RegisterProvider("OpenAI ", newFakeProvider("openai", "")))
	require.NoError(t, registry.RegisterProvider("local", newFakeProvider("ollama", "")))

	p, err := registry.GetProvider("openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	assert.Equal(t, []string{"local", "openai"}, registry.ListProviders())

	err = registry.RegisterProvider("openai", newFakeProvider("openai", ""))
	assert.True(t, types.HasCode(err, ErrProviderAlreadyExists))

	_, err = registry.GetProvider("missing")
	assert.True(t, types.HasCode(err, ErrProviderNotFound))
}

func TestRegistry_RegisterInvalid(t *testing.T) {
	registry := NewProviderRegistry()

	assert.True(t, types.HasCode(registry.RegisterProvider("x", nil), ErrInvalidRequest))
	assert.True(t, types.HasCode(registry.RegisterProvider("  ", newFakeProvider("x", "")), ErrInvalidRequest))
}

func TestRegistry_Health(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		healthy []bool
		want    types.HealthState
	}{
		{name: "empty", healthy: nil, want: types.HealthStateUnhealthy},
		{name: "all healthy", healthy: []bool{true, true}, want: types.HealthStateHealthy},
		{name: "some unhealthy", healthy: []bool{true, false}, want: types.HealthStateDegraded},
		{name: "all unhealthy", healthy: []bool{false, false}, want: types.HealthStateUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewProviderRegistry()
			for i, h := range tt.healthy {
				p := newFakeProvider(string(rune('a'+i)), "")
				p.healthy = h
				require.NoError(t, registry.RegisterProvider(p.Name(), p))
			}
			assert.Equal(t, tt.want, registry.Health(ctx).State)
		})
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewProviderRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a' + i))
			_ = registry.RegisterProvider(name, newFakeProvider(name, ""))
			_, _ = registry.GetProvider(name)
			_ = registry.ListProviders()
		}(i)
	}
	wg.Wait()

	assert.Len(t, registry.ListProviders(), 20)
}

func TestRegistry_Probe(t *testing.T) {
	registry := NewProviderRegistry()
	up, down := newFakeProvider("up", ""), newFakeProvider("down", "")
	down.healthy = false
	require.NoError(t, registry.RegisterProvider("up", up))
	require.NoError(t, registry.RegisterProvider("down", down))

	probes := registry.Probe(context.Background())
	require.Len(t, probes, 2)
	assert.True(t, probes["up"].IsHealthy())
	assert.False(t, probes["down"].IsHealthy())
}
