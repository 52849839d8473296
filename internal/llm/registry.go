package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// ProviderRegistry holds the providers configured for a run, keyed by the
// normalized name they were declared under in llm.providers. It is safe
// for concurrent use.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]LLMProvider
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: make(map[string]LLMProvider)}
}

// RegisterProvider adds provider under name. A name may be taken once.
func (r *ProviderRegistry) RegisterProvider(name string, provider LLMProvider) error {
	if provider == nil {
		return NewInvalidRequestError("provider cannot be nil")
	}
	name = NormalizeProviderName(name)
	if name == "" {
		return NewInvalidRequestError("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.providers[name]; taken {
		return types.NewError(ErrProviderAlreadyExists, fmt.Sprintf("provider %q already registered", name))
	}
	r.providers[name] = provider
	return nil
}

func (r *ProviderRegistry) GetProvider(name string) (LLMProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[NormalizeProviderName(name)]; ok {
		return p, nil
	}
	return nil, NewProviderNotFoundError(name)
}

// ListProviders returns the registered names, sorted.
func (r *ProviderRegistry) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Probe checks every provider in turn and returns the results by name.
func (r *ProviderRegistry) Probe(ctx context.Context) map[string]types.HealthStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]types.HealthStatus, len(r.providers))
	for name, p := range r.providers {
		out[name] = p.Health(ctx)
	}
	return out
}

// Health folds Probe into one status: healthy when every provider is,
// unhealthy when none is (or none is registered), degraded otherwise.
func (r *ProviderRegistry) Health(ctx context.Context) types.HealthStatus {
	probes := r.Probe(ctx)
	if len(probes) == 0 {
		return types.Unhealthy("no providers registered")
	}

	healthy := 0
	for _, s := range probes {
		if s.IsHealthy() {
			healthy++
		}
	}
	switch total := len(probes); healthy {
	case total:
		return types.Healthy(fmt.Sprintf("all %d providers healthy", total))
	case 0:
		return types.Unhealthy(fmt.Sprintf("all %d providers unhealthy", total))
	default:
		return types.Degraded(fmt.Sprintf("%d/%d providers healthy", healthy, total))
	}
}
