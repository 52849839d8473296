// Package registry provides the name-keyed lookup tables used to resolve
// configurable components (paradigms, decision protocols, response and
// persona generators) when a session is assembled.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// ErrCodeDuplicate is returned when a name is registered twice.
const ErrCodeDuplicate types.ErrorCode = "REGISTRY_DUPLICATE"

// Registry maps names to values of type T, usually factories. It is safe
// for concurrent use.
type Registry[T any] struct {
	kind     string
	notFound types.ErrorCode

	mu    sync.RWMutex
	items map[string]T
}

// New creates an empty registry. kind names the component in error
// messages; notFound is the code returned by Get for unknown names.
func New[T any](kind string, notFound types.ErrorCode) *Registry[T] {
	return &Registry[T]{
		kind:     kind,
		notFound: notFound,
		items:    make(map[string]T),
	}
}

// Register adds value under name. Names are case-insensitive.
func (r *Registry[T]) Register(name string, value T) error {
	key := normalize(name)
	if key == "" {
		return types.NewError(ErrCodeDuplicate, fmt.Sprintf("%s name cannot be empty", r.kind))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[key]; exists {
		return types.NewError(ErrCodeDuplicate, fmt.Sprintf("%s %q already registered", r.kind, key))
	}
	r.items[key] = value
	return nil
}

// MustRegister is Register for package-level defaults; it panics on error.
func (r *Registry[T]) MustRegister(name string, value T) {
	if err := r.Register(name, value); err != nil {
		panic(err)
	}
}

// Get returns the value registered under name.
func (r *Registry[T]) Get(name string) (T, error) {
	r.mu.RLock()
	value, ok := r.items[normalize(name)]
	r.mu.RUnlock()

	if !ok {
		var zero T
		return zero, types.NewError(r.notFound,
			fmt.Sprintf("unknown %s %q (available: %s)", r.kind, name, strings.Join(r.Names(), ", ")))
	}
	return value, nil
}

// Has reports whether name is registered.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[normalize(name)]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
