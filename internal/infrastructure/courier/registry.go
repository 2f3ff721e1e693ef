package courier

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shipstack/backend/internal/domain/courier"
)

// Registry is the in-memory lookup from courier code to adapter. Adapters
// are registered once at startup; lookups are read-only afterwards.
type Registry struct {
	mu       sync.RWMutex
	adapters map[courier.CourierCode]courier.CourierService
}

// NewRegistry creates an empty courier registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[courier.CourierCode]courier.CourierService),
	}
}

// Register adds an adapter under its own code, replacing any previous
// registration for that code.
func (r *Registry) Register(svc courier.CourierService) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[svc.Code()] = svc
}

// Get returns the adapter for the given courier code.
func (r *Registry) Get(code courier.CourierCode) (courier.CourierService, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.adapters[code]
	if !ok {
		if !code.IsValid() {
			return nil, fmt.Errorf("%w: %s", courier.ErrCourierNotSupported, code)
		}
		return nil, fmt.Errorf("%w: %s", courier.ErrCourierNotConfigured, code)
	}
	return svc, nil
}

// List returns the registered courier codes in lexical order.
func (r *Registry) List() []courier.CourierCode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]courier.CourierCode, 0, len(r.adapters))
	for code := range r.adapters {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// IsSupported returns true if an adapter is registered for the code.
func (r *Registry) IsSupported(code courier.CourierCode) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[code]
	return ok
}

var _ courier.CourierRegistry = (*Registry)(nil)
