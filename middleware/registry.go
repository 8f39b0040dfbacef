package middleware

import (
	"fmt"
	"slices"
	"sync"
)

// Built-in middleware identifiers.
const (
	NameCommon    = "common"
	NameRequestID = "requestid"
	NameTiming    = "timing"
	NameLogging   = "logging"
	NameRateLimit = "ratelimit"
	NameTracing   = "tracing"
	NameMetrics   = "metrics"
)

// Registry maps middleware identifiers to constructors.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// DefaultRegistry returns a new registry holding the built-in middleware.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(NameCommon, Common)
	r.MustRegister(NameRequestID, RequestID)
	r.MustRegister(NameTiming, Timing)
	r.MustRegister(NameLogging, Logging)
	r.MustRegister(NameRateLimit, RateLimit)
	r.MustRegister(NameTracing, Tracing)
	r.MustRegister(NameMetrics, Metrics)
	return r
}

// Register adds a constructor under name.
func (r *Registry) Register(name string, ctor Constructor) error {
	if name == "" {
		return fmt.Errorf("middleware name cannot be empty")
	}
	if ctor == nil {
		return fmt.Errorf("middleware %q: constructor cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctors[name]; exists {
		return fmt.Errorf("middleware %q is already registered", name)
	}
	r.ctors[name] = ctor
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, ctor Constructor) {
	if err := r.Register(name, ctor); err != nil {
		panic(err)
	}
}

// Lookup returns the constructor registered under name.
func (r *Registry) Lookup(name string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.ctors[name]
	return ctor, ok
}

// Names lists the registered identifiers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
