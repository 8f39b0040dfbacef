package middleware

import (
	"sync"
	"sync/atomic"

	"github.com/gaborage/go-arcstack/api"
	"github.com/gaborage/go-arcstack/config"
)

// Stack holds the current chain and swaps it on reload. Calls already in
// flight finish on the chain they started with.
type Stack struct {
	mu      sync.Mutex
	builder Builder
	current atomic.Pointer[Chain]
}

// NewStack builds the initial chain from names.
func NewStack(b Builder, names []string) (*Stack, error) {
	chain, err := b.Build(names)
	if err != nil {
		return nil, err
	}
	s := &Stack{builder: b}
	s.current.Store(chain)
	return s, nil
}

// Chain returns the current chain.
func (s *Stack) Chain() *Chain {
	return s.current.Load()
}

// Serve runs req through the current chain.
func (s *Stack) Serve(ep *api.Endpoint, req *api.Request) (*api.Response, error) {
	return s.current.Load().Serve(ep, req)
}

// Reload rebuilds the chain from cfg.API.Middleware, passing cfg to the
// middleware constructors. On failure the current chain stays in place.
//
// The endpoint settings (app.debug, api.login_required, api.csrf_exempt and
// api.error_response_texts) are not reloaded: endpoints keep the settings
// they were built with, and so does the chain, so both apply the same error
// policy. Changing them requires a restart.
func (s *Stack) Reload(cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.builder
	b.Env.Config = cfg

	chain, err := b.Build(cfg.API.Middleware)
	if err != nil {
		return err
	}
	s.builder = b
	s.current.Store(chain)
	return nil
}
