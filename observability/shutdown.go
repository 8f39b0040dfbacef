package observability

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultShutdownTimeout is the default timeout for graceful shutdown.
	// It is used when Shutdown receives a zero or negative timeout.
	DefaultShutdownTimeout = 10 * time.Second
)

// Shutdown is a convenience function for gracefully shutting down an
// observability provider. It creates a context bounded by timeout and calls
// the provider's Shutdown method, which flushes pending spans and metrics
// before stopping the exporters.
//
// A nil provider is a no-op. A zero or negative timeout falls back to
// DefaultShutdownTimeout. Returns an error if shutdown fails or times out.
//
// Example:
//
//	provider, err := observability.NewProvider(cfg)
//	if err != nil {
//		return err
//	}
//	defer func() { _ = observability.Shutdown(provider, 5*time.Second) }()
func Shutdown(provider Provider, timeout time.Duration) error {
	if provider == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("observability shutdown failed: %w", err)
	}
	return nil
}
