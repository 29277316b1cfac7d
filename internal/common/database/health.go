// internal/common/database/health.go
package database

import (
	"context"
	"fmt"
	"sort"
)

// Pinger is implemented by every backing connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthChecker pings a named set of dependencies.
type HealthChecker struct {
	deps map[string]Pinger
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{deps: make(map[string]Pinger)}
}

// Register adds a dependency. A nil pinger is ignored so optional backends
// can be passed straight through.
func (h *HealthChecker) Register(name string, p Pinger) {
	if p == nil {
		return
	}
	h.deps[name] = p
}

// Check pings every dependency and returns the failures keyed by name.
func (h *HealthChecker) Check(ctx context.Context) map[string]error {
	failures := make(map[string]error)
	for name, p := range h.deps {
		if err := p.Ping(ctx); err != nil {
			failures[name] = err
		}
	}
	return failures
}

// Names returns the registered dependency names in order.
func (h *HealthChecker) Names() []string {
	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Err folds Check into a single error.
func (h *HealthChecker) Err(ctx context.Context) error {
	failures := h.Check(ctx)
	if len(failures) == 0 {
		return nil
	}
	names := make([]string, 0, len(failures))
	for name := range failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Errorf("unhealthy dependencies: %v (first: %w)", names, failures[names[0]])
}
