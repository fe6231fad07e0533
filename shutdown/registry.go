// Package shutdown runs cleanup handlers in priority order when the
// service stops.
package shutdown

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"discharge_backend/core"

	"go.uber.org/zap"
)

// Priorities used by the serve command. Lower runs first.
const (
	PriorityServer  = 10
	PriorityWorkers = 20
	PriorityFlush   = 90
)

type entry struct {
	name     string
	fn       core.ShutdownFunc
	priority int
}

// Registry is an ordered collection of shutdown handlers.
//
//	registry := shutdown.NewRegistry(logger)
//	registry.Register("http server", shutdown.PriorityServer, server.Shutdown)
//	...
//	err := registry.Shutdown(ctx)
type Registry struct {
	mu      sync.Mutex
	entries []entry
	closed  bool
	logger  *zap.Logger
}

// NewRegistry creates an empty Registry. A nil logger disables logging.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{logger: logger}
}

// Register adds fn under name. Handlers with equal priority run in
// registration order. Registration after Shutdown is ignored.
func (r *Registry) Register(name string, priority int, fn core.ShutdownFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.entries = append(r.entries, entry{name: name, fn: fn, priority: priority})
}

// Shutdown runs every handler once, in priority order, even when earlier
// ones fail. The failures are joined into the returned error. Later calls
// return nil.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	ordered := r.sortedLocked()
	r.mu.Unlock()

	var errs []error
	for _, e := range ordered {
		start := time.Now()
		err := e.fn(ctx)
		if err != nil {
			r.logger.Warn("shutdown handler failed", zap.String("handler", e.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
			continue
		}
		r.logger.Debug("shutdown handler done",
			zap.String("handler", e.name),
			zap.Duration("duration", time.Since(start)))
	}
	return errors.Join(errs...)
}

// Names returns the handler names in execution order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ordered := r.sortedLocked()
	names := make([]string, len(ordered))
	for i, e := range ordered {
		names[i] = e.name
	}
	return names
}

func (r *Registry) sortedLocked() []entry {
	ordered := slices.Clone(r.entries)
	slices.SortStableFunc(ordered, func(a, b entry) int {
		return cmp.Compare(a.priority, b.priority)
	})
	return ordered
}
