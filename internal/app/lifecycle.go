// Package app wires configuration into the stores, tables, and services the
// toolbox binaries share, and releases them on exit.
package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Lifecycle releases registered resources in reverse registration order.
type Lifecycle struct {
	logger    *zap.Logger
	mu        sync.Mutex
	resources []namedResource
	closed    bool
}

type namedResource struct {
	name  string
	close func()
}

// NewLifecycle creates a new Lifecycle manager.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers a named resource. Resources are released in the reverse of
// the order they are added.
//
// Precondition: name must be non-empty; closeFn must be non-nil.
func (l *Lifecycle) Add(name string, closeFn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resources = append(l.resources, namedResource{name: name, close: closeFn})
}

// Close releases every resource once. Later calls are no-ops.
//
// Postcondition: every registered close function has run exactly once.
func (l *Lifecycle) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true

	start := time.Now()
	for i := len(l.resources) - 1; i >= 0; i-- {
		r := l.resources[i]
		rStart := time.Now()
		r.close()
		l.logger.Debug("resource released",
			zap.String("resource", r.name),
			zap.Duration("elapsed", time.Since(rStart)),
		)
	}
	l.logger.Debug("all resources released",
		zap.Int("count", len(l.resources)),
		zap.Duration("shutdown_elapsed", time.Since(start)),
	)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM, so that a
// long range rescale stops between levels.
func SignalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
