package event

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Handler receives a published event. A returned error is logged and does
// not stop delivery to later handlers.
type Handler func(ctx context.Context, e Event) error

// Publisher is the publishing side of a Bus.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Bus delivers events to handlers subscribed by kind, in registration order.
//
// Subscribe is expected to be called during startup; Subscribe and Publish are
// nonetheless safe for concurrent use.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
	logger   *zap.Logger
}

// NewBus creates an empty Bus.
//
// Precondition: logger must be non-nil.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{handlers: make(map[Kind][]Handler), logger: logger}
}

// Subscribe registers h for events of kind k.
//
// Postcondition: Returns an error iff k is not one of Kinds or h is nil.
func (b *Bus) Subscribe(k Kind, h Handler) error {
	if h == nil {
		return fmt.Errorf("event: nil handler for %q", k)
	}
	if !known(k) {
		return fmt.Errorf("event: unknown kind %q", k)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[k] = append(b.handlers[k], h)
	return nil
}

// Publish delivers e to every handler subscribed to its kind. Handler errors
// and panics are logged at warn.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[e.Kind()]...)
	b.mu.RUnlock()

	for i, h := range hs {
		if err := b.call(ctx, h, e); err != nil {
			b.logger.Warn("event handler failed",
				zap.String("kind", string(e.Kind())),
				zap.Int("handler", i),
				zap.Error(err),
			)
		}
	}
}

// HandlerCount returns the number of handlers subscribed to k.
func (b *Bus) HandlerCount(k Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[k])
}

func (b *Bus) call(ctx context.Context, h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, e)
}

func known(k Kind) bool {
	for _, kk := range Kinds {
		if kk == k {
			return true
		}
	}
	return false
}
