package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Handler consumes one event. Handler errors are logged, never propagated to
// the publisher: the mutation that triggered the event has already committed.
type Handler func(ctx context.Context, e Event) error

// Bus dispatches events synchronously to every subscriber, in subscription
// order. A panicking or failing handler never affects the others.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	log      *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(log *slog.Logger) *Bus {
	return &Bus{log: log}
}

// Subscribe appends a handler to the dispatch list. Meant for wiring at
// startup, before any Publish.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers the event to all subscribers.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := b.dispatch(ctx, h, e); err != nil {
			b.log.Error("event handler failed", "event", e.Name(), "err", err)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h(ctx, e)
}
