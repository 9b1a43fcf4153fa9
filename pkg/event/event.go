// Package event provides a small in-process event bus.
package event

import (
	"context"
	"sync"

	"github.com/bistroboss/bistro/pkg/logger"
)

// Names of the events the application fires.
const (
	PaymentRecorded = "payment.recorded"
	UserPromoted    = "user.promoted"
	MenuChanged     = "menu.changed"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload interface{})

// Bus dispatches named events to registered listeners.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Listen registers a handler for the given event name.
func (b *Bus) Listen(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

func (b *Bus) listeners(event string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]Handler, len(b.handlers[event]))
	copy(hs, b.handlers[event])
	return hs
}

// Fire dispatches an event synchronously to all registered listeners.
// A nil Bus drops the event.
func (b *Bus) Fire(ctx context.Context, event string, payload interface{}) {
	if b == nil {
		return
	}
	for _, h := range b.listeners(event) {
		b.run(ctx, event, h, payload)
	}
}

// FireAsync dispatches the event to every listener on its own goroutine and
// returns immediately. Listeners get a context detached from ctx's
// cancellation so a finished request does not abort them.
func (b *Bus) FireAsync(ctx context.Context, event string, payload interface{}) {
	if b == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	for _, h := range b.listeners(event) {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			b.run(detached, event, h, payload)
		}(h)
	}
}

// Wait blocks until every FireAsync listener has returned.
func (b *Bus) Wait() {
	if b != nil {
		b.wg.Wait()
	}
}

func (b *Bus) run(ctx context.Context, event string, h Handler, payload interface{}) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.WithCtx(ctx).Error("event listener panicked", "event", event, "panic", rec)
		}
	}()
	h(ctx, payload)
}
