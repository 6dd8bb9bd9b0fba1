// Package event is an in-process publish/subscribe bus for domain events
// such as "order.placed".
package event

import (
	"context"
	"sync"

	"github.com/Rasmogul/greatsoko/pkg/logger"
)

// Handler receives one event.
type Handler func(ctx context.Context, name string, payload interface{})

// Bus routes events to listeners by name. The zero value is not usable;
// use New. A nil *Bus drops every event.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func New() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Listen registers handler for name.
func (b *Bus) Listen(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
}

// Fire calls every listener in registration order. A panicking listener is
// logged and the rest still run.
func (b *Bus) Fire(ctx context.Context, name string, payload interface{}) {
	for _, h := range b.listeners(name) {
		call(ctx, h, name, payload)
	}
}

// FireAsync calls each listener on its own goroutine. Listeners keep the
// request's values but not its cancellation.
func (b *Bus) FireAsync(ctx context.Context, name string, payload interface{}) {
	ctx = context.WithoutCancel(ctx)
	for _, h := range b.listeners(name) {
		go call(ctx, h, name, payload)
	}
}

func (b *Bus) listeners(name string) []Handler {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Handler(nil), b.handlers[name]...)
}

func call(ctx context.Context, h Handler, name string, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event: listener panicked", "event", name, "panic", r)
		}
	}()
	h(ctx, name, payload)
}
