// Package event provides the in-process event bus connecting AetherLink
// modules.
package event

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/HerbHall/aetherlink/internal/plugin"
)

// Compile-time interface guard.
var _ plugin.EventBus = (*Bus)(nil)

// Bus is a topic-based in-process event bus. Handlers for a topic run
// in subscription order; a panicking handler is recovered and logged so
// it cannot take down the publisher or later handlers.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string]map[int]plugin.EventHandler // topic -> id -> handler
	all      map[int]plugin.EventHandler            // wildcard subscribers
	logger   *zap.Logger
}

// NewBus creates a new event bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[string]map[int]plugin.EventHandler),
		all:      make(map[int]plugin.EventHandler),
		logger:   logger,
	}
}

// Subscribe registers a handler for a topic. The returned function
// removes the subscription.
func (b *Bus) Subscribe(topic string, handler plugin.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[int]plugin.EventHandler)
	}
	b.handlers[topic][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[topic], id)
	}
}

// SubscribeAll registers a handler that receives every event.
func (b *Bus) SubscribeAll(handler plugin.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.all[id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.all, id)
	}
}

// Publish delivers the event synchronously to topic subscribers and
// wildcard subscribers. Publishing with no subscribers is not an error.
func (b *Bus) Publish(ctx context.Context, event plugin.Event) error {
	for _, h := range b.snapshot(event.Topic) {
		b.invoke(ctx, h, event)
	}
	return nil
}

// PublishAsync delivers the event on a new goroutine so the publisher
// never waits on handlers.
func (b *Bus) PublishAsync(ctx context.Context, event plugin.Event) {
	go func() {
		_ = b.Publish(ctx, event)
	}()
}

// snapshot copies the relevant handlers under the read lock so delivery
// happens without holding it (handlers may subscribe/unsubscribe).
func (b *Bus) snapshot(topic string) []plugin.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]plugin.EventHandler, 0, len(b.handlers[topic])+len(b.all))
	for _, h := range b.handlers[topic] {
		out = append(out, h)
	}
	for _, h := range b.all {
		out = append(out, h)
	}
	return out
}

// invoke runs one handler, recovering panics.
func (b *Bus) invoke(ctx context.Context, handler plugin.EventHandler, event plugin.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", event.Topic),
				zap.Any("panic", r),
			)
		}
	}()
	handler(ctx, event)
}
