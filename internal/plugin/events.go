package plugin

import (
	"context"
	"time"
)

// Event is a message published on the in-process event bus. Payload
// types are owned by the publishing module.
type Event struct {
	Topic     string    `json:"topic"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// EventHandler processes a single event. Handlers must not block for
// long on synchronous publishes; slow consumers should hand off.
type EventHandler func(ctx context.Context, event Event)

// EventBus decouples modules: recon publishes discovery events, pulse
// evaluates them, stream fans them out to subscribers.
type EventBus interface {
	// Publish delivers the event synchronously to all subscribers.
	Publish(ctx context.Context, event Event) error

	// PublishAsync delivers the event without waiting for handlers.
	PublishAsync(ctx context.Context, event Event)

	// Subscribe registers a handler for a topic and returns an
	// unsubscribe function.
	Subscribe(topic string, handler EventHandler) func()

	// SubscribeAll registers a handler for every topic.
	SubscribeAll(handler EventHandler) func()
}
