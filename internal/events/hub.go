package events

import (
	"context"
	"sync"
	"time"
)

// Topic names for core domain events a library consumer can subscribe to.
const (
	// TopicCredentialRotated fires after a credential is (re-)authenticated,
	// whether from a cache miss, an explicit Refresh, or a watched
	// service-account file change. Payload is authstrategy.Strategy.
	TopicCredentialRotated = "credentials.rotated"

	// TopicModelFallback fires when a unary call 404s and retries under the
	// next candidate in opts.ModelFallback. Payload is ModelFallbackPayload.
	TopicModelFallback = "model.fallback"

	// TopicStreamIdleTimeout fires when a streaming session's per-chunk read
	// stalls past the idle deadline and the session is about to reconnect; a
	// stall that exhausts the retries fails the session without publishing.
	// Payload is StreamIdleTimeoutPayload.
	TopicStreamIdleTimeout = "stream.idle_timeout"
)

// ModelFallbackPayload describes one model-name substitution made after a
// 404 from the upstream.
type ModelFallbackPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// StreamIdleTimeoutPayload describes one idle-chunk timeout on a streaming
// session.
type StreamIdleTimeoutPayload struct {
	SessionID string `json:"session_id"`
	Attempt   int    `json:"attempt"`
}

// Event represents a published message on the event bus.
type Event struct {
	Topic     string            `json:"topic"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   any               `json:"payload,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Handler processes an incoming event.
type Handler func(context.Context, Event)

// Publisher exposes the ability to publish events to the hub.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any, metadata map[string]string)
}

// Subscriber exposes subscription capabilities.
type Subscriber interface {
	Subscribe(topic string, handler Handler) func()
}

// Hub is a lightweight in-process pub/sub event bus.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[int64]Handler
	nextID int64
}

// NewHub constructs a new empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[int64]Handler),
	}
}

// Subscribe registers a handler for the given topic.
// It returns a function that, when invoked, unsubscribes the handler.
func (h *Hub) Subscribe(topic string, handler Handler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID

	if _, ok := h.subs[topic]; !ok {
		h.subs[topic] = make(map[int64]Handler)
	}
	h.subs[topic][id] = handler

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if listeners, ok := h.subs[topic]; ok {
			delete(listeners, id)
			if len(listeners) == 0 {
				delete(h.subs, topic)
			}
		}
	}
}

// Publish dispatches an event to all subscribers of the topic synchronously.
func (h *Hub) Publish(ctx context.Context, topic string, payload any, metadata map[string]string) {
	event := Event{
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
		Metadata:  metadata,
	}

	handlers := h.snapshotHandlers(topic)
	for _, handler := range handlers {
		handler(ctx, event)
	}
}

// PublishModelFallback publishes a TopicModelFallback event for a 404 retry
// from one model name to the next candidate.
func (h *Hub) PublishModelFallback(ctx context.Context, from, to string) {
	h.Publish(ctx, TopicModelFallback, ModelFallbackPayload{From: from, To: to}, nil)
}

// PublishStreamIdleTimeout publishes a TopicStreamIdleTimeout event for a
// stalled streaming session on its nth retry attempt.
func (h *Hub) PublishStreamIdleTimeout(ctx context.Context, sessionID string, attempt int) {
	h.Publish(ctx, TopicStreamIdleTimeout, StreamIdleTimeoutPayload{SessionID: sessionID, Attempt: attempt}, nil)
}

func (h *Hub) snapshotHandlers(topic string) []Handler {
	h.mu.RLock()
	defer h.mu.RUnlock()

	listeners := h.subs[topic]
	if len(listeners) == 0 {
		return nil
	}

	out := make([]Handler, 0, len(listeners))
	for _, handler := range listeners {
		out = append(out, handler)
	}
	return out
}
