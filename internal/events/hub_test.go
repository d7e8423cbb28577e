package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishModelFallbackDeliversTypedPayload(t *testing.T) {
	hub := NewHub()
	var got ModelFallbackPayload
	unsubscribe := hub.Subscribe(TopicModelFallback, func(_ context.Context, ev Event) {
		got = ev.Payload.(ModelFallbackPayload)
	})
	defer unsubscribe()

	hub.PublishModelFallback(context.Background(), "gemini-2.5-flash-image-preview", "gemini-2.5-flash-image")
	assert.Equal(t, "gemini-2.5-flash-image-preview", got.From)
	assert.Equal(t, "gemini-2.5-flash-image", got.To)
}

func TestPublishStreamIdleTimeoutDeliversTypedPayload(t *testing.T) {
	hub := NewHub()
	var got StreamIdleTimeoutPayload
	unsubscribe := hub.Subscribe(TopicStreamIdleTimeout, func(_ context.Context, ev Event) {
		got = ev.Payload.(StreamIdleTimeoutPayload)
	})
	defer unsubscribe()

	hub.PublishStreamIdleTimeout(context.Background(), "sess-1", 2)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, 2, got.Attempt)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	calls := 0
	unsubscribe := hub.Subscribe(TopicCredentialRotated, func(_ context.Context, _ Event) { calls++ })
	hub.Publish(context.Background(), TopicCredentialRotated, nil, nil)
	unsubscribe()
	hub.Publish(context.Background(), TopicCredentialRotated, nil, nil)

	require.Equal(t, 1, calls)
}
