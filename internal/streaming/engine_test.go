package streaming

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-genai-core/internal/authcoordinator"
	"go-genai-core/internal/authstrategy"
)

func TestStartStreamDeliversDataThenDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "data: {\"chunk\":1}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	coord := authcoordinator.New(authcoordinator.BaseConfig{
		Gemini: authstrategy.Credentials{Strategy: authstrategy.Gemini, APIKey: "AIza-TEST"},
	})
	engine := New(coord, server.Client())

	id, events, unsubscribe, err := engine.StartStream(context.Background(), StreamRequest{
		Model:           "gemini-test",
		Body:            []byte(`{}`),
		Strategy:        authstrategy.Gemini,
		BaseURLOverride: server.URL,
	})
	require.NoError(t, err)
	defer unsubscribe()
	assert.NotEmpty(t, id, "expected non-empty session id")

	select {
	case ev := <-events:
		assert.Equal(t, EventData, ev.Kind, "expected first event to be data")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first event")
	}

	select {
	case ev := <-events:
		assert.Equal(t, EventDone, ev.Kind, "expected second event to be done")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for done event")
	}

	info, ok := engine.Info(id)
	require.True(t, ok, "expected session info to exist immediately after start")
	assert.Equal(t, "gemini-test", info.Model)
}

func TestRunAttemptParsesSSEBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "data: {\"chunk\":1}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	coord := authcoordinator.New(authcoordinator.BaseConfig{})
	engine := New(coord, server.Client())

	sess := newSession("test-session", "m", authstrategy.Gemini)
	sub, _ := engine.addSubscriber(sess)

	resolved := authcoordinator.Resolved{Headers: http.Header{}, BaseURL: server.URL}
	status, _, err := engine.runAttempt(context.Background(), sess, server.URL, resolved, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	var gotData, gotDone bool
	for i := 0; i < 2; i++ {
		select {
		case ev := <-sub.mailbox:
			if ev.Kind == EventData {
				gotData = true
			}
			if ev.Kind == EventDone {
				gotDone = true
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
	assert.True(t, gotData, "expected a data event")
	assert.True(t, gotDone, "expected a done event")

	assert.Equal(t, StateCompleted, sess.snapshot().State)
}

func TestSubscriberMailboxDropsOldestOnOverflow(t *testing.T) {
	sess := newSession("overflow-session", "m", authstrategy.Gemini)
	sub := newSubscription(1, nil)

	for i := 0; i < mailboxSize+5; i++ {
		sub.deliver(StreamEvent{Kind: EventData, Data: map[string]any{"i": i}})
	}
	assert.True(t, sub.overflowed, "expected overflow to be recorded once mailbox saturated")
	assert.Len(t, sub.mailbox, mailboxSize)
	first := <-sub.mailbox
	assert.Equal(t, 5, first.Data["i"], "expected the five oldest events to have been dropped")
	_ = sess
}

type blockingReader struct {
	unblock chan struct{}
}

func (r *blockingReader) Read(_ []byte) (int, error) {
	<-r.unblock
	return 0, fmt.Errorf("should not be reached before unblock")
}

func TestReadChunkWithIdleTimeoutFiresOnStall(t *testing.T) {
	reader := &blockingReader{unblock: make(chan struct{})}
	defer close(reader.unblock)

	_, err := readChunkWithIdleTimeout(reader, make([]byte, 16), 10*time.Millisecond)
	require.Error(t, err)
	assert.True(t, retryableStatus(0, err), "an idle-chunk timeout should be treated as retryable")
}

func TestReadChunkWithIdleTimeoutReturnsDataBeforeDeadline(t *testing.T) {
	r := bytesReader("hello")
	n, err := readChunkWithIdleTimeout(&r, make([]byte, 16), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

type bytesReader string

func (r *bytesReader) Read(buf []byte) (int, error) {
	n := copy(buf, *r)
	*r = (*r)[n:]
	return n, nil
}

func TestUnsubscribeLastSubscriberSchedulesStop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		// No terminator at all: the handler just hangs until the client gives up.
		<-r.Context().Done()
	}))
	defer server.Close()

	coord := authcoordinator.New(authcoordinator.BaseConfig{
		Gemini: authstrategy.Credentials{Strategy: authstrategy.Gemini, APIKey: "AIza-TEST"},
	})
	engine := New(coord, server.Client())

	id, _, unsubscribe, err := engine.StartStream(context.Background(), StreamRequest{
		Model: "m", Body: []byte(`{}`), Strategy: authstrategy.Gemini, BaseURLOverride: server.URL,
	})
	require.NoError(t, err)

	unsubscribe()

	info, ok := engine.Info(id)
	require.True(t, ok, "session should still exist during grace period")
	assert.Equal(t, 0, info.Subscribers)

	require.Eventually(t, func() bool {
		info, ok := engine.Info(id)
		return ok && info.State == StateStopped
	}, 3*time.Second, 20*time.Millisecond, "expected the session to stop once the grace period expires")
}
