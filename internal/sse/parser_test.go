package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedSplitAcrossChunkBoundary(t *testing.T) {
	p := New()

	events, err := p.Feed([]byte(`data: {"t":"he`))
	require.NoError(t, err)
	assert.Empty(t, events, "expected no events before terminator")

	events, err = p.Feed([]byte("llo\"}\n\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, map[string]any{"t": "hello"}, events[0].Data)

	events, err = p.Feed([]byte("data: [DONE]\n\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Done)
}

func TestFeedEmptyChunkNoEvents(t *testing.T) {
	p := New()
	events, err := p.Feed(nil)
	require.NoError(t, err)
	assert.Empty(t, events, "expected no-op on empty feed")
}

func TestMultipleDataLinesJoinedWithNewline(t *testing.T) {
	p := New()
	events, err := p.Feed([]byte("data: {\"a\":1,\ndata: \"b\":2}\n\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, map[string]any{"a": float64(1), "b": float64(2)}, events[0].Data)
}

func TestDecodeFailureSkipsEventNotStream(t *testing.T) {
	p := New()
	events, err := p.Feed([]byte("data: {not json}\n\ndata: {\"ok\":true}\n\n"))
	assert.Error(t, err, "expected decode error to be surfaced")
	require.Len(t, events, 1, "expected the well-formed event to still be emitted")
	assert.Equal(t, map[string]any{"ok": true}, events[0].Data)
}

func TestEventWithoutDataFieldDiscardedSilently(t *testing.T) {
	p := New()
	events, err := p.Feed([]byte("event: ping\nid: 1\n\n"))
	require.NoError(t, err)
	assert.Empty(t, events, "expected event without data field to be discarded")
}

func TestCommentLinesIgnored(t *testing.T) {
	p := New()
	events, err := p.Feed([]byte(":keep-alive\ndata: {\"x\":1}\n\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, map[string]any{"x": float64(1)}, events[0].Data)
}

func TestFinalizeEmitsTrailingEventWithoutTerminator(t *testing.T) {
	p := New()
	events, err := p.Feed([]byte("data: {\"x\":1}\n\ndata: {\"y\":2}"))
	require.NoError(t, err)
	require.Len(t, events, 1, "expected one complete event before finalize")

	trailing, err := p.Finalize()
	require.NoError(t, err)
	require.Len(t, trailing, 1)
	assert.Equal(t, map[string]any{"y": float64(2)}, trailing[0].Data)
}

func TestFinalizeOnEmptyBufferEmitsNothing(t *testing.T) {
	p := New()
	events, err := p.Finalize()
	require.NoError(t, err)
	assert.Empty(t, events, "expected no-op finalize on empty buffer")
}

func TestChunkBoundaryWithinTerminatorItself(t *testing.T) {
	p := New()
	var all []Event
	for _, chunk := range []string{"data: {\"x\":1}\n", "\ndata: {\"y\":2}\n\n"} {
		events, err := p.Feed([]byte(chunk))
		require.NoError(t, err)
		all = append(all, events...)
	}
	assert.Len(t, all, 2, "expected two events split across the blank-line terminator")
}

func TestOrderPreservedAcrossManyEvents(t *testing.T) {
	p := New()
	events, err := p.Feed([]byte("data: {\"i\":1}\n\ndata: {\"i\":2}\n\ndata: {\"i\":3}\n\n"))
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equalf(t, float64(i+1), ev.Data["i"], "events out of order: index %d", i)
	}
}
