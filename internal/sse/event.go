// Package sse implements a pure, value-type Server-Sent Events parser: bytes
// in, decoded events out, with no network or goroutine state of its own.
package sse

// Event is one decoded SSE event. Done is true for the upstream's literal
// `data: [DONE]` terminator sentinel, in which case Data is nil.
type Event struct {
	EventType string
	ID        string
	Data      map[string]any
	Done      bool
}

// doneSentinel is the literal data payload the upstream sends to end a
// stream; it is never JSON-decoded.
const doneSentinel = "[DONE]"
