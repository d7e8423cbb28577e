package constants

import "time"

const (
	// DefaultUnaryTimeout bounds a non-streaming upstream call end to end
	// when the caller supplies no opts.Timeout.
	DefaultUnaryTimeout = 30 * time.Second

	// StreamIdleChunkTimeout bounds the gap between consecutive chunks of a
	// streaming response; it resets on every chunk and has no overall cap.
	StreamIdleChunkTimeout = 45 * time.Second

	// StreamSubscriberGracePeriod is how long a streaming session stays alive
	// with zero subscribers before it is stopped, giving a reconnecting
	// caller a window to resubscribe without losing in-flight state.
	StreamSubscriberGracePeriod = 1 * time.Second
	// StreamSessionCleanupDelay is how long a terminal streaming session's
	// bookkeeping is retained after completion, so a late Info/Subscribe
	// call still observes the final state.
	StreamSessionCleanupDelay = 5 * time.Second

	// ServerShutdownTimeout bounds graceful shutdown of a hosting process.
	ServerShutdownTimeout = 30 * time.Second
)
