package constants

import "time"

// Unary retry policy: multiplicative backoff with jitter, applied by
// httpclient.RetryPolicy.
const (
	DefaultMaxRetries    = 3
	DefaultRetryInterval = 1 * time.Second
	DefaultMaxRetryDelay = 8 * time.Second
)

// Streaming retry policy: additive jitter, applied by the streaming engine
// between reconnect attempts on a dropped SSE connection.
const (
	StreamMaxRetries     = 3
	StreamBackoffBase    = 1 * time.Second
	StreamBackoffCap     = 10 * time.Second
	StreamBackoffJitter  = 1 * time.Second
)
