package constants

import "time"

// Default transport timeouts shared by the unary and streaming HTTP clients.
const (
	DefaultDialTimeout           = 10 * time.Second
	DefaultTLSHandshakeTimeout   = 10 * time.Second
	DefaultResponseHeaderTimeout = 30 * time.Second
	DefaultExpectContinueTimeout = 1 * time.Second
	DefaultKeepAlive             = 30 * time.Second

	// Connection pool sizing. Conservative defaults for a client library
	// embedded in another process, not a high-throughput proxy.
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 20
	DefaultIdleConnTimeout     = 90 * time.Second
)
