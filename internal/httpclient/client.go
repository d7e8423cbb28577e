// Package httpclient builds the shared transport used for both unary and
// streaming upstream requests, and implements the retry/backoff policy
// applied to unary attempts.
package httpclient

import (
	"net"
	"net/http"
	"net/url"
	"time"

	"go-genai-core/internal/constants"
)

// Options configures the transport. Zero values fall back to the defaults
// used throughout this package.
type Options struct {
	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	ExpectContinueTimeout time.Duration
	ProxyURL              string
}

func durationOrDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// New builds an *http.Client with no overall timeout: unary callers enforce
// their own per-call deadline via context, and streaming callers must not
// have the connection cut mid-stream by a client-wide timeout.
func New(opts Options) *http.Client {
	transport := &http.Transport{
		Proxy: proxyFunc(opts.ProxyURL),
		DialContext: (&net.Dialer{
			Timeout:   durationOrDefault(opts.DialTimeout, constants.DefaultDialTimeout),
			KeepAlive: constants.DefaultKeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   durationOrDefault(opts.TLSHandshakeTimeout, constants.DefaultTLSHandshakeTimeout),
		ResponseHeaderTimeout: durationOrDefault(opts.ResponseHeaderTimeout, constants.DefaultResponseHeaderTimeout),
		ExpectContinueTimeout: durationOrDefault(opts.ExpectContinueTimeout, constants.DefaultExpectContinueTimeout),
		MaxIdleConns:          constants.DefaultMaxIdleConns,
		MaxIdleConnsPerHost:   constants.DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:       constants.DefaultIdleConnTimeout,
	}
	return &http.Client{Transport: transport, Timeout: 0}
}

func proxyFunc(proxyURL string) func(*http.Request) (*url.URL, error) {
	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			return http.ProxyURL(parsed)
		}
	}
	return http.ProxyFromEnvironment
}
