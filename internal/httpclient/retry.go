package httpclient

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-genai-core/internal/constants"
)

// RetryPolicy controls which responses/errors are retried and how backoff
// is computed. Max of 0 disables retrying entirely.
type RetryPolicy struct {
	Max             int
	BaseInterval    time.Duration
	MaxInterval     time.Duration
	RetryOnNetwork  bool
	RetryOn5xx      bool
}

// DefaultRetryPolicy matches the teacher's defaults: bounded exponential
// backoff with jitter, network errors and 5xx/429/408 all retried.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Max:            constants.DefaultMaxRetries,
		BaseInterval:   constants.DefaultRetryInterval,
		MaxInterval:    constants.DefaultMaxRetryDelay,
		RetryOnNetwork: true,
		RetryOn5xx:     true,
	}
}

// nextBackoff computes exponential backoff with +/-50% jitter for a given
// zero-based attempt index.
func (p RetryPolicy) nextBackoff(attempt int) time.Duration {
	base := float64(p.BaseInterval)
	max := float64(p.MaxInterval)
	if base <= 0 {
		base = float64(time.Second)
	}
	if max <= 0 {
		max = float64(8 * time.Second)
	}
	dur := base * math.Pow(2, float64(attempt))
	if dur > max {
		dur = max
	}
	jitter := 0.5 + rand.Float64()
	return time.Duration(dur * jitter)
}

// shouldRetry decides whether attempt should be retried and, if so, how
// long to wait first. resp may be nil (network error case).
func (p RetryPolicy) shouldRetry(resp *http.Response, err error, attempt int) (bool, time.Duration) {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, 0
		}
		if p.RetryOnNetwork {
			return true, p.nextBackoff(attempt)
		}
		return false, 0
	}
	if resp == nil {
		return false, 0
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if d, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
			return true, d
		}
		return true, p.nextBackoff(attempt)
	case p.RetryOn5xx && resp.StatusCode >= 500 && resp.StatusCode <= 599:
		if resp.StatusCode == http.StatusServiceUnavailable {
			if d, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
				return true, d
			}
		}
		return true, p.nextBackoff(attempt)
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusTooEarly:
		return true, p.nextBackoff(attempt)
	default:
		return false, 0
	}
}

// parseRetryAfter parses a Retry-After header value, either a delay in
// seconds or an HTTP-date.
func parseRetryAfter(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, true
	}
	for _, layout := range []string{time.RFC1123, time.RFC1123Z, time.RFC850, time.ANSIC} {
		if t, err := time.Parse(layout, v); err == nil {
			d := time.Until(t)
			if d < 0 {
				d = 0
			}
			return d, true
		}
	}
	return 0, false
}

// ClassifyNetworkError buckets a transport-level error for logging/metrics,
// mirroring the categories surfaced by the upstream client's error taxonomy.
func ClassifyNetworkError(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	switch {
	case errors.Is(err, context.DeadlineExceeded), strings.Contains(s, "deadline exceeded"), strings.Contains(s, "i/o timeout"), strings.Contains(s, "timeout"):
		return "timeout"
	case errors.Is(err, context.Canceled), strings.Contains(s, "context canceled"):
		return "canceled"
	case strings.Contains(s, "no such host"):
		return "dns"
	case strings.Contains(s, "connection reset"):
		return "conn_reset"
	case strings.Contains(s, "broken pipe"):
		return "conn_broken_pipe"
	default:
		return "other"
	}
}
