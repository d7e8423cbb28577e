package apierr

import (
	"context"
	"errors"
	"strings"
)

// MapNetworkError classifies a transport-level failure (dial, TLS, read) from
// a round trip that never produced an HTTP response.
func MapNetworkError(err error) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return New(KindCancelled, "request canceled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(KindTimeout, "deadline exceeded")
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "i/o timeout"):
		return Wrap(KindTimeout, err, "network timeout")
	default:
		return Wrap(KindNetwork, err, "network error")
	}
}
