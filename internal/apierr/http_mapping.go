package apierr

import (
	"encoding/json"
	"net/http"
)

// MapHTTPError classifies a non-2xx upstream response into the taxonomy,
// recording the upstream status in HTTPStatus and using the upstream error
// message (or the raw body, truncated to 200 bytes) as Message.
func MapHTTPError(statusCode int, upstreamBody []byte) *Error {
	msg := extractUpstreamMessage(upstreamBody)

	var e *Error
	switch statusCode {
	case http.StatusUnauthorized:
		e = New(KindAuth, firstNonEmpty(msg, "authentication failed"))
	case http.StatusTooManyRequests:
		e = New(KindRateLimit, firstNonEmpty(msg, "rate limit exceeded"))
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		e = New(KindTimeout, firstNonEmpty(msg, "request timed out"))
	default:
		switch {
		case statusCode >= 500:
			e = New(KindServer, firstNonEmpty(msg, "upstream server error"))
		case statusCode >= 400:
			e = New(KindClient, firstNonEmpty(msg, "request rejected"))
		default:
			e = New(KindServer, firstNonEmpty(msg, "unexpected status"))
		}
	}
	e.HTTPStatus = statusCode
	return e
}

func extractUpstreamMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err == nil {
		if errObj, ok := parsed["error"].(map[string]any); ok {
			if msg, ok := errObj["message"].(string); ok && msg != "" {
				return msg
			}
		}
	}
	msg := string(body)
	if len(msg) > 200 {
		return msg[:200] + "..."
	}
	return msg
}

func firstNonEmpty(strs ...string) string {
	for _, s := range strs {
		if s != "" {
			return s
		}
	}
	return ""
}
