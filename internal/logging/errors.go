package logging

import "go-genai-core/internal/apierr"

// ErrorKind normalizes an upstream call outcome into a short label for
// logs/metrics. When err is an *apierr.Error, its Kind is authoritative
// (it already reflects the decision the coordinator made about retryability);
// otherwise the label falls back to a bare HTTP status classification.
func ErrorKind(status int, err error) string {
	if apiErr, ok := err.(*apierr.Error); ok {
		return string(apiErr.Kind)
	}
	if err != nil && status == 0 {
		return string(apierr.KindNetwork)
	}
	switch {
	case status == 429:
		return string(apierr.KindRateLimit)
	case status == 401, status == 403:
		return string(apierr.KindAuth)
	case status >= 500 && status < 600:
		return string(apierr.KindServer)
	case status >= 400 && status < 500:
		return string(apierr.KindClient)
	}
	if err != nil {
		return "error"
	}
	return "ok"
}
