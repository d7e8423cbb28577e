package logging

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// WithSession builds a log entry enriched with common stream-session fields.
// Extras take precedence over the base fields on key conflicts.
func WithSession(sessionID, model, strategy string, extras log.Fields) *log.Entry {
	fields := log.Fields{
		"session_id": sessionID,
		"model":      model,
		"strategy":   strategy,
	}
	for k, v := range extras {
		fields[k] = v
	}
	return log.WithFields(fields)
}

// DurationMS converts a duration to integer milliseconds for logging.
func DurationMS(d time.Duration) int64 { return d.Milliseconds() }
