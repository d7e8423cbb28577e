package config

import "go-genai-core/internal/apierr"

// recognizedOptionKeys is the whitelist of per-call option names accepted
// from a dynamic (e.g. JSON-decoded) options map. Anything else is a
// ConfigError rather than being silently ignored.
var recognizedOptionKeys = map[string]bool{
	"auth":               true,
	"model":              true,
	"temperature":        true,
	"top_p":              true,
	"top_k":              true,
	"max_output_tokens":  true,
	"stop_sequences":     true,
	"candidate_count":    true,
	"response_mime_type": true,
	"safety_settings":    true,
	"system_instruction": true,
	"tools":              true,
	"timeout":            true,
	"max_retries":        true,
}

// ValidateOptionKeys rejects a dynamic options map that contains any key
// outside the recognized set.
func ValidateOptionKeys(raw map[string]any) error {
	for k := range raw {
		if !recognizedOptionKeys[k] {
			return apierr.New(apierr.KindConfig, "unrecognized option: "+k)
		}
	}
	return nil
}
