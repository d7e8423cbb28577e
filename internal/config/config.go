// Package config resolves effective configuration by merging, in order of
// decreasing precedence: per-call options, process-wide application
// configuration, environment variables, and built-in defaults.
package config

import (
	"go-genai-core/internal/authcoordinator"
	"go-genai-core/internal/authstrategy"
)

const (
	DefaultModel    = "gemini-2.0-flash-lite"
	DefaultLocation = authstrategy.DefaultVertexLocation
)

// Config is the process-wide application configuration, already merged
// with environment variables and defaults.
type Config struct {
	DefaultModel string
	DefaultAuth  authstrategy.Strategy
	Base         authcoordinator.BaseConfig

	// Debug switches the logger to a human-readable text formatter at
	// debug level; it is off (JSON, info level) by default.
	Debug bool
	// LogFile, if set, tees log output to this path in addition to stdout.
	LogFile string

	// PreferredAuth, if set, names the strategy resolveDefaultAuth picks
	// when both Gemini and Vertex AI carry complete credentials. Empty
	// leaves the Gemini-first tiebreak in place.
	PreferredAuth authstrategy.Strategy
}

// Load resolves Config from the recognized environment variables plus
// built-in defaults. It never fails: missing credentials surface later, at
// first use, as a ConfigError from the auth strategy validator.
func Load() *Config {
	gemini := authstrategy.Credentials{
		Strategy: authstrategy.Gemini,
		APIKey:   getenv("GEMINI_API_KEY", ""),
	}
	vertex := authstrategy.Credentials{
		Strategy:           authstrategy.VertexAI,
		AccessToken:        getenv("VERTEX_ACCESS_TOKEN", ""),
		ServiceAccountPath: firstNonEmpty(getenv("VERTEX_SERVICE_ACCOUNT", ""), getenv("VERTEX_JSON_FILE", "")),
		ProjectID:          firstNonEmpty(getenv("VERTEX_PROJECT_ID", ""), getenv("GOOGLE_CLOUD_PROJECT", "")),
		Location:           firstNonEmpty(getenv("VERTEX_LOCATION", ""), getenv("GOOGLE_CLOUD_LOCATION", ""), DefaultLocation),
	}

	preferredAuth := authstrategy.Strategy(getenv("GENAI_DEFAULT_AUTH", ""))

	return &Config{
		DefaultModel:  DefaultModel,
		DefaultAuth:   resolveDefaultAuth(gemini, vertex, preferredAuth),
		Base:          authcoordinator.BaseConfig{Gemini: gemini, VertexAI: vertex},
		Debug:         getenv("GENAI_DEBUG", "") != "",
		LogFile:       getenv("GENAI_LOG_FILE", ""),
		PreferredAuth: preferredAuth,
	}
}

// resolveDefaultAuth picks preferred when it names a strategy with complete
// credentials; otherwise it picks Gemini if both strategies carry complete
// credentials, else whichever one does, else Gemini as the final fallback.
func resolveDefaultAuth(gemini, vertex authstrategy.Credentials, preferred authstrategy.Strategy) authstrategy.Strategy {
	geminiOK := authstrategy.Validate(gemini) == nil
	vertexOK := authstrategy.Validate(vertex) == nil

	switch preferred {
	case authstrategy.Gemini:
		if geminiOK {
			return authstrategy.Gemini
		}
	case authstrategy.VertexAI:
		if vertexOK {
			return authstrategy.VertexAI
		}
	}

	switch {
	case geminiOK:
		return authstrategy.Gemini
	case vertexOK:
		return authstrategy.VertexAI
	default:
		return authstrategy.Gemini
	}
}
