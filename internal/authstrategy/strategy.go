// Package authstrategy implements the two credential regimes the client can
// use per request: a long-lived Gemini API key, and short-lived VertexAI
// OAuth2 access tokens obtained from a service account.
package authstrategy

import "time"

// Strategy tags which authentication regime a request uses. It carries no
// state of its own; behavior is selected by switching on the tag.
type Strategy string

const (
	Gemini   Strategy = "gemini"
	VertexAI Strategy = "vertex_ai"
)

func (s Strategy) String() string { return string(s) }

// Valid reports whether s is one of the recognized strategies.
func (s Strategy) Valid() bool {
	return s == Gemini || s == VertexAI
}

// DefaultVertexLocation is used whenever a VertexAI credential omits location.
const DefaultVertexLocation = "us-central1"

// Credentials is strategy-scoped: only the fields relevant to Strategy are
// populated. It is never logged in full — see Credentials.Redacted.
type Credentials struct {
	Strategy Strategy

	// Gemini
	APIKey string

	// VertexAI
	AccessToken          string
	ProjectID            string
	Location             string
	ServiceAccountPath   string // path to a service-account JSON key file
	ServiceAccountJSON    []byte // inline service-account JSON, alternative to the path
	ExpiresAt            time.Time // set by Authenticate for VertexAI: token expiry, or now+300s for a supplied AccessToken without one
}

// Redacted returns a copy safe to log: secrets are replaced with a short hash
// fingerprint so operators can still correlate which credential was used.
func (c Credentials) Redacted() map[string]any {
	out := map[string]any{"strategy": string(c.Strategy)}
	if c.APIKey != "" {
		out["api_key"] = fingerprint(c.APIKey)
	}
	if c.AccessToken != "" {
		out["access_token"] = fingerprint(c.AccessToken)
	}
	if c.ProjectID != "" {
		out["project_id"] = c.ProjectID
	}
	if c.Location != "" {
		out["location"] = c.Location
	}
	return out
}

func fingerprint(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// EffectiveLocation returns Location, defaulting to DefaultVertexLocation.
func (c Credentials) EffectiveLocation() string {
	if c.Location == "" {
		return DefaultVertexLocation
	}
	return c.Location
}
