package constants

import "time"

// Credential cache TTLs, per authentication strategy. Gemini API keys don't
// expire, so the cache entry is held for a long fixed window; Vertex AI
// tokens are re-validated well before their actual expiry.
const (
	GeminiCredentialCacheTTL = 3600 * time.Second
	VertexCredentialCacheTTL = 300 * time.Second
	VertexTokenSafetyMargin  = 60 * time.Second
)
