package authstrategy

import "net/http"

// Headers builds the request headers for an already-resolved credential.
// The returned header never mixes regimes: a Gemini credential never carries
// Authorization, a VertexAI credential never carries x-goog-api-key.
func Headers(creds Credentials) http.Header {
	h := make(http.Header, 2)
	h.Set("Content-Type", "application/json")
	switch creds.Strategy {
	case Gemini:
		h.Set("x-goog-api-key", creds.APIKey)
	case VertexAI:
		h.Set("Authorization", "Bearer "+creds.AccessToken)
	}
	return h
}
