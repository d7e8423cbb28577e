package authstrategy

import "fmt"

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// BaseURL returns the API root for the strategy. For VertexAI this depends
// on the credential's region.
func BaseURL(strategy Strategy, creds Credentials) string {
	switch strategy {
	case VertexAI:
		return fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1", creds.EffectiveLocation())
	default:
		return geminiBaseURL
	}
}

// BuildPath returns the URL path (relative to BaseURL) for a given model and
// endpoint (e.g. "generateContent", "streamGenerateContent", "countTokens").
func BuildPath(strategy Strategy, model, endpoint string, creds Credentials) string {
	switch strategy {
	case VertexAI:
		return fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s:%s",
			creds.ProjectID, creds.EffectiveLocation(), model, endpoint)
	default:
		return fmt.Sprintf("models/%s:%s", model, endpoint)
	}
}
