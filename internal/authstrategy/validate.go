package authstrategy

import (
	"strings"

	"go-genai-core/internal/apierr"
)

// Validate checks that minimal configuration is present without performing
// any network I/O. It is the "validate" operation from the auth coordinator
// contract (§4.1): a configuration-shape check only.
func Validate(creds Credentials) error {
	switch creds.Strategy {
	case Gemini:
		if strings.TrimSpace(creds.APIKey) == "" {
			return apierr.New(apierr.KindConfig, "gemini credentials require a non-empty api_key")
		}
		return nil
	case VertexAI:
		if strings.TrimSpace(creds.ProjectID) == "" {
			return apierr.New(apierr.KindConfig, "vertex_ai credentials require a non-empty project_id")
		}
		if creds.AccessToken == "" && creds.ServiceAccountPath == "" && len(creds.ServiceAccountJSON) == 0 {
			return apierr.New(apierr.KindConfig, "vertex_ai credentials require access_token or a service account key")
		}
		return nil
	default:
		return apierr.New(apierr.KindConfig, "unknown auth strategy: "+string(creds.Strategy))
	}
}
