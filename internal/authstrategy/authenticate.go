package authstrategy

import (
	"context"
	"os"
	"time"

	"golang.org/x/oauth2/google"

	"go-genai-core/internal/apierr"
)

// cloudPlatformScope is the single scope this client ever requests; it is
// sufficient for generate/countTokens/listModels against Vertex AI.
const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Authenticate resolves usable credentials for strategy, performing whatever
// network exchange the strategy requires. Gemini never touches the network;
// VertexAI does unless an access_token was already supplied.
func Authenticate(ctx context.Context, creds Credentials) (Credentials, error) {
	switch creds.Strategy {
	case Gemini:
		return authenticateGemini(creds)
	case VertexAI:
		return authenticateVertexAI(ctx, creds)
	default:
		return Credentials{}, apierr.New(apierr.KindConfig, "unknown auth strategy: "+string(creds.Strategy))
	}
}

// authenticateGemini is a no-op: the API key needs no exchange.
func authenticateGemini(creds Credentials) (Credentials, error) {
	if err := Validate(creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// authenticateVertexAI either trusts a pre-supplied access token or signs and
// exchanges a service-account JWT for one (RS256, per RFC 7523 JWT-bearer
// grant). The JWT construction, RS256 signing, and token exchange are all
// delegated to golang.org/x/oauth2/google, which implements exactly the
// five steps described by the upstream contract (build claims, sign with the
// service account's RSA key, POST to token_uri, parse access_token+expires_in).
func authenticateVertexAI(ctx context.Context, creds Credentials) (Credentials, error) {
	if err := Validate(creds); err != nil {
		return Credentials{}, err
	}

	if creds.AccessToken != "" {
		out := creds
		if out.ExpiresAt.IsZero() {
			out.ExpiresAt = time.Now().Add(300 * time.Second)
		}
		return out, nil
	}

	keyJSON := creds.ServiceAccountJSON
	if len(keyJSON) == 0 {
		raw, err := os.ReadFile(creds.ServiceAccountPath)
		if err != nil {
			return Credentials{}, apierr.Wrap(apierr.KindConfig, err, "failed to read service account key")
		}
		keyJSON = raw
	}

	jwtConfig, err := google.JWTConfigFromJSON(keyJSON, cloudPlatformScope)
	if err != nil {
		return Credentials{}, apierr.Wrap(apierr.KindConfig, err, "invalid service account key")
	}

	token, err := jwtConfig.TokenSource(ctx).Token()
	if err != nil {
		return Credentials{}, apierr.Wrap(apierr.KindAuth, err, "service account token exchange failed")
	}

	out := creds
	out.AccessToken = token.AccessToken
	out.ExpiresAt = token.Expiry
	return out, nil
}
