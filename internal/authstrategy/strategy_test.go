package authstrategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeadersNeverMixRegimes(t *testing.T) {
	gemini := Headers(Credentials{Strategy: Gemini, APIKey: "AIza-TEST"})
	assert.Empty(t, gemini.Get("Authorization"), "gemini headers must never carry Authorization")
	assert.Equal(t, "AIza-TEST", gemini.Get("x-goog-api-key"))

	vertex := Headers(Credentials{Strategy: VertexAI, AccessToken: "tok"})
	assert.Empty(t, vertex.Get("x-goog-api-key"), "vertex headers must never carry x-goog-api-key")
	assert.Equal(t, "Bearer tok", vertex.Get("Authorization"))
}

func TestBuildPath(t *testing.T) {
	gp := BuildPath(Gemini, "gemini-2.0-flash-lite", "generateContent", Credentials{})
	assert.Equal(t, "models/gemini-2.0-flash-lite:generateContent", gp)

	vp := BuildPath(VertexAI, "gemini-2.0-flash-lite", "generateContent", Credentials{ProjectID: "p", Location: "us-central1"})
	assert.Equal(t, "projects/p/locations/us-central1/publishers/google/models/gemini-2.0-flash-lite:generateContent", vp)
}

func TestEffectiveLocationDefaults(t *testing.T) {
	c := Credentials{Strategy: VertexAI, ProjectID: "p"}
	assert.Equal(t, DefaultVertexLocation, c.EffectiveLocation())
}

func TestValidateMissingProjectID(t *testing.T) {
	err := Validate(Credentials{Strategy: VertexAI, AccessToken: "tok"})
	assert.Error(t, err, "expected error for missing project_id")
}

func TestValidateMissingAPIKey(t *testing.T) {
	err := Validate(Credentials{Strategy: Gemini})
	assert.Error(t, err, "expected error for missing api_key")
}
