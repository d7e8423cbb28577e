package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"go-genai-core/internal/authstrategy"
)

func TestLoadDefaultsToGeminiWhenBothPresent(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "AIza-TEST")
	t.Setenv("VERTEX_PROJECT_ID", "proj")
	t.Setenv("VERTEX_ACCESS_TOKEN", "tok")

	cfg := Load()
	assert.Equal(t, authstrategy.Gemini, cfg.DefaultAuth, "expected gemini default when both strategies are valid")
}

func TestLoadHonorsPreferredAuthWhenBothValid(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "AIza-TEST")
	t.Setenv("VERTEX_PROJECT_ID", "proj")
	t.Setenv("VERTEX_ACCESS_TOKEN", "tok")
	t.Setenv("GENAI_DEFAULT_AUTH", "vertex_ai")

	cfg := Load()
	assert.Equal(t, authstrategy.VertexAI, cfg.DefaultAuth, "expected PreferredAuth to override the gemini tiebreak")
	assert.Equal(t, authstrategy.VertexAI, cfg.PreferredAuth)
}

func TestLoadIgnoresPreferredAuthWhenInvalid(t *testing.T) {
	os.Unsetenv("GEMINI_API_KEY")
	t.Setenv("VERTEX_PROJECT_ID", "proj")
	t.Setenv("VERTEX_ACCESS_TOKEN", "tok")
	t.Setenv("GENAI_DEFAULT_AUTH", "gemini")

	cfg := Load()
	assert.Equal(t, authstrategy.VertexAI, cfg.DefaultAuth, "preferred gemini has no credentials, so vertex must still win")
}

func TestLoadFallsBackToVertexWhenOnlyThatIsValid(t *testing.T) {
	os.Unsetenv("GEMINI_API_KEY")
	t.Setenv("VERTEX_PROJECT_ID", "proj")
	t.Setenv("VERTEX_ACCESS_TOKEN", "tok")

	cfg := Load()
	assert.Equal(t, authstrategy.VertexAI, cfg.DefaultAuth)
}

func TestLoadDefaultLocationFallsBackToUSCentral1(t *testing.T) {
	os.Unsetenv("VERTEX_LOCATION")
	os.Unsetenv("GOOGLE_CLOUD_LOCATION")
	cfg := Load()
	assert.Equal(t, DefaultLocation, cfg.Base.VertexAI.Location)
}

func TestValidateOptionKeysRejectsUnknown(t *testing.T) {
	err := ValidateOptionKeys(map[string]any{"bogus": true})
	assert.Error(t, err, "expected error for unrecognized option")
}

func TestValidateOptionKeysAcceptsKnown(t *testing.T) {
	err := ValidateOptionKeys(map[string]any{"model": "gemini-2.0-flash-lite", "temperature": 0.5})
	assert.NoError(t, err)
}
