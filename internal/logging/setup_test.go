package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-genai-core/internal/authstrategy"
	"go-genai-core/internal/config"
)

func TestSetupStampsDefaultAuthOnEveryEntry(t *testing.T) {
	require.NoError(t, Setup(&config.Config{DefaultAuth: authstrategy.VertexAI}))

	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.WithField("op", "generate").Info("did a thing")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "vertex_ai", decoded["default_auth"])
	assert.Equal(t, "generate", decoded["op"])
}

func TestSetupIsIdempotentAboutHooks(t *testing.T) {
	require.NoError(t, Setup(&config.Config{DefaultAuth: authstrategy.Gemini}))
	require.NoError(t, Setup(&config.Config{DefaultAuth: authstrategy.Gemini}))

	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.Info("once")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, log.StandardLogger().Hooks[log.InfoLevel], 1, "expected exactly one hook registered despite two Setup calls")
	assert.Equal(t, "gemini", decoded["default_auth"], "expected default_auth stamped by the hook")
}
