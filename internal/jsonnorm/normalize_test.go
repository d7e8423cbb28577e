package jsonnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSnakeCaseSimple(t *testing.T) {
	cases := map[string]string{
		"totalTokens":   "total_tokens",
		"usageMetadata": "usage_metadata",
		"displayName":   "display_name",
		"finishReason":  "finish_reason",
		"already_snake": "already_snake",
		"ID":            "id",
		"URLPath":       "url_path",
		"a":             "a",
		"":              "",
	}
	for in, want := range cases {
		assert.Equalf(t, want, ToSnakeCase(in), "ToSnakeCase(%q)", in)
	}
}

func TestKeysRecursesThroughNestedStructures(t *testing.T) {
	in := map[string]any{
		"totalTokens": float64(5),
		"usageMetadata": map[string]any{
			"promptTokenCount": float64(2),
		},
		"candidates": []any{
			map[string]any{"finishReason": "STOP"},
		},
	}

	out := Keys(in).(map[string]any)
	assert.Equal(t, float64(5), out["total_tokens"])

	nested, ok := out["usage_metadata"].(map[string]any)
	require.True(t, ok, "expected nested map normalized, got %+v", out["usage_metadata"])
	assert.Equal(t, float64(2), nested["prompt_token_count"])

	candidates, ok := out["candidates"].([]any)
	require.True(t, ok, "expected candidates list preserved, got %+v", out["candidates"])
	require.Len(t, candidates, 1)

	first := candidates[0].(map[string]any)
	assert.Equal(t, "STOP", first["finish_reason"])
}

func TestKeysIdempotent(t *testing.T) {
	in := map[string]any{"already_snake_case": float64(1)}
	out := Keys(in).(map[string]any)
	assert.Equal(t, float64(1), out["already_snake_case"])
}
