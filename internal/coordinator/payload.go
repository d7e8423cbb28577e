package coordinator

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// modelsDisallowingThinking lists models whose thinkingConfig must be
// stripped before the request reaches the upstream, because they reject
// the field outright.
var modelsDisallowingThinking = []string{
	"gemini-2.5-flash-image-preview",
	"gemini-2.5-flash-image",
}

func disallowsThinking(model string) bool {
	lower := strings.ToLower(model)
	for _, m := range modelsDisallowingThinking {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func stripThinkingConfig(body []byte) []byte {
	if !gjson.GetBytes(body, "generationConfig.thinkingConfig").Exists() {
		return body
	}
	out, err := sjson.DeleteBytes(body, "generationConfig.thinkingConfig")
	if err != nil {
		return body
	}
	return out
}

// fallbackOrder returns the ordered list of model names to try on a 404:
// model itself, then opts.ModelFallback verbatim. Fallback is opt-in; a
// caller that never sets opts.ModelFallback gets exactly one candidate.
func fallbackOrder(model string, modelFallback []string) []string {
	order := make([]string, 0, 1+len(modelFallback))
	order = append(order, model)
	for _, alt := range modelFallback {
		if alt != model {
			order = append(order, alt)
		}
	}
	return order
}
