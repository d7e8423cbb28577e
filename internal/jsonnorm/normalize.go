// Package jsonnorm recursively normalizes JSON object keys from the
// upstream's camelCase convention (totalTokens, usageMetadata,
// displayName, finishReason, ...) to snake_case, so callers see one
// naming convention regardless of which strategy served the response.
package jsonnorm

import "strings"

// Keys normalizes every object key in v, recursively, in place in the
// sense that it returns a new equivalent value; v is expected to be the
// result of decoding JSON into `any` (map[string]any / []any / scalars).
// It is idempotent: a value whose keys are already snake_case is returned
// unchanged in meaning.
func Keys(v any) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, child := range value {
			out[ToSnakeCase(k)] = Keys(child)
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, child := range value {
			out[i] = Keys(child)
		}
		return out
	default:
		return v
	}
}

// ToSnakeCase converts one camelCase identifier to snake_case. Runs of
// uppercase letters (as in an acronym) collapse to a single underscore
// boundary rather than one per letter.
func ToSnakeCase(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		isUpper := r >= 'A' && r <= 'Z'
		if isUpper {
			prevLower := i > 0 && !(runes[i-1] >= 'A' && runes[i-1] <= 'Z')
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if i > 0 && (prevLower || nextLower) {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
