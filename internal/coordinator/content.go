package coordinator

import "go-genai-core/internal/apierr"

// NormalizeContent expands caller input into the upstream's contents shape.
// Accepted forms: a plain string (single user text part), a []Part (single
// user message), or a []Content (a pre-built, role-tagged message list).
func NormalizeContent(input any) ([]Content, error) {
	switch v := input.(type) {
	case string:
		return []Content{{Role: "user", Parts: []Part{{Text: v}}}}, nil
	case []Part:
		return []Content{{Role: "user", Parts: v}}, nil
	case []Content:
		return v, nil
	default:
		return nil, apierr.New(apierr.KindClient, "unsupported content input type")
	}
}
