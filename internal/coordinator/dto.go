package coordinator

// Content is one role-tagged turn of a generateContent request/response.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is either a text part or an inline-data part.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// InlineData is base64-encoded binary content embedded directly in a part.
type InlineData struct {
	MimeType   string `json:"mime_type"`
	Base64Data string `json:"base64_data"`
}

// GenerationConfig mirrors the upstream's generationConfig object.
type GenerationConfig struct {
	Temperature      *float64        `json:"temperature,omitempty"`
	TopP             *float64        `json:"topP,omitempty"`
	TopK             *int            `json:"topK,omitempty"`
	MaxOutputTokens  *int            `json:"maxOutputTokens,omitempty"`
	StopSequences    []string        `json:"stopSequences,omitempty"`
	CandidateCount   *int            `json:"candidateCount,omitempty"`
	ResponseMIMEType string          `json:"responseMimeType,omitempty"`
	ThinkingConfig   *ThinkingConfig `json:"thinkingConfig,omitempty"`
}

// ThinkingConfig controls the model's internal reasoning budget.
type ThinkingConfig struct {
	ThinkingBudget *int `json:"thinkingBudget,omitempty"`
}

// SafetySetting adjusts the blocking threshold for one harm category.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// FunctionDeclaration describes one callable function a model may invoke.
type FunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Tool bundles the function declarations available to a model for a call.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
}

// GenerateRequest is the normalized request body sent to generateContent.
type GenerateRequest struct {
	Contents          []Content         `json:"contents"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings    []SafetySetting   `json:"safetySettings,omitempty"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
}

// Candidate is one generated response candidate.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finish_reason,omitempty"`
	Index        int     `json:"index,omitempty"`
}

// UsageMetadata reports token accounting for a generate call, keys already
// normalized to snake_case.
type UsageMetadata struct {
	PromptTokenCount     int `json:"prompt_token_count,omitempty"`
	CandidatesTokenCount int `json:"candidates_token_count,omitempty"`
	TotalTokenCount      int `json:"total_token_count,omitempty"`
}

// GenerateResponse is the normalized response from generateContent.
type GenerateResponse struct {
	Candidates    []Candidate    `json:"candidates,omitempty"`
	UsageMetadata *UsageMetadata `json:"usage_metadata,omitempty"`
	ModelVersion  string         `json:"model_version,omitempty"`
}

// CountTokensResponse is the normalized response from countTokens.
type CountTokensResponse struct {
	TotalTokens int `json:"total_tokens"`
}

// Model describes one model returned by list_models/get_model.
type Model struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// ListModelsResponse is the normalized response from listing models.
type ListModelsResponse struct {
	Models []Model `json:"models"`
}
