package entity

// Request/response shapes of the HTTP API.

// ErrorResponse is the uniform error body of the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// --- generation wizard ---

type SubmitDescriptionRequest struct {
	Description string `json:"description"`
}

type TagRequest struct {
	Tag string `json:"tag"`
}

type EditTagContentRequest struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

type SetLanguageRequest struct {
	Language string `json:"language"`
}

type SetOutputStyleRequest struct {
	Style string `json:"style"`
}

// --- dialect conversion ---

type ConvertRequest struct {
	Text string `json:"text"`
}

type ConvertResponse struct {
	Text string `json:"text"`
	// Empty reports that nothing convertible was found in the input; the
	// conversion itself never fails.
	Empty bool `json:"empty"`
}

// --- stored prompts ---

type SavePromptRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    PromptCategory `json:"category"`
	Tags        []string       `json:"tags"`
	CliText     string         `json:"cli_text"`
	WebText     string         `json:"web_text"`
}

type SaveFromSessionRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

type UpdatePromptRequest struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Category    *PromptCategory `json:"category,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	CliText     *string         `json:"cli_text,omitempty"`
	WebText     *string         `json:"web_text,omitempty"`
}

// --- model configs ---

type ModelConfigInput struct {
	Provider    AIProviderKind `json:"provider"`
	APIKey      string         `json:"api_key"`
	ModelID     string         `json:"model_id"`
	BaseURL     *string        `json:"base_url,omitempty"`
	Temperature *float64       `json:"temperature,omitempty"`
	MaxTokens   *int           `json:"max_tokens,omitempty"`
	IsDefault   bool           `json:"is_default"`
}

// ModelConfigView is the read shape of a config: the key never leaves the
// server, only its masked form does.
type ModelConfigView struct {
	ModelConfig
	APIKeyMasked string `json:"api_key_masked"`
}

type TestConnectionRequest struct {
	// ConfigID tests a stored configuration with its decrypted key.
	ConfigID string `json:"config_id,omitempty"`
	// Alternatively a transient configuration can be submitted directly.
	Provider AIProviderKind `json:"provider,omitempty"`
	APIKey   string         `json:"api_key,omitempty"`
	ModelID  string         `json:"model_id,omitempty"`
	BaseURL  *string        `json:"base_url,omitempty"`
}

type TestConnectionResponse struct {
	Success bool `json:"success"`
}
