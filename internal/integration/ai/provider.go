package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pkghttp "github.com/promptweaver/prompt-backend/pkg/http"
)

// Role of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn of the provider-agnostic conversation shape.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

const (
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.7
)

// CompletionRequest is the uniform request every provider accepts. Model is
// the provider-specific model identifier; SystemPrompt, when set, takes
// precedence over an inline system-role message.
type CompletionRequest struct {
	Model        string
	Messages     []Message
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
}

func (r CompletionRequest) withDefaults() CompletionRequest {
	if r.MaxTokens <= 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	if r.Temperature <= 0 {
		r.Temperature = DefaultTemperature
	}
	return r
}

// splitSystem returns the effective system prompt and the chat messages with
// system-role entries removed. The explicit SystemPrompt field wins over an
// inline system message when both are present.
func splitSystem(req CompletionRequest) (string, []Message) {
	system := req.SystemPrompt
	chat := make([]Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			if system == "" {
				system = m.Content
			}
			continue
		}
		chat = append(chat, m)
	}
	return system, chat
}

// Usage carries the token counters of a completion. Absent counters are zero.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// CompletionResult is the uniform outcome of a completion call.
type CompletionResult struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// StreamHandler receives incremental content chunks during streaming.
type StreamHandler func(chunk string)

// Provider is the closed interface every AI backend implements. TestConnection
// swallows the underlying error on purpose: callers only need the verdict.
type Provider interface {
	Name() string
	TestConnection(ctx context.Context) bool
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
	StreamComplete(ctx context.Context, req CompletionRequest, onChunk StreamHandler) (*CompletionResult, error)
}

// ProviderError is the typed failure of a gateway call.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Code)
}

// apiErrorBody is the error envelope most providers return.
type apiErrorBody struct {
	Error struct {
		Message string          `json:"message"`
		Type    string          `json:"type"`
		Code    json.RawMessage `json:"code"`
	} `json:"error"`
}

// asProviderError normalizes connector failures into ProviderError. The error
// body is parsed best-effort; an unparseable body keeps the raw status line.
func asProviderError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) {
		code := "api_error"
		message := fmt.Sprintf("API 请求失败: %d", httpErr.StatusCode)

		var body apiErrorBody
		if jsonErr := json.Unmarshal([]byte(httpErr.Message), &body); jsonErr == nil {
			if body.Error.Message != "" {
				message = body.Error.Message
			}
			if body.Error.Type != "" {
				code = body.Error.Type
			} else if len(body.Error.Code) > 0 {
				code = string(body.Error.Code)
			}
		}

		return &ProviderError{Provider: provider, Code: code, Message: message}
	}

	var netErr *pkghttp.NetworkError
	if errors.As(err, &netErr) {
		return &ProviderError{Provider: provider, Code: "network_error", Message: netErr.Error()}
	}

	return fmt.Errorf("%s request failed: %w", provider, err)
}

// testCompletion issues the minimal probe request used by TestConnection.
func testCompletion(ctx context.Context, p Provider, model string) bool {
	_, err := p.Complete(ctx, CompletionRequest{
		Model:     model,
		Messages:  []Message{{Role: RoleUser, Content: "Hi"}},
		MaxTokens: 10,
	})
	return err == nil
}
