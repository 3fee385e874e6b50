package ai

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	pkghttp "github.com/promptweaver/prompt-backend/pkg/http"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com/v1"
	anthropicAPIVersion     = "2023-06-01"
	anthropicTestModel      = "claude-3-haiku-20240307"
)

// AnthropicProvider talks to the Anthropic Messages API.
type AnthropicProvider struct {
	connector *pkghttp.Connector
	apiKey    string
	logger    *zap.Logger
}

func NewAnthropicProvider(apiKey, baseURL string, logger *zap.Logger) *AnthropicProvider {
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}
	return &AnthropicProvider{
		connector: newProviderConnector(baseURL, logger),
		apiKey:    apiKey,
		logger:    logger,
	}
}

func (p *AnthropicProvider) Name() string { return "Anthropic" }

func (p *AnthropicProvider) TestConnection(ctx context.Context) bool {
	return testCompletion(ctx, p, anthropicTestModel)
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage anthropicUsage `json:"usage"`
}

func (p *AnthropicProvider) buildRequest(req CompletionRequest, stream bool) anthropicRequest {
	req = req.withDefaults()
	system, chat := splitSystem(req)

	messages := make([]anthropicMessage, 0, len(chat))
	for _, m := range chat {
		messages = append(messages, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}

	return anthropicRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		System:      system,
		Stream:      stream,
	}
}

func (p *AnthropicProvider) headers() []pkghttp.RequestOpt {
	return []pkghttp.RequestOpt{
		pkghttp.WithHeader("x-api-key", p.apiKey),
		pkghttp.WithHeader("anthropic-version", anthropicAPIVersion),
	}
}

func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	ctxzap.Debug(ctx, "anthropic completion", zap.String("model", req.Model))

	var resp anthropicResponse
	err := p.connector.DoRequest(ctx, http.MethodPost, "/messages", p.buildRequest(req, false), &resp, p.headers()...)
	if err != nil {
		return nil, asProviderError("anthropic", err)
	}

	var content string
	if len(resp.Content) > 0 {
		content = resp.Content[0].Text
	}

	return &CompletionResult{
		Content: content,
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}

// anthropicStreamEvent covers the event subset the stream consumer needs:
// message_start (input tokens), content_block_delta (text), message_delta
// (output tokens).
type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Text string `json:"text"`
	} `json:"delta"`
	Usage   anthropicUsage `json:"usage"`
	Message struct {
		Usage anthropicUsage `json:"usage"`
	} `json:"message"`
}

func (p *AnthropicProvider) StreamComplete(ctx context.Context, req CompletionRequest, onChunk StreamHandler) (*CompletionResult, error) {
	ctxzap.Debug(ctx, "anthropic stream completion", zap.String("model", req.Model))

	body, err := p.connector.DoStream(ctx, http.MethodPost, "/messages", p.buildRequest(req, true), p.headers()...)
	if err != nil {
		return nil, asProviderError("anthropic", err)
	}

	result := &CompletionResult{}
	err = consumeSSE(body, func(data string) {
		var event anthropicStreamEvent
		if jsonErr := json.Unmarshal([]byte(data), &event); jsonErr != nil {
			return
		}
		switch event.Type {
		case "message_start":
			result.Usage.InputTokens = event.Message.Usage.InputTokens
		case "content_block_delta":
			if event.Delta.Text != "" {
				result.Content += event.Delta.Text
				onChunk(event.Delta.Text)
			}
		case "message_delta":
			if event.Usage.OutputTokens > 0 {
				result.Usage.OutputTokens = event.Usage.OutputTokens
			}
		}
	})
	if err != nil {
		return nil, &ProviderError{Provider: "anthropic", Code: "stream_error", Message: err.Error()}
	}

	return result, nil
}
