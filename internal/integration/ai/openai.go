package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	pkghttp "github.com/promptweaver/prompt-backend/pkg/http"
)

const (
	openAIDefaultBaseURL   = "https://api.openai.com/v1"
	deepSeekDefaultBaseURL = "https://api.deepseek.com/v1"

	openAITestModel   = "gpt-4o-mini"
	deepSeekTestModel = "deepseek-chat"
)

// endpoint suffixes users tend to paste along with the base URL
var openAIEndpointSuffixes = []string{
	"/chat/completions",
	"/completions",
	"/embeddings",
	"/models",
}

// normalizeOpenAIBaseURL strips trailing slashes and accidentally included
// endpoint paths so the connector can append endpoints cleanly.
func normalizeOpenAIBaseURL(baseURL string) string {
	clean := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	for _, suffix := range openAIEndpointSuffixes {
		if strings.HasSuffix(clean, suffix) {
			clean = clean[:len(clean)-len(suffix)]
			break
		}
	}
	return clean
}

// OpenAIProvider talks to the OpenAI chat-completions API. It also serves any
// OpenAI-compatible backend (DeepSeek, Ollama, LM Studio, vLLM) under a
// different display name and base URL.
type OpenAIProvider struct {
	name      string
	connector *pkghttp.Connector
	testModel string
	logger    *zap.Logger
}

func NewOpenAIProvider(apiKey, baseURL string, logger *zap.Logger) *OpenAIProvider {
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	return newOpenAICompatible("OpenAI", apiKey, baseURL, openAITestModel, logger)
}

func NewDeepSeekProvider(apiKey, baseURL string, logger *zap.Logger) *OpenAIProvider {
	if baseURL == "" {
		baseURL = deepSeekDefaultBaseURL
	}
	return newOpenAICompatible("DeepSeek", apiKey, baseURL, deepSeekTestModel, logger)
}

// NewCustomProvider serves user-supplied OpenAI-compatible endpoints. The test
// model is whatever model the config carries; there is no sensible default.
func NewCustomProvider(apiKey, baseURL, testModel string, logger *zap.Logger) *OpenAIProvider {
	return newOpenAICompatible("Custom", apiKey, baseURL, testModel, logger)
}

func newOpenAICompatible(name, apiKey, baseURL, testModel string, logger *zap.Logger) *OpenAIProvider {
	return &OpenAIProvider{
		name: name,
		connector: newProviderConnector(normalizeOpenAIBaseURL(baseURL), logger,
			pkghttp.WithAuthToken(apiKey)),
		testModel: testModel,
		logger:    logger,
	}
}

func (p *OpenAIProvider) Name() string { return p.name }

func (p *OpenAIProvider) TestConnection(ctx context.Context) bool {
	return testCompletion(ctx, p, p.testModel)
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	Stream      bool            `json:"stream,omitempty"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage openAIUsage `json:"usage"`
}

func (p *OpenAIProvider) buildRequest(req CompletionRequest, stream bool) openAIRequest {
	req = req.withDefaults()
	system, chat := splitSystem(req)

	messages := make([]openAIMessage, 0, len(chat)+1)
	if system != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: system})
	}
	for _, m := range chat {
		messages = append(messages, openAIMessage{Role: string(m.Role), Content: m.Content})
	}

	return openAIRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	}
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	ctxzap.Debug(ctx, "openai-compatible completion",
		zap.String("provider", p.name), zap.String("model", req.Model))

	var resp openAIResponse
	err := p.connector.DoRequest(ctx, http.MethodPost, "/chat/completions", p.buildRequest(req, false), &resp)
	if err != nil {
		return nil, asProviderError(strings.ToLower(p.name), err)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &CompletionResult{
		Content: content,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

type openAIStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *openAIUsage `json:"usage"`
}

func (p *OpenAIProvider) StreamComplete(ctx context.Context, req CompletionRequest, onChunk StreamHandler) (*CompletionResult, error) {
	ctxzap.Debug(ctx, "openai-compatible stream completion",
		zap.String("provider", p.name), zap.String("model", req.Model))

	body, err := p.connector.DoStream(ctx, http.MethodPost, "/chat/completions", p.buildRequest(req, true))
	if err != nil {
		return nil, asProviderError(strings.ToLower(p.name), err)
	}

	result := &CompletionResult{}
	err = consumeSSE(body, func(data string) {
		var chunk openAIStreamChunk
		if jsonErr := json.Unmarshal([]byte(data), &chunk); jsonErr != nil {
			return
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			result.Content += chunk.Choices[0].Delta.Content
			onChunk(chunk.Choices[0].Delta.Content)
		}
		// some implementations report usage only on the final chunk
		if chunk.Usage != nil {
			result.Usage.InputTokens = chunk.Usage.PromptTokens
			result.Usage.OutputTokens = chunk.Usage.CompletionTokens
		}
	})
	if err != nil {
		return nil, &ProviderError{Provider: strings.ToLower(p.name), Code: "stream_error", Message: err.Error()}
	}

	return result, nil
}
