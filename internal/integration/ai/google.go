package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	pkghttp "github.com/promptweaver/prompt-backend/pkg/http"
)

const (
	googleDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	googleTestModel      = "gemini-2.0-flash"
)

// GoogleProvider talks to the Gemini generateContent API.
type GoogleProvider struct {
	connector *pkghttp.Connector
	apiKey    string
	logger    *zap.Logger
}

func NewGoogleProvider(apiKey, baseURL string, logger *zap.Logger) *GoogleProvider {
	if baseURL == "" {
		baseURL = googleDefaultBaseURL
	}
	return &GoogleProvider{
		connector: newProviderConnector(baseURL, logger),
		apiKey:    apiKey,
		logger:    logger,
	}
}

func (p *GoogleProvider) Name() string { return "Google" }

func (p *GoogleProvider) TestConnection(ctx context.Context) bool {
	return testCompletion(ctx, p, googleTestModel)
}

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googleRequest struct {
	Contents          []googleContent `json:"contents"`
	SystemInstruction *googleContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		MaxOutputTokens int     `json:"maxOutputTokens"`
		Temperature     float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type googleUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

type googleResponse struct {
	Candidates []struct {
		Content struct {
			Parts []googlePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata googleUsageMetadata `json:"usageMetadata"`
}

func (p *GoogleProvider) buildRequest(req CompletionRequest) googleRequest {
	req = req.withDefaults()
	system, chat := splitSystem(req)

	var out googleRequest
	out.GenerationConfig.MaxOutputTokens = req.MaxTokens
	out.GenerationConfig.Temperature = req.Temperature

	if system != "" {
		out.SystemInstruction = &googleContent{Parts: []googlePart{{Text: system}}}
	}

	for _, m := range chat {
		// Gemini names the assistant side "model"
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		out.Contents = append(out.Contents, googleContent{
			Role:  role,
			Parts: []googlePart{{Text: m.Content}},
		})
	}

	return out
}

func (p *GoogleProvider) apiKeyHeader() pkghttp.RequestOpt {
	return pkghttp.WithHeader("x-goog-api-key", p.apiKey)
}

func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	ctxzap.Debug(ctx, "google completion", zap.String("model", req.Model))

	endpoint := fmt.Sprintf("/models/%s:generateContent", req.Model)

	var resp googleResponse
	err := p.connector.DoRequest(ctx, http.MethodPost, endpoint, p.buildRequest(req), &resp, p.apiKeyHeader())
	if err != nil {
		return nil, asProviderError("google", err)
	}

	var content string
	if len(resp.Candidates) > 0 && len(resp.Candidates[0].Content.Parts) > 0 {
		content = resp.Candidates[0].Content.Parts[0].Text
	}

	return &CompletionResult{
		Content: content,
		Usage: Usage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		},
	}, nil
}

func (p *GoogleProvider) StreamComplete(ctx context.Context, req CompletionRequest, onChunk StreamHandler) (*CompletionResult, error) {
	ctxzap.Debug(ctx, "google stream completion", zap.String("model", req.Model))

	endpoint := fmt.Sprintf("/models/%s:streamGenerateContent?alt=sse", req.Model)

	body, err := p.connector.DoStream(ctx, http.MethodPost, endpoint, p.buildRequest(req), p.apiKeyHeader())
	if err != nil {
		return nil, asProviderError("google", err)
	}

	result := &CompletionResult{}
	err = consumeSSE(body, func(data string) {
		var chunk googleResponse
		if jsonErr := json.Unmarshal([]byte(data), &chunk); jsonErr != nil {
			return
		}
		if len(chunk.Candidates) > 0 && len(chunk.Candidates[0].Content.Parts) > 0 {
			text := chunk.Candidates[0].Content.Parts[0].Text
			if text != "" {
				result.Content += text
				onChunk(text)
			}
		}
		if chunk.UsageMetadata.PromptTokenCount > 0 {
			result.Usage.InputTokens = chunk.UsageMetadata.PromptTokenCount
		}
		if chunk.UsageMetadata.CandidatesTokenCount > 0 {
			result.Usage.OutputTokens = chunk.UsageMetadata.CandidatesTokenCount
		}
	})
	if err != nil {
		return nil, &ProviderError{Provider: "google", Code: "stream_error", Message: err.Error()}
	}

	return result, nil
}
