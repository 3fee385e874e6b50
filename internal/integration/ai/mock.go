package ai

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockProvider serves deterministic completions for local development without
// a configured API key. Responses are picked by the schema keywords the
// pipeline embeds in its system prompts, so every wizard step works offline.
type MockProvider struct {
	logger *zap.Logger
}

func NewMockProvider(logger *zap.Logger) *MockProvider {
	return &MockProvider{logger: logger}
}

func (m *MockProvider) Name() string { return "Mock" }

func (m *MockProvider) TestConnection(ctx context.Context) bool {
	ctxzap.Info(ctx, "[MOCK] connection test")
	return true
}

const mockAnalysisJSON = `{
  "roleIdentification": "全栈开发专家",
  "roleDescription": "精通前后端技术栈，擅长系统设计与代码审查",
  "taskGoals": ["理解用户的核心需求", "设计清晰的解决方案", "输出结构化的实现建议"],
  "recommendedTemplates": ["模板 C (代码/技术任务型)"],
  "suggestedTags": ["role", "task", "instructions", "output_format", "constraints"]
}`

const mockTagContentsJSON = `{
  "role": "你是一位全栈开发专家，精通前后端技术栈，擅长系统设计与代码审查。\n你以专业、严谨的风格进行沟通，客观分析，逻辑清晰。",
  "task": "你的任务是帮助用户完成以下目标：\n- 理解用户的核心需求\n- 设计清晰的解决方案\n- 输出结构化的实现建议",
  "instructions": "1. 仔细阅读用户的需求描述\n2. 分析技术可行性并指出潜在风险\n3. 给出分步骤的实现方案\n4. 如有多种方案，对比优劣后给出推荐",
  "output_format": "- 使用 Markdown 格式进行排版\n- 代码使用代码块包裹\n- 方案对比使用表格呈现",
  "constraints": "- 使用简体中文回复\n- 保持专业、严谨的沟通风格\n- 回答必须基于事实，如不确定请明确说明"
}`

const mockQualityJSON = `{
  "passed": true,
  "score": 92,
  "issues": [],
  "summary": "提示词结构完整，各标签职责清晰，符合最佳实践。"
}`

const mockPolishedText = `你是一位经验丰富的全栈开发专家，精通现代前后端技术栈，擅长系统架构设计与代码质量审查。
你以专业、严谨的风格进行沟通，分析客观、逻辑清晰，能够将复杂的技术问题拆解为可执行的步骤。`

// pick dispatches on schema markers present in the pipeline system prompts.
func (m *MockProvider) pick(req CompletionRequest) string {
	system := req.SystemPrompt
	switch {
	case strings.Contains(system, "roleIdentification"):
		return mockAnalysisJSON
	case strings.Contains(system, `"passed"`):
		return mockQualityJSON
	case strings.Contains(system, "键为标签名"):
		return mockTagContentsJSON
	default:
		return mockPolishedText
	}
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	ctxzap.Info(ctx, "[MOCK] completion", zap.String("model", req.Model))

	content := m.pick(req)
	return &CompletionResult{
		Content: content,
		Usage:   Usage{InputTokens: 128, OutputTokens: len(content) / 4},
	}, nil
}

func (m *MockProvider) StreamComplete(ctx context.Context, req CompletionRequest, onChunk StreamHandler) (*CompletionResult, error) {
	ctxzap.Info(ctx, "[MOCK] stream completion", zap.String("model", req.Model))

	result, err := m.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	// emit in a few rune-aligned chunks so streaming consumers get exercised
	const chunkSize = 48
	runes := []rune(result.Content)
	for len(runes) > 0 {
		n := chunkSize
		if n > len(runes) {
			n = len(runes)
		}
		onChunk(string(runes[:n]))
		runes = runes[n:]
	}

	return result, nil
}
