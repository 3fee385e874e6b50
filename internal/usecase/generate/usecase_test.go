package generate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/integration/ai"
	"github.com/promptweaver/prompt-backend/internal/prompt"
)

// memStore is a map-backed SessionStore with value-copy semantics.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]entity.GenerationSession
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]entity.GenerationSession)}
}

func (s *memStore) Get(_ context.Context, id string) (*entity.GenerationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	copied := session
	return &copied, nil
}

func (s *memStore) Save(_ context.Context, session *entity.GenerationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// scriptProvider replays canned completions in order.
type scriptProvider struct {
	responses []string
	err       error
	requests  []ai.CompletionRequest
}

func (p *scriptProvider) Name() string                        { return "Script" }
func (p *scriptProvider) TestConnection(context.Context) bool { return p.err == nil }

func (p *scriptProvider) Complete(_ context.Context, req ai.CompletionRequest) (*ai.CompletionResult, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.responses) == 0 {
		return &ai.CompletionResult{}, nil
	}
	content := p.responses[0]
	p.responses = p.responses[1:]
	return &ai.CompletionResult{Content: content}, nil
}

func (p *scriptProvider) StreamComplete(ctx context.Context, req ai.CompletionRequest, onChunk ai.StreamHandler) (*ai.CompletionResult, error) {
	result, err := p.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	onChunk(result.Content)
	return result, nil
}

// blockingProvider parks Complete until released, signalling entry so tests
// can observe an in-flight gateway call.
type blockingProvider struct {
	entered  chan struct{}
	release  chan struct{}
	response string
}

func (p *blockingProvider) Name() string                        { return "Blocking" }
func (p *blockingProvider) TestConnection(context.Context) bool { return true }

func (p *blockingProvider) Complete(context.Context, ai.CompletionRequest) (*ai.CompletionResult, error) {
	p.entered <- struct{}{}
	<-p.release
	return &ai.CompletionResult{Content: p.response}, nil
}

func (p *blockingProvider) StreamComplete(ctx context.Context, req ai.CompletionRequest, onChunk ai.StreamHandler) (*ai.CompletionResult, error) {
	result, err := p.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	onChunk(result.Content)
	return result, nil
}

type panicProvider struct{}

func (p *panicProvider) Name() string                        { return "Panic" }
func (p *panicProvider) TestConnection(context.Context) bool { return true }

func (p *panicProvider) Complete(context.Context, ai.CompletionRequest) (*ai.CompletionResult, error) {
	panic("provider blew up")
}

func (p *panicProvider) StreamComplete(context.Context, ai.CompletionRequest, ai.StreamHandler) (*ai.CompletionResult, error) {
	panic("provider blew up")
}

type fakeSource struct {
	provider ai.Provider
	cfg      *entity.ModelConfig
}

func (s *fakeSource) DefaultProvider(context.Context) (ai.Provider, *entity.ModelConfig, error) {
	if s.provider == nil {
		return nil, nil, entity.ErrAINotConfigured
	}
	return s.provider, s.cfg, nil
}

func newTestUsecase(provider ai.Provider) (*GenerateUsecase, *memStore) {
	store := newMemStore()
	source := &fakeSource{provider: provider}
	if provider != nil {
		source.cfg = &entity.ModelConfig{ID: "cfg-1", Provider: entity.ProviderAnthropic, ModelID: "claude-3-5-sonnet-20241022"}
	}
	return NewUsecase(store, source, zap.NewNop()), store
}

const researchDescription = "我需要一个能够分析学术论文、提供代码优化建议的科研助手"

const researchAnalysisJSON = `{
	"roleIdentification": "科研助手",
	"roleDescription": "精通学术论文分析与代码优化",
	"taskGoals": ["分析学术论文", "提供代码优化建议"],
	"recommendedTemplates": ["模板 E (深度推理型)"],
	"suggestedTags": ["role", "task", "instructions"]
}`

const researchSynthesisJSON = `{
	"role": "你是一位科研助手，精通学术论文分析与代码优化。",
	"task": "你的任务是帮助用户完成以下目标：\n- 分析学术论文\n- 提供代码优化建议",
	"instructions": "1. 阅读论文摘要与正文\n2. 提炼核心论点\n3. 审查配套代码并给出优化建议"
}`

func TestEndToEndResearchAssistant(t *testing.T) {
	provider := &scriptProvider{responses: []string{researchAnalysisJSON, researchSynthesisJSON}}
	uc, _ := newTestUsecase(provider)
	ctx := context.Background()

	session, err := uc.StartSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.StepInput, session.CurrentStep)

	session, err = uc.SubmitDescription(ctx, session.ID, researchDescription)
	require.NoError(t, err)
	assert.Equal(t, entity.StepAnalysis, session.CurrentStep)

	session, err = uc.Analyze(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, session.Analysis)
	assert.Equal(t, "科研助手", session.Analysis.RoleIdentification)
	assert.Equal(t, []prompt.Tag{prompt.TagRole, prompt.TagTask, prompt.TagInstructions}, session.Adjustments.EnabledTags)
	assert.False(t, session.IsGenerating)
	assert.Nil(t, session.Error)

	session, err = uc.AcceptAnalysis(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StepAdjustment, session.CurrentStep)
	assert.Equal(t, "你是一位科研助手，精通学术论文分析与代码优化。", session.Adjustments.Generated[prompt.TagRole])

	session, err = uc.AssembleResult(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StepResult, session.CurrentStep)
	require.NotNil(t, session.Result)

	cli := session.Result.CliText
	// exactly three blocks, canonical order, wrapping the stubbed strings
	assert.Equal(t, 3, strings.Count(cli, "</"))
	roleIdx := strings.Index(cli, "<role>")
	taskIdx := strings.Index(cli, "<task>")
	instrIdx := strings.Index(cli, "<instructions>")
	require.True(t, roleIdx >= 0 && taskIdx > roleIdx && instrIdx > taskIdx)
	assert.Contains(t, cli, "<role>\n你是一位科研助手，精通学术论文分析与代码优化。\n</role>")
	assert.Contains(t, cli, "<task>\n你的任务是帮助用户完成以下目标：\n- 分析学术论文\n- 提供代码优化建议\n</task>")
	assert.Contains(t, cli, "1. 阅读论文摘要与正文")

	web := session.Result.WebText
	assert.Contains(t, web, "目的与目标：")
	assert.Contains(t, web, "行为准则：")
	assert.NotContains(t, web, "<role>")
	assert.NotContains(t, web, "</")
}

func TestSubmitDescriptionTooShort(t *testing.T) {
	uc, _ := newTestUsecase(&scriptProvider{})
	ctx := context.Background()

	session, err := uc.StartSession(ctx)
	require.NoError(t, err)

	_, err = uc.SubmitDescription(ctx, session.ID, "太短")
	assert.ErrorIs(t, err, entity.ErrDescriptionTooShort)

	// nine runes still fail, ten pass
	_, err = uc.SubmitDescription(ctx, session.ID, strings.Repeat("字", 9))
	assert.ErrorIs(t, err, entity.ErrDescriptionTooShort)
	_, err = uc.SubmitDescription(ctx, session.ID, strings.Repeat("字", 10))
	assert.NoError(t, err)
}

func TestAnalyzeWithoutConfiguredAI(t *testing.T) {
	uc, _ := newTestUsecase(nil)
	ctx := context.Background()

	session, err := uc.StartSession(ctx)
	require.NoError(t, err)
	_, err = uc.SubmitDescription(ctx, session.ID, researchDescription)
	require.NoError(t, err)

	_, err = uc.Analyze(ctx, session.ID)
	assert.ErrorIs(t, err, entity.ErrAINotConfigured)
}

func TestGatewayFailureRecordedInSession(t *testing.T) {
	provider := &scriptProvider{err: errors.New("upstream exploded")}
	uc, store := newTestUsecase(provider)
	ctx := context.Background()

	session, err := uc.StartSession(ctx)
	require.NoError(t, err)
	_, err = uc.SubmitDescription(ctx, session.ID, researchDescription)
	require.NoError(t, err)

	_, err = uc.Analyze(ctx, session.ID)
	require.Error(t, err)

	stored, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Error)
	assert.Contains(t, *stored.Error, "upstream exploded")
	// the step is left unchanged so the user can retry
	assert.Equal(t, entity.StepAnalysis, stored.CurrentStep)
	assert.False(t, stored.IsGenerating)
}

func TestSessionBusyGuard(t *testing.T) {
	uc, store := newTestUsecase(&scriptProvider{responses: []string{researchAnalysisJSON}})
	ctx := context.Background()

	session, err := uc.StartSession(ctx)
	require.NoError(t, err)
	_, err = uc.SubmitDescription(ctx, session.ID, researchDescription)
	require.NoError(t, err)

	busy, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	busy.IsGenerating = true
	require.NoError(t, store.Save(ctx, busy))

	_, err = uc.Analyze(ctx, session.ID)
	assert.ErrorIs(t, err, entity.ErrSessionBusy)
}

func TestConcurrentGatewayCallsSerialized(t *testing.T) {
	provider := &blockingProvider{
		entered:  make(chan struct{}, 1),
		release:  make(chan struct{}),
		response: researchAnalysisJSON,
	}
	uc, store := newTestUsecase(provider)
	ctx := context.Background()

	session, err := uc.StartSession(ctx)
	require.NoError(t, err)
	_, err = uc.SubmitDescription(ctx, session.ID, researchDescription)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, analyzeErr := uc.Analyze(ctx, session.ID)
		done <- analyzeErr
	}()
	<-provider.entered

	// a second gateway call and a mutation are both rejected mid-flight
	_, err = uc.Analyze(ctx, session.ID)
	assert.ErrorIs(t, err, entity.ErrSessionBusy)
	_, err = uc.ToggleTag(ctx, session.ID, prompt.TagContext)
	assert.ErrorIs(t, err, entity.ErrSessionBusy)

	close(provider.release)
	require.NoError(t, <-done)

	stored, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsGenerating)
	require.NotNil(t, stored.Analysis)

	// the rejected toggle left the enabled set untouched
	assert.Equal(t, []prompt.Tag{prompt.TagRole, prompt.TagTask, prompt.TagInstructions}, stored.Adjustments.EnabledTags)
}

func TestBusyFlagClearsAfterPanic(t *testing.T) {
	uc, store := newTestUsecase(&panicProvider{})
	ctx := context.Background()

	session, err := uc.StartSession(ctx)
	require.NoError(t, err)
	_, err = uc.SubmitDescription(ctx, session.ID, researchDescription)
	require.NoError(t, err)

	require.Panics(t, func() { _, _ = uc.Analyze(ctx, session.ID) })

	stored, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsGenerating)

	// the session is immediately usable again
	_, err = uc.ToggleTag(ctx, session.ID, prompt.TagContext)
	require.NoError(t, err)
}

func TestParseFailureKeepsStep(t *testing.T) {
	provider := &scriptProvider{responses: []string{"这不是 JSON"}}
	uc, store := newTestUsecase(provider)
	ctx := context.Background()

	session, err := uc.StartSession(ctx)
	require.NoError(t, err)
	_, err = uc.SubmitDescription(ctx, session.ID, researchDescription)
	require.NoError(t, err)

	_, err = uc.Analyze(ctx, session.ID)
	assert.ErrorIs(t, err, entity.ErrResponseParse)

	stored, _ := store.Get(ctx, session.ID)
	assert.Equal(t, entity.StepAnalysis, stored.CurrentStep)
	assert.Nil(t, stored.Analysis)
}

func TestTagAdjustments(t *testing.T) {
	provider := &scriptProvider{responses: []string{researchAnalysisJSON, researchSynthesisJSON}}
	uc, _ := newTestUsecase(provider)
	ctx := context.Background()

	session, err := uc.StartSession(ctx)
	require.NoError(t, err)
	_, err = uc.SubmitDescription(ctx, session.ID, researchDescription)
	require.NoError(t, err)
	_, err = uc.Analyze(ctx, session.ID)
	require.NoError(t, err)
	_, err = uc.AcceptAnalysis(ctx, session.ID)
	require.NoError(t, err)

	// toggle removes an enabled tag, toggling again re-adds it
	session, err = uc.ToggleTag(ctx, session.ID, prompt.TagTask)
	require.NoError(t, err)
	assert.NotContains(t, session.Adjustments.EnabledTags, prompt.TagTask)
	session, err = uc.ToggleTag(ctx, session.ID, prompt.TagTask)
	require.NoError(t, err)
	assert.Contains(t, session.Adjustments.EnabledTags, prompt.TagTask)

	session, err = uc.EditTagContent(ctx, session.ID, prompt.TagRole, "我的自定义角色")
	require.NoError(t, err)
	assert.Equal(t, "我的自定义角色", session.Adjustments.Custom[prompt.TagRole])
	// generated content stays untouched
	assert.Equal(t, "你是一位科研助手，精通学术论文分析与代码优化。", session.Adjustments.Generated[prompt.TagRole])

	session, err = uc.ResetTagContent(ctx, session.ID, prompt.TagRole)
	require.NoError(t, err)
	assert.Equal(t, session.Adjustments.Generated[prompt.TagRole], session.Adjustments.Custom[prompt.TagRole])

	_, err = uc.SetLanguage(ctx, session.ID, prompt.LanguageEN)
	require.NoError(t, err)
	_, err = uc.SetLanguage(ctx, session.ID, "fr")
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)

	session, err = uc.SetOutputStyle(ctx, session.ID, prompt.StyleAcademic)
	require.NoError(t, err)
	assert.Equal(t, prompt.StyleAcademic, session.Adjustments.OutputStyle)
}

func TestPolishTagOverwritesGenerated(t *testing.T) {
	provider := &scriptProvider{responses: []string{
		researchAnalysisJSON,
		researchSynthesisJSON,
		"润色后的角色定义内容",
	}}
	uc, _ := newTestUsecase(provider)
	ctx := context.Background()

	session, err := uc.StartSession(ctx)
	require.NoError(t, err)
	_, err = uc.SubmitDescription(ctx, session.ID, researchDescription)
	require.NoError(t, err)
	_, err = uc.Analyze(ctx, session.ID)
	require.NoError(t, err)
	_, err = uc.AcceptAnalysis(ctx, session.ID)
	require.NoError(t, err)

	_, err = uc.EditTagContent(ctx, session.ID, prompt.TagRole, "手工编辑过的内容")
	require.NoError(t, err)

	session, err = uc.PolishTag(ctx, session.ID, prompt.TagRole)
	require.NoError(t, err)
	assert.Equal(t, "润色后的角色定义内容", session.Adjustments.Generated[prompt.TagRole])
	// the override is dropped so the polished text actually resolves
	assert.NotContains(t, session.Adjustments.Custom, prompt.TagRole)

	// the polish request carried the user override as the current content
	lastReq := provider.requests[len(provider.requests)-1]
	assert.Contains(t, lastReq.Messages[0].Content, "手工编辑过的内容")
}

func TestQualityCheckAndPolish(t *testing.T) {
	failingQuality := `{
		"passed": false,
		"score": 60,
		"issues": [
			{"category": "structure", "severity": "error", "tag": "role", "message": "角色定义太弱", "fix": "补充专业背景"},
			{"category": "usability", "severity": "suggestion", "message": "可以更简洁"}
		],
		"summary": "需要修订"
	}`
	revisedJSON := `{"role": "修订后的角色定义", "task": ""}`

	provider := &scriptProvider{responses: []string{
		researchAnalysisJSON,
		researchSynthesisJSON,
		failingQuality,
		revisedJSON,
	}}
	uc, _ := newTestUsecase(provider)
	ctx := context.Background()

	session, err := uc.StartSession(ctx)
	require.NoError(t, err)
	_, err = uc.SubmitDescription(ctx, session.ID, researchDescription)
	require.NoError(t, err)
	_, err = uc.Analyze(ctx, session.ID)
	require.NoError(t, err)
	_, err = uc.AcceptAnalysis(ctx, session.ID)
	require.NoError(t, err)
	originalTask := "你的任务是帮助用户完成以下目标：\n- 分析学术论文\n- 提供代码优化建议"
	_, err = uc.AssembleResult(ctx, session.ID)
	require.NoError(t, err)

	session, err = uc.QualityCheck(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, session.Quality)
	assert.False(t, session.Quality.Passed)
	assert.Equal(t, 60, session.Quality.Score)

	session, err = uc.PolishByQualityCheck(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "修订后的角色定义", session.Adjustments.Generated[prompt.TagRole])
	// empty revisions are ignored
	assert.Equal(t, originalTask, session.Adjustments.Generated[prompt.TagTask])
	// the result is refreshed with the revised content
	assert.Contains(t, session.Result.CliText, "修订后的角色定义")

	// suggestion-severity issues are excluded from the revision request
	polishReq := provider.requests[len(provider.requests)-1]
	assert.Contains(t, polishReq.Messages[0].Content, "角色定义太弱")
	assert.NotContains(t, polishReq.Messages[0].Content, "可以更简洁")
}

func TestPolishByQualityCheckNoOpWhenPassed(t *testing.T) {
	passingQuality := `{"passed": true, "score": 95, "issues": [], "summary": "很好"}`
	provider := &scriptProvider{responses: []string{
		researchAnalysisJSON,
		researchSynthesisJSON,
		passingQuality,
	}}
	uc, _ := newTestUsecase(provider)
	ctx := context.Background()

	session, err := uc.StartSession(ctx)
	require.NoError(t, err)
	_, err = uc.SubmitDescription(ctx, session.ID, researchDescription)
	require.NoError(t, err)
	_, err = uc.Analyze(ctx, session.ID)
	require.NoError(t, err)
	_, err = uc.AcceptAnalysis(ctx, session.ID)
	require.NoError(t, err)
	_, err = uc.AssembleResult(ctx, session.ID)
	require.NoError(t, err)
	_, err = uc.QualityCheck(ctx, session.ID)
	require.NoError(t, err)

	callsBefore := len(provider.requests)
	session, err = uc.PolishByQualityCheck(ctx, session.ID)
	require.NoError(t, err)
	// identity transition: no extra gateway call, content untouched
	assert.Equal(t, callsBefore, len(provider.requests))
	assert.Equal(t, "你是一位科研助手，精通学术论文分析与代码优化。", session.Adjustments.Generated[prompt.TagRole])
}

func TestResetSession(t *testing.T) {
	provider := &scriptProvider{responses: []string{researchAnalysisJSON}}
	uc, _ := newTestUsecase(provider)
	ctx := context.Background()

	session, err := uc.StartSession(ctx)
	require.NoError(t, err)
	_, err = uc.SubmitDescription(ctx, session.ID, researchDescription)
	require.NoError(t, err)
	_, err = uc.Analyze(ctx, session.ID)
	require.NoError(t, err)

	session, err = uc.ResetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StepInput, session.CurrentStep)
	assert.Empty(t, session.Description)
	assert.Nil(t, session.Analysis)
	assert.Nil(t, session.Result)
	assert.Equal(t, prompt.NewSectionSet().EnabledTags, session.Adjustments.EnabledTags)
}

func TestGetSessionNotFound(t *testing.T) {
	uc, _ := newTestUsecase(&scriptProvider{})
	_, err := uc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}
