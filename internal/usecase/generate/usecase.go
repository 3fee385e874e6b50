package generate

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/integration/ai"
	"github.com/promptweaver/prompt-backend/internal/prompt"
)

const minDescriptionRunes = 10

// token budgets per pipeline step
const (
	analysisMaxTokens  = 1000
	synthesisMaxTokens = 4000
	polishMaxTokens    = 2000
	qualityMaxTokens   = 2000
)

// polishByQualityCheck is skipped above this score when the check passed
const qualityPassScore = 90

// GenerateUsecase drives the four-step prompt wizard. Sessions are transient;
// each step mutates the stored session value and returns the updated copy.
// The mutex serializes every read-modify-write against the store so the
// busy-flag check-then-set holds under concurrent HTTP requests.
type GenerateUsecase struct {
	sessions  SessionStore
	providers ProviderSource
	logger    *zap.Logger
	mu        sync.Mutex
}

func NewUsecase(sessions SessionStore, providers ProviderSource, logger *zap.Logger) *GenerateUsecase {
	return &GenerateUsecase{
		sessions:  sessions,
		providers: providers,
		logger:    logger,
	}
}

// StartSession creates a fresh wizard session at step 1.
func (uc *GenerateUsecase) StartSession(ctx context.Context) (*entity.GenerationSession, error) {
	now := time.Now()
	session := &entity.GenerationSession{
		ID:          uuid.New().String(),
		CurrentStep: entity.StepInput,
		Adjustments: prompt.NewSectionSet(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	ctxzap.Info(ctx, "generation session started", zap.String("session_id", session.ID))
	return session, nil
}

// GetSession returns the current session state.
func (uc *GenerateUsecase) GetSession(ctx context.Context, sessionID string) (*entity.GenerationSession, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ResetSession returns the session to step 1, dropping all accumulated state
// but keeping the identifier.
func (uc *GenerateUsecase) ResetSession(ctx context.Context, sessionID string) (*entity.GenerationSession, error) {
	return uc.mutate(ctx, sessionID, func(session *entity.GenerationSession) error {
		session.CurrentStep = entity.StepInput
		session.Description = ""
		session.Analysis = nil
		session.Adjustments = prompt.NewSectionSet()
		session.Result = nil
		session.Quality = nil
		session.Error = nil
		return nil
	})
}

// SubmitDescription stores the free-text description and moves the session to
// the analysis step. The description must carry at least ten characters.
func (uc *GenerateUsecase) SubmitDescription(ctx context.Context, sessionID, description string) (*entity.GenerationSession, error) {
	if utf8.RuneCountInString(description) < minDescriptionRunes {
		return nil, entity.ErrDescriptionTooShort
	}

	return uc.mutate(ctx, sessionID, func(session *entity.GenerationSession) error {
		session.Description = description
		session.CurrentStep = entity.StepAnalysis
		session.Error = nil
		return nil
	})
}

// Analyze runs the intent-analysis gateway call. On success enabledTags is
// reset to exactly the suggested tags, deliberately overwriting any manual
// selection; previously generated or edited content stays in place and is
// simply never assembled for tags that are no longer enabled.
func (uc *GenerateUsecase) Analyze(ctx context.Context, sessionID string) (*entity.GenerationSession, error) {
	return uc.withGateway(ctx, sessionID, func(session *entity.GenerationSession, provider ai.Provider, cfg *entity.ModelConfig) error {
		if session.Description == "" {
			return entity.ErrDescriptionTooShort
		}

		resp, err := provider.Complete(ctx, ai.CompletionRequest{
			Model:        cfg.ModelID,
			Messages:     []ai.Message{{Role: ai.RoleUser, Content: analysisUserPrompt(session.Description)}},
			SystemPrompt: analysisSystemPrompt,
			MaxTokens:    analysisMaxTokens,
			Temperature:  ai.DefaultTemperature,
		})
		if err != nil {
			return err
		}

		analysis, err := parseAnalysis(resp.Content)
		if err != nil {
			return err
		}

		session.Analysis = analysis
		session.Adjustments.EnabledTags = append([]prompt.Tag(nil), analysis.SuggestedTags...)
		return nil
	})
}

// AcceptAnalysis synthesizes content for every suggested tag and advances the
// session to the adjustment step.
func (uc *GenerateUsecase) AcceptAnalysis(ctx context.Context, sessionID string) (*entity.GenerationSession, error) {
	return uc.withGateway(ctx, sessionID, func(session *entity.GenerationSession, provider ai.Provider, cfg *entity.ModelConfig) error {
		if session.Analysis == nil {
			return entity.ErrNoAnalysis
		}

		resp, err := provider.Complete(ctx, ai.CompletionRequest{
			Model:        cfg.ModelID,
			Messages:     []ai.Message{{Role: ai.RoleUser, Content: synthesisUserPrompt(session.Description, session.Analysis)}},
			SystemPrompt: synthesisSystemPrompt(session.Adjustments.Language, session.Adjustments.OutputStyle),
			MaxTokens:    synthesisMaxTokens,
			Temperature:  ai.DefaultTemperature,
		})
		if err != nil {
			return err
		}

		contents, err := parseTagContents(resp.Content)
		if err != nil {
			return err
		}

		for tag, content := range contents {
			session.Adjustments.Generated[tag] = content
		}
		session.CurrentStep = entity.StepAdjustment
		return nil
	})
}

// ToggleTag flips a tag in the enabled set.
func (uc *GenerateUsecase) ToggleTag(ctx context.Context, sessionID string, tag prompt.Tag) (*entity.GenerationSession, error) {
	return uc.mutate(ctx, sessionID, func(session *entity.GenerationSession) error {
		session.Adjustments.Toggle(tag)
		return nil
	})
}

// SetLanguage switches the reply-language constraint.
func (uc *GenerateUsecase) SetLanguage(ctx context.Context, sessionID string, language prompt.Language) (*entity.GenerationSession, error) {
	if err := language.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, entity.ErrInvalidParameter)
	}
	return uc.mutate(ctx, sessionID, func(session *entity.GenerationSession) error {
		session.Adjustments.Language = language
		return nil
	})
}

// SetOutputStyle switches the tone of the assembled prompt.
func (uc *GenerateUsecase) SetOutputStyle(ctx context.Context, sessionID string, style prompt.OutputStyle) (*entity.GenerationSession, error) {
	if err := style.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, entity.ErrInvalidParameter)
	}
	return uc.mutate(ctx, sessionID, func(session *entity.GenerationSession) error {
		session.Adjustments.OutputStyle = style
		return nil
	})
}

// EditTagContent writes a user override for a tag. The generated content is
// never touched so the UI can keep showing a "modified" indicator.
func (uc *GenerateUsecase) EditTagContent(ctx context.Context, sessionID string, tag prompt.Tag, content string) (*entity.GenerationSession, error) {
	return uc.mutate(ctx, sessionID, func(session *entity.GenerationSession) error {
		session.Adjustments.Custom[tag] = content
		return nil
	})
}

// ResetTagContent discards the user override by copying the generated content
// back over it.
func (uc *GenerateUsecase) ResetTagContent(ctx context.Context, sessionID string, tag prompt.Tag) (*entity.GenerationSession, error) {
	return uc.mutate(ctx, sessionID, func(session *entity.GenerationSession) error {
		session.Adjustments.Custom[tag] = session.Adjustments.Generated[tag]
		return nil
	})
}

// PolishTag rewrites a single tag's current content through the gateway. The
// polished text replaces the generated entry and drops any user override so
// the new text actually surfaces.
func (uc *GenerateUsecase) PolishTag(ctx context.Context, sessionID string, tag prompt.Tag) (*entity.GenerationSession, error) {
	return uc.withGateway(ctx, sessionID, func(session *entity.GenerationSession, provider ai.Provider, cfg *entity.ModelConfig) error {
		if session.Analysis == nil {
			return entity.ErrNoAnalysis
		}

		defaults := prompt.DefaultContents(session.Description, session.Analysis, &session.Adjustments)
		current := session.Adjustments.Resolve(tag, defaults[tag])

		resp, err := provider.Complete(ctx, ai.CompletionRequest{
			Model: cfg.ModelID,
			Messages: []ai.Message{{
				Role: ai.RoleUser,
				Content: polishUserPrompt(tag, current, session.Description, session.Analysis,
					session.Adjustments.Language, session.Adjustments.OutputStyle),
			}},
			SystemPrompt: polishSystemPrompt,
			MaxTokens:    polishMaxTokens,
			Temperature:  ai.DefaultTemperature,
		})
		if err != nil {
			return err
		}

		session.Adjustments.Generated[tag] = resp.Content
		delete(session.Adjustments.Custom, tag)
		return nil
	})
}

// AssembleResult renders both dialects from the current adjustments and moves
// the session to the result step.
func (uc *GenerateUsecase) AssembleResult(ctx context.Context, sessionID string) (*entity.GenerationSession, error) {
	return uc.mutate(ctx, sessionID, func(session *entity.GenerationSession) error {
		if session.Analysis == nil {
			return entity.ErrNoAnalysis
		}

		cliText := prompt.AssembleCli(session.Description, session.Analysis, &session.Adjustments)
		session.Result = &entity.GenerationResult{
			CliText: cliText,
			WebText: prompt.CliToWeb(cliText),
		}
		session.CurrentStep = entity.StepResult
		return nil
	})
}

// QualityCheck scores the assembled sections against the fixed rubric.
func (uc *GenerateUsecase) QualityCheck(ctx context.Context, sessionID string) (*entity.GenerationSession, error) {
	return uc.withGateway(ctx, sessionID, func(session *entity.GenerationSession, provider ai.Provider, cfg *entity.ModelConfig) error {
		if session.Result == nil {
			return entity.ErrNoResult
		}

		defaults := prompt.DefaultContents(session.Description, session.Analysis, &session.Adjustments)
		sections := session.Adjustments.Sections(defaults)

		resp, err := provider.Complete(ctx, ai.CompletionRequest{
			Model:        cfg.ModelID,
			Messages:     []ai.Message{{Role: ai.RoleUser, Content: qualityUserPrompt(session.Description, sections)}},
			SystemPrompt: qualitySystemPrompt,
			MaxTokens:    qualityMaxTokens,
			Temperature:  ai.DefaultTemperature,
		})
		if err != nil {
			return err
		}

		quality, err := parseQualityCheck(resp.Content)
		if err != nil {
			return err
		}

		session.Quality = quality
		return nil
	})
}

// PolishByQualityCheck revises tag contents based on the recorded quality
// issues. A passing check at or above the threshold score is a no-op.
func (uc *GenerateUsecase) PolishByQualityCheck(ctx context.Context, sessionID string) (*entity.GenerationSession, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.Quality == nil {
		return nil, entity.ErrNoResult
	}
	if session.Quality.Passed && session.Quality.Score >= qualityPassScore {
		ctxzap.Info(ctx, "quality check passed, nothing to polish",
			zap.String("session_id", sessionID), zap.Int("score", session.Quality.Score))
		return session, nil
	}

	// only error and warning findings are worth a revision round
	actionable := make([]entity.QualityIssue, 0, len(session.Quality.Issues))
	for _, issue := range session.Quality.Issues {
		if issue.Severity != entity.SeveritySuggestion {
			actionable = append(actionable, issue)
		}
	}
	if len(actionable) == 0 {
		return session, nil
	}

	return uc.withGateway(ctx, sessionID, func(session *entity.GenerationSession, provider ai.Provider, cfg *entity.ModelConfig) error {
		defaults := prompt.DefaultContents(session.Description, session.Analysis, &session.Adjustments)
		sections := session.Adjustments.Sections(defaults)

		resp, err := provider.Complete(ctx, ai.CompletionRequest{
			Model:        cfg.ModelID,
			Messages:     []ai.Message{{Role: ai.RoleUser, Content: qualityPolishUserPrompt(actionable, sections)}},
			SystemPrompt: qualityPolishSystemPrompt,
			MaxTokens:    synthesisMaxTokens,
			Temperature:  ai.DefaultTemperature,
		})
		if err != nil {
			return err
		}

		revised, err := parseTagContents(resp.Content)
		if err != nil {
			return err
		}

		// merge non-empty revisions over the current snapshot; untouched
		// tags keep their content
		for tag, content := range revised {
			if content == "" {
				continue
			}
			session.Adjustments.Generated[tag] = content
			if _, hasOverride := session.Adjustments.Custom[tag]; hasOverride {
				session.Adjustments.Custom[tag] = content
			}
		}

		if session.Result != nil {
			cliText := prompt.AssembleCli(session.Description, session.Analysis, &session.Adjustments)
			session.Result = &entity.GenerationResult{
				CliText: cliText,
				WebText: prompt.CliToWeb(cliText),
			}
		}
		return nil
	})
}

// mutate applies a pure state change to the session and persists it. A session
// with a gateway call in flight rejects mutations so the stale copy written
// back after the call cannot swallow them.
func (uc *GenerateUsecase) mutate(ctx context.Context, sessionID string, fn func(*entity.GenerationSession) error) (*entity.GenerationSession, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.IsGenerating {
		return nil, entity.ErrSessionBusy
	}

	if err := fn(session); err != nil {
		return nil, err
	}

	session.UpdatedAt = time.Now()
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// withGateway runs one AI-backed step with the shared guard rails: a single
// outstanding gateway call per session, ErrAINotConfigured when no default
// model exists, and failure capture into session.Error with the step left
// unchanged so the user can retry. The busy flag is set under the mutex and
// cleared in a defer so it survives a panicking step.
func (uc *GenerateUsecase) withGateway(
	ctx context.Context,
	sessionID string,
	fn func(session *entity.GenerationSession, provider ai.Provider, cfg *entity.ModelConfig) error,
) (result *entity.GenerationSession, stepErr error) {
	uc.mu.Lock()
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		uc.mu.Unlock()
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.IsGenerating {
		uc.mu.Unlock()
		return nil, entity.ErrSessionBusy
	}

	provider, cfg, err := uc.providers.DefaultProvider(ctx)
	if err != nil {
		uc.mu.Unlock()
		return nil, err
	}

	session.IsGenerating = true
	session.Error = nil
	if err := uc.sessions.Save(ctx, session); err != nil {
		uc.mu.Unlock()
		return nil, fmt.Errorf("save session: %w", err)
	}
	uc.mu.Unlock()

	defer func() {
		uc.mu.Lock()
		defer uc.mu.Unlock()

		session.IsGenerating = false
		if stepErr != nil {
			msg := stepErr.Error()
			session.Error = &msg
			ctxzap.Warn(ctx, "generation step failed",
				zap.String("session_id", sessionID), zap.Error(stepErr))
		}
		session.UpdatedAt = time.Now()

		if saveErr := uc.sessions.Save(ctx, session); saveErr != nil && stepErr == nil {
			result = nil
			stepErr = fmt.Errorf("save session: %w", saveErr)
		}
	}()

	stepErr = fn(session, provider, cfg)
	return session, stepErr
}
