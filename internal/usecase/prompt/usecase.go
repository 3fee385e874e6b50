package prompt

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/pkg/formatter"
	"github.com/promptweaver/prompt-backend/internal/repository"
	"github.com/promptweaver/prompt-backend/internal/usecase/generate"
)

// how many task goals become tags when saving from a session
const sessionTagLimit = 3

// PromptUsecase implements stored-prompt business logic
type PromptUsecase struct {
	prompts    repository.PromptRepository
	sessions   generate.SessionStore
	formatters *formatter.Factory
	logger     *zap.Logger
}

func NewUsecase(
	prompts repository.PromptRepository,
	sessions generate.SessionStore,
	formatters *formatter.Factory,
	logger *zap.Logger,
) *PromptUsecase {
	return &PromptUsecase{
		prompts:    prompts,
		sessions:   sessions,
		formatters: formatters,
		logger:     logger,
	}
}

// Save stores a prompt submitted directly by the caller.
func (uc *PromptUsecase) Save(ctx context.Context, req entity.SavePromptRequest) (*entity.StoredPrompt, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name: %w", entity.ErrMissingField)
	}
	if req.Category == "" {
		req.Category = entity.CategoryOther
	}
	if err := req.Category.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, entity.ErrInvalidParameter)
	}

	created, err := uc.prompts.Create(ctx, entity.StoredPrompt{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		CliText:     req.CliText,
		WebText:     req.WebText,
	})
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "prompt saved", zap.String("prompt_id", created.ID))
	return created, nil
}

// SaveFromSession persists the assembled result of a finished wizard session.
// The category defaults to "other"; the first task goals become the tags.
func (uc *PromptUsecase) SaveFromSession(ctx context.Context, req entity.SaveFromSessionRequest) (*entity.StoredPrompt, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name: %w", entity.ErrMissingField)
	}

	session, err := uc.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.Result == nil {
		return nil, entity.ErrNoResult
	}

	var tags []string
	if session.Analysis != nil {
		tags = session.Analysis.TaskGoals
		if len(tags) > sessionTagLimit {
			tags = tags[:sessionTagLimit]
		}
	}

	created, err := uc.prompts.Create(ctx, entity.StoredPrompt{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: session.Description,
		Category:    entity.CategoryOther,
		Tags:        tags,
		CliText:     session.Result.CliText,
		WebText:     session.Result.WebText,
	})
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "prompt saved from session",
		zap.String("prompt_id", created.ID), zap.String("session_id", req.SessionID))
	return created, nil
}

func (uc *PromptUsecase) Get(ctx context.Context, id string) (*entity.StoredPrompt, error) {
	return uc.prompts.Get(ctx, id)
}

func (uc *PromptUsecase) List(ctx context.Context, filter repository.PromptFilter) ([]*entity.StoredPrompt, error) {
	if filter.Category != nil {
		if err := filter.Category.Validate(); err != nil {
			return nil, fmt.Errorf("%v: %w", err, entity.ErrInvalidParameter)
		}
	}
	return uc.prompts.List(ctx, filter)
}

// Update applies the non-nil fields of the request over the stored prompt.
func (uc *PromptUsecase) Update(ctx context.Context, id string, req entity.UpdatePromptRequest) (*entity.StoredPrompt, error) {
	current, err := uc.prompts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Description != nil {
		current.Description = *req.Description
	}
	if req.Category != nil {
		if err := req.Category.Validate(); err != nil {
			return nil, fmt.Errorf("%v: %w", err, entity.ErrInvalidParameter)
		}
		current.Category = *req.Category
	}
	if req.Tags != nil {
		current.Tags = req.Tags
	}
	if req.CliText != nil {
		current.CliText = *req.CliText
	}
	if req.WebText != nil {
		current.WebText = *req.WebText
	}

	return uc.prompts.Update(ctx, *current)
}

func (uc *PromptUsecase) Delete(ctx context.Context, id string) error {
	return uc.prompts.Delete(ctx, id)
}

// IncrementUsage bumps the usage counter, typically when a prompt is copied.
func (uc *PromptUsecase) IncrementUsage(ctx context.Context, id string) (*entity.StoredPrompt, error) {
	return uc.prompts.IncrementUsage(ctx, id)
}

func (uc *PromptUsecase) ToggleFavorite(ctx context.Context, id string) (*entity.StoredPrompt, error) {
	return uc.prompts.ToggleFavorite(ctx, id)
}

// ExportFile is a rendered prompt download.
type ExportFile struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Export renders one dialect of a stored prompt into the requested format.
func (uc *PromptUsecase) Export(ctx context.Context, id string, dialect entity.PromptDialect, format entity.ResultFormat) (*ExportFile, error) {
	if err := dialect.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, entity.ErrInvalidParameter)
	}

	stored, err := uc.prompts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	text := stored.CliText
	if dialect == entity.DialectWeb {
		text = stored.WebText
	}

	f, err := uc.formatters.Create(format)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, entity.ErrInvalidParameter)
	}

	data, err := f.Format(stored.Name, text)
	if err != nil {
		return nil, fmt.Errorf("format prompt: %w", err)
	}

	return &ExportFile{
		Data:        data,
		ContentType: f.ContentType(),
		Filename:    stored.Name + f.FileExtension(),
	}, nil
}
