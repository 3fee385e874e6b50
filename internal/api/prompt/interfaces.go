package prompt

import (
	"context"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/repository"
	promptusecase "github.com/promptweaver/prompt-backend/internal/usecase/prompt"
)

// PromptUsecase is the stored-prompt library behind the /prompts endpoints.
type PromptUsecase interface {
	Save(ctx context.Context, req entity.SavePromptRequest) (*entity.StoredPrompt, error)
	SaveFromSession(ctx context.Context, req entity.SaveFromSessionRequest) (*entity.StoredPrompt, error)
	Get(ctx context.Context, id string) (*entity.StoredPrompt, error)
	List(ctx context.Context, filter repository.PromptFilter) ([]*entity.StoredPrompt, error)
	Update(ctx context.Context, id string, req entity.UpdatePromptRequest) (*entity.StoredPrompt, error)
	Delete(ctx context.Context, id string) error
	IncrementUsage(ctx context.Context, id string) (*entity.StoredPrompt, error)
	ToggleFavorite(ctx context.Context, id string) (*entity.StoredPrompt, error)
	Export(ctx context.Context, id string, dialect entity.PromptDialect, format entity.ResultFormat) (*promptusecase.ExportFile, error)
}
