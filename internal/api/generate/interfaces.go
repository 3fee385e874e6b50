package generate

import (
	"context"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/prompt"
)

// GenerateUsecase is the wizard pipeline behind the session endpoints.
type GenerateUsecase interface {
	StartSession(ctx context.Context) (*entity.GenerationSession, error)
	GetSession(ctx context.Context, sessionID string) (*entity.GenerationSession, error)
	ResetSession(ctx context.Context, sessionID string) (*entity.GenerationSession, error)
	SubmitDescription(ctx context.Context, sessionID, description string) (*entity.GenerationSession, error)
	Analyze(ctx context.Context, sessionID string) (*entity.GenerationSession, error)
	AcceptAnalysis(ctx context.Context, sessionID string) (*entity.GenerationSession, error)
	ToggleTag(ctx context.Context, sessionID string, tag prompt.Tag) (*entity.GenerationSession, error)
	SetLanguage(ctx context.Context, sessionID string, language prompt.Language) (*entity.GenerationSession, error)
	SetOutputStyle(ctx context.Context, sessionID string, style prompt.OutputStyle) (*entity.GenerationSession, error)
	EditTagContent(ctx context.Context, sessionID string, tag prompt.Tag, content string) (*entity.GenerationSession, error)
	ResetTagContent(ctx context.Context, sessionID string, tag prompt.Tag) (*entity.GenerationSession, error)
	PolishTag(ctx context.Context, sessionID string, tag prompt.Tag) (*entity.GenerationSession, error)
	AssembleResult(ctx context.Context, sessionID string) (*entity.GenerationSession, error)
	QualityCheck(ctx context.Context, sessionID string) (*entity.GenerationSession, error)
	PolishByQualityCheck(ctx context.Context, sessionID string) (*entity.GenerationSession, error)
}
