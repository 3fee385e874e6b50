package generate

import (
	"context"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/integration/ai"
)

// SessionStore keeps wizard sessions. Implementations are in-memory with TTL
// expiry; a missing session surfaces entity.ErrSessionNotFound.
type SessionStore interface {
	Get(ctx context.Context, id string) (*entity.GenerationSession, error)
	Save(ctx context.Context, session *entity.GenerationSession) error
	Delete(ctx context.Context, id string) error
}

// ProviderSource resolves the default model configuration into a ready
// provider. No usable default configuration surfaces entity.ErrAINotConfigured.
type ProviderSource interface {
	DefaultProvider(ctx context.Context) (ai.Provider, *entity.ModelConfig, error)
}
