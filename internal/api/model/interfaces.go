package model

import (
	"context"

	"github.com/promptweaver/prompt-backend/internal/entity"
)

// ModelUsecase manages provider configurations behind the /model-configs
// endpoints.
type ModelUsecase interface {
	CreateConfig(ctx context.Context, input entity.ModelConfigInput) (*entity.ModelConfigView, error)
	UpdateConfig(ctx context.Context, id string, input entity.ModelConfigInput) (*entity.ModelConfigView, error)
	GetConfig(ctx context.Context, id string) (*entity.ModelConfigView, error)
	ListConfigs(ctx context.Context) ([]*entity.ModelConfigView, error)
	DeleteConfig(ctx context.Context, id string) error
	SetDefault(ctx context.Context, id string) (*entity.ModelConfigView, error)
	TestConnection(ctx context.Context, req entity.TestConnectionRequest) (bool, error)
}
