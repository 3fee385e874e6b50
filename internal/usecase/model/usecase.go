package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/integration/ai"
	"github.com/promptweaver/prompt-backend/internal/pkg/secrets"
	"github.com/promptweaver/prompt-backend/internal/repository"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 4096
)

// ModelUsecase manages provider configurations. API keys are validated,
// encrypted before they hit the database and only ever returned masked.
type ModelUsecase struct {
	configs repository.ModelConfigRepository
	secrets *secrets.Store
	logger  *zap.Logger
}

func NewUsecase(configs repository.ModelConfigRepository, secretStore *secrets.Store, logger *zap.Logger) *ModelUsecase {
	return &ModelUsecase{
		configs: configs,
		secrets: secretStore,
		logger:  logger,
	}
}

// CreateConfig stores a new provider configuration. The very first
// configuration becomes the default regardless of the submitted flag.
func (uc *ModelUsecase) CreateConfig(ctx context.Context, input entity.ModelConfigInput) (*entity.ModelConfigView, error) {
	if err := input.Provider.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, entity.ErrInvalidParameter)
	}
	if input.ModelID == "" {
		return nil, fmt.Errorf("model_id: %w", entity.ErrMissingField)
	}
	if err := secrets.ValidateAPIKey(string(input.Provider), input.APIKey); err != nil {
		return nil, fmt.Errorf("%v: %w", err, entity.ErrInvalidFormat)
	}

	encrypted, err := uc.secrets.Encrypt(input.APIKey)
	if err != nil {
		return nil, fmt.Errorf("encrypt API key: %w", err)
	}

	existing, err := uc.configs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}

	cfg := entity.ModelConfig{
		ID:              uuid.New().String(),
		Provider:        input.Provider,
		APIKeyEncrypted: encrypted,
		ModelID:         input.ModelID,
		BaseURL:         input.BaseURL,
		Temperature:     defaultTemperature,
		MaxTokens:       defaultMaxTokens,
		IsDefault:       input.IsDefault || len(existing) == 0,
	}
	if input.Temperature != nil {
		cfg.Temperature = *input.Temperature
	}
	if input.MaxTokens != nil {
		cfg.MaxTokens = *input.MaxTokens
	}

	created, err := uc.configs.Create(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create config: %w", err)
	}

	ctxzap.Info(ctx, "model config created",
		zap.String("config_id", created.ID), zap.String("provider", string(created.Provider)))

	return uc.view(created)
}

// UpdateConfig replaces a configuration. An empty APIKey keeps the stored one.
func (uc *ModelUsecase) UpdateConfig(ctx context.Context, id string, input entity.ModelConfigInput) (*entity.ModelConfigView, error) {
	if err := input.Provider.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, entity.ErrInvalidParameter)
	}

	current, err := uc.configs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	encrypted := current.APIKeyEncrypted
	if input.APIKey != "" {
		if err := secrets.ValidateAPIKey(string(input.Provider), input.APIKey); err != nil {
			return nil, fmt.Errorf("%v: %w", err, entity.ErrInvalidFormat)
		}
		encrypted, err = uc.secrets.Encrypt(input.APIKey)
		if err != nil {
			return nil, fmt.Errorf("encrypt API key: %w", err)
		}
	}

	cfg := entity.ModelConfig{
		ID:              id,
		Provider:        input.Provider,
		APIKeyEncrypted: encrypted,
		ModelID:         input.ModelID,
		BaseURL:         input.BaseURL,
		Temperature:     current.Temperature,
		MaxTokens:       current.MaxTokens,
		IsDefault:       input.IsDefault,
	}
	if cfg.ModelID == "" {
		cfg.ModelID = current.ModelID
	}
	if input.Temperature != nil {
		cfg.Temperature = *input.Temperature
	}
	if input.MaxTokens != nil {
		cfg.MaxTokens = *input.MaxTokens
	}

	updated, err := uc.configs.Update(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return uc.view(updated)
}

func (uc *ModelUsecase) GetConfig(ctx context.Context, id string) (*entity.ModelConfigView, error) {
	cfg, err := uc.configs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.view(cfg)
}

func (uc *ModelUsecase) ListConfigs(ctx context.Context) ([]*entity.ModelConfigView, error) {
	configs, err := uc.configs.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*entity.ModelConfigView, 0, len(configs))
	for _, cfg := range configs {
		view, err := uc.view(cfg)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (uc *ModelUsecase) DeleteConfig(ctx context.Context, id string) error {
	return uc.configs.Delete(ctx, id)
}

func (uc *ModelUsecase) SetDefault(ctx context.Context, id string) (*entity.ModelConfigView, error) {
	cfg, err := uc.configs.SetDefault(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.view(cfg)
}

// TestConnection probes a stored or transient configuration. Failures
// collapse into false; the endpoint never errors on provider trouble.
func (uc *ModelUsecase) TestConnection(ctx context.Context, req entity.TestConnectionRequest) (bool, error) {
	var (
		provider  entity.AIProviderKind
		apiKey    string
		baseURL   string
		testModel string
	)

	if req.ConfigID != "" {
		cfg, err := uc.configs.Get(ctx, req.ConfigID)
		if err != nil {
			return false, err
		}
		provider = cfg.Provider
		testModel = cfg.ModelID
		if cfg.BaseURL != nil {
			baseURL = *cfg.BaseURL
		}
		apiKey, err = uc.secrets.Decrypt(cfg.APIKeyEncrypted)
		if err != nil {
			return false, fmt.Errorf("decrypt API key: %w", err)
		}
	} else {
		if err := req.Provider.Validate(); err != nil {
			return false, fmt.Errorf("%v: %w", err, entity.ErrInvalidParameter)
		}
		provider = req.Provider
		apiKey = req.APIKey
		testModel = req.ModelID
		if req.BaseURL != nil {
			baseURL = *req.BaseURL
		}
	}

	p, err := ai.NewProvider(ai.ProviderConfig{
		Provider:  provider,
		APIKey:    apiKey,
		BaseURL:   baseURL,
		TestModel: testModel,
	}, uc.logger)
	if err != nil {
		return false, err
	}

	ok := p.TestConnection(ctx)
	ctxzap.Info(ctx, "connection test finished",
		zap.String("provider", string(provider)), zap.Bool("success", ok))
	return ok, nil
}

// DefaultProvider resolves the default configuration into a ready provider.
// It satisfies the generation pipeline's ProviderSource dependency.
func (uc *ModelUsecase) DefaultProvider(ctx context.Context) (ai.Provider, *entity.ModelConfig, error) {
	cfg, err := uc.configs.GetDefault(ctx)
	if err != nil {
		if errors.Is(err, entity.ErrNoDefaultModel) {
			return nil, nil, entity.ErrAINotConfigured
		}
		return nil, nil, err
	}

	apiKey, err := uc.secrets.Decrypt(cfg.APIKeyEncrypted)
	if err != nil {
		return nil, nil, fmt.Errorf("decrypt API key: %w", err)
	}
	if apiKey == "" {
		return nil, nil, entity.ErrAINotConfigured
	}

	var baseURL string
	if cfg.BaseURL != nil {
		baseURL = *cfg.BaseURL
	}

	provider, err := ai.NewProvider(ai.ProviderConfig{
		Provider:  cfg.Provider,
		APIKey:    apiKey,
		BaseURL:   baseURL,
		TestModel: cfg.ModelID,
	}, uc.logger)
	if err != nil {
		return nil, nil, err
	}

	return provider, cfg, nil
}

func (uc *ModelUsecase) view(cfg *entity.ModelConfig) (*entity.ModelConfigView, error) {
	apiKey, err := uc.secrets.Decrypt(cfg.APIKeyEncrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt API key: %w", err)
	}
	return &entity.ModelConfigView{
		ModelConfig:  *cfg,
		APIKeyMasked: secrets.MaskAPIKey(apiKey),
	}, nil
}
