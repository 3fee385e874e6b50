package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/pkg/secrets"
)

type fakeConfigRepo struct {
	byID map[string]entity.ModelConfig
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{byID: make(map[string]entity.ModelConfig)}
}

func (r *fakeConfigRepo) Create(_ context.Context, cfg entity.ModelConfig) (*entity.ModelConfig, error) {
	if cfg.IsDefault {
		r.clearDefault()
	}
	r.byID[cfg.ID] = cfg
	return &cfg, nil
}

func (r *fakeConfigRepo) Get(_ context.Context, id string) (*entity.ModelConfig, error) {
	cfg, ok := r.byID[id]
	if !ok {
		return nil, entity.ErrModelConfigNotFound
	}
	return &cfg, nil
}

func (r *fakeConfigRepo) List(_ context.Context) ([]*entity.ModelConfig, error) {
	var out []*entity.ModelConfig
	for id := range r.byID {
		cfg := r.byID[id]
		out = append(out, &cfg)
	}
	return out, nil
}

func (r *fakeConfigRepo) Update(_ context.Context, cfg entity.ModelConfig) (*entity.ModelConfig, error) {
	if _, ok := r.byID[cfg.ID]; !ok {
		return nil, entity.ErrModelConfigNotFound
	}
	if cfg.IsDefault {
		r.clearDefault()
	}
	r.byID[cfg.ID] = cfg
	return &cfg, nil
}

func (r *fakeConfigRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return entity.ErrModelConfigNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeConfigRepo) GetDefault(_ context.Context) (*entity.ModelConfig, error) {
	for id := range r.byID {
		if r.byID[id].IsDefault {
			cfg := r.byID[id]
			return &cfg, nil
		}
	}
	return nil, entity.ErrNoDefaultModel
}

func (r *fakeConfigRepo) SetDefault(_ context.Context, id string) (*entity.ModelConfig, error) {
	cfg, ok := r.byID[id]
	if !ok {
		return nil, entity.ErrModelConfigNotFound
	}
	r.clearDefault()
	cfg.IsDefault = true
	r.byID[id] = cfg
	return &cfg, nil
}

func (r *fakeConfigRepo) clearDefault() {
	for id, cfg := range r.byID {
		if cfg.IsDefault {
			cfg.IsDefault = false
			r.byID[id] = cfg
		}
	}
}

func newTestUsecase(t *testing.T) (*ModelUsecase, *fakeConfigRepo, *secrets.Store) {
	t.Helper()
	store, err := secrets.NewStore("unit-test-device-secret")
	require.NoError(t, err)
	repo := newFakeConfigRepo()
	return NewUsecase(repo, store, zap.NewNop()), repo, store
}

func TestCreateConfigEncryptsAndMasks(t *testing.T) {
	uc, repo, store := newTestUsecase(t)

	apiKey := "sk-ant-REDACTED"
	view, err := uc.CreateConfig(context.Background(), entity.ModelConfigInput{
		Provider: entity.ProviderAnthropic,
		APIKey:   apiKey,
		ModelID:  "claude-sonnet-4-20250514",
	})
	require.NoError(t, err)

	assert.Equal(t, secrets.MaskAPIKey(apiKey), view.APIKeyMasked)
	assert.NotContains(t, view.APIKeyMasked, "0123456789abcdef")

	stored := repo.byID[view.ID]
	assert.NotEqual(t, apiKey, stored.APIKeyEncrypted)
	decrypted, err := store.Decrypt(stored.APIKeyEncrypted)
	require.NoError(t, err)
	assert.Equal(t, apiKey, decrypted)

	// first config is forced default
	assert.True(t, view.IsDefault)
	assert.Equal(t, 0.7, view.Temperature)
	assert.Equal(t, 4096, view.MaxTokens)
}

func TestCreateConfigValidation(t *testing.T) {
	uc, _, _ := newTestUsecase(t)
	ctx := context.Background()

	_, err := uc.CreateConfig(ctx, entity.ModelConfigInput{
		Provider: entity.AIProviderKind("aliyun"),
		APIKey:   "sk-whatever-long-enough",
		ModelID:  "m",
	})
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)

	_, err = uc.CreateConfig(ctx, entity.ModelConfigInput{
		Provider: entity.ProviderOpenAI,
		APIKey:   "sk-whatever-long-enough",
	})
	assert.ErrorIs(t, err, entity.ErrMissingField)

	_, err = uc.CreateConfig(ctx, entity.ModelConfigInput{
		Provider: entity.ProviderAnthropic,
		APIKey:   "sk-not-anthropic",
		ModelID:  "m",
	})
	assert.ErrorIs(t, err, entity.ErrInvalidFormat)
}

func TestSecondConfigNotDefaultUnlessAsked(t *testing.T) {
	uc, _, _ := newTestUsecase(t)
	ctx := context.Background()

	first, err := uc.CreateConfig(ctx, entity.ModelConfigInput{
		Provider: entity.ProviderOpenAI,
		APIKey:   "sk-openai-0123456789abcdef",
		ModelID:  "gpt-4o",
	})
	require.NoError(t, err)
	require.True(t, first.IsDefault)

	second, err := uc.CreateConfig(ctx, entity.ModelConfigInput{
		Provider: entity.ProviderDeepSeek,
		APIKey:   "sk-deepseek-0123456789abc",
		ModelID:  "deepseek-chat",
	})
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	promoted, err := uc.SetDefault(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsDefault)

	demoted, err := uc.GetConfig(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, demoted.IsDefault)
}

func TestUpdateConfigKeepsKeyWhenEmpty(t *testing.T) {
	uc, repo, store := newTestUsecase(t)
	ctx := context.Background()

	apiKey := "sk-openai-0123456789abcdef"
	created, err := uc.CreateConfig(ctx, entity.ModelConfigInput{
		Provider: entity.ProviderOpenAI,
		APIKey:   apiKey,
		ModelID:  "gpt-4o",
	})
	require.NoError(t, err)

	temp := 0.2
	updated, err := uc.UpdateConfig(ctx, created.ID, entity.ModelConfigInput{
		Provider:    entity.ProviderOpenAI,
		ModelID:     "gpt-4o-mini",
		Temperature: &temp,
		IsDefault:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", updated.ModelID)
	assert.Equal(t, 0.2, updated.Temperature)

	decrypted, err := store.Decrypt(repo.byID[created.ID].APIKeyEncrypted)
	require.NoError(t, err)
	assert.Equal(t, apiKey, decrypted)
}

func TestDefaultProviderNotConfigured(t *testing.T) {
	uc, repo, store := newTestUsecase(t)
	ctx := context.Background()

	_, _, err := uc.DefaultProvider(ctx)
	assert.ErrorIs(t, err, entity.ErrAINotConfigured)

	// a default config whose stored key decrypts empty is also unusable
	encrypted, err := store.Encrypt("")
	require.NoError(t, err)
	repo.byID["cfg"] = entity.ModelConfig{
		ID:              "cfg",
		Provider:        entity.ProviderOpenAI,
		APIKeyEncrypted: encrypted,
		ModelID:         "gpt-4o",
		IsDefault:       true,
	}
	_, _, err = uc.DefaultProvider(ctx)
	assert.ErrorIs(t, err, entity.ErrAINotConfigured)
}

func TestDefaultProviderResolves(t *testing.T) {
	uc, _, _ := newTestUsecase(t)
	ctx := context.Background()

	_, err := uc.CreateConfig(ctx, entity.ModelConfigInput{
		Provider: entity.ProviderAnthropic,
		APIKey:   "sk-ant-REDACTED",
		ModelID:  "claude-sonnet-4-20250514",
	})
	require.NoError(t, err)

	provider, cfg, err := uc.DefaultProvider(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Anthropic", provider.Name())
	assert.Equal(t, entity.ProviderAnthropic, cfg.Provider)
}

func TestTestConnectionTransient(t *testing.T) {
	uc, _, _ := newTestUsecase(t)

	_, err := uc.TestConnection(context.Background(), entity.TestConnectionRequest{
		Provider: entity.AIProviderKind("bogus"),
		APIKey:   "sk-x",
	})
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)
}
