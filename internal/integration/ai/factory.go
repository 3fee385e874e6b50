package ai

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/promptweaver/prompt-backend/internal/entity"
	pkghttp "github.com/promptweaver/prompt-backend/pkg/http"
)

// completions can run long; the connector timeout bounds the whole exchange
const providerRequestTimeout = 5 * time.Minute

func newProviderConnector(baseURL string, logger *zap.Logger, opts ...pkghttp.HttpOpts) *pkghttp.Connector {
	all := append([]pkghttp.HttpOpts{
		pkghttp.WithRequestTimeout(providerRequestTimeout),
		pkghttp.WithResponseHeaderTimeout(30 * time.Second),
	}, opts...)
	// logging wraps outermost; credential headers are redacted by the
	// logging transport itself
	all = append(all, pkghttp.WithRequestLogging())

	return pkghttp.NewConnector(
		&pkghttp.ConnectorConfig{
			BaseURL: baseURL,
			Logger:  logger,
		},
		all...,
	)
}

// ProviderConfig carries everything the factory needs to build a provider.
// TestModel is only consulted by the custom provider; the named providers
// ship their own probe models.
type ProviderConfig struct {
	Provider  entity.AIProviderKind
	APIKey    string
	BaseURL   string
	TestModel string
}

// NewProvider builds the provider implementation for a configured kind.
// Unknown kinds fail fast rather than degrading to a default.
func NewProvider(cfg ProviderConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.Provider {
	case entity.ProviderAnthropic:
		return NewAnthropicProvider(cfg.APIKey, cfg.BaseURL, logger), nil
	case entity.ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, logger), nil
	case entity.ProviderGoogle:
		return NewGoogleProvider(cfg.APIKey, cfg.BaseURL, logger), nil
	case entity.ProviderDeepSeek:
		return NewDeepSeekProvider(cfg.APIKey, cfg.BaseURL, logger), nil
	case entity.ProviderCustom:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("custom provider requires a base URL")
		}
		return NewCustomProvider(cfg.APIKey, cfg.BaseURL, cfg.TestModel, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
