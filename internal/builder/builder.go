package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/promptweaver/prompt-backend/internal/api"
	convertapi "github.com/promptweaver/prompt-backend/internal/api/convert"
	generateapi "github.com/promptweaver/prompt-backend/internal/api/generate"
	modelapi "github.com/promptweaver/prompt-backend/internal/api/model"
	promptapi "github.com/promptweaver/prompt-backend/internal/api/prompt"
	"github.com/promptweaver/prompt-backend/internal/config"
	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/integration/ai"
	"github.com/promptweaver/prompt-backend/internal/pkg/formatter"
	"github.com/promptweaver/prompt-backend/internal/pkg/secrets"
	"github.com/promptweaver/prompt-backend/internal/repository"
	"github.com/promptweaver/prompt-backend/internal/usecase/generate"
	"github.com/promptweaver/prompt-backend/internal/usecase/model"
	"github.com/promptweaver/prompt-backend/internal/usecase/prompt"
)

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	promptRepo := repository.NewPromptPostgres(db)
	configRepo := repository.NewModelConfigPostgres(db)
	sessionStore := repository.NewSessionMemory(cfg.SessionTTL)
	logger.Info("Repositories initialized")

	// API-key encryption
	secretStore, err := secrets.NewStore(cfg.SecretKey)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("setup secret store: %w", err)
	}

	// Initialize use cases
	modelUC := model.NewUsecase(configRepo, secretStore, logger)

	var providers generate.ProviderSource = modelUC
	if cfg.EnableMocks {
		logger.Info("Using mock AI provider")
		providers = newMockProviderSource(logger)
	}

	generateUC := generate.NewUsecase(sessionStore, providers, logger)
	promptUC := prompt.NewUsecase(promptRepo, sessionStore, formatter.NewFactory(), logger)
	logger.Info("Use cases initialized")

	// Setup API handlers
	generateHandler := generateapi.NewHandler(generateUC)
	promptHandler := promptapi.NewHandler(promptUC)
	modelHandler := modelapi.NewHandler(modelUC)
	convertHandler := convertapi.NewHandler()
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(generateHandler, promptHandler, modelHandler, convertHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server. The write timeout must outlast the slowest
	// generation step, which waits on an upstream AI provider.
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 6 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		logger: logger,
	}, nil
}

// mockProviderSource satisfies the pipeline's provider dependency with the
// deterministic mock, so the wizard works without any stored configuration.
type mockProviderSource struct {
	provider ai.Provider
	cfg      *entity.ModelConfig
}

func newMockProviderSource(logger *zap.Logger) *mockProviderSource {
	return &mockProviderSource{
		provider: ai.NewMockProvider(logger),
		cfg: &entity.ModelConfig{
			ID:          "mock",
			Provider:    entity.ProviderCustom,
			ModelID:     "mock-model",
			Temperature: ai.DefaultTemperature,
			MaxTokens:   ai.DefaultMaxTokens,
			IsDefault:   true,
		},
	}
}

func (s *mockProviderSource) DefaultProvider(_ context.Context) (ai.Provider, *entity.ModelConfig, error) {
	return s.provider, s.cfg, nil
}
