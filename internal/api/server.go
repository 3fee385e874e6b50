package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	convertapi "github.com/promptweaver/prompt-backend/internal/api/convert"
	"github.com/promptweaver/prompt-backend/internal/api/docs"
	generateapi "github.com/promptweaver/prompt-backend/internal/api/generate"
	"github.com/promptweaver/prompt-backend/internal/api/middleware"
	modelapi "github.com/promptweaver/prompt-backend/internal/api/model"
	promptapi "github.com/promptweaver/prompt-backend/internal/api/prompt"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(
	generateHandler *generateapi.Handler,
	promptHandler *promptapi.Handler,
	modelHandler *modelapi.Handler,
	convertHandler *convertapi.Handler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS)
	// Generation steps wait on upstream AI providers; keep the timeout generous.
	r.Use(chimiddleware.Timeout(5 * time.Minute))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Register routes
	generateapi.RegisterRoutes(r, generateHandler)
	promptapi.RegisterRoutes(r, promptHandler)
	modelapi.RegisterRoutes(r, modelHandler)
	convertapi.RegisterRoutes(r, convertHandler)

	return r
}
