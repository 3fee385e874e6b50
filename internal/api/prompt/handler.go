package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/pkg/logger"
	"github.com/promptweaver/prompt-backend/internal/pkg/response"
	"github.com/promptweaver/prompt-backend/internal/repository"
)

type Handler struct {
	usecase PromptUsecase
}

func NewHandler(usecase PromptUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// Save handles POST /prompts
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "SavePrompt")

	var req entity.SavePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	created, err := h.usecase.Save(ctx, req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Created(w, created)
}

// SaveFromSession handles POST /prompts/from-session
func (h *Handler) SaveFromSession(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "SavePromptFromSession")

	var req entity.SaveFromSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	created, err := h.usecase.SaveFromSession(ctx, req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Created(w, created)
}

// List handles GET /prompts
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListPrompts")

	query := r.URL.Query()
	skip, _ := strconv.Atoi(query.Get("skip"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	filter := repository.PromptFilter{
		Search:        query.Get("search"),
		FavoritesOnly: query.Get("favorites") == "true",
		Skip:          skip,
		Limit:         limit,
	}
	if category := query.Get("category"); category != "" {
		c := entity.PromptCategory(category)
		filter.Category = &c
	}

	prompts, err := h.usecase.List(ctx, filter)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Debug(ctx, "prompts listed", zap.Int("count", len(prompts)))
	response.Success(w, map[string]any{"prompts": prompts})
}

// Get handles GET /prompts/{prompt_id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := h.promptContext(r, "GetPrompt")

	stored, err := h.usecase.Get(ctx, chi.URLParam(r, "prompt_id"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, stored)
}

// Update handles PUT /prompts/{prompt_id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := h.promptContext(r, "UpdatePrompt")

	var req entity.UpdatePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	updated, err := h.usecase.Update(ctx, chi.URLParam(r, "prompt_id"), req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, updated)
}

// Delete handles DELETE /prompts/{prompt_id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := h.promptContext(r, "DeletePrompt")

	if err := h.usecase.Delete(ctx, chi.URLParam(r, "prompt_id")); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "prompt deleted")
	response.Success(w, map[string]string{"status": "deleted"})
}

// IncrementUsage handles POST /prompts/{prompt_id}/usage
func (h *Handler) IncrementUsage(w http.ResponseWriter, r *http.Request) {
	ctx := h.promptContext(r, "IncrementUsage")

	updated, err := h.usecase.IncrementUsage(ctx, chi.URLParam(r, "prompt_id"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, updated)
}

// ToggleFavorite handles POST /prompts/{prompt_id}/favorite
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := h.promptContext(r, "ToggleFavorite")

	updated, err := h.usecase.ToggleFavorite(ctx, chi.URLParam(r, "prompt_id"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, updated)
}

// Export handles GET /prompts/{prompt_id}/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := h.promptContext(r, "ExportPrompt")

	dialect := entity.PromptDialect(r.URL.Query().Get("dialect"))
	if dialect == "" {
		dialect = entity.DialectCli
	}
	format := entity.ResultFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = entity.FormatMarkdown
	}

	ctx = logger.AddFields(ctx,
		zap.String("dialect", string(dialect)),
		zap.String("format", string(format)),
	)

	file, err := h.usecase.Export(ctx, chi.URLParam(r, "prompt_id"), dialect, format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "prompt exported")
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Data)
}

func (h *Handler) promptContext(r *http.Request, action string) context.Context {
	return logger.AddFields(r.Context(),
		zap.String("prompt_id", chi.URLParam(r, "prompt_id")),
		zap.String("action", action),
	)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Error(ctx, message)
	}
	response.JSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrPromptNotFound), errors.Is(err, entity.ErrSessionNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "resource not found", err)
	case errors.Is(err, entity.ErrInvalidParameter), errors.Is(err, entity.ErrMissingField):
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, entity.ErrNoResult):
		h.respondError(ctx, w, http.StatusConflict, "session has no assembled result", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
