package model

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/pkg/logger"
	"github.com/promptweaver/prompt-backend/internal/pkg/response"
)

type Handler struct {
	usecase ModelUsecase
}

func NewHandler(usecase ModelUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// Create handles POST /model-configs
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "CreateModelConfig")

	var input entity.ModelConfigInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	view, err := h.usecase.CreateConfig(ctx, input)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Created(w, view)
}

// List handles GET /model-configs
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListModelConfigs")

	views, err := h.usecase.ListConfigs(ctx)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Debug(ctx, "model configs listed", zap.Int("count", len(views)))
	response.Success(w, map[string]any{"configs": views})
}

// Get handles GET /model-configs/{config_id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := h.configContext(r, "GetModelConfig")

	view, err := h.usecase.GetConfig(ctx, chi.URLParam(r, "config_id"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, view)
}

// Update handles PUT /model-configs/{config_id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := h.configContext(r, "UpdateModelConfig")

	var input entity.ModelConfigInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	view, err := h.usecase.UpdateConfig(ctx, chi.URLParam(r, "config_id"), input)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, view)
}

// Delete handles DELETE /model-configs/{config_id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := h.configContext(r, "DeleteModelConfig")

	if err := h.usecase.DeleteConfig(ctx, chi.URLParam(r, "config_id")); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "model config deleted")
	response.Success(w, map[string]string{"status": "deleted"})
}

// SetDefault handles POST /model-configs/{config_id}/default
func (h *Handler) SetDefault(w http.ResponseWriter, r *http.Request) {
	ctx := h.configContext(r, "SetDefaultModelConfig")

	view, err := h.usecase.SetDefault(ctx, chi.URLParam(r, "config_id"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "default model config changed")
	response.Success(w, view)
}

// TestConnection handles POST /model-configs/test
func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "TestConnection")

	var req entity.TestConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ok, err := h.usecase.TestConnection(ctx, req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, entity.TestConnectionResponse{Success: ok})
}

func (h *Handler) configContext(r *http.Request, action string) context.Context {
	return logger.AddFields(r.Context(),
		zap.String("config_id", chi.URLParam(r, "config_id")),
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
	case errors.Is(err, entity.ErrModelConfigNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "model config not found", err)
	case errors.Is(err, entity.ErrInvalidParameter),
		errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidFormat):
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
