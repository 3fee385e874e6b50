package generate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/integration/ai"
	"github.com/promptweaver/prompt-backend/internal/pkg/logger"
	"github.com/promptweaver/prompt-backend/internal/pkg/response"
	"github.com/promptweaver/prompt-backend/internal/prompt"
)

type Handler struct {
	usecase GenerateUsecase
}

func NewHandler(usecase GenerateUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// tagView is the metadata entry returned by GET /tags.
type tagView struct {
	Tag prompt.Tag `json:"tag"`
	prompt.TagInfo
}

// ListTags handles GET /tags - tag metadata in canonical assembly order
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	views := make([]tagView, 0, len(prompt.AllTags))
	for _, tag := range prompt.AllTags {
		views = append(views, tagView{Tag: tag, TagInfo: prompt.TagMetadata[tag]})
	}
	response.Success(w, views)
}

// StartSession handles POST /generation-sessions
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "StartSession")

	session, err := h.usecase.StartSession(ctx)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Created(w, session)
}

// GetSession handles GET /generation-sessions/{session_id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx := h.sessionContext(r, "GetSession")

	session, err := h.usecase.GetSession(ctx, chi.URLParam(r, "session_id"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

// ResetSession handles POST /generation-sessions/{session_id}/reset
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	ctx := h.sessionContext(r, "ResetSession")

	session, err := h.usecase.ResetSession(ctx, chi.URLParam(r, "session_id"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "session reset")
	response.Success(w, session)
}

// SubmitDescription handles POST /generation-sessions/{session_id}/description
func (h *Handler) SubmitDescription(w http.ResponseWriter, r *http.Request) {
	ctx := h.sessionContext(r, "SubmitDescription")

	var req entity.SubmitDescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	session, err := h.usecase.SubmitDescription(ctx, chi.URLParam(r, "session_id"), req.Description)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

// Analyze handles POST /generation-sessions/{session_id}/analyze
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := h.sessionContext(r, "Analyze")

	ctxzap.Info(ctx, "running intent analysis")

	session, err := h.usecase.Analyze(ctx, chi.URLParam(r, "session_id"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

// AcceptAnalysis handles POST /generation-sessions/{session_id}/accept-analysis
func (h *Handler) AcceptAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := h.sessionContext(r, "AcceptAnalysis")

	ctxzap.Info(ctx, "synthesizing tag contents")

	session, err := h.usecase.AcceptAnalysis(ctx, chi.URLParam(r, "session_id"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

// SetLanguage handles POST /generation-sessions/{session_id}/language
func (h *Handler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	ctx := h.sessionContext(r, "SetLanguage")

	var req entity.SetLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	session, err := h.usecase.SetLanguage(ctx, chi.URLParam(r, "session_id"), prompt.Language(req.Language))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

// SetOutputStyle handles POST /generation-sessions/{session_id}/style
func (h *Handler) SetOutputStyle(w http.ResponseWriter, r *http.Request) {
	ctx := h.sessionContext(r, "SetOutputStyle")

	var req entity.SetOutputStyleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	session, err := h.usecase.SetOutputStyle(ctx, chi.URLParam(r, "session_id"), prompt.OutputStyle(req.Style))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

// ToggleTag handles POST /generation-sessions/{session_id}/tags/toggle
func (h *Handler) ToggleTag(w http.ResponseWriter, r *http.Request) {
	h.tagAction(w, r, "ToggleTag", h.usecase.ToggleTag)
}

// ResetTagContent handles POST /generation-sessions/{session_id}/tags/reset
func (h *Handler) ResetTagContent(w http.ResponseWriter, r *http.Request) {
	h.tagAction(w, r, "ResetTagContent", h.usecase.ResetTagContent)
}

// PolishTag handles POST /generation-sessions/{session_id}/tags/polish
func (h *Handler) PolishTag(w http.ResponseWriter, r *http.Request) {
	h.tagAction(w, r, "PolishTag", h.usecase.PolishTag)
}

// EditTagContent handles POST /generation-sessions/{session_id}/tags/content
func (h *Handler) EditTagContent(w http.ResponseWriter, r *http.Request) {
	ctx := h.sessionContext(r, "EditTagContent")

	var req entity.EditTagContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	tag, err := prompt.ParseTag(req.Tag)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "unknown tag", err)
		return
	}

	session, err := h.usecase.EditTagContent(ctx, chi.URLParam(r, "session_id"), tag, req.Content)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

// AssembleResult handles POST /generation-sessions/{session_id}/assemble
func (h *Handler) AssembleResult(w http.ResponseWriter, r *http.Request) {
	ctx := h.sessionContext(r, "AssembleResult")

	session, err := h.usecase.AssembleResult(ctx, chi.URLParam(r, "session_id"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "result assembled")
	response.Success(w, session)
}

// QualityCheck handles POST /generation-sessions/{session_id}/quality-check
func (h *Handler) QualityCheck(w http.ResponseWriter, r *http.Request) {
	ctx := h.sessionContext(r, "QualityCheck")

	ctxzap.Info(ctx, "running quality check")

	session, err := h.usecase.QualityCheck(ctx, chi.URLParam(r, "session_id"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

// PolishByQualityCheck handles POST /generation-sessions/{session_id}/quality-polish
func (h *Handler) PolishByQualityCheck(w http.ResponseWriter, r *http.Request) {
	ctx := h.sessionContext(r, "PolishByQualityCheck")

	ctxzap.Info(ctx, "polishing by quality findings")

	session, err := h.usecase.PolishByQualityCheck(ctx, chi.URLParam(r, "session_id"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

// tagAction decodes the shared {tag} request shape and dispatches to fn.
func (h *Handler) tagAction(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	fn func(ctx context.Context, sessionID string, tag prompt.Tag) (*entity.GenerationSession, error),
) {
	ctx := h.sessionContext(r, action)

	var req entity.TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	tag, err := prompt.ParseTag(req.Tag)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "unknown tag", err)
		return
	}

	session, err := fn(ctx, chi.URLParam(r, "session_id"), tag)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

func (h *Handler) sessionContext(r *http.Request, action string) context.Context {
	return logger.AddFields(r.Context(),
		zap.String("session_id", chi.URLParam(r, "session_id")),
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
	var provErr *ai.ProviderError

	switch {
	case errors.Is(err, entity.ErrSessionNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "session not found", err)
	case errors.Is(err, entity.ErrDescriptionTooShort),
		errors.Is(err, entity.ErrInvalidParameter),
		errors.Is(err, entity.ErrMissingField):
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, entity.ErrSessionBusy),
		errors.Is(err, entity.ErrNoAnalysis),
		errors.Is(err, entity.ErrNoResult),
		errors.Is(err, entity.ErrAINotConfigured):
		h.respondError(ctx, w, http.StatusConflict, err.Error(), err)
	case errors.Is(err, entity.ErrResponseParse), errors.As(err, &provErr):
		h.respondError(ctx, w, http.StatusBadGateway, err.Error(), err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
