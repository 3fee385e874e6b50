package convert

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/pkg/logger"
	"github.com/promptweaver/prompt-backend/internal/pkg/response"
	"github.com/promptweaver/prompt-backend/internal/prompt"
)

// Handler exposes the stateless dialect converter. Conversion is lossy and
// never fails: unrecognized input yields an empty result, not an error.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// CliToWeb handles POST /convert/cli-to-web
func (h *Handler) CliToWeb(w http.ResponseWriter, r *http.Request) {
	h.convert(w, r, "ConvertCliToWeb", prompt.CliToWeb)
}

// WebToCli handles POST /convert/web-to-cli
func (h *Handler) WebToCli(w http.ResponseWriter, r *http.Request) {
	h.convert(w, r, "ConvertWebToCli", prompt.WebToCli)
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request, action string, fn func(string) string) {
	ctx := logger.WithAction(r.Context(), action)

	var req entity.ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	converted := fn(req.Text)

	ctxzap.Debug(ctx, "dialect converted",
		zap.Int("input_len", len(req.Text)),
		zap.Int("output_len", len(converted)),
	)

	response.Success(w, entity.ConvertResponse{
		Text:  converted,
		Empty: converted == "",
	})
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	ctxzap.Error(ctx, message, zap.Error(err))
	response.JSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
