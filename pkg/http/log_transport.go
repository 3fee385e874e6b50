package http

import (
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// context key for attaching the outbound payload for debug logging
type payloadContextKey struct{}

type logTransport struct {
	transport http.RoundTripper
}

// credential-bearing headers are logged redacted
var redactedHeaders = []string{"Authorization", "X-Api-Key", "X-Goog-Api-Key"}

func redactHeaders(h http.Header) http.Header {
	clone := h.Clone()
	for _, name := range redactedHeaders {
		if clone.Get(name) != "" {
			clone.Set(name, "[REDACTED]")
		}
	}
	return clone
}

func (t *logTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Any("headers", redactHeaders(req.Header)),
	}

	if payload, ok := ctx.Value(payloadContextKey{}).([]byte); ok && len(payload) > 0 {
		fields = append(fields, zap.ByteString("payload", payload))
	}

	ctxzap.Debug(ctx, "HTTP outbound request", fields...)

	return t.transport.RoundTrip(req)
}

// WithRequestLogging wraps the HTTP transport with logging of method, URL, headers and payload metadata.
func WithRequestLogging() HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &logTransport{
			transport: rt,
		}
	})
}

