package chi

import (
	"net/http"
	"strconv"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecnote/internal/domain"
	logpkg "github.com/kailas-cloud/vecnote/internal/logger"
)

// Response headers reporting provider tokens spent on a request.
const (
	headerEmbeddingTokens  = "X-Embedding-Tokens"
	headerCompletionTokens = "X-Completion-Tokens"
)

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("Panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits one canonical log line per request, installs a
// request-scoped logger and echoes X-Request-ID. Request bodies are never
// logged: they carry note content.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)
			ctx, usage := domain.NewContextWithUsage(ctx)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			}
			if usage.Used {
				fields = append(fields,
					zap.Int("embedding_tokens", usage.EmbeddingTokens),
					zap.Int("completion_tokens", usage.CompletionTokens),
				)
			}
			reqLogger.Info("http_request", fields...)
		})
	}
}

// limitBody caps the request body size.
func limitBody(n int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// setUsageHeaders reports the tokens spent so far. Call before writing the body.
func setUsageHeaders(w http.ResponseWriter, r *http.Request) {
	usage := domain.UsageFromContext(r.Context())
	if usage == nil || !usage.Used {
		return
	}
	w.Header().Set(headerEmbeddingTokens, strconv.Itoa(usage.EmbeddingTokens))
	w.Header().Set(headerCompletionTokens, strconv.Itoa(usage.CompletionTokens))
}
