package middleware

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"herd-marketplace/internal/platform/logger"
)

type ctxKey string

const loggerKey ctxKey = "logger"

// RequestLogger:
// - arma un logger con request_id (de chimw.RequestID, que debe ir antes) y lo deja en el contexto
// - al terminar loguea method, path, status y duración
// - 5xx se loguean como error, 4xx como warn
func RequestLogger(base logger.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = logger.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLog := base.With(map[string]any{"request_id": chimw.GetReqID(r.Context())})
			ctx := context.WithValue(r.Context(), loggerKey, reqLog)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
			}

			switch {
			case status >= 500:
				reqLog.Error("http request", fields)
			case status >= 400:
				reqLog.Warn("http request", fields)
			default:
				reqLog.Info("http request", fields)
			}
		})
	}
}

// LoggerFrom devuelve el logger del request, o un Nop si no hay.
func LoggerFrom(ctx context.Context) logger.Logger {
	if l, ok := ctx.Value(loggerKey).(logger.Logger); ok && l != nil {
		return l
	}
	return logger.NewNop()
}
