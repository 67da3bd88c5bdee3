package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"herd-marketplace/internal/platform/logger"
)

func TestRequestLogger_LogsStatusAndRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(logger.FromZap(zap.New(core))))
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		LoggerFrom(r.Context()).Debug("inside handler", nil)
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})

	for _, path := range []string{"/ok", "/missing"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(chimw.RequestIDHeader, "req-"+path)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	inside := logs.FilterMessage("inside handler").All()
	if len(inside) != 1 || inside[0].ContextMap()["request_id"] != "req-/ok" {
		t.Fatalf("expected request-scoped logger with request_id, got %+v", inside)
	}

	reqs := logs.FilterMessage("http request").All()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 request logs, got %d", len(reqs))
	}
	if reqs[0].Level != zapcore.InfoLevel || reqs[1].Level != zapcore.WarnLevel {
		t.Fatalf("unexpected levels %s / %s", reqs[0].Level, reqs[1].Level)
	}
	if reqs[1].ContextMap()["status"] != int64(http.StatusNotFound) {
		t.Fatalf("expected status 404, got %v", reqs[1].ContextMap()["status"])
	}
}

func TestLoggerFrom_WithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if LoggerFrom(req.Context()) == nil {
		t.Fatalf("expected nop logger")
	}
}
