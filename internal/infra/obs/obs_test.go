package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestJSONLoggerHonoursLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := newLogger(&buf, "prod", "warn")
	log.Info("dropped")
	log.Warn("kept", "k", "v")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected a single json line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "kept" || line["k"] != "v" {
		t.Fatalf("unexpected log line %v", line)
	}
	if ParseLevel("bogus") != slog.LevelInfo {
		t.Fatalf("unknown levels default to info")
	}
}

func TestRequestIDAndReadiness(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	health := HealthHandlers{Checks: map[string]Check{
		"mongo": func(context.Context) error { return errors.New("down") },
	}}
	r := gin.New()
	r.Use(Middleware{}.RequestID())
	r.GET("/readyz", health.Readyz)
	r.GET("/id", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFromContext(c.Request.Context())) })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set("X-Request-ID", "req-1")
	r.ServeHTTP(rec, req)
	if rec.Body.String() != "req-1" || rec.Header().Get("X-Request-ID") != "req-1" {
		t.Fatalf("request id not propagated: %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
