package health

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Danial-Baharvand/wisper-sub000/internal/eventstore"
	"github.com/Danial-Baharvand/wisper-sub000/internal/transcription"
	"github.com/labstack/echo/v4"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestStore(t *testing.T) *eventstore.Store {
	t.Helper()
	store, err := eventstore.Open(context.Background(), filepath.Join(t.TempDir(), "health.db"), testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLiveness(t *testing.T) {
	h := NewHandler(nil, nil, transcription.Config{}, "test")
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestReadinessHealthy(t *testing.T) {
	// The STT check only probes reachability, so any listening server works.
	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer upstream.Close()

	cfg := transcription.Config{
		Endpoint: "ws" + strings.TrimPrefix(upstream.URL, "http"),
		APIKey:   "key",
	}
	h := NewHandler(openTestStore(t), nil, cfg, "test")
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != StatusHealthy {
		t.Errorf("status = %q, want healthy; components = %+v", resp.Status, resp.Components)
	}
	if resp.Components["history"].Status != StatusHealthy {
		t.Errorf("history = %+v", resp.Components["history"])
	}
	if resp.Components["stt"].Status != StatusHealthy {
		t.Errorf("stt = %+v", resp.Components["stt"])
	}
}

func TestReadinessDegradedWithoutAPIKey(t *testing.T) {
	h := NewHandler(openTestStore(t), nil, transcription.Config{}, "test")
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for degraded", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != StatusDegraded {
		t.Errorf("status = %q, want degraded", resp.Status)
	}
}

func TestSTTCheckHonorsDeadline(t *testing.T) {
	// Blackholed address over wss: the probe must give up with the
	// context, not hang on the OS TCP timeout.
	cfg := transcription.Config{
		Endpoint: "wss://10.255.255.1:443",
		APIKey:   "key",
	}
	h := NewHandler(nil, nil, cfg, "test")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	status := h.checkSTT(ctx)
	elapsed := time.Since(start)

	if status.Status != StatusUnhealthy {
		t.Errorf("status = %+v, want unhealthy", status)
	}
	if elapsed > 3*time.Second {
		t.Errorf("checkSTT took %v, want bounded by the context deadline", elapsed)
	}
}

func TestReadinessUnhealthyWithoutStore(t *testing.T) {
	h := NewHandler(nil, nil, transcription.Config{APIKey: "key"}, "test")
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
