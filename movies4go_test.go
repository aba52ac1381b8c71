package movies4go

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/ammar0144/movies4go/pkg/jsonlog"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.DB.DSN = ":memory:"
	cfg.DB.MaxOpenConns = 1
	cfg.DB.MaxIdleConns = 1
	cfg.DB.Logging.Level = "silent"
	cfg.API.Limiter.Enabled = false
	return cfg
}

func newApp(t *testing.T, cfg *Config) *App {
	t.Helper()

	app, err := New(context.Background(), cfg, jsonlog.New(io.Discard, jsonlog.LevelOff))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNewRequiresConfigs(t *testing.T) {
	if _, err := New(context.Background(), &Config{}, jsonlog.New(io.Discard, jsonlog.LevelOff)); err == nil {
		t.Fatalf("expected an error for missing configs")
	}
}

func TestAppServesWithoutCache(t *testing.T) {
	app := newApp(t, testConfig())
	h := app.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/genres/", strings.NewReader(`{"name":"Noir"}`)))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("POST: got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/genres/", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"Noir"`) {
		t.Fatalf("GET: got %d: %s", rr.Code, rr.Body.String())
	}

	if m := app.CacheMetrics(); m.GetOperations != 0 {
		t.Fatalf("disabled cache should see no traffic, got %+v", m)
	}
	if _, err := app.DBStats(); err != nil {
		t.Fatalf("DBStats: %v", err)
	}
}

func TestAppWithCache(t *testing.T) {
	srv := miniredis.RunT(t)
	port, err := strconv.Atoi(srv.Port())
	if err != nil {
		t.Fatalf("parse miniredis port: %v", err)
	}

	cfg := testConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Host = srv.Host()
	cfg.Redis.Port = port
	cfg.Redis.WarmOnStartup = true

	app := newApp(t, cfg)
	h := app.Handler()

	// Warm-up cached the empty director listing; this read is a hit.
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/directors/", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "[]\n" {
		t.Fatalf("GET: got %d: %q", rr.Code, rr.Body.String())
	}
	if hits := app.CacheMetrics().CacheHits; hits != 1 {
		t.Fatalf("expected 1 cache hit, got %d", hits)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/directors/", strings.NewReader(`{"name":"Bergman"}`)))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("POST: got %d: %s", rr.Code, rr.Body.String())
	}

	// The write evicted the cached listing.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/directors/", nil))
	if !strings.Contains(rr.Body.String(), `"Bergman"`) {
		t.Fatalf("stale listing after write: %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if !strings.Contains(rr.Body.String(), `"cache": "up"`) {
		t.Fatalf("expected cache up in healthcheck: %s", rr.Body.String())
	}
}

func TestAppFailsOnUnreachableCache(t *testing.T) {
	cfg := testConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Host = "127.0.0.1"
	cfg.Redis.Port = 1
	cfg.Redis.DialTimeout = 100 * time.Millisecond

	if _, err := New(context.Background(), cfg, jsonlog.New(io.Discard, jsonlog.LevelOff)); err == nil {
		t.Fatalf("expected an error for an unreachable cache")
	}
}
