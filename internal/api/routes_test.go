package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/onnwee/forcemap/internal/cache"
	"github.com/onnwee/forcemap/internal/config"
	"github.com/onnwee/forcemap/internal/service"
)

func testRouterConfig() *config.Config {
	return &config.Config{
		FrameWidth:         800,
		FrameHeight:        600,
		Scale:              1.0,
		Theta:              0.5,
		InitialTemp:        50,
		CoolingRate:        0.95,
		MaxIterations:      10,
		GraphVertices:      25,
		GraphEdgeProb:      0.1,
		GraphSeed:          42,
		LayoutSeed:         7,
		ProgressEvery:      5,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		EnableRateLimit:    false,
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	svc := service.NewService(cfg, cache.NewMockCache())
	return NewRouter(cfg, svc, nil)
}

func TestHealthzRoute(t *testing.T) {
	router := newTestRouter(testRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	router := newTestRouter(testRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestLayoutRoundTripThroughRouter(t *testing.T) {
	router := newTestRouter(testRouterConfig())

	post := httptest.NewRequest(http.MethodPost, "/api/layouts", strings.NewReader(`{"vertices":20,"iterations":5}`))
	post.Header.Set("Content-Type", "application/json")
	postRec := httptest.NewRecorder()
	router.ServeHTTP(postRec, post)

	if postRec.Code != http.StatusOK {
		t.Fatalf("post: expected 200, got %d: %s", postRec.Code, postRec.Body.String())
	}

	var result service.Result
	if err := json.Unmarshal(postRec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}

	get := httptest.NewRequest(http.MethodGet, "/api/layouts/"+result.Key, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, get)

	if getRec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", getRec.Code)
	}
	if getRec.Header().Get("ETag") == "" {
		t.Error("expected ETag header on layout fetch")
	}
}

func TestConditionalLayoutFetch(t *testing.T) {
	router := newTestRouter(testRouterConfig())

	post := httptest.NewRequest(http.MethodPost, "/api/layouts", strings.NewReader(`{"vertices":15,"iterations":5}`))
	postRec := httptest.NewRecorder()
	router.ServeHTTP(postRec, post)
	var result service.Result
	if err := json.Unmarshal(postRec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}

	first := httptest.NewRequest(http.MethodGet, "/api/layouts/"+result.Key, nil)
	firstRec := httptest.NewRecorder()
	router.ServeHTTP(firstRec, first)
	etag := firstRec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	second := httptest.NewRequest(http.MethodGet, "/api/layouts/"+result.Key, nil)
	second.Header.Set("If-None-Match", etag)
	secondRec := httptest.NewRecorder()
	router.ServeHTTP(secondRec, second)

	if secondRec.Code != http.StatusNotModified {
		t.Errorf("expected 304 for matching If-None-Match, got %d", secondRec.Code)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	router := newTestRouter(testRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected X-Content-Type-Options header")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestRateLimitApplied(t *testing.T) {
	cfg := testRouterConfig()
	cfg.EnableRateLimit = true
	cfg.RateLimitGlobal = 1000
	cfg.RateLimitGlobalBurst = 1000
	cfg.RateLimitPerIP = 1
	cfg.RateLimitPerIPBurst = 2
	router := newTestRouter(cfg)

	var last int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		last = rr.Code
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("expected 429 after exhausting per-IP burst, got %d", last)
	}
}

func TestUnknownRoute(t *testing.T) {
	router := newTestRouter(testRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}
