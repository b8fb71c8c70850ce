package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onnwee/forcemap/internal/config"
	"github.com/onnwee/forcemap/internal/service"
)

func testServerConfig() *config.Config {
	return &config.Config{
		FrameWidth:     800,
		FrameHeight:    600,
		Scale:          1.0,
		Theta:          0.5,
		InitialTemp:    50,
		CoolingRate:    0.95,
		MaxIterations:  10,
		GraphVertices:  25,
		GraphEdgeProb:  0.1,
		GraphSeed:      42,
		LayoutSeed:     7,
		ProgressEvery:  5,
		ListenAddr:     "127.0.0.1:0",
		RequestTimeout: 30 * time.Second,
		CacheMaxSizeMB: 8,
		CacheMaxItems:  32,
		CacheTTL:       time.Minute,
		JobInterval:    time.Hour,
		DisableJob:     true,
	}
}

func TestNewServerWithoutStore(t *testing.T) {
	s, err := New(testServerConfig(), nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	defer s.ws.GetHub().Stop()

	if s.Service() == nil {
		t.Fatal("expected service to be wired")
	}
	if s.job != nil {
		t.Error("expected job to be disabled")
	}
}

func TestServerServesLayouts(t *testing.T) {
	s, err := New(testServerConfig(), nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	defer s.ws.GetHub().Stop()

	ts := httptest.NewServer(s.http.Handler)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/layouts", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	// The run should now be retrievable directly from the service.
	params := service.DefaultParams(testServerConfig())
	if _, err := s.Service().Get(context.Background(), params.Key()); err != nil {
		t.Errorf("expected computed layout in cache: %v", err)
	}
}

func TestServerShutdown(t *testing.T) {
	s, err := New(testServerConfig(), nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
