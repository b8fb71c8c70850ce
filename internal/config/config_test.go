package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// ensure defaults kick in with empty env
	os.Unsetenv("FRAME_WIDTH")
	os.Unsetenv("FRAME_HEIGHT")
	os.Unsetenv("BARNES_HUT_THETA")
	os.Unsetenv("MAX_ITERATIONS")
	os.Unsetenv("GRAPH_VERTICES")
	ResetForTest()

	cfg := Load()
	if cfg.FrameWidth != 1920 || cfg.FrameHeight != 1080 {
		t.Fatalf("unexpected default frame: %vx%v", cfg.FrameWidth, cfg.FrameHeight)
	}
	if cfg.Theta != 0.5 {
		t.Fatalf("expected default theta=0.5, got %v", cfg.Theta)
	}
	if cfg.MaxIterations != 500 {
		t.Fatalf("expected default iterations=500, got %d", cfg.MaxIterations)
	}
	if cfg.GraphVertices != 1000 {
		t.Fatalf("expected default vertices=1000, got %d", cfg.GraphVertices)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BARNES_HUT_THETA", "0.8")
	t.Setenv("MAX_ITERATIONS", "50")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	ResetForTest()
	t.Cleanup(ResetForTest)

	cfg := Load()
	if cfg.Theta != 0.8 {
		t.Fatalf("expected theta=0.8, got %v", cfg.Theta)
	}
	if cfg.MaxIterations != 50 {
		t.Fatalf("expected iterations=50, got %d", cfg.MaxIterations)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadCaches(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)
	a := Load()
	b := Load()
	if a != b {
		t.Fatalf("expected Load to return the cached config")
	}
}
