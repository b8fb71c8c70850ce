package config

import (
	"os"
	"strings"
	"time"

	"github.com/onnwee/forcemap/internal/utils"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	// Frame and layout parameters
	FrameWidth    float64
	FrameHeight   float64
	Scale         float64 // scaling constant C in k = C·sqrt(W·H/n)
	Theta         float64 // Barnes-Hut acceptance threshold
	InitialTemp   float64
	CoolingRate   float64
	MaxIterations int
	// Default demo graph
	GraphVertices int
	GraphEdgeProb float64
	GraphSeed     uint64
	LayoutSeed    uint64
	// Output
	OutputDir string
	// HTTP server
	ListenAddr     string
	RequestTimeout time.Duration
	ProgressEvery  int // iterations between websocket progress frames
	// Cache
	CacheMaxSizeMB int64
	CacheMaxItems  int64
	CacheTTL       time.Duration
	// Persistence (optional; empty disables the store)
	DatabaseURL string
	// Background keep-warm job
	JobInterval time.Duration
	DisableJob  bool
	// Security settings
	RateLimitGlobal      float64  // requests per second globally
	RateLimitGlobalBurst int      // burst size for global rate limit
	RateLimitPerIP       float64  // requests per second per IP
	RateLimitPerIPBurst  int      // burst size for per-IP rate limit
	CORSAllowedOrigins   []string // allowed CORS origins
	EnableRateLimit      bool     // enable rate limiting middleware
	// Observability settings
	LogLevel          string  // log level: debug, info, warn, error
	OTELEnabled       bool    // enable OpenTelemetry tracing
	OTELEndpoint      string  // OpenTelemetry collector endpoint
	OTELSampleRate    float64 // trace sampling rate (0.0 to 1.0)
	SentryDSN         string  // Sentry DSN for error reporting
	SentryEnvironment string  // Sentry environment (dev, staging, production)
	SentryRelease     string  // Sentry release version
}

var cached *Config

// Load reads env vars once and caches them.
func Load() *Config {
	if cached != nil {
		return cached
	}
	cached = &Config{
		FrameWidth:    utils.GetEnvAsFloat("FRAME_WIDTH", 1920),
		FrameHeight:   utils.GetEnvAsFloat("FRAME_HEIGHT", 1080),
		Scale:         utils.GetEnvAsFloat("LAYOUT_SCALE", 1.0),
		Theta:         utils.GetEnvAsFloat("BARNES_HUT_THETA", 0.5),
		InitialTemp:   utils.GetEnvAsFloat("INITIAL_TEMPERATURE", 200),
		CoolingRate:   utils.GetEnvAsFloat("COOLING_RATE", 0.95),
		MaxIterations: utils.GetEnvAsInt("MAX_ITERATIONS", 500),

		GraphVertices: utils.GetEnvAsInt("GRAPH_VERTICES", 1000),
		GraphEdgeProb: utils.GetEnvAsFloat("GRAPH_EDGE_PROB", 0.02),
		GraphSeed:     utils.GetEnvAsUint64("GRAPH_SEED", 42),
		LayoutSeed:    utils.GetEnvAsUint64("LAYOUT_SEED", 7),

		OutputDir: envOr("OUTPUT_DIR", "output"),

		ListenAddr:     envOr("LISTEN_ADDR", ":8000"),
		RequestTimeout: time.Duration(utils.GetEnvAsInt("REQUEST_TIMEOUT_MS", 60000)) * time.Millisecond,
		ProgressEvery:  utils.GetEnvAsInt("PROGRESS_EVERY", 10),

		CacheMaxSizeMB: int64(utils.GetEnvAsInt("CACHE_MAX_SIZE_MB", 64)),
		CacheMaxItems:  int64(utils.GetEnvAsInt("CACHE_MAX_ITEMS", 256)),
		CacheTTL:       time.Duration(utils.GetEnvAsInt("CACHE_TTL_MIN", 60)) * time.Minute,

		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),

		JobInterval: time.Duration(utils.GetEnvAsInt("JOB_INTERVAL_MIN", 60)) * time.Minute,
		DisableJob:  utils.GetEnvAsBool("DISABLE_LAYOUT_JOB", false),

		RateLimitGlobal:      utils.GetEnvAsFloat("RATE_LIMIT_GLOBAL", 100.0),
		RateLimitGlobalBurst: utils.GetEnvAsInt("RATE_LIMIT_GLOBAL_BURST", 200),
		RateLimitPerIP:       utils.GetEnvAsFloat("RATE_LIMIT_PER_IP", 10.0),
		RateLimitPerIPBurst:  utils.GetEnvAsInt("RATE_LIMIT_PER_IP_BURST", 20),
		EnableRateLimit:      utils.GetEnvAsBool("ENABLE_RATE_LIMIT", true),

		LogLevel:          strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		OTELEnabled:       utils.GetEnvAsBool("OTEL_ENABLED", false),
		OTELEndpoint:      strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTELSampleRate:    utils.GetEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0.1),
		SentryDSN:         strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		SentryEnvironment: strings.TrimSpace(os.Getenv("SENTRY_ENVIRONMENT")),
		SentryRelease:     strings.TrimSpace(os.Getenv("SENTRY_RELEASE")),
	}
	if cached.LogLevel == "" {
		cached.LogLevel = "info"
	}
	if cached.SentryEnvironment == "" {
		if env := os.Getenv("ENV"); env != "" {
			cached.SentryEnvironment = env
		} else {
			cached.SentryEnvironment = "development"
		}
	}

	corsOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if corsOrigins == "" {
		cached.CORSAllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	} else {
		cached.CORSAllowedOrigins = strings.Split(corsOrigins, ",")
		for i := range cached.CORSAllowedOrigins {
			cached.CORSAllowedOrigins[i] = strings.TrimSpace(cached.CORSAllowedOrigins[i])
		}
	}

	return cached
}

// ResetForTest clears cached config; for use in tests only.
func ResetForTest() { cached = nil }

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
