package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/forcemap/internal/api/handlers"
	"github.com/onnwee/forcemap/internal/config"
	"github.com/onnwee/forcemap/internal/metrics"
	"github.com/onnwee/forcemap/internal/middleware"
	"github.com/onnwee/forcemap/internal/service"
)

// NewRouter wires the layout API with the full middleware stack.
func NewRouter(cfg *config.Config, svc *service.Service, ws *handlers.WebSocketHandler) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RecoverWithSentry)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(&middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-None-Match"},
		ExposedHeaders:   []string{"ETag", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.EnableRateLimit {
		rl := middleware.NewRateLimiter(
			cfg.RateLimitGlobal, cfg.RateLimitGlobalBurst,
			cfg.RateLimitPerIP, cfg.RateLimitPerIPBurst,
		)
		r.Use(rl.Limit)
	}
	r.Use(middleware.ValidateRequestBody)

	lh := handlers.NewLayoutHandler(svc)

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/layouts",
		instrument("/api/layouts", middleware.Compress(http.HandlerFunc(lh.PostLayout)))).Methods("POST")
	api.Handle("/layouts/{key}",
		instrument("/api/layouts/{key}", middleware.Compress(middleware.ETag(http.HandlerFunc(lh.GetLayout))))).Methods("GET")
	api.HandleFunc("/healthz", handlers.Health).Methods("GET")
	if ws != nil {
		api.HandleFunc("/ws", ws.HandleWebSocket)
	}

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}

// statusRecorder captures the response status for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func instrument(endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sr, r)

		status := strconv.Itoa(sr.status)
		metrics.APIRequestDuration.WithLabelValues(endpoint, r.Method, status).Observe(time.Since(start).Seconds())
		metrics.APIRequestsTotal.WithLabelValues(endpoint, r.Method, status).Inc()
	})
}
