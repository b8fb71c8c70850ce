package server

import (
	"context"
	"net/http"
	"time"

	"github.com/onnwee/forcemap/internal/api"
	"github.com/onnwee/forcemap/internal/api/handlers"
	"github.com/onnwee/forcemap/internal/cache"
	"github.com/onnwee/forcemap/internal/config"
	"github.com/onnwee/forcemap/internal/logger"
	"github.com/onnwee/forcemap/internal/metrics"
	"github.com/onnwee/forcemap/internal/service"
	"github.com/onnwee/forcemap/internal/store"
)

// Server ties the layout service, its background job and the HTTP API
// together.
type Server struct {
	cfg       *config.Config
	cache     cache.Cache
	service   *service.Service
	job       *service.Job
	collector *metrics.Collector
	ws        *handlers.WebSocketHandler
	http      *http.Server
}

// New assembles a server from configuration. The store is optional;
// pass nil to run without persistence.
func New(cfg *config.Config, st *store.Store) (*Server, error) {
	c, err := cache.NewLRU(cfg.CacheMaxSizeMB, cfg.CacheMaxItems, cfg.CacheTTL)
	if err != nil {
		return nil, err
	}

	svc := service.NewService(cfg, c)
	if st != nil {
		svc.SetStore(st)
	}

	ws := handlers.NewWebSocketHandler()
	svc.SetPublisher(ws.GetHub())

	s := &Server{
		cfg:       cfg,
		cache:     c,
		service:   svc,
		collector: metrics.NewCollector(c, 30*time.Second),
		ws:        ws,
	}
	if !cfg.DisableJob {
		s.job = service.NewJob(svc, cfg.JobInterval)
	}

	s.http = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      api.NewRouter(cfg, svc, ws),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Service exposes the layout service, mainly for tests.
func (s *Server) Service() *service.Service {
	return s.service
}

// Start launches background workers and the HTTP listener. It blocks
// until the listener stops.
func (s *Server) Start(ctx context.Context) error {
	go s.collector.Start(ctx)
	if s.job != nil {
		go s.job.Start(ctx)
	}

	logger.Info("Server listening", "addr", s.cfg.ListenAddr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.collector.Stop()
	s.ws.GetHub().Stop()
	return s.http.Shutdown(ctx)
}
