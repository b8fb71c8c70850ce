package service

import (
	"context"
	"time"

	"github.com/onnwee/forcemap/internal/logger"
)

// Job periodically recomputes the default layout so the cache stays warm.
type Job struct {
	service  *Service
	interval time.Duration
}

func NewJob(service *Service, interval time.Duration) *Job {
	return &Job{
		service:  service,
		interval: interval,
	}
}

func (j *Job) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Run immediately on start so the first request hits a warm cache.
	j.run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.run(ctx)
		}
	}
}

func (j *Job) run(ctx context.Context) {
	params := DefaultParams(j.service.cfg)
	if _, err := j.service.Run(ctx, params); err != nil {
		logger.Error("Scheduled layout run failed", "error", err)
	}
}
