package metrics

import (
	"context"
	"time"

	"github.com/onnwee/forcemap/internal/cache"
)

// Collector periodically publishes cache statistics to Prometheus gauges.
type Collector struct {
	cache         cache.Cache
	interval      time.Duration
	stop          chan struct{}
	lastEvictions uint64
}

// NewCollector creates a new metrics collector.
func NewCollector(c cache.Cache, interval time.Duration) *Collector {
	return &Collector{
		cache:    c,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the metrics collection loop.
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.collect()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the metrics collector.
func (c *Collector) Stop() {
	close(c.stop)
}

func (c *Collector) collect() {
	stats := c.cache.Stats()
	CacheItems.Set(float64(stats.Items))
	CacheSizeBytes.Set(float64(stats.Size))
	// Evictions is cumulative; publish only the delta since the last poll.
	if stats.Evictions >= c.lastEvictions {
		CacheEvictions.Add(float64(stats.Evictions - c.lastEvictions))
	}
	c.lastEvictions = stats.Evictions
}
