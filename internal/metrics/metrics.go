package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Layout run metrics
	LayoutRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "layout_runs_total",
			Help: "Total number of layout runs",
		},
		[]string{"status"}, // status: success, failed
	)

	LayoutRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "layout_run_duration_seconds",
			Help:    "Duration of full layout runs in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"strategy"}, // strategy: brute_force, barnes_hut
	)

	LayoutStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "layout_step_duration_seconds",
			Help:    "Duration of individual layout iterations in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"strategy"},
	)

	LayoutIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "layout_iterations",
			Help:    "Number of iterations per layout run",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2000},
		},
	)

	LayoutKineticEnergy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "layout_kinetic_energy",
			Help: "Kinetic energy of the most recent layout iteration",
		},
	)

	LayoutGraphNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "layout_graph_nodes",
			Help: "Vertex count of the graph currently being laid out",
		},
	)

	LayoutGraphEdges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "layout_graph_edges",
			Help: "Edge count of the graph currently being laid out",
		},
	)

	// Quadtree metrics
	QuadTreeNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quadtree_nodes",
			Help: "Cell count of the most recently built quadtree",
		},
	)

	QuadTreeBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quadtree_build_duration_seconds",
			Help:    "Duration of quadtree builds in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5},
		},
	)

	// Result cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "layout_cache_hits_total",
			Help: "Total number of layout result cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "layout_cache_misses_total",
			Help: "Total number of layout result cache misses",
		},
	)

	CacheItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "layout_cache_items",
			Help: "Current number of items in the layout result cache",
		},
	)

	CacheSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "layout_cache_size_bytes",
			Help: "Current size of the layout result cache in bytes",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "layout_cache_evictions_total",
			Help: "Total number of layout result cache evictions",
		},
	)

	// Persistence metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of store operations",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"operation"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of store operation errors",
		},
		[]string{"operation"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"component"},
	)

	CircuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_trips_total",
			Help: "Total number of circuit breaker trips",
		},
		[]string{"component"},
	)

	// API request metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"endpoint", "method", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	// WebSocket metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	WebSocketMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent to clients",
		},
	)
)
