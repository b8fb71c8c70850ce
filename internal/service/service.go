package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/getsentry/sentry-go"

	"github.com/onnwee/forcemap/internal/cache"
	"github.com/onnwee/forcemap/internal/circuitbreaker"
	"github.com/onnwee/forcemap/internal/config"
	"github.com/onnwee/forcemap/internal/errorreporting"
	"github.com/onnwee/forcemap/internal/graph"
	"github.com/onnwee/forcemap/internal/layout"
	"github.com/onnwee/forcemap/internal/logger"
	"github.com/onnwee/forcemap/internal/metrics"
	"github.com/onnwee/forcemap/internal/store"
	"github.com/onnwee/forcemap/internal/tracing"
)

// Repulsion strategy names accepted in layout parameters.
const (
	StrategyBarnesHut  = "barnes_hut"
	StrategyBruteForce = "brute_force"
)

// ErrNotFound is returned when no computed layout exists for a key.
var ErrNotFound = errors.New("service: layout not found")

// ValidationError marks a parameter validation failure so callers can
// distinguish bad requests from computation failures.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Params describes a layout request. Zero fields are filled from config
// defaults by Normalize.
type Params struct {
	Vertices    int     `json:"vertices"`
	EdgeProb    float64 `json:"edge_prob"`
	GraphSeed   uint64  `json:"graph_seed"`
	LayoutSeed  uint64  `json:"layout_seed"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Scale       float64 `json:"scale"`
	Theta       float64 `json:"theta"`
	Iterations  int     `json:"iterations"`
	Strategy    string  `json:"strategy"`
	Temperature float64 `json:"temperature"`
	CoolingRate float64 `json:"cooling_rate"`
}

// DefaultParams returns the configured default layout request.
func DefaultParams(cfg *config.Config) Params {
	return Params{
		Vertices:    cfg.GraphVertices,
		EdgeProb:    cfg.GraphEdgeProb,
		GraphSeed:   cfg.GraphSeed,
		LayoutSeed:  cfg.LayoutSeed,
		Width:       cfg.FrameWidth,
		Height:      cfg.FrameHeight,
		Scale:       cfg.Scale,
		Theta:       cfg.Theta,
		Iterations:  cfg.MaxIterations,
		Strategy:    StrategyBarnesHut,
		Temperature: cfg.InitialTemp,
		CoolingRate: cfg.CoolingRate,
	}
}

// Normalize fills unset fields from config defaults.
func (p *Params) Normalize(cfg *config.Config) {
	def := DefaultParams(cfg)
	if p.Vertices == 0 {
		p.Vertices = def.Vertices
	}
	if p.EdgeProb == 0 {
		p.EdgeProb = def.EdgeProb
	}
	if p.GraphSeed == 0 {
		p.GraphSeed = def.GraphSeed
	}
	if p.LayoutSeed == 0 {
		p.LayoutSeed = def.LayoutSeed
	}
	if p.Width == 0 {
		p.Width = def.Width
	}
	if p.Height == 0 {
		p.Height = def.Height
	}
	if p.Scale == 0 {
		p.Scale = def.Scale
	}
	if p.Theta == 0 {
		// Zero means "use the default". Callers wanting near-exact
		// accuracy pass a small positive theta instead.
		p.Theta = def.Theta
	}
	if p.Iterations == 0 {
		p.Iterations = def.Iterations
	}
	if p.Strategy == "" {
		p.Strategy = def.Strategy
	}
	if p.Temperature == 0 {
		p.Temperature = def.Temperature
	}
	if p.CoolingRate == 0 {
		p.CoolingRate = def.CoolingRate
	}
}

// maxVertices bounds request size so a single request cannot pin the server.
const maxVertices = 100000

// Validate checks parameter ranges after normalization.
func (p Params) Validate() error {
	if p.Vertices <= 0 {
		return validationErrorf("vertices must be positive, got %d", p.Vertices)
	}
	if p.Vertices > maxVertices {
		return validationErrorf("vertices must be at most %d, got %d", maxVertices, p.Vertices)
	}
	if p.EdgeProb < 0 || p.EdgeProb > 1 {
		return validationErrorf("edge_prob must be in [0, 1], got %v", p.EdgeProb)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return validationErrorf("frame dimensions must be positive, got %vx%v", p.Width, p.Height)
	}
	if p.Scale <= 0 {
		return validationErrorf("scale must be positive, got %v", p.Scale)
	}
	if p.Theta <= 0 || p.Theta >= 1 {
		return validationErrorf("theta must be in (0, 1), got %v", p.Theta)
	}
	if p.Iterations < 1 || p.Iterations > 10000 {
		return validationErrorf("iterations must be in [1, 10000], got %d", p.Iterations)
	}
	if p.Strategy != StrategyBarnesHut && p.Strategy != StrategyBruteForce {
		return validationErrorf("strategy must be %q or %q, got %q", StrategyBarnesHut, StrategyBruteForce, p.Strategy)
	}
	if p.Temperature <= 0 {
		return validationErrorf("temperature must be positive, got %v", p.Temperature)
	}
	if p.CoolingRate <= 0 || p.CoolingRate > 1 {
		return validationErrorf("cooling_rate must be in (0, 1], got %v", p.CoolingRate)
	}
	return nil
}

// Key returns a stable cache key derived from the normalized parameters.
func (p Params) Key() string {
	data, _ := json.Marshal(p)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

// NodePosition is a final vertex coordinate.
type NodePosition struct {
	ID uint32  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// EdgeRef is an edge in the laid-out graph.
type EdgeRef struct {
	Source uint32 `json:"source"`
	Target uint32 `json:"target"`
}

// Result is a completed layout.
type Result struct {
	Key           string         `json:"key"`
	Params        Params         `json:"params"`
	Nodes         []NodePosition `json:"nodes"`
	Edges         []EdgeRef      `json:"edges"`
	KineticEnergy float64        `json:"kinetic_energy"`
	Iterations    int            `json:"iterations"`
	ElapsedMS     int64          `json:"elapsed_ms"`
}

// ProgressPublisher receives per-iteration progress during a run.
type ProgressPublisher interface {
	PublishProgress(key string, iteration, total int, energy float64)
}

// Service computes, caches and persists force-directed layouts.
type Service struct {
	cfg       *config.Config
	cache     cache.Cache
	store     *store.Store
	breaker   *circuitbreaker.CircuitBreaker
	publisher ProgressPublisher
}

// NewService creates a layout service backed by the given cache.
func NewService(cfg *config.Config, c cache.Cache) *Service {
	return &Service{cfg: cfg, cache: c}
}

// SetStore enables persistence of completed runs. Store access runs
// behind a circuit breaker so a failing database cannot slow every run.
func (s *Service) SetStore(st *store.Store) {
	s.store = st
	s.breaker = circuitbreaker.New(circuitbreaker.Config{Name: "store"})
}

// SetPublisher enables progress broadcasting during runs.
func (s *Service) SetPublisher(p ProgressPublisher) {
	s.publisher = p
}

// Run computes the layout for the given parameters, returning a cached
// result when one exists.
func (s *Service) Run(ctx context.Context, params Params) (*Result, error) {
	params.Normalize(s.cfg)
	if err := params.Validate(); err != nil {
		return nil, err
	}
	key := params.Key()

	if data, ok := s.cache.Get(key); ok {
		metrics.CacheHits.Inc()
		var result Result
		if err := json.Unmarshal(data, &result); err == nil {
			logger.DebugContext(ctx, "Layout served from cache", "key", key)
			return &result, nil
		}
		// Corrupt entry, drop it and recompute.
		s.cache.Delete(key)
	}
	metrics.CacheMisses.Inc()

	ctx, span := tracing.StartSpan(ctx, "layout.run", trace.WithAttributes(
		attribute.Int("layout.vertices", params.Vertices),
		attribute.String("layout.strategy", params.Strategy),
		attribute.Int("layout.iterations", params.Iterations),
	))
	defer span.End()

	errorreporting.AddBreadcrumb("layout", "computing "+key, sentry.LevelInfo)

	result, err := s.compute(ctx, key, params)
	if err != nil {
		metrics.LayoutRunsTotal.WithLabelValues("failed").Inc()
		errorreporting.CaptureErrorWithContext(err,
			map[string]string{"component": "service", "strategy": params.Strategy},
			map[string]interface{}{"key": key, "vertices": params.Vertices})
		return nil, err
	}
	metrics.LayoutRunsTotal.WithLabelValues("success").Inc()

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal layout result: %w", err)
	}
	s.cache.Set(key, data, 0)

	if s.store != nil {
		if err := s.persist(ctx, result); err != nil {
			// Persistence failures are logged but do not fail the run.
			logger.WarnContext(ctx, "Failed to persist layout run", "key", key, "error", err)
		}
	}

	return result, nil
}

func (s *Service) compute(ctx context.Context, key string, params Params) (*Result, error) {
	start := time.Now()

	g, err := graph.ErdosRenyi(params.Vertices, params.EdgeProb, params.GraphSeed)
	if err != nil {
		return nil, fmt.Errorf("generate graph: %w", err)
	}
	metrics.LayoutGraphNodes.Set(float64(g.VertexCount()))
	metrics.LayoutGraphEdges.Set(float64(g.EdgeCount()))

	engine := layout.NewEngine(params.Width, params.Height, params.Scale)
	engine.SetTemperature(params.Temperature)
	engine.SetCoolingRate(params.CoolingRate)
	var bh *layout.BarnesHut
	if params.Strategy == StrategyBarnesHut {
		bh = layout.NewBarnesHut(params.Theta)
		engine.SetStrategy(bh)
	}

	if err := engine.Initialize(g, params.LayoutSeed); err != nil {
		return nil, fmt.Errorf("initialize layout: %w", err)
	}

	logger.InfoContext(ctx, "Layout run started",
		"key", key,
		"vertices", g.VertexCount(),
		"edges", g.EdgeCount(),
		"strategy", params.Strategy,
		"iterations", params.Iterations)

	progressEvery := s.cfg.ProgressEvery
	if progressEvery <= 0 {
		progressEvery = 10
	}

	for i := 0; i < params.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("layout run cancelled at iteration %d: %w", i, err)
		}

		stepStart := time.Now()
		if err := engine.Step(g); err != nil {
			return nil, fmt.Errorf("layout step %d: %w", i, err)
		}
		metrics.LayoutStepDuration.WithLabelValues(params.Strategy).Observe(time.Since(stepStart).Seconds())
		if bh != nil {
			metrics.QuadTreeNodes.Set(float64(bh.TreeSize()))
			metrics.QuadTreeBuildDuration.Observe(bh.BuildDuration().Seconds())
		}

		if s.publisher != nil && (i%progressEvery == 0 || i == params.Iterations-1) {
			s.publisher.PublishProgress(key, i+1, params.Iterations, engine.KineticEnergy())
		}
	}

	elapsed := time.Since(start)
	metrics.LayoutRunDuration.WithLabelValues(params.Strategy).Observe(elapsed.Seconds())
	metrics.LayoutIterations.Observe(float64(params.Iterations))
	metrics.LayoutKineticEnergy.Set(engine.KineticEnergy())

	nodes := g.Nodes()
	result := &Result{
		Key:           key,
		Params:        params,
		Nodes:         make([]NodePosition, len(nodes)),
		Edges:         make([]EdgeRef, 0, g.EdgeCount()),
		KineticEnergy: engine.KineticEnergy(),
		Iterations:    params.Iterations,
		ElapsedMS:     elapsed.Milliseconds(),
	}
	for i, n := range nodes {
		result.Nodes[i] = NodePosition{ID: n.ID, X: n.Pos.X, Y: n.Pos.Y}
	}
	for _, e := range g.Edges() {
		result.Edges = append(result.Edges, EdgeRef{Source: e.Source, Target: e.Target})
	}

	logger.InfoContext(ctx, "Layout run finished",
		"key", key,
		"kinetic_energy", result.KineticEnergy,
		"elapsed_ms", result.ElapsedMS)

	return result, nil
}

func (s *Service) persist(ctx context.Context, result *Result) error {
	paramsJSON, err := json.Marshal(result.Params)
	if err != nil {
		return err
	}
	positionsJSON, err := json.Marshal(result.Nodes)
	if err != nil {
		return err
	}
	return s.breaker.Call(func() error {
		return s.store.SaveRun(ctx, store.Run{
			Key:           result.Key,
			Params:        paramsJSON,
			Positions:     positionsJSON,
			KineticEnergy: result.KineticEnergy,
			Iterations:    result.Iterations,
			ElapsedMS:     result.ElapsedMS,
		})
	})
}

// Get returns a previously computed layout by key, consulting the cache
// first and falling back to the store.
func (s *Service) Get(ctx context.Context, key string) (*Result, error) {
	if data, ok := s.cache.Get(key); ok {
		metrics.CacheHits.Inc()
		var result Result
		if err := json.Unmarshal(data, &result); err == nil {
			return &result, nil
		}
		s.cache.Delete(key)
	}
	metrics.CacheMisses.Inc()

	if s.store == nil {
		return nil, ErrNotFound
	}
	var run store.Run
	err := s.breaker.Call(func() error {
		var err error
		run, err = s.store.GetRun(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			// A miss is not a store failure; do not trip the breaker.
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if run.Key == "" {
		return nil, ErrNotFound
	}

	result := Result{
		Key:           run.Key,
		KineticEnergy: run.KineticEnergy,
		Iterations:    run.Iterations,
		ElapsedMS:     run.ElapsedMS,
	}
	if err := json.Unmarshal(run.Params, &result.Params); err != nil {
		return nil, fmt.Errorf("decode stored params: %w", err)
	}
	if run.Positions != nil {
		if err := json.Unmarshal(run.Positions, &result.Nodes); err != nil {
			return nil, fmt.Errorf("decode stored positions: %w", err)
		}
	}
	return &result, nil
}
