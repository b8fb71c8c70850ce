package layout

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ErrEmptyGraph is returned by Initialize when the graph has no vertices;
// the optimal distance k would divide by zero.
var ErrEmptyGraph = errors.New("layout: graph has no vertices")

// Graph is the view of graph state the engine needs for one step: ordered
// mutable access to the nodes, the canonical undirected edge set, and fast
// lookup of a node by ID for edge attraction.
type Graph interface {
	Nodes() []Node
	Edges() []Edge
	NodeByID(id uint32) *Node
	VertexCount() int
}

// Engine runs the Fruchterman-Reingold simulation: connected nodes attract
// along edges, all pairs repel (delegated to a swappable strategy), and a
// cooling temperature caps per-step movement so the layout anneals into a
// stable arrangement inside the [0,W]×[0,H] frame.
type Engine struct {
	width, height float64
	scale         float64 // scaling constant C in k = C·sqrt(W·H/n)

	k       float64
	temp    float64
	minTemp float64
	cooling float64

	energy float64

	strategy RepulsionStrategy
}

// NewEngine creates an engine for a W×H frame with scaling constant c.
// The default strategy is exact brute force; install Barnes-Hut with
// SetStrategy for large graphs.
func NewEngine(width, height, c float64) *Engine {
	return &Engine{
		width:    width,
		height:   height,
		scale:    c,
		k:        1,
		temp:     1,
		minTemp:  1e-3,
		cooling:  0.95,
		strategy: BruteForce{},
	}
}

// SetStrategy swaps the repulsion strategy. Safe between steps; the rest of
// the simulation state is untouched.
func (e *Engine) SetStrategy(s RepulsionStrategy) { e.strategy = s }

// SetTemperature sets the current temperature cap on per-step displacement.
func (e *Engine) SetTemperature(t float64) { e.temp = t }

// SetCoolingRate sets the multiplicative decay applied after each step.
func (e *Engine) SetCoolingRate(rate float64) { e.cooling = rate }

// Temperature returns the current temperature.
func (e *Engine) Temperature() float64 { return e.temp }

// KineticEnergy returns the sum of clamped displacement magnitudes from the
// last completed step. It decays as the layout converges.
func (e *Engine) KineticEnergy() float64 { return e.energy }

// OptimalDistance returns k, the characteristic inter-node spacing computed
// by Initialize.
func (e *Engine) OptimalDistance() float64 { return e.k }

// EntropySeed derives a layout seed from the wall clock, for callers that
// do not need reproducibility.
func EntropySeed() uint64 {
	return uint64(time.Now().UnixNano())
}

// Initialize scatters every node uniformly at random across the frame,
// computes k = C·sqrt(W·H/n), and clears the kinetic energy metric. It must
// run before the first Step.
func (e *Engine) Initialize(g Graph, seed uint64) error {
	n := g.VertexCount()
	if n == 0 {
		return ErrEmptyGraph
	}
	e.k = e.scale * math.Sqrt(e.width*e.height/float64(n))

	rng := rand.New(rand.NewSource(int64(seed)))
	nodes := g.Nodes()
	for i := range nodes {
		nodes[i].Pos = Vec2{
			X: rng.Float64() * e.width,
			Y: rng.Float64() * e.height,
		}
	}

	e.energy = 0
	return nil
}

// Step advances the simulation by one iteration, in fixed order:
// reset displacements, repulsion (strategy), edge attraction, clamp to the
// temperature and apply, bound positions to the frame, record kinetic
// energy, cool.
func (e *Engine) Step(g Graph) error {
	nodes := g.Nodes()

	for i := range nodes {
		nodes[i].ResetDisp()
	}

	if err := e.strategy.Accumulate(nodes, e.k); err != nil {
		return fmt.Errorf("repulsion: %w", err)
	}

	// f_a(d) = d²/k along each edge, pulling the endpoints together.
	for _, edge := range g.Edges() {
		u := g.NodeByID(edge.Source)
		v := g.NodeByID(edge.Target)

		delta := u.Pos.Sub(v.Pos)
		dist := delta.Len()
		if dist < minSeparation {
			continue // direction undefined for coincident endpoints
		}

		force := delta.Scale(dist / e.k) // (δ/d)·(d²/k)
		u.Disp = u.Disp.Sub(force)
		v.Disp = v.Disp.Add(force)
	}

	energy := 0.0
	for i := range nodes {
		v := &nodes[i]
		if m := v.Disp.Len(); m > moveEpsilon {
			clamped := math.Min(m, e.temp)
			v.Pos = v.Pos.Add(v.Disp.Scale(clamped / m))
			energy += clamped
		}

		// Hard frame walls, per axis.
		v.Pos.X = clamp(v.Pos.X, 0, e.width)
		v.Pos.Y = clamp(v.Pos.Y, 0, e.height)
	}
	e.energy = energy

	e.temp = math.Max(e.temp*e.cooling, e.minTemp)
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
