package layout

// Numeric floors shared by both force passes.
const (
	// minSeparation substitutes for near-zero distances so coincident
	// points repel in a fixed, finite direction instead of producing
	// NaN/Inf.
	minSeparation = 1e-4

	// moveEpsilon is the displacement magnitude below which a node is
	// considered stationary for the step.
	moveEpsilon = 1e-6
)

// RepulsionStrategy accumulates the net repulsive displacement for every
// node given the optimal distance k. Implementations only ever add into
// Node.Disp; resetting it is the engine's job.
type RepulsionStrategy interface {
	Accumulate(nodes []Node, k float64) error
}

// BruteForce computes exact pairwise repulsion in O(n²). It is the
// reference implementation the Barnes-Hut approximation is validated
// against, and the better choice for small graphs.
type BruteForce struct{}

func (BruteForce) Accumulate(nodes []Node, k float64) error {
	k2 := k * k
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			delta := nodes[i].Pos.Sub(nodes[j].Pos)
			dist := delta.Len()
			if dist < minSeparation {
				dist = minSeparation
				delta = Vec2{X: minSeparation}
			}

			// f_r(d) = k²/d, as a vector: (k²/d²)·δ
			force := delta.Scale(k2 / (dist * dist))

			nodes[i].Disp = nodes[i].Disp.Add(force)
			nodes[j].Disp = nodes[j].Disp.Sub(force) // Newton's third law
		}
	}
	return nil
}
