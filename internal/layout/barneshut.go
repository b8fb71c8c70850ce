package layout

import (
	"fmt"
	"time"
)

// boundsMargin pads the tight bounding box around all positions so no point
// sits exactly on the root boundary, where quadrant classification gets
// float-sensitive.
const boundsMargin = 1.0

// BarnesHut approximates repulsion in O(n log n) by collapsing distant
// quadtree cells into single pseudo-sources at their center of mass. The
// tree is rebuilt from scratch on every call; its pool storage persists
// across calls, so rebuilds stop allocating once the pool has grown to the
// working size.
type BarnesHut struct {
	theta     float64
	tree      *QuadTree
	stack     []int32
	lastBuild time.Duration
}

// NewBarnesHut creates a strategy with acceptance threshold theta.
// theta → 0 approaches brute-force accuracy at near-quadratic cost;
// theta → 1 aggregates aggressively. 0.5 is the conventional trade-off.
func NewBarnesHut(theta float64) *BarnesHut {
	return &BarnesHut{
		theta: theta,
		// Placeholder bounds; every Accumulate call resets them.
		tree: NewQuadTree(BoundingBox{HalfW: 1, HalfH: 1}, 512),
	}
}

// Theta returns the current acceptance threshold.
func (bh *BarnesHut) Theta() float64 { return bh.theta }

// SetTheta adjusts the accuracy/speed trade-off between steps.
func (bh *BarnesHut) SetTheta(theta float64) { bh.theta = theta }

// TreeSize reports the cell count of the most recently built tree.
func (bh *BarnesHut) TreeSize() int { return bh.tree.Len() }

// BuildDuration reports how long the most recent tree build took.
func (bh *BarnesHut) BuildDuration() time.Duration { return bh.lastBuild }

func (bh *BarnesHut) Accumulate(nodes []Node, k float64) error {
	if len(nodes) == 0 {
		return nil
	}

	buildStart := time.Now()
	bh.tree.Reset(positionBounds(nodes))
	for i := range nodes {
		if err := bh.tree.Insert(nodes[i].Pos, nodes[i].ID); err != nil {
			return fmt.Errorf("barnes-hut tree build: %w", err)
		}
	}
	bh.lastBuild = time.Since(buildStart)

	k2 := k * k
	for i := range nodes {
		f := bh.query(nodes[i].Pos, nodes[i].ID, k2)
		nodes[i].Disp = nodes[i].Disp.Add(f)
	}
	return nil
}

// query walks the tree depth-first with an explicit stack, summing the
// repulsive contribution of every accepted cell. The stack bounds call
// depth against degenerate clustered inputs and is reused across calls.
func (bh *BarnesHut) query(pos Vec2, self uint32, k2 float64) Vec2 {
	bh.stack = append(bh.stack[:0], 0)
	var total Vec2

	for len(bh.stack) > 0 {
		idx := bh.stack[len(bh.stack)-1]
		bh.stack = bh.stack[:len(bh.stack)-1]
		n := &bh.tree.nodes[idx]

		if n.mass == 0 {
			continue
		}
		// The leaf holding the query node itself contributes nothing.
		if n.leaf && n.hasPoint && n.pointID == self {
			continue
		}

		delta := pos.Sub(n.com)
		dist := delta.Len()
		if dist < minSeparation {
			dist = minSeparation
			delta = Vec2{X: minSeparation}
		}

		// Accept when the cell is a leaf or looks small from here
		// (s/d < θ); the whole subtree then acts as one source of
		// n.mass at its center of mass.
		if n.leaf || n.bounds.Size()/dist < bh.theta {
			// f_r(d) = mass·k²/d, as a vector: (mass·k²/d²)·δ,
			// matching the per-pair law in BruteForce.
			mag := float64(n.mass) * k2 / (dist * dist)
			total = total.Add(delta.Scale(mag))
			continue
		}

		for q := 0; q < 4; q++ {
			if ci := n.children[q]; ci != nullNode {
				bh.stack = append(bh.stack, ci)
			}
		}
	}
	return total
}

// positionBounds computes the tight axis-aligned box around all node
// positions, padded by a fixed margin on every side.
func positionBounds(nodes []Node) BoundingBox {
	minX, minY := nodes[0].Pos.X, nodes[0].Pos.Y
	maxX, maxY := minX, minY
	for i := 1; i < len(nodes); i++ {
		p := nodes[i].Pos
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return BoundingBox{
		Center: Vec2{(minX + maxX) / 2, (minY + maxY) / 2},
		HalfW:  (maxX-minX)/2 + boundsMargin,
		HalfH:  (maxY-minY)/2 + boundsMargin,
	}
}
