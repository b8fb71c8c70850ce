package layout

import (
	"errors"
	"fmt"
)

// nullNode marks an absent child slot in the pool.
const nullNode = -1

// maxTreeDepth caps subdivision so near-coincident points cannot force
// unbounded splitting. A leaf at the cap holds every further point routed to
// it; aggregates stay exact, only spatial resolution stops improving.
const maxTreeDepth = 32

// ErrOutOfBounds is returned when a point falls outside the root bounds.
// Bounds are always computed from the same position set being inserted, so
// hitting this indicates an internal invariant violation in the caller.
var ErrOutOfBounds = errors.New("quadtree: point outside root bounds")

// treeNode is one cell of the pool-backed quadtree. Children are indices
// into the pool rather than pointers, so a Reset can recycle the whole
// structure without freeing anything.
type treeNode struct {
	bounds BoundingBox

	// Aggregates over the whole subtree, kept exact on every insertion.
	com  Vec2 // center of mass (unweighted mean of positions)
	mass int  // number of points (unit mass each)

	children [4]int32 // indexed by Quadrant; nullNode when absent
	leaf     bool

	// Leaf payload: the single stored point and its owner.
	point    Vec2
	pointID  uint32
	hasPoint bool
}

// QuadTree is a point-region spatial index with one point per leaf. All
// cells live in a single growable pool; rebuilding each simulation step
// reuses the pool's capacity, so the steady state allocates nothing.
type QuadTree struct {
	nodes []treeNode
}

// NewQuadTree returns a tree seeded with a root over bounds. capacityHint
// pre-sizes the pool (roughly 2x the expected point count is plenty).
func NewQuadTree(bounds BoundingBox, capacityHint int) *QuadTree {
	t := &QuadTree{nodes: make([]treeNode, 0, capacityHint)}
	t.Reset(bounds)
	return t
}

// Reset discards all structure and reseeds a single root leaf over bounds.
// Pool storage is retained, so subsequent inserts reuse prior allocations.
func (t *QuadTree) Reset(bounds BoundingBox) {
	t.nodes = t.nodes[:0]
	t.nodes = append(t.nodes, newLeaf(bounds))
}

func newLeaf(bounds BoundingBox) treeNode {
	return treeNode{
		bounds:   bounds,
		children: [4]int32{nullNode, nullNode, nullNode, nullNode},
		leaf:     true,
	}
}

// Len returns the number of cells currently in the pool.
func (t *QuadTree) Len() int {
	return len(t.nodes)
}

// RootMass returns the total number of points inserted since the last Reset.
func (t *QuadTree) RootMass() int {
	return t.nodes[0].mass
}

// RootCenterOfMass returns the exact mean position of all inserted points.
func (t *QuadTree) RootCenterOfMass() Vec2 {
	return t.nodes[0].com
}

// Insert adds a point with its owning node ID, updating the center of mass
// and mass of every cell on the path from the root to the destination leaf.
// The running-mean update happens before descending, so every ancestor
// reflects the new point by the time Insert returns.
func (t *QuadTree) Insert(pos Vec2, id uint32) error {
	if !t.nodes[0].bounds.Contains(pos) {
		return fmt.Errorf("%w: (%g, %g)", ErrOutOfBounds, pos.X, pos.Y)
	}

	idx := int32(0)
	for depth := 0; ; depth++ {
		n := &t.nodes[idx]

		// newMean = (oldMean*oldMass + pos) / (oldMass+1), then count.
		m := float64(n.mass)
		n.com = n.com.Scale(m).Add(pos).Scale(1 / (m + 1))
		n.mass++

		if n.leaf {
			if !n.hasPoint {
				n.point = pos
				n.pointID = id
				n.hasPoint = true
				return nil
			}
			if depth >= maxTreeDepth {
				// Depth cap reached: the leaf keeps its first point and
				// absorbs the rest into its aggregates.
				return nil
			}
			t.subdivide(idx)
		}

		idx = t.route(idx, pos)
	}
}

// subdivide turns a full leaf into an internal cell: four child leaves are
// appended to the pool and the stored point is pushed one level down.
func (t *QuadTree) subdivide(idx int32) {
	base := int32(len(t.nodes))
	bounds := t.nodes[idx].bounds
	for q := NE; q <= SE; q++ {
		t.nodes = append(t.nodes, newLeaf(bounds.Child(q)))
	}

	n := &t.nodes[idx]
	for q := 0; q < 4; q++ {
		n.children[q] = base + int32(q)
	}
	n.leaf = false

	old, oldID := n.point, n.pointID
	n.hasPoint = false

	// Seed the matching child with the displaced point. Its aggregates are
	// exactly that one point; deeper splits happen lazily if the incoming
	// point lands in the same child.
	ci := t.route(idx, old)
	c := &t.nodes[ci]
	c.com = old
	c.mass = 1
	c.point = old
	c.pointID = oldID
	c.hasPoint = true
}

// route picks the child of idx that should receive pos. Quadrant
// classification and child bounds can disagree for points sitting exactly
// on a dividing line, so a containment check with a linear-scan fallback
// keeps every in-root point insertable.
func (t *QuadTree) route(idx int32, pos Vec2) int32 {
	n := &t.nodes[idx]
	ci := n.children[n.bounds.QuadrantOf(pos)]
	if t.nodes[ci].bounds.Contains(pos) {
		return ci
	}
	for q := 0; q < 4; q++ {
		if c := n.children[q]; t.nodes[c].bounds.Contains(pos) {
			return c
		}
	}
	// Float rounding can leave a point claimed by no child box; the
	// classified quadrant is still the right cell for it.
	return ci
}
