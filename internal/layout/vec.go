package layout

import "math"

// Vec2 is a 2D vector used for positions and displacement accumulators.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Len returns the Euclidean length of the vector.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Node is a single laid-out vertex: a stable identifier, a position inside
// the frame, and the displacement accumulated during the current step.
type Node struct {
	ID   uint32
	Pos  Vec2
	Disp Vec2
}

// ResetDisp clears the displacement accumulator at the start of a step.
func (n *Node) ResetDisp() {
	n.Disp = Vec2{}
}

// Edge is an undirected connection between two node IDs.
type Edge struct {
	Source, Target uint32
}

// Canonical returns the edge with the smaller ID first, so that (u,v) and
// (v,u) compare equal and deduplicate in a map.
func (e Edge) Canonical() Edge {
	if e.Source <= e.Target {
		return e
	}
	return Edge{Source: e.Target, Target: e.Source}
}
