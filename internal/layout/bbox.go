package layout

// Quadrant identifies one of the four children of a BoundingBox.
type Quadrant int

const (
	NE Quadrant = iota
	NW
	SW
	SE
)

// BoundingBox is an axis-aligned rectangle described by its center and
// half-extents. Half-extents must be positive; callers derive boxes with a
// margin so stored points are strictly interior.
type BoundingBox struct {
	Center       Vec2
	HalfW, HalfH float64
}

// Contains reports whether p lies within the box, boundaries inclusive.
func (b BoundingBox) Contains(p Vec2) bool {
	return p.X >= b.Center.X-b.HalfW && p.X <= b.Center.X+b.HalfW &&
		p.Y >= b.Center.Y-b.HalfH && p.Y <= b.Center.Y+b.HalfH
}

// QuadrantOf classifies p by sign relative to the box center: x >= center
// means east, y >= center means north. Points on the dividing lines go to
// the eastern/northern quadrants.
func (b BoundingBox) QuadrantOf(p Vec2) Quadrant {
	east := p.X >= b.Center.X
	north := p.Y >= b.Center.Y
	switch {
	case east && north:
		return NE
	case north:
		return NW
	case !east:
		return SW
	default:
		return SE
	}
}

// Child returns the half-sized sub-rectangle for quadrant q. The four
// children are disjoint and exactly partition the parent.
func (b BoundingBox) Child(q Quadrant) BoundingBox {
	qw := b.HalfW * 0.5
	qh := b.HalfH * 0.5
	c := BoundingBox{HalfW: qw, HalfH: qh}
	switch q {
	case NE:
		c.Center = Vec2{b.Center.X + qw, b.Center.Y + qh}
	case NW:
		c.Center = Vec2{b.Center.X - qw, b.Center.Y + qh}
	case SW:
		c.Center = Vec2{b.Center.X - qw, b.Center.Y - qh}
	case SE:
		c.Center = Vec2{b.Center.X + qw, b.Center.Y - qh}
	}
	return c
}

// Size returns the longest side of the box. This is the cell size s used by
// the Barnes-Hut s/d acceptance criterion.
func (b BoundingBox) Size() float64 {
	if b.HalfW > b.HalfH {
		return 2 * b.HalfW
	}
	return 2 * b.HalfH
}
