package layout

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func unitBounds() BoundingBox {
	return BoundingBox{Center: Vec2{50, 50}, HalfW: 51, HalfH: 51}
}

func TestQuadTreeInsertSingle(t *testing.T) {
	tree := NewQuadTree(unitBounds(), 16)

	if err := tree.Insert(Vec2{50, 50}, 7); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if tree.RootMass() != 1 {
		t.Errorf("root mass = %d, want 1", tree.RootMass())
	}
	if com := tree.RootCenterOfMass(); com != (Vec2{50, 50}) {
		t.Errorf("root center of mass = %+v, want (50,50)", com)
	}
	root := tree.nodes[0]
	if !root.leaf || !root.hasPoint || root.pointID != 7 {
		t.Error("root should be a leaf holding point 7")
	}
}

func TestQuadTreeSubdivideOnSecondPoint(t *testing.T) {
	tree := NewQuadTree(unitBounds(), 16)
	mustInsert(t, tree, Vec2{25, 25}, 0)
	mustInsert(t, tree, Vec2{75, 75}, 1)

	root := tree.nodes[0]
	if root.leaf {
		t.Fatal("root with two separated points should have split")
	}
	if root.mass != 2 {
		t.Errorf("root mass = %d, want 2", root.mass)
	}

	com := tree.RootCenterOfMass()
	if math.Abs(com.X-50) > 1e-9 || math.Abs(com.Y-50) > 1e-9 {
		t.Errorf("root center of mass = %+v, want (50,50)", com)
	}

	// Both points must be findable in leaves below the root.
	found := map[uint32]bool{}
	for _, n := range tree.nodes[1:] {
		if n.leaf && n.hasPoint {
			found[n.pointID] = true
		}
	}
	if !found[0] || !found[1] {
		t.Errorf("expected both points in leaves, got %v", found)
	}
}

func TestQuadTreeRootAggregatesMatchMean(t *testing.T) {
	const n = 200
	rng := rand.New(rand.NewSource(3))

	points := make([]Vec2, n)
	var sum Vec2
	for i := range points {
		points[i] = Vec2{rng.Float64() * 100, rng.Float64() * 100}
		sum = sum.Add(points[i])
	}
	mean := sum.Scale(1.0 / n)

	tree := NewQuadTree(unitBounds(), n)
	for i, p := range points {
		mustInsert(t, tree, p, uint32(i))
	}

	if tree.RootMass() != n {
		t.Errorf("root mass = %d, want %d", tree.RootMass(), n)
	}
	com := tree.RootCenterOfMass()
	if math.Abs(com.X-mean.X) > 1e-6 || math.Abs(com.Y-mean.Y) > 1e-6 {
		t.Errorf("root center of mass = %+v, want %+v", com, mean)
	}
}

func TestQuadTreeAggregatesOrderIndependent(t *testing.T) {
	points := []Vec2{{1, 1}, {99, 2}, {40, 70}, {60, 60}, {3, 97}, {55, 5}}

	build := func(order []int) (Vec2, int) {
		tree := NewQuadTree(unitBounds(), 16)
		for _, i := range order {
			mustInsert(t, tree, points[i], uint32(i))
		}
		return tree.RootCenterOfMass(), tree.RootMass()
	}

	comA, massA := build([]int{0, 1, 2, 3, 4, 5})
	comB, massB := build([]int{5, 3, 1, 4, 2, 0})

	if massA != massB {
		t.Errorf("mass differs by insertion order: %d vs %d", massA, massB)
	}
	if math.Abs(comA.X-comB.X) > 1e-9 || math.Abs(comA.Y-comB.Y) > 1e-9 {
		t.Errorf("center of mass differs by insertion order: %+v vs %+v", comA, comB)
	}
}

func TestQuadTreeResetReproducesAggregates(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	points := make([]Vec2, 64)
	for i := range points {
		points[i] = Vec2{rng.Float64() * 100, rng.Float64() * 100}
	}

	tree := NewQuadTree(unitBounds(), 8)
	for i, p := range points {
		mustInsert(t, tree, p, uint32(i))
	}
	com1, mass1, cells1 := tree.RootCenterOfMass(), tree.RootMass(), tree.Len()

	tree.Reset(unitBounds())
	if tree.RootMass() != 0 || tree.Len() != 1 {
		t.Fatalf("reset tree should be a single empty root, got mass=%d cells=%d", tree.RootMass(), tree.Len())
	}
	for i, p := range points {
		mustInsert(t, tree, p, uint32(i))
	}

	if tree.RootMass() != mass1 || tree.Len() != cells1 {
		t.Errorf("rebuild differs: mass %d vs %d, cells %d vs %d", tree.RootMass(), mass1, tree.Len(), cells1)
	}
	com2 := tree.RootCenterOfMass()
	if com1 != com2 {
		t.Errorf("rebuild center of mass differs: %+v vs %+v", com1, com2)
	}
}

func TestQuadTreeCoincidentPointsTerminate(t *testing.T) {
	tree := NewQuadTree(unitBounds(), 16)

	// Identical positions would subdivide forever without the depth cap.
	p := Vec2{33.3, 66.6}
	for i := 0; i < 50; i++ {
		mustInsert(t, tree, p, uint32(i))
	}

	if tree.RootMass() != 50 {
		t.Errorf("root mass = %d, want 50", tree.RootMass())
	}
	com := tree.RootCenterOfMass()
	if math.Abs(com.X-p.X) > 1e-6 || math.Abs(com.Y-p.Y) > 1e-6 {
		t.Errorf("center of mass drifted: %+v", com)
	}
}

func TestQuadTreeInsertOutOfBounds(t *testing.T) {
	tree := NewQuadTree(unitBounds(), 4)
	err := tree.Insert(Vec2{500, 500}, 0)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if tree.RootMass() != 0 {
		t.Errorf("failed insert must not change aggregates, mass = %d", tree.RootMass())
	}
}

func TestQuadTreeBoundaryPoints(t *testing.T) {
	// Points exactly on quadrant dividing lines must still insert.
	b := BoundingBox{Center: Vec2{0, 0}, HalfW: 10, HalfH: 10}
	tree := NewQuadTree(b, 16)

	pts := []Vec2{{0, 0}, {0, 5}, {5, 0}, {0, -5}, {-5, 0}, {10, 10}, {-10, -10}}
	for i, p := range pts {
		mustInsert(t, tree, p, uint32(i))
	}
	if tree.RootMass() != len(pts) {
		t.Errorf("root mass = %d, want %d", tree.RootMass(), len(pts))
	}
}

func mustInsert(t *testing.T, tree *QuadTree, p Vec2, id uint32) {
	t.Helper()
	if err := tree.Insert(p, id); err != nil {
		t.Fatalf("insert (%g,%g): %v", p.X, p.Y, err)
	}
}
