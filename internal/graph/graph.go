package graph

import (
	"fmt"
	"math/rand"

	"github.com/onnwee/forcemap/internal/layout"
)

// Graph owns the node and edge storage the layout engine borrows during a
// step. Nodes keep insertion order; edges are canonical (smaller ID first)
// and deduplicated.
type Graph struct {
	nodes     []layout.Node
	edges     []layout.Edge
	edgeSet   map[layout.Edge]struct{}
	index     map[uint32]int      // node ID -> position in nodes
	adjacency map[uint32][]uint32 // neighbor IDs, undirected
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		edgeSet:   make(map[layout.Edge]struct{}),
		index:     make(map[uint32]int),
		adjacency: make(map[uint32][]uint32),
	}
}

// AddVertex adds a node with the given ID.
func (g *Graph) AddVertex(id uint32) error {
	if _, exists := g.index[id]; exists {
		return fmt.Errorf("graph: vertex %d already exists", id)
	}
	g.index[id] = len(g.nodes)
	g.nodes = append(g.nodes, layout.Node{ID: id})
	g.adjacency[id] = nil
	return nil
}

// AddEdge adds the undirected edge (u, v). Both endpoints must exist;
// duplicates (in either orientation) are ignored.
func (g *Graph) AddEdge(u, v uint32) error {
	if _, ok := g.index[u]; !ok {
		return fmt.Errorf("graph: vertex %d does not exist", u)
	}
	if _, ok := g.index[v]; !ok {
		return fmt.Errorf("graph: vertex %d does not exist", v)
	}

	e := layout.Edge{Source: u, Target: v}.Canonical()
	if _, dup := g.edgeSet[e]; dup {
		return nil
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	g.adjacency[u] = append(g.adjacency[u], v)
	g.adjacency[v] = append(g.adjacency[v], u)
	return nil
}

// Nodes returns the node slice as a mutable view for the layout engine.
func (g *Graph) Nodes() []layout.Node { return g.nodes }

// Edges returns the canonical undirected edges, read-only by convention.
func (g *Graph) Edges() []layout.Edge { return g.edges }

// VertexCount returns the number of nodes.
func (g *Graph) VertexCount() int { return len(g.nodes) }

// EdgeCount returns the number of distinct undirected edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// NodeByID returns a mutable reference to the node with the given ID, or
// nil if it does not exist.
func (g *Graph) NodeByID(id uint32) *layout.Node {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return &g.nodes[i]
}

// Neighbors returns the adjacency list for a node.
func (g *Graph) Neighbors(id uint32) []uint32 {
	return g.adjacency[id]
}

// ErdosRenyi generates a G(n, p) random graph: n vertices with IDs 0..n-1,
// each possible undirected edge present independently with probability p.
// The seed makes generation reproducible.
func ErdosRenyi(n int, p float64, seed uint64) (*Graph, error) {
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("graph: edge probability %g outside [0, 1]", p)
	}

	g := New()
	for i := 0; i < n; i++ {
		if err := g.AddVertex(uint32(i)); err != nil {
			return nil, err
		}
	}

	rng := rand.New(rand.NewSource(int64(seed)))
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < p {
				if err := g.AddEdge(uint32(i), uint32(j)); err != nil {
					return nil, err
				}
			}
		}
	}
	return g, nil
}
