// Package export serializes graph layouts and convergence metrics to CSV
// for downstream analysis.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/onnwee/forcemap/internal/graph"
)

// WriteNodes writes final node positions as node_id,x,y rows.
func WriteNodes(w io.Writer, g *graph.Graph) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"node_id", "x", "y"}); err != nil {
		return err
	}
	for _, n := range g.Nodes() {
		rec := []string{
			strconv.FormatUint(uint64(n.ID), 10),
			strconv.FormatFloat(n.Pos.X, 'f', 6, 64),
			strconv.FormatFloat(n.Pos.Y, 'f', 6, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEdges writes the edge list as source,target rows. Edges are already
// canonical (smaller ID first), so each undirected edge appears once.
func WriteEdges(w io.Writer, g *graph.Graph) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"source", "target"}); err != nil {
		return err
	}
	for _, e := range g.Edges() {
		rec := []string{
			strconv.FormatUint(uint64(e.Source), 10),
			strconv.FormatUint(uint64(e.Target), 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMetrics writes the per-iteration kinetic energy curve; the row index
// is the iteration number.
func WriteMetrics(w io.Writer, curve []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"iteration", "kinetic_energy"}); err != nil {
		return err
	}
	for i, e := range curve {
		rec := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(e, 'f', 6, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// All writes nodes.csv, edges.csv, and metrics.csv into dir, creating the
// directory if needed.
func All(dir string, g *graph.Graph, curve []float64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: create %s: %w", dir, err)
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"nodes.csv", func(w io.Writer) error { return WriteNodes(w, g) }},
		{"edges.csv", func(w io.Writer) error { return WriteEdges(w, g) }},
		{"metrics.csv", func(w io.Writer) error { return WriteMetrics(w, curve) }},
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.write); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: open %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: close %s: %w", path, err)
	}
	return nil
}
