package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/onnwee/forcemap/internal/config"
	"github.com/onnwee/forcemap/internal/graph"
	"github.com/onnwee/forcemap/internal/layout"
	"github.com/onnwee/forcemap/internal/logger"
)

const benchIterations = 20

func timeRun(g *graph.Graph, cfg *config.Config, strategy layout.RepulsionStrategy) (time.Duration, error) {
	engine := layout.NewEngine(cfg.FrameWidth, cfg.FrameHeight, cfg.Scale)
	engine.SetTemperature(cfg.InitialTemp)
	engine.SetCoolingRate(cfg.CoolingRate)
	engine.SetStrategy(strategy)

	if err := engine.Initialize(g, cfg.LayoutSeed); err != nil {
		return 0, err
	}

	start := time.Now()
	for i := 0; i < benchIterations; i++ {
		if err := engine.Step(g); err != nil {
			return 0, err
		}
	}
	return time.Since(start), nil
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	sizes := []int{100, 500, 1000, 5000, 10000}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()
	if err := w.Write([]string{"vertices", "edges", "strategy", "iterations", "elapsed_ms"}); err != nil {
		log.Fatalf("write header: %v", err)
	}

	for _, n := range sizes {
		g, err := graph.ErdosRenyi(n, cfg.GraphEdgeProb, cfg.GraphSeed)
		if err != nil {
			log.Fatalf("generate graph (n=%d): %v", n, err)
		}

		runs := []struct {
			name     string
			strategy layout.RepulsionStrategy
		}{
			{"brute_force", layout.BruteForce{}},
			{"barnes_hut", layout.NewBarnesHut(cfg.Theta)},
		}

		for _, run := range runs {
			elapsed, err := timeRun(g, cfg, run.strategy)
			if err != nil {
				log.Fatalf("bench %s (n=%d): %v", run.name, n, err)
			}
			logger.Info("Benchmark run",
				"vertices", n,
				"strategy", run.name,
				"elapsed", elapsed)

			record := []string{
				strconv.Itoa(n),
				strconv.Itoa(g.EdgeCount()),
				run.name,
				strconv.Itoa(benchIterations),
				fmt.Sprintf("%.3f", float64(elapsed.Microseconds())/1000.0),
			}
			if err := w.Write(record); err != nil {
				log.Fatalf("write record: %v", err)
			}
		}
	}
}
