package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/forcemap/internal/config"
	"github.com/onnwee/forcemap/internal/export"
	"github.com/onnwee/forcemap/internal/graph"
	"github.com/onnwee/forcemap/internal/layout"
	"github.com/onnwee/forcemap/internal/logger"
	"github.com/onnwee/forcemap/internal/tracing"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (falling back to system env)")
	}

	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	shutdownTracing, err := tracing.Init("forcemap-cli", tracing.Options{
		Enabled:    cfg.OTELEnabled,
		Endpoint:   cfg.OTELEndpoint,
		SampleRate: cfg.OTELSampleRate,
	})
	if err != nil {
		logger.Warn("Failed to initialize tracing", "error", err)
	} else {
		defer shutdownTracing(context.Background())
	}

	ctx, span := tracing.StartSpan(context.Background(), "layout.cli")
	defer span.End()

	g, err := graph.ErdosRenyi(cfg.GraphVertices, cfg.GraphEdgeProb, cfg.GraphSeed)
	if err != nil {
		logger.Error("Failed to generate graph", "error", err)
		log.Fatalf("Failed to generate graph: %v", err)
	}
	logger.Info("Generated graph", "vertices", g.VertexCount(), "edges", g.EdgeCount())

	engine := layout.NewEngine(cfg.FrameWidth, cfg.FrameHeight, cfg.Scale)
	engine.SetTemperature(cfg.InitialTemp)
	engine.SetCoolingRate(cfg.CoolingRate)
	engine.SetStrategy(layout.NewBarnesHut(cfg.Theta))

	if err := engine.Initialize(g, cfg.LayoutSeed); err != nil {
		logger.Error("Failed to initialize layout", "error", err)
		log.Fatalf("Failed to initialize layout: %v", err)
	}

	start := time.Now()
	curve := make([]float64, 0, cfg.MaxIterations)
	for i := 0; i < cfg.MaxIterations; i++ {
		if err := engine.Step(g); err != nil {
			logger.Error("Layout step failed", "iteration", i, "error", err)
			log.Fatalf("Layout step %d failed: %v", i, err)
		}
		curve = append(curve, engine.KineticEnergy())

		if (i+1)%50 == 0 {
			logger.InfoContext(ctx, "Layout progress",
				"iteration", i+1,
				"kinetic_energy", engine.KineticEnergy(),
				"temperature", engine.Temperature())
		}
	}
	logger.Info("Layout finished",
		"iterations", cfg.MaxIterations,
		"kinetic_energy", engine.KineticEnergy(),
		"elapsed", time.Since(start))

	if err := export.All(cfg.OutputDir, g, curve); err != nil {
		logger.Error("Export failed", "error", err)
		log.Fatalf("Export failed: %v", err)
	}
	logger.Info("Wrote layout CSV files", "dir", cfg.OutputDir)
}
