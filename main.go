package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/simulation"
	"github.com/pthm-cable/biosim/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	dbPath := flag.String("db", "", "SQLite database for per-cycle results (empty = disabled)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = use config)")
	cycles := flag.Int("cycles", 0, "Number of cycles to simulate (0 = use config)")
	replicates := flag.Int("replicates", 1, "Independent runs with consecutive seeds, executed concurrently")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q\n", *logLevel)
		os.Exit(2)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	if *cycles > 0 {
		cfg.Simulation.Cycles = *cycles
	}
	if *replicates < 1 {
		slog.Error("replicates must be at least 1", "replicates", *replicates)
		os.Exit(1)
	}

	var store *telemetry.Store
	if *dbPath != "" {
		store, err = telemetry.OpenStore(*dbPath)
		if err != nil {
			slog.Error("failed to open result store", "error", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	g, ctx := errgroup.WithContext(context.Background())
	for i := range *replicates {
		run := runConfig{
			cfg:       *cfg,
			replicate: i,
			logStats:  *logStats,
			outputDir: *outputDir,
			store:     store,
		}
		run.cfg.Simulation.Seed += uint64(i)
		if *replicates > 1 && run.outputDir != "" {
			run.outputDir = filepath.Join(run.outputDir, fmt.Sprintf("replicate-%02d", i))
		}
		g.Go(func() error { return run.execute(ctx) })
	}
	if err := g.Wait(); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

type runConfig struct {
	cfg       config.Config
	replicate int
	logStats  bool
	outputDir string
	store     *telemetry.Store
}

// execute runs one replicate to completion. Each replicate owns its island
// and random stream.
func (r runConfig) execute(ctx context.Context) error {
	logger := slog.Default().With("replicate", r.replicate, "seed", r.cfg.Simulation.Seed)

	om, err := telemetry.NewOutputManager(r.outputDir)
	if err != nil {
		return err
	}
	defer om.Close()
	if err := om.WriteConfig(&r.cfg); err != nil {
		return fmt.Errorf("writing config snapshot: %w", err)
	}

	var sinks []telemetry.Sink
	if om != nil {
		sinks = append(sinks, om)
	}
	if r.store != nil {
		sinks = append(sinks, r.store.Run(r.replicate))
	}

	sim, err := simulation.New(&r.cfg, simulation.Options{
		LogStats: r.logStats,
		Sinks:    sinks,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("replicate %d: %w", r.replicate, err)
	}

	logger.Info("starting simulation",
		"cycles", r.cfg.Simulation.Cycles,
		"herbivores", sim.Counts().Herbivores,
		"carnivores", sim.Counts().Carnivores,
		"output_dir", om.Dir(),
	)

	for range r.cfg.Simulation.Cycles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := sim.Advance(1); err != nil {
			return fmt.Errorf("replicate %d: %w", r.replicate, err)
		}
	}

	counts := sim.Counts()
	logger.Info("simulation finished",
		"year", sim.Year(),
		"herbivores", counts.Herbivores,
		"carnivores", counts.Carnivores,
	)
	return nil
}
