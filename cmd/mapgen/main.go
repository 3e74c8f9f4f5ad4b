// Island layout generator. Prints a generated map, or writes it into a
// config file that the simulator can load.
//
// Usage: go run ./cmd/mapgen -rows 15 -cols 30 -seed 4 [-write-config island.yaml]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/island"
	"github.com/pthm-cable/biosim/landscape"
)

func main() {
	def := island.DefaultGenConfig()

	rows := flag.Int("rows", def.Rows, "Number of rows (at least 3)")
	cols := flag.Int("cols", def.Cols, "Number of columns (at least 3)")
	seed := flag.Int64("seed", def.Seed, "Noise seed")
	sea := flag.Float64("sea", def.SeaLevel, "Elevation below which cells are Ocean")
	mountain := flag.Float64("mountain", def.MountainLevel, "Elevation above which cells are Mountain")
	desert := flag.Float64("desert", def.DesertLevel, "Rainfall below which cells are Desert")
	jungle := flag.Float64("jungle", def.JungleLevel, "Rainfall above which cells are Jungle")
	writeConfig := flag.String("write-config", "", "Write the default config with this map to the given path")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *rows < 3 || *cols < 3 {
		slog.Error("map must be at least 3x3", "rows", *rows, "cols", *cols)
		os.Exit(1)
	}

	layout := island.Generate(island.GenConfig{
		Rows:          *rows,
		Cols:          *cols,
		Seed:          *seed,
		SeaLevel:      *sea,
		MountainLevel: *mountain,
		DesertLevel:   *desert,
		JungleLevel:   *jungle,
	})

	grid, err := island.ParseMap(layout)
	if err != nil {
		slog.Error("generated map is invalid", "error", err)
		os.Exit(1)
	}
	var counts [landscape.NumTerrains]int
	for _, row := range grid {
		for _, t := range row {
			counts[t]++
		}
	}
	attrs := []any{"rows", *rows, "cols", *cols, "seed", *seed}
	for t, n := range counts {
		attrs = append(attrs, landscape.Terrain(t).String(), n)
	}
	slog.Info("map generated", attrs...)

	if *writeConfig == "" {
		fmt.Println(layout)
		return
	}

	cfg := config.Default()
	cfg.Simulation.Map = layout
	// The default population sits on the default map; move it to the first
	// Jungle cell, or drop it if there is none.
	cfg.Population = relocate(cfg.Population, grid)
	if err := cfg.WriteYAML(*writeConfig); err != nil {
		slog.Error("failed to write config", "error", err)
		os.Exit(1)
	}
	slog.Info("config written", "path", *writeConfig, "groups", len(cfg.Population))
}

func relocate(groups []island.Placement, grid [][]landscape.Terrain) []island.Placement {
	for r, row := range grid {
		for c, t := range row {
			if t != landscape.Jungle {
				continue
			}
			out := make([]island.Placement, len(groups))
			for i, g := range groups {
				g.Loc = island.Location{Row: r, Col: c}
				out[i] = g
			}
			return out
		}
	}
	return nil
}
