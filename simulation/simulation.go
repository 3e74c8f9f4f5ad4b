// Package simulation drives an island through cycles and reports populations.
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/pthm-cable/biosim/animals"
	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/island"
	"github.com/pthm-cable/biosim/rng"
	"github.com/pthm-cable/biosim/telemetry"
)

// Counts holds per-species population totals.
type Counts struct {
	Herbivores int
	Carnivores int
}

// Total returns the number of animals of both species.
func (c Counts) Total() int { return c.Herbivores + c.Carnivores }

// Options configures a simulation beyond its model configuration.
type Options struct {
	// LogStats logs a stats line every telemetry.log_every cycles.
	LogStats bool
	// Sinks receive flushed stats and cell breakdowns.
	Sinks []telemetry.Sink
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// BioSim runs one seeded simulation of one island.
type BioSim struct {
	cfg    config.Config
	island *island.Island
	rng    *rng.Rand

	year      int
	history   []Counts
	scheduled []island.Placement // sorted by Cycle, not yet introduced

	collector *telemetry.Collector
	sinks     []telemetry.Sink
	logStats  bool
	logger    *slog.Logger
}

// New builds the island described by cfg, places the populations due at
// setup and validates the scheduled ones. Any configuration error is
// returned before the first cycle.
func New(cfg *config.Config, opts Options) (*BioSim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	is, err := island.New(cfg.Simulation.Map, cfg.ParamSet(), cfg.FodderSet())
	if err != nil {
		return nil, err
	}

	var initial, scheduled []island.Placement
	for _, g := range cfg.Population {
		if g.Cycle == 0 {
			initial = append(initial, g)
		} else {
			scheduled = append(scheduled, g)
		}
	}
	if err := is.Place(initial); err != nil {
		return nil, err
	}
	if err := is.Check(scheduled); err != nil {
		return nil, err
	}
	slices.SortStableFunc(scheduled, func(a, b island.Placement) int { return a.Cycle - b.Cycle })

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &BioSim{
		cfg:       *cfg,
		island:    is,
		rng:       rng.New(cfg.Simulation.Seed),
		scheduled: scheduled,
		collector: telemetry.NewCollector(cfg.Telemetry.LogEvery),
		sinks:     opts.Sinks,
		logStats:  opts.LogStats,
		logger:    logger,
	}
	s.history = append(s.history, s.Counts())
	return s, nil
}

// Advance runs n global cycles and returns the totals afterwards. Scheduled
// populations are introduced before the cycle that follows their Cycle
// count. Errors come only from telemetry sinks; the cycle that produced them
// has already been applied.
func (s *BioSim) Advance(n int) (Counts, error) {
	for range n {
		if err := s.introduceScheduled(); err != nil {
			return s.Counts(), err
		}
		s.logFitness()

		ev := s.island.Cycle(s.rng)
		s.year++
		s.history = append(s.history, s.Counts())
		s.collector.Record(ev)

		if err := s.flushTelemetry(); err != nil {
			return s.Counts(), err
		}
	}
	return s.Counts(), nil
}

// AddPopulation places groups immediately, independent of their Cycle field.
// Nothing is placed if any group is invalid.
func (s *BioSim) AddPopulation(groups []island.Placement) error {
	return s.island.Place(groups)
}

func (s *BioSim) introduceScheduled() error {
	i := 0
	for i < len(s.scheduled) && s.scheduled[i].Cycle <= s.year {
		i++
	}
	if i == 0 {
		return nil
	}
	due := s.scheduled[:i]
	if err := s.island.Place(due); err != nil {
		return err
	}
	for _, g := range due {
		s.logger.Info("population introduced", "year", s.year, "row", g.Loc.Row, "col", g.Loc.Col, "groups", len(g.Pop))
	}
	s.scheduled = s.scheduled[i:]
	return nil
}

func (s *BioSim) flushTelemetry() error {
	cellsEvery := s.cfg.Telemetry.CellsEvery
	if cellsEvery > 0 && s.year%cellsEvery == 0 && len(s.sinks) > 0 {
		records := telemetry.CellRecords(s.year, s.island)
		for _, sink := range s.sinks {
			if err := sink.WriteCells(records); err != nil {
				return fmt.Errorf("writing cells: %w", err)
			}
		}
	}

	if s.cfg.Telemetry.LogEvery == 0 || !s.collector.ShouldFlush(s.year) {
		return nil
	}
	stats := s.collector.Flush(s.year, s.island)
	if s.logStats {
		stats.LogStats(s.logger)
	}
	for _, sink := range s.sinks {
		if err := sink.WriteCycle(stats); err != nil {
			return fmt.Errorf("writing stats: %w", err)
		}
	}
	return nil
}

// Year returns the number of cycles simulated so far.
func (s *BioSim) Year() int { return s.year }

// Counts returns the current per-species totals.
func (s *BioSim) Counts() Counts {
	n := s.island.Counts()
	return Counts{Herbivores: n[animals.Herbivore], Carnivores: n[animals.Carnivore]}
}

// TotalAnimals returns the number of live animals on the island.
func (s *BioSim) TotalAnimals() int { return s.Counts().Total() }

// CellCounts returns the per-cell breakdown in row-major order.
func (s *BioSim) CellCounts() []island.CellCount { return s.island.Cells() }

// History returns the totals at setup and after every cycle since.
func (s *BioSim) History() []Counts { return slices.Clone(s.history) }

// Island exposes the simulated island for read-only inspection.
func (s *BioSim) Island() *island.Island { return s.island }

// Config returns the configuration the simulation was built from.
func (s *BioSim) Config() config.Config { return s.cfg }

func (s *BioSim) logFitness() {
	if !s.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for _, c := range s.island.Cells() {
		if c.Herbivores+c.Carnivores == 0 {
			continue
		}
		p := s.island.Patch(island.Location{Row: c.Row, Col: c.Col})
		attrs := []any{"year", s.year, "row", c.Row, "col", c.Col, "fodder", c.Fodder}
		for _, sp := range animals.All {
			attrs = append(attrs, slog.Any(sp.String(), summarizeFitness(p.Population(sp))))
		}
		s.logger.Debug("fitness", attrs...)
	}
}
