package main

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/simulation"
)

// FitnessEvaluator runs simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxCycles  int
	seeds      []uint64
	baseConfig *config.Config
	logger     *slog.Logger

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxCycles int, seeds []uint64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxCycles:  maxCycles,
		seeds:      seeds,
		baseConfig: baseCfg,
		// Per-run logs would drown the progress output.
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// If either species stays below minViablePop once both are present, it
// counts as functionally extinct.
const minViablePop = 3

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalCycles int                 // cycles before functional extinction (or maxCycles)
	history        []simulation.Counts // totals after each cycle
	coexistFrom    int                 // first cycle at which both species are expected
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Invalid vectors and failed runs score zero survival.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]*runResult, len(fe.seeds))

	var g errgroup.Group
	for i, seed := range fe.seeds {
		g.Go(func() error {
			r, err := fe.runSimulation(x, seed)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Warn("evaluation failed", "error", err)
		return 0
	}

	var totalFitness, totalQuality float64
	for _, r := range results {
		quality := computeQuality(r)
		totalFitness += computeFitness(r, quality)
		totalQuality += quality
	}

	n := float64(len(fe.seeds))
	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation executes a single run until functional extinction or
// maxCycles, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed uint64) (*runResult, error) {
	cfg := *fe.baseConfig
	cfg.Telemetry.LogEvery = 0
	cfg.Telemetry.CellsEvery = 0
	cfg.Simulation.Seed = seed
	if err := fe.params.ApplyToConfig(&cfg, x); err != nil {
		return nil, err
	}

	sim, err := simulation.New(&cfg, simulation.Options{Logger: fe.logger})
	if err != nil {
		return nil, err
	}

	result := &runResult{survivalCycles: fe.maxCycles}
	for _, g := range cfg.Population {
		result.coexistFrom = max(result.coexistFrom, g.Cycle+1)
	}

	for cycle := 1; cycle <= fe.maxCycles; cycle++ {
		counts, err := sim.Advance(1)
		if err != nil {
			return nil, err
		}
		if cycle >= result.coexistFrom && (counts.Herbivores < minViablePop || counts.Carnivores < minViablePop) {
			result.survivalCycles = cycle
			break
		}
	}
	result.history = sim.History()[1:]
	return result, nil
}

// computeFitness returns -(survivalCycles × (1 + 0.2 × quality)).
// Survival dominates; quality separates configs with similar survival.
func computeFitness(r *runResult, quality float64) float64 {
	return -(float64(r.survivalCycles) * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightRatio     = 0.5
	qualityWeightStability = 0.5

	qualityWarmupCycles = 5 // skip the first cycles after both species are present
	qualityTargetRatio  = 5 // herbivores per carnivore
)

// computeQuality scores coexistence in [0, 1] from the population history.
func computeQuality(r *runResult) float64 {
	start := r.coexistFrom + qualityWarmupCycles
	if len(r.history) <= start {
		return 0
	}

	var ratioSum float64
	herbs := make([]float64, 0, len(r.history)-start)
	carns := make([]float64, 0, len(r.history)-start)
	for _, c := range r.history[start:] {
		if c.Herbivores < minViablePop || c.Carnivores < minViablePop {
			continue
		}
		herbs = append(herbs, float64(c.Herbivores))
		carns = append(carns, float64(c.Carnivores))

		logErr := math.Log(float64(c.Herbivores) / float64(c.Carnivores) / qualityTargetRatio)
		ratioSum += math.Exp(-logErr * logErr)
	}
	if len(herbs) == 0 {
		return 0
	}
	ratioScore := ratioSum / float64(len(herbs))

	stabilityScore := 0.0
	if len(herbs) >= 2 {
		cvHerb, cvCarn := cv(herbs), cv(carns)
		stabilityScore = math.Exp(-(cvHerb*cvHerb + cvCarn*cvCarn))
	}

	return min(max(qualityWeightRatio*ratioScore+qualityWeightStability*stabilityScore, 0), 1)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}
