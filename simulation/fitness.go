package simulation

import (
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/biosim/animals"
)

// fitnessSummary is the pre-cycle fitness distribution of one species in
// one cell.
type fitnessSummary struct {
	Count int
	Mean  float64
	Min   float64
	Max   float64
}

func summarizeFitness(as []*animals.Animal) fitnessSummary {
	if len(as) == 0 {
		return fitnessSummary{}
	}
	phi := make([]float64, len(as))
	for i, a := range as {
		phi[i] = a.Fitness()
	}
	return fitnessSummary{
		Count: len(phi),
		Mean:  stat.Mean(phi, nil),
		Min:   floats.Min(phi),
		Max:   floats.Max(phi),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (f fitnessSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("count", f.Count),
		slog.Float64("mean", f.Mean),
		slog.Float64("min", f.Min),
		slog.Float64("max", f.Max),
	)
}
