package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/biosim/animals"
)

// CycleStats holds aggregated statistics for one flushed window of cycles.
type CycleStats struct {
	Cycle int `csv:"cycle" db:"cycle"`

	// Population counts at window end
	Herbivores int `csv:"herbivores" db:"herbivores"`
	Carnivores int `csv:"carnivores" db:"carnivores"`

	// Events during window
	HerbBirths     int     `csv:"herb_births" db:"herb_births"`
	CarnBirths     int     `csv:"carn_births" db:"carn_births"`
	HerbDeaths     int     `csv:"herb_deaths" db:"herb_deaths"`
	CarnDeaths     int     `csv:"carn_deaths" db:"carn_deaths"`
	HerbMigrations int     `csv:"herb_migrations" db:"herb_migrations"`
	CarnMigrations int     `csv:"carn_migrations" db:"carn_migrations"`
	Kills          int     `csv:"kills" db:"kills"`
	FodderEaten    float64 `csv:"fodder_eaten" db:"fodder_eaten"`

	// Distributions sampled at window end
	HerbWeightMean  float64 `csv:"herb_weight_mean" db:"herb_weight_mean"`
	HerbWeightP10   float64 `csv:"herb_weight_p10" db:"herb_weight_p10"`
	HerbWeightP50   float64 `csv:"herb_weight_p50" db:"herb_weight_p50"`
	HerbWeightP90   float64 `csv:"herb_weight_p90" db:"herb_weight_p90"`
	HerbAgeMean     float64 `csv:"herb_age_mean" db:"herb_age_mean"`
	HerbFitnessMean float64 `csv:"herb_fitness_mean" db:"herb_fitness_mean"`

	CarnWeightMean  float64 `csv:"carn_weight_mean" db:"carn_weight_mean"`
	CarnWeightP10   float64 `csv:"carn_weight_p10" db:"carn_weight_p10"`
	CarnWeightP50   float64 `csv:"carn_weight_p50" db:"carn_weight_p50"`
	CarnWeightP90   float64 `csv:"carn_weight_p90" db:"carn_weight_p90"`
	CarnAgeMean     float64 `csv:"carn_age_mean" db:"carn_age_mean"`
	CarnFitnessMean float64 `csv:"carn_fitness_mean" db:"carn_fitness_mean"`

	TotalFodder float64 `csv:"total_fodder" db:"total_fodder"`
}

// Summary describes the weight, age and fitness distribution of one species.
type Summary struct {
	Count       int
	WeightMean  float64
	WeightP10   float64
	WeightP50   float64
	WeightP90   float64
	AgeMean     float64
	FitnessMean float64
}

// Percentile returns the p-th empirical quantile of a sorted slice, or 0
// when the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	p = min(max(p, 0), 1)
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

// Summarize computes the distribution summary of a set of animals.
func Summarize(as []*animals.Animal) Summary {
	n := len(as)
	if n == 0 {
		return Summary{}
	}
	weights := make([]float64, n)
	ages := make([]float64, n)
	fitness := make([]float64, n)
	for i, a := range as {
		weights[i] = a.Weight
		ages[i] = float64(a.Age)
		fitness[i] = a.Fitness()
	}

	s := Summary{
		Count:       n,
		WeightMean:  stat.Mean(weights, nil),
		AgeMean:     stat.Mean(ages, nil),
		FitnessMean: stat.Mean(fitness, nil),
	}
	slices.Sort(weights)
	s.WeightP10 = Percentile(weights, 0.10)
	s.WeightP50 = Percentile(weights, 0.50)
	s.WeightP90 = Percentile(weights, 0.90)
	return s
}

// LogStats logs the cycle stats to l.
func (s CycleStats) LogStats(l *slog.Logger) {
	l.Info("stats",
		"cycle", s.Cycle,
		"herbivores", s.Herbivores,
		"carnivores", s.Carnivores,
		"herb_births", s.HerbBirths,
		"carn_births", s.CarnBirths,
		"herb_deaths", s.HerbDeaths,
		"carn_deaths", s.CarnDeaths,
		"herb_migrations", s.HerbMigrations,
		"carn_migrations", s.CarnMigrations,
		"kills", s.Kills,
		"fodder_eaten", s.FodderEaten,
		"herb_weight_mean", s.HerbWeightMean,
		"herb_weight_p50", s.HerbWeightP50,
		"herb_fitness_mean", s.HerbFitnessMean,
		"carn_weight_mean", s.CarnWeightMean,
		"carn_weight_p50", s.CarnWeightP50,
		"carn_fitness_mean", s.CarnFitnessMean,
		"total_fodder", s.TotalFodder,
	)
}
