package animals

import (
	"math"

	"github.com/pthm-cable/biosim/rng"
)

// Graze eats up to the intake target from the available fodder and returns
// the amount consumed.
func (a *Animal) Graze(available float64) float64 {
	eaten := math.Min(a.params.F, available)
	if eaten <= 0 {
		return 0
	}
	a.Weight += a.params.Beta * eaten
	a.UpdateFitness()
	return eaten
}

// KillProbability returns the chance that a predator with fitness predator
// catches prey with fitness prey.
func KillProbability(predator, prey, deltaPhiMax float64) float64 {
	d := predator - prey
	switch {
	case d <= 0:
		return 0
	case d < deltaPhiMax:
		return d / deltaPhiMax
	default:
		return 1
	}
}

// Hunt walks prey, which must be ranked fittest first, from the weakest
// animal upwards. Each prey gets one kill attempt while the hunter's intake
// target is unmet. Every kill adds beta times the prey weight and refreshes
// the hunter's fitness before the next attempt.
//
// The survivors keep their relative order and are compacted into prey's
// backing array. Hunt returns the survivors and the total prey mass eaten.
func (a *Animal) Hunt(prey []*Animal, r *rng.Rand) ([]*Animal, float64) {
	var killed []bool
	eaten := 0.0
	for i := len(prey) - 1; i >= 0 && eaten < a.params.F; i-- {
		h := prey[i]
		if !r.Bernoulli(KillProbability(a.fitness, h.fitness, a.params.DeltaPhiMax)) {
			continue
		}
		if killed == nil {
			killed = make([]bool, len(prey))
		}
		killed[i] = true
		eaten += h.Weight
		a.Weight += a.params.Beta * h.Weight
		a.UpdateFitness()
	}
	if killed == nil {
		return prey, 0
	}

	survivors := prey[:0]
	for i, h := range prey {
		if !killed[i] {
			survivors = append(survivors, h)
		}
	}
	clear(prey[len(survivors):])
	return survivors, eaten
}
