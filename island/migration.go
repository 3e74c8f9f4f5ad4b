package island

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/biosim/animals"
	"github.com/pthm-cable/biosim/rng"
)

// Migrate moves animals between neighbouring patches and returns how many of
// each species moved.
//
// Destinations are chosen against a census of every patch taken before any
// animal moves, and moving animals are staged rather than added to live
// populations, so no move can influence another decision in the same pass.
// Patches are visited in a fresh random order each call.
func (is *Island) Migrate(r *rng.Rand) [animals.NumSpecies]int {
	census := make([]animals.Census, len(is.cells))
	for i, p := range is.cells {
		census[i] = p.Census()
	}

	var moved [animals.NumSpecies]int
	scores := make([]float64, 0, 4)
	for _, i := range r.Perm(len(is.cells)) {
		p := is.cells[i]
		for _, s := range animals.All {
			for _, a := range p.Population(s) {
				dest := i
				if a.Migrates(r) {
					if j, ok := chooseDestination(a, is.neighbours[i], census, scores, r); ok {
						dest = j
						moved[s]++
					}
				}
				is.cells[dest].Stage(a)
			}
		}
	}

	for _, p := range is.cells {
		p.CommitStaging()
	}
	return moved
}

// chooseDestination samples a neighbour with probability proportional to
// exp(lambda * abundance). Probabilities are normalised in log space so large
// abundances cannot overflow. It reports false when there is no neighbour or
// the propensities cannot be normalised, in which case the animal stays.
func chooseDestination(a *animals.Animal, nbrs []int, census []animals.Census, scores []float64, r *rng.Rand) (int, bool) {
	if len(nbrs) == 0 {
		return 0, false
	}
	scores = scores[:0]
	for _, j := range nbrs {
		scores = append(scores, a.PropensityScore(census[j]))
	}
	lse := floats.LogSumExp(scores)
	if math.IsNaN(lse) || math.IsInf(lse, 0) {
		return 0, false
	}

	u := r.Float64()
	cum := 0.0
	for k, j := range nbrs {
		cum += math.Exp(scores[k] - lse)
		if u < cum {
			return j, true
		}
	}
	return nbrs[len(nbrs)-1], true
}

// Total returns the number of animals of both species on the island.
func (is *Island) Total() int {
	n := is.Counts()
	return n[animals.Herbivore] + n[animals.Carnivore]
}

