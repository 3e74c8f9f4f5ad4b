// Package rng provides the seeded random stream shared by every stochastic
// decision in a simulation run.
//
// All draws of a run come from one PCG source, so results are reproducible as
// long as the draws happen in the same order.
package rng

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Rand is a *rand.Rand that also exposes its source to gonum distributions.
type Rand struct {
	*rand.Rand
	src rand.Source
}

// New returns a stream seeded with seed.
func New(seed uint64) *Rand {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Rand{Rand: rand.New(src), src: src}
}

// Bernoulli draws one uniform number and reports whether it fell below p.
// p <= 0 is never true and p >= 1 is always true.
func (r *Rand) Bernoulli(p float64) bool {
	return r.Float64() < p
}

// Normal samples N(mu, sigma) from the shared source.
func (r *Rand) Normal(mu, sigma float64) float64 {
	if sigma <= 0 {
		return mu
	}
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: r.src}.Rand()
}
