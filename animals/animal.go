package animals

import (
	"math"

	"github.com/pthm-cable/biosim/rng"
)

// maxNewbornDraws bounds resampling of a non-positive newborn weight.
const maxNewbornDraws = 100

// Animal is a single organism.
//
// Fitness is cached. It is refreshed by UpdateFitness, which every operation
// that changes age or weight calls before the value can feed a decision.
type Animal struct {
	Species Species
	Age     int
	Weight  float64

	fitness float64
	params  *Params
}

// New creates an animal with its fitness already computed.
func New(s Species, p *Params, age int, weight float64) *Animal {
	a := &Animal{Species: s, Age: age, Weight: weight, params: p}
	a.UpdateFitness()
	return a
}

// Params returns the species parameters the animal was created with.
func (a *Animal) Params() *Params { return a.params }

// Fitness returns the cached fitness in [0, 1].
func (a *Animal) Fitness() float64 { return a.fitness }

// UpdateFitness recomputes and caches fitness.
func (a *Animal) UpdateFitness() float64 {
	a.fitness = Fitness(a.params, a.Age, a.Weight)
	return a.fitness
}

// Fitness is the product of an age logistic and a weight logistic. Negative
// weights are scored as zero.
func Fitness(p *Params, age int, weight float64) float64 {
	weight = max(weight, 0)
	ageTerm := sigmoid(p.PhiAge * (float64(age) - p.AHalf))
	weightTerm := sigmoid(-p.PhiWeight * (weight - p.WHalf))
	return ageTerm * weightTerm
}

// sigmoid is 1/(1+e^x); it falls from 1 to 0 as x grows.
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(x))
}

// AgeOneCycle adds one cycle to the animal's age.
func (a *Animal) AgeOneCycle() {
	a.Age++
}

// LoseWeight removes the fraction eta of the current weight.
func (a *Animal) LoseWeight() {
	a.Weight -= a.params.Eta * a.Weight
}

// DeathProbability is omega * (1 - fitness).
func (a *Animal) DeathProbability() float64 {
	return a.params.Omega * (1 - a.fitness)
}

// Dies draws the death decision.
func (a *Animal) Dies(r *rng.Rand) bool {
	return r.Bernoulli(a.DeathProbability())
}

// BirthProbability returns the chance of giving birth in a patch holding n
// animals of the same species, the animal itself included.
func (a *Animal) BirthProbability(n int) float64 {
	p := a.params
	if a.Weight < p.Zeta*(p.WBirth+p.SigmaBirth) {
		return 0
	}
	return math.Min(1, p.Gamma*a.fitness*float64(n-1))
}

// GivesBirth draws the birth decision.
func (a *Animal) GivesBirth(n int, r *rng.Rand) bool {
	return r.Bernoulli(a.BirthProbability(n))
}

// Offspring samples a newborn of the same species and charges the parent xi
// times the newborn's weight. Non-positive draws are resampled a bounded
// number of times before falling back to w_birth. It returns nil, leaving
// the parent untouched, when the weight is still not positive or the parent
// cannot pay.
func (a *Animal) Offspring(r *rng.Rand) *Animal {
	p := a.params
	w := 0.0
	for i := 0; i < maxNewbornDraws && w <= 0; i++ {
		w = r.Normal(p.WBirth, p.SigmaBirth)
	}
	if w <= 0 {
		w = p.WBirth
	}
	if w <= 0 {
		return nil
	}
	cost := p.Xi * w
	if a.Weight < cost {
		return nil
	}
	a.Weight -= cost
	a.UpdateFitness()
	return New(a.Species, p, 0, w)
}

// MigrationProbability is mu * fitness.
func (a *Animal) MigrationProbability() float64 {
	return a.params.Mu * a.fitness
}

// Migrates draws the decision to leave the current patch.
func (a *Animal) Migrates(r *rng.Rand) bool {
	return r.Bernoulli(a.MigrationProbability())
}
