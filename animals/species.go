// Package animals implements individual organisms: aging, weight loss,
// fitness, and the stochastic death, birth, migration and feeding decisions.
//
// The two species form a closed variant. Species-specific behaviour is
// selected from the Species tag inside this package; callers never branch on
// it to decide how an animal eats or where it wants to go.
package animals

import (
	"errors"
	"fmt"
)

// Species tags an animal as herbivore or carnivore.
type Species uint8

const (
	Herbivore Species = iota
	Carnivore
)

// NumSpecies is the number of species in the simulation.
const NumSpecies = 2

// All lists the species in processing order.
var All = [NumSpecies]Species{Herbivore, Carnivore}

// ErrUnknownSpecies is returned when a species name cannot be parsed.
var ErrUnknownSpecies = errors.New("unknown species")

func (s Species) String() string {
	switch s {
	case Herbivore:
		return "Herbivore"
	case Carnivore:
		return "Carnivore"
	default:
		return fmt.Sprintf("Species(%d)", uint8(s))
	}
}

// ParseSpecies maps "Herbivore" or "Carnivore" to a Species.
func ParseSpecies(name string) (Species, error) {
	switch name {
	case "Herbivore":
		return Herbivore, nil
	case "Carnivore":
		return Carnivore, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSpecies, name)
}

// Params is the immutable parameter set shared by all animals of a species.
type Params struct {
	WBirth      float64 `yaml:"w_birth"`     // mean newborn weight
	SigmaBirth  float64 `yaml:"sigma_birth"` // newborn weight standard deviation
	Beta        float64 `yaml:"beta"`        // food-to-weight conversion
	Eta         float64 `yaml:"eta"`         // fraction of weight lost per cycle
	AHalf       float64 `yaml:"a_half"`
	PhiAge      float64 `yaml:"phi_age"`
	WHalf       float64 `yaml:"w_half"`
	PhiWeight   float64 `yaml:"phi_weight"`
	Mu          float64 `yaml:"mu"`     // migration scale
	Lambda      float64 `yaml:"lambda"` // migration abundance sensitivity
	Gamma       float64 `yaml:"gamma"`  // birth scale
	Zeta        float64 `yaml:"zeta"`   // birth weight threshold factor
	Xi          float64 `yaml:"xi"`     // parent weight cost per newborn weight
	Omega       float64 `yaml:"omega"`  // death scale
	F           float64 `yaml:"F"`      // intake target per cycle
	DeltaPhiMax float64 `yaml:"DeltaPhiMax,omitempty"`
}

// DefaultParams returns the stock parameter set for a species.
func DefaultParams(s Species) Params {
	if s == Carnivore {
		return Params{
			WBirth: 6.0, SigmaBirth: 1.0, Beta: 0.75, Eta: 0.125,
			AHalf: 60.0, PhiAge: 0.4, WHalf: 4.0, PhiWeight: 0.4,
			Mu: 0.4, Lambda: 1.0, Gamma: 0.8, Zeta: 3.5, Xi: 1.1,
			Omega: 0.9, F: 50.0, DeltaPhiMax: 10.0,
		}
	}
	return Params{
		WBirth: 8.0, SigmaBirth: 1.5, Beta: 0.9, Eta: 0.05,
		AHalf: 40.0, PhiAge: 0.2, WHalf: 10.0, PhiWeight: 0.1,
		Mu: 0.25, Lambda: 1.0, Gamma: 0.2, Zeta: 3.5, Xi: 1.2,
		Omega: 0.4, F: 10.0,
	}
}

// ParamSet holds the parameters of both species, indexed by Species.
type ParamSet [NumSpecies]*Params

// DefaultParamSet returns fresh copies of the stock parameters.
func DefaultParamSet() ParamSet {
	h, c := DefaultParams(Herbivore), DefaultParams(Carnivore)
	return ParamSet{&h, &c}
}
