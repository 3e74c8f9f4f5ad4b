// Package main provides CMA-ES optimization for biosim model parameters.
package main

import (
	"fmt"

	"github.com/pthm-cable/biosim/animals"
	"github.com/pthm-cable/biosim/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Owner   string  // Species or terrain name
	Key     string  // Override key
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Herbivore life history
			{Name: "herb_gamma", Owner: "Herbivore", Key: "gamma", Min: 0.05, Max: 0.5, Default: 0.2},
			{Name: "herb_omega", Owner: "Herbivore", Key: "omega", Min: 0.1, Max: 0.8, Default: 0.4},
			{Name: "herb_mu", Owner: "Herbivore", Key: "mu", Min: 0.05, Max: 0.6, Default: 0.25},
			// Carnivore life history and hunting
			{Name: "carn_gamma", Owner: "Carnivore", Key: "gamma", Min: 0.2, Max: 1.0, Default: 0.8},
			{Name: "carn_omega", Owner: "Carnivore", Key: "omega", Min: 0.3, Max: 1.0, Default: 0.9},
			{Name: "carn_mu", Owner: "Carnivore", Key: "mu", Min: 0.05, Max: 0.8, Default: 0.4},
			{Name: "carn_F", Owner: "Carnivore", Key: "F", Min: 10, Max: 80, Default: 50},
			{Name: "carn_beta", Owner: "Carnivore", Key: "beta", Min: 0.3, Max: 1.0, Default: 0.75},
			{Name: "carn_DeltaPhiMax", Owner: "Carnivore", Key: "DeltaPhiMax", Min: 1, Max: 15, Default: 10},
			// Landscape
			{Name: "savannah_alpha", Owner: "Savannah", Key: "alpha", Min: 0.05, Max: 1.0, Default: 0.3},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies clamped parameter values through the config's
// override interface, one call per owner.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	clamped := pv.Clamp(values)

	byOwner := make(map[string]map[string]float64)
	var owners []string
	for i, spec := range pv.Specs {
		if byOwner[spec.Owner] == nil {
			byOwner[spec.Owner] = make(map[string]float64)
			owners = append(owners, spec.Owner)
		}
		byOwner[spec.Owner][spec.Key] = clamped[i]
	}

	for _, owner := range owners {
		var err error
		if _, serr := animals.ParseSpecies(owner); serr == nil {
			err = cfg.SetSpeciesParameters(owner, byOwner[owner])
		} else {
			err = cfg.SetLandscapeParameters(owner, byOwner[owner])
		}
		if err != nil {
			return fmt.Errorf("applying %s parameters: %w", owner, err)
		}
	}
	return nil
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	h, c := &cfg.Herbivore, &cfg.Carnivore
	return []float64{
		h.Gamma,
		h.Omega,
		h.Mu,
		c.Gamma,
		c.Omega,
		c.Mu,
		c.F,
		c.Beta,
		c.DeltaPhiMax,
		cfg.Landscape.Savannah.Alpha,
	}
}
