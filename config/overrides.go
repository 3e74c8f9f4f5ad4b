package config

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/pthm-cable/biosim/animals"
	"github.com/pthm-cable/biosim/landscape"
)

// domain is the set of legal values for a parameter.
type domain uint8

const (
	anyReal     domain = iota
	nonNegative        // >= 0
	positive           // > 0
	fraction           // in [0, 1]
)

func (d domain) check(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	switch d {
	case nonNegative:
		return v >= 0
	case positive:
		return v > 0
	case fraction:
		return v >= 0 && v <= 1
	}
	return true
}

func (d domain) String() string {
	switch d {
	case nonNegative:
		return "non-negative"
	case positive:
		return "positive"
	case fraction:
		return "in [0, 1]"
	}
	return "finite"
}

type field struct {
	ptr *float64
	dom domain
}

// speciesFields maps override keys to the fields of p. DeltaPhiMax only
// exists for carnivores.
func speciesFields(s animals.Species, p *animals.Params) map[string]field {
	fs := map[string]field{
		"w_birth":     {&p.WBirth, nonNegative},
		"sigma_birth": {&p.SigmaBirth, nonNegative},
		"beta":        {&p.Beta, fraction},
		"eta":         {&p.Eta, fraction},
		"a_half":      {&p.AHalf, nonNegative},
		"phi_age":     {&p.PhiAge, nonNegative},
		"w_half":      {&p.WHalf, nonNegative},
		"phi_weight":  {&p.PhiWeight, nonNegative},
		"mu":          {&p.Mu, fraction},
		"lambda":      {&p.Lambda, anyReal},
		"gamma":       {&p.Gamma, nonNegative},
		"zeta":        {&p.Zeta, nonNegative},
		"xi":          {&p.Xi, nonNegative},
		"omega":       {&p.Omega, fraction},
		"F":           {&p.F, nonNegative},
	}
	if s == animals.Carnivore {
		fs["DeltaPhiMax"] = field{&p.DeltaPhiMax, positive}
	}
	return fs
}

func fodderFields(p *landscape.FodderParams, t landscape.Terrain) map[string]field {
	fs := map[string]field{"f_max": {&p.FMax, nonNegative}}
	if t == landscape.Savannah {
		fs["alpha"] = field{&p.Alpha, fraction}
	}
	return fs
}

func validateSpecies(s animals.Species, p *animals.Params) error {
	if s == animals.Herbivore && p.DeltaPhiMax != 0 {
		return fmt.Errorf("%w: DeltaPhiMax applies to carnivores only", ErrUnknownParameter)
	}
	return validateFields(s.String(), speciesFields(s, p))
}

func validateFodder(t landscape.Terrain, p *landscape.FodderParams) error {
	if t != landscape.Savannah && p.Alpha != 0 {
		return fmt.Errorf("%w: alpha applies to Savannah only", ErrUnknownParameter)
	}
	return validateFields(t.String(), fodderFields(p, t))
}

func validateFields(owner string, fs map[string]field) error {
	for _, key := range sortedKeys(fs) {
		f := fs[key]
		if !f.dom.check(*f.ptr) {
			return fmt.Errorf("%w: %s %s must be %v, got %g", ErrInvalidValue, owner, key, f.dom, *f.ptr)
		}
	}
	return nil
}

// SetSpeciesParameters overrides parameters of the named species. Either
// every value is applied or, on error, none is.
func (c *Config) SetSpeciesParameters(species string, values map[string]float64) error {
	s, err := animals.ParseSpecies(species)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnknownParameter, err)
	}
	next := *c.Species(s)
	if err := apply(s.String(), speciesFields(s, &next), values); err != nil {
		return err
	}
	*c.Species(s) = next
	return nil
}

// SetLandscapeParameters overrides fodder parameters of a terrain, given by
// code ("J") or name ("Jungle"). Only Jungle and Savannah grow fodder.
func (c *Config) SetLandscapeParameters(terrain string, values map[string]float64) error {
	t, err := landscape.ParseTerrainName(terrain)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnknownParameter, err)
	}
	var target *landscape.FodderParams
	switch t {
	case landscape.Jungle:
		target = &c.Landscape.Jungle
	case landscape.Savannah:
		target = &c.Landscape.Savannah
	default:
		return fmt.Errorf("%w: %v has no fodder parameters", ErrUnknownParameter, t)
	}
	next := *target
	if err := apply(t.String(), fodderFields(&next, t), values); err != nil {
		return err
	}
	*target = next
	return nil
}

func apply(owner string, fs map[string]field, values map[string]float64) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		f, ok := fs[key]
		if !ok {
			hint := ""
			if s := suggest(key, sortedKeys(fs)); s != "" {
				hint = fmt.Sprintf(" (did you mean %q?)", s)
			}
			return fmt.Errorf("%w: %s has no parameter %q%s", ErrUnknownParameter, owner, key, hint)
		}
		v := values[key]
		if !f.dom.check(v) {
			return fmt.Errorf("%w: %s %s must be %v, got %g", ErrInvalidValue, owner, key, f.dom, v)
		}
		*f.ptr = v
	}
	return nil
}

// suggest returns the known key closest to key, or "" when nothing is close.
func suggest(key string, known []string) string {
	best, bestDist := "", 3
	for _, k := range known {
		d := levenshtein.ComputeDistance(strings.ToLower(key), strings.ToLower(k))
		if d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

func sortedKeys(fs map[string]field) []string {
	keys := make([]string, 0, len(fs))
	for k := range fs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
