package island

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/biosim/animals"
	"github.com/pthm-cable/biosim/landscape"
	"github.com/pthm-cable/biosim/rng"
)

// ErrInvalidPlacement is returned when an initial population cannot be placed.
var ErrInvalidPlacement = errors.New("invalid placement")

// Location is a 0-based grid coordinate.
type Location struct {
	Row int `yaml:"row"`
	Col int `yaml:"col"`
}

// Individual describes one animal to place, or Count identical animals.
// A zero Count places a single animal; in YAML an explicit count must be at
// least 1.
type Individual struct {
	Species string  `yaml:"species"`
	Age     int     `yaml:"age"`
	Weight  float64 `yaml:"weight"`
	Count   int     `yaml:"count,omitempty"`
}

var individualKeys = []string{"species", "age", "weight", "count"}

// UnmarshalYAML decodes an individual, rejecting unknown keys and integer
// fields written as anything other than a YAML integer.
func (ind *Individual) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: individual must be a mapping", ErrInvalidPlacement, node.Line)
	}
	hasCount := false
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		hasCount = hasCount || key.Value == "count"
		if !slices.Contains(individualKeys, key.Value) {
			return fmt.Errorf("%w: line %d: unknown field %q", ErrInvalidPlacement, key.Line, key.Value)
		}
		if (key.Value == "age" || key.Value == "count") && val.ShortTag() != "!!int" {
			return fmt.Errorf("%w: line %d: %s must be an integer, got %q", ErrInvalidPlacement, val.Line, key.Value, val.Value)
		}
	}

	type plain Individual
	var out plain
	if err := node.Decode(&out); err != nil {
		return err
	}
	if hasCount && out.Count < 1 {
		return fmt.Errorf("%w: line %d: count must be at least 1, got %d", ErrInvalidPlacement, node.Line, out.Count)
	}
	*ind = Individual(out)
	return nil
}

// Placement is a group of individuals to put in one cell. Cycle is the
// number of completed cycles after which the group is introduced; zero means
// at setup.
type Placement struct {
	Loc   Location     `yaml:"loc"`
	Pop   []Individual `yaml:"pop"`
	Cycle int          `yaml:"cycle,omitempty"`
}

// CellCount is the population breakdown of one cell.
type CellCount struct {
	Row        int
	Col        int
	Terrain    landscape.Terrain
	Herbivores int
	Carnivores int
	Fodder     float64
}

// Island owns a fixed grid of patches, stored row-major.
type Island struct {
	rows, cols int
	cells      []*landscape.Patch
	neighbours [][]int // passable orthogonal neighbours per cell
	params     animals.ParamSet
}

// New builds an island from a layout. The parameter sets are shared by every
// animal and patch created on this island.
func New(layout string, params animals.ParamSet, fodder landscape.FodderSet) (*Island, error) {
	grid, err := ParseMap(layout)
	if err != nil {
		return nil, err
	}

	is := &Island{
		rows:   len(grid),
		cols:   len(grid[0]),
		params: params,
	}
	is.cells = make([]*landscape.Patch, 0, is.rows*is.cols)
	for _, row := range grid {
		for _, t := range row {
			is.cells = append(is.cells, landscape.New(t, fodder[t]))
		}
	}

	is.neighbours = make([][]int, len(is.cells))
	for i, p := range is.cells {
		if !p.Terrain.Passable() {
			continue
		}
		r, c := i/is.cols, i%is.cols
		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nr, nc := r+d[0], c+d[1]
			if nr < 0 || nr >= is.rows || nc < 0 || nc >= is.cols {
				continue
			}
			j := nr*is.cols + nc
			if is.cells[j].Terrain.Passable() {
				is.neighbours[i] = append(is.neighbours[i], j)
			}
		}
	}
	return is, nil
}

// Rows returns the number of rows.
func (is *Island) Rows() int { return is.rows }

// Cols returns the number of columns.
func (is *Island) Cols() int { return is.cols }

// Patch returns the patch at loc, or nil when out of bounds.
func (is *Island) Patch(loc Location) *landscape.Patch {
	if loc.Row < 0 || loc.Row >= is.rows || loc.Col < 0 || loc.Col >= is.cols {
		return nil
	}
	return is.cells[loc.Row*is.cols+loc.Col]
}

// Place validates every group and then adds the animals. Nothing is placed
// when any group is invalid.
func (is *Island) Place(groups []Placement) error {
	batches, err := is.build(groups)
	if err != nil {
		return err
	}
	for i, as := range batches {
		is.Patch(groups[i].Loc).Add(as...)
	}
	return nil
}

// Check validates groups without placing them.
func (is *Island) Check(groups []Placement) error {
	_, err := is.build(groups)
	return err
}

// build creates the animals of each group, one batch per group.
func (is *Island) build(groups []Placement) ([][]*animals.Animal, error) {
	batches := make([][]*animals.Animal, 0, len(groups))
	for _, g := range groups {
		p := is.Patch(g.Loc)
		if p == nil {
			return nil, fmt.Errorf("%w: (%d, %d) is outside the %dx%d map", ErrInvalidPlacement, g.Loc.Row, g.Loc.Col, is.rows, is.cols)
		}
		if !p.Terrain.Passable() {
			return nil, fmt.Errorf("%w: (%d, %d) is %v", ErrInvalidPlacement, g.Loc.Row, g.Loc.Col, p.Terrain)
		}
		as := make([]*animals.Animal, 0, len(g.Pop))
		for _, ind := range g.Pop {
			s, err := animals.ParseSpecies(ind.Species)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidPlacement, err)
			}
			if ind.Age < 0 {
				return nil, fmt.Errorf("%w: negative age %d", ErrInvalidPlacement, ind.Age)
			}
			if ind.Weight < 0 || math.IsNaN(ind.Weight) || math.IsInf(ind.Weight, 0) {
				return nil, fmt.Errorf("%w: weight must be finite and non-negative, got %g", ErrInvalidPlacement, ind.Weight)
			}
			if ind.Count < 0 {
				return nil, fmt.Errorf("%w: negative count %d", ErrInvalidPlacement, ind.Count)
			}
			for range max(ind.Count, 1) {
				as = append(as, animals.New(s, is.params[s], ind.Age, ind.Weight))
			}
		}
		batches = append(batches, as)
	}
	return batches, nil
}

// Cycle advances every patch by one cycle. Each phase finishes on all
// patches before the next one starts.
func (is *Island) Cycle(r *rng.Rand) landscape.Events {
	var ev landscape.Events
	for _, p := range is.cells {
		if p.Terrain.Passable() {
			ev.Add(p.FeedAndReproduce(r))
		}
	}
	ev.Migrations = is.Migrate(r)
	for _, p := range is.cells {
		if p.Terrain.Passable() {
			ev.Add(p.AgeAndDie(r))
		}
	}
	return ev
}

// Counts returns the island-wide population per species.
func (is *Island) Counts() [animals.NumSpecies]int {
	var n [animals.NumSpecies]int
	for _, p := range is.cells {
		for _, s := range animals.All {
			n[s] += p.Count(s)
		}
	}
	return n
}

// Cells returns the per-cell breakdown in row-major order.
func (is *Island) Cells() []CellCount {
	out := make([]CellCount, len(is.cells))
	for i, p := range is.cells {
		out[i] = CellCount{
			Row:        i / is.cols,
			Col:        i % is.cols,
			Terrain:    p.Terrain,
			Herbivores: p.Count(animals.Herbivore),
			Carnivores: p.Count(animals.Carnivore),
			Fodder:     p.Fodder,
		}
	}
	return out
}

// Animals returns every live animal of a species, in row-major cell order.
func (is *Island) Animals(s animals.Species) []*animals.Animal {
	var out []*animals.Animal
	for _, p := range is.cells {
		out = append(out, p.Population(s)...)
	}
	return out
}
