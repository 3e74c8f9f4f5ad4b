package island

import (
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/biosim/animals"
	"github.com/pthm-cable/biosim/landscape"
	"github.com/pthm-cable/biosim/rng"
)

func newIsland(t *testing.T, layout string) *Island {
	t.Helper()
	is, err := New(layout, animals.DefaultParamSet(), landscape.DefaultFodder())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return is
}

func group(row, col int, species string, n, age int, weight float64) Placement {
	pop := make([]Individual, n)
	for i := range pop {
		pop[i] = Individual{Species: species, Age: age, Weight: weight}
	}
	return Placement{Loc: Location{Row: row, Col: col}, Pop: pop}
}

func TestParseMapErrors(t *testing.T) {
	tests := []struct {
		name   string
		layout string
	}{
		{"empty", "  \n "},
		{"bad code", "OOO\nOXO\nOOO"},
		{"ragged rows", "OOO\nOJOO\nOOO"},
		{"land on border", "OOO\nOJJ\nOOO"},
		{"land on top", "OJO\nOJO\nOOO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMap(tt.layout)
			if !errors.Is(err, ErrInvalidMap) {
				t.Errorf("expected ErrInvalidMap, got %v", err)
			}
		})
	}
}

func TestParseMapTrimsIndentation(t *testing.T) {
	grid, err := ParseMap("\n    OOO\n    OJO\n    OOO\n")
	if err != nil {
		t.Fatalf("ParseMap: %v", err)
	}
	if len(grid) != 3 || grid[1][1] != landscape.Jungle {
		t.Errorf("unexpected grid %v", grid)
	}
	if got := FormatMap(grid); got != "OOO\nOJO\nOOO" {
		t.Errorf("FormatMap = %q", got)
	}
}

func TestDefaultMapParses(t *testing.T) {
	is := newIsland(t, DefaultMap)
	if is.Rows() != 13 || is.Cols() != 21 {
		t.Errorf("expected 13x21, got %dx%d", is.Rows(), is.Cols())
	}
	if p := is.Patch(Location{Row: 10, Col: 10}); p == nil || p.Terrain != landscape.Jungle {
		t.Error("expected Jungle at (10, 10)")
	}
}

func TestPlaceErrors(t *testing.T) {
	layout := "OOOO\nOJMO\nOOOO"
	tests := []struct {
		name string
		g    Placement
	}{
		{"out of bounds", group(5, 1, "Herbivore", 1, 1, 10)},
		{"negative row", group(-1, 1, "Herbivore", 1, 1, 10)},
		{"ocean", group(0, 0, "Herbivore", 1, 1, 10)},
		{"mountain", group(1, 2, "Herbivore", 1, 1, 10)},
		{"negative age", group(1, 1, "Herbivore", 1, -1, 10)},
		{"negative weight", group(1, 1, "Carnivore", 1, 1, -3)},
		{"NaN weight", group(1, 1, "Herbivore", 1, 1, math.NaN())},
		{"infinite weight", group(1, 1, "Herbivore", 1, 1, math.Inf(1))},
		{"unknown species", group(1, 1, "Omnivore", 1, 1, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := newIsland(t, layout)
			good := group(1, 1, "Herbivore", 3, 1, 10)
			err := is.Place([]Placement{good, tt.g})
			if !errors.Is(err, ErrInvalidPlacement) {
				t.Fatalf("expected ErrInvalidPlacement, got %v", err)
			}
			if is.Total() != 0 {
				t.Errorf("failed placement left %d animals on the island", is.Total())
			}
		})
	}
}

func TestMigrationConservesAnimals(t *testing.T) {
	is := newIsland(t, DefaultMap)
	if err := is.Place([]Placement{
		group(10, 10, "Herbivore", 200, 5, 30),
		group(10, 10, "Carnivore", 60, 5, 30),
		group(5, 5, "Herbivore", 40, 5, 30),
	}); err != nil {
		t.Fatalf("Place: %v", err)
	}

	r := rng.New(12634)
	for i := 0; i < 10; i++ {
		before := is.Counts()
		moved := is.Migrate(r)
		after := is.Counts()
		if before != after {
			t.Fatalf("pass %d: migration changed counts %v -> %v", i, before, after)
		}
		if i == 0 && moved[animals.Herbivore] == 0 {
			t.Error("expected some herbivores to migrate from a crowded cell")
		}
		for _, c := range is.Cells() {
			p := is.Patch(Location{Row: c.Row, Col: c.Col})
			for _, s := range animals.All {
				if p.Staged(s) != 0 {
					t.Fatalf("staging not empty at (%d, %d) after migration", c.Row, c.Col)
				}
			}
			if !c.Terrain.Passable() && c.Herbivores+c.Carnivores > 0 {
				t.Fatalf("animals on impassable cell (%d, %d)", c.Row, c.Col)
			}
		}
	}
}

func TestMigrationOnlyToNeighbours(t *testing.T) {
	// A corridor: animals starting in the middle can only reach its two ends.
	layout := "OOOOO\nOSJSO\nOOOOO"
	is := newIsland(t, layout)
	if err := is.Place([]Placement{group(1, 2, "Herbivore", 500, 5, 40)}); err != nil {
		t.Fatalf("Place: %v", err)
	}
	moved := is.Migrate(rng.New(8))

	left := is.Patch(Location{Row: 1, Col: 1}).Count(animals.Herbivore)
	right := is.Patch(Location{Row: 1, Col: 3}).Count(animals.Herbivore)
	if left+right != moved[animals.Herbivore] {
		t.Errorf("moved %d but ends hold %d", moved[animals.Herbivore], left+right)
	}
	if left == 0 || right == 0 {
		t.Errorf("equal neighbours should both receive migrants: left=%d right=%d", left, right)
	}
}

func TestMigrationPrefersAbundance(t *testing.T) {
	// Left neighbour is bare desert, right neighbour is jungle.
	layout := "OOOOO\nODSJO\nOOOOO"
	ps := animals.DefaultParamSet()
	ps[animals.Herbivore].Lambda = 5
	ps[animals.Herbivore].Mu = 1
	is, err := New(layout, ps, landscape.DefaultFodder())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := is.Place([]Placement{group(1, 2, "Herbivore", 500, 0, 200)}); err != nil {
		t.Fatalf("Place: %v", err)
	}
	is.Migrate(rng.New(21))

	desert := is.Patch(Location{Row: 1, Col: 1}).Count(animals.Herbivore)
	jungle := is.Patch(Location{Row: 1, Col: 3}).Count(animals.Herbivore)
	if jungle <= desert {
		t.Errorf("expected jungle to attract more migrants: desert=%d jungle=%d", desert, jungle)
	}
}

func TestCycleDeterministic(t *testing.T) {
	run := func() ([animals.NumSpecies]int, []CellCount) {
		is := newIsland(t, DefaultMap)
		if err := is.Place([]Placement{
			group(10, 10, "Herbivore", 150, 5, 20),
			group(10, 10, "Carnivore", 40, 5, 20),
		}); err != nil {
			t.Fatalf("Place: %v", err)
		}
		r := rng.New(99)
		for i := 0; i < 15; i++ {
			is.Cycle(r)
		}
		return is.Counts(), is.Cells()
	}
	c1, cells1 := run()
	c2, cells2 := run()
	if c1 != c2 {
		t.Fatalf("same seed gave different totals %v vs %v", c1, c2)
	}
	for i := range cells1 {
		if cells1[i] != cells2[i] {
			t.Fatalf("same seed gave different cell %d: %+v vs %+v", i, cells1[i], cells2[i])
		}
	}
}

// One jungle cell walled in by ocean: nobody can leave, and every change in
// the population is a birth, a kill or a natural death.
func TestEnclosedJungleScenario(t *testing.T) {
	is := newIsland(t, "OOO\nOJO\nOOO")
	if err := is.Place([]Placement{
		group(1, 1, "Herbivore", 150, 5, 20),
		group(1, 1, "Carnivore", 40, 5, 20),
	}); err != nil {
		t.Fatalf("Place: %v", err)
	}
	cell := is.Patch(Location{Row: 1, Col: 1})

	for _, s := range animals.All {
		for _, a := range cell.Population(s) {
			slog.Debug("pre-cycle fitness", "species", s, "fitness", a.Fitness(), "weight", a.Weight)
		}
	}
	before := is.Counts()

	ev := is.Cycle(rng.New(12345))
	after := is.Counts()

	if ev.Migrations != [animals.NumSpecies]int{} {
		t.Errorf("animals migrated out of an enclosed cell: %v", ev.Migrations)
	}
	if ev.Consumed != 800 {
		t.Errorf("150 herbivores wanting 10 each should eat all 800 fodder, ate %f", ev.Consumed)
	}

	wantHerb := before[animals.Herbivore] + ev.Births[animals.Herbivore] - ev.Kills - ev.Deaths[animals.Herbivore]
	wantCarn := before[animals.Carnivore] + ev.Births[animals.Carnivore] - ev.Deaths[animals.Carnivore]
	if after[animals.Herbivore] != wantHerb {
		t.Errorf("herbivores: %d before, events %+v, %d after", before[animals.Herbivore], ev, after[animals.Herbivore])
	}
	if after[animals.Carnivore] != wantCarn {
		t.Errorf("carnivores: %d before, events %+v, %d after", before[animals.Carnivore], ev, after[animals.Carnivore])
	}

	changed := false
	for _, h := range cell.Population(animals.Herbivore) {
		if h.Age == 6 && h.Weight != 20 {
			changed = true
			break
		}
	}
	if !changed {
		t.Error("expected feeding and weight loss to change surviving herbivore weights")
	}
}

func TestGenerateProducesValidMap(t *testing.T) {
	cfg := DefaultGenConfig()
	for seed := int64(1); seed <= 5; seed++ {
		cfg.Seed = seed
		layout := Generate(cfg)
		grid, err := ParseMap(layout)
		if err != nil {
			t.Fatalf("seed %d: generated map rejected: %v\n%s", seed, err, layout)
		}
		if len(grid) != cfg.Rows || len(grid[0]) != cfg.Cols {
			t.Errorf("seed %d: expected %dx%d, got %dx%d", seed, cfg.Rows, cfg.Cols, len(grid), len(grid[0]))
		}
		if Generate(cfg) != layout {
			t.Errorf("seed %d: generation is not deterministic", seed)
		}
	}
}

func TestGenerateHasLand(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Rows, cfg.Cols = 30, 40
	layout := Generate(cfg)
	land := 0
	for _, c := range layout {
		if strings.ContainsRune("DSJ", c) {
			land++
		}
	}
	if land == 0 {
		t.Errorf("generated map has no habitable land:\n%s", layout)
	}
}

func TestPlaceExpandsCount(t *testing.T) {
	is := newIsland(t, "OOOO\nOJSO\nOOOO")
	groups := []Placement{{
		Loc: Location{Row: 1, Col: 2},
		Pop: []Individual{
			{Species: "Herbivore", Age: 3, Weight: 12, Count: 25},
			{Species: "Carnivore", Age: 4, Weight: 9},
		},
	}}
	if err := is.Check(groups); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if is.Total() != 0 {
		t.Fatal("Check must not place animals")
	}
	if err := is.Place(groups); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if got := is.Counts(); got != [animals.NumSpecies]int{25, 1} {
		t.Errorf("expected 25 herbivores and 1 carnivore, got %v", got)
	}
	for _, h := range is.Animals(animals.Herbivore) {
		if h.Age != 3 || h.Weight != 12 {
			t.Fatalf("unexpected herbivore age=%d weight=%f", h.Age, h.Weight)
		}
	}
}

func TestDecodeIndividual(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    Individual
		wantErr bool
	}{
		{"plain", "{species: Herbivore, age: 3, weight: 2.5}", Individual{Species: "Herbivore", Age: 3, Weight: 2.5}, false},
		{"with count", "{species: Carnivore, age: 1, weight: 6, count: 4}", Individual{Species: "Carnivore", Age: 1, Weight: 6, Count: 4}, false},
		{"fractional age", "{species: Herbivore, age: 2.5, weight: 3}", Individual{}, true},
		{"quoted age", "{species: Herbivore, age: \"2\", weight: 3}", Individual{}, true},
		{"fractional count", "{species: Herbivore, age: 2, weight: 3, count: 1.5}", Individual{}, true},
		{"zero count", "{species: Herbivore, age: 2, weight: 3, count: 0}", Individual{}, true},
		{"unknown field", "{species: Herbivore, age: 2, weight: 3, sex: f}", Individual{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Individual
			err := yaml.Unmarshal([]byte(tt.doc), &got)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPlacement) {
					t.Fatalf("expected ErrInvalidPlacement, got %v (decoded %+v)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Errorf("decoded %+v, want %+v", got, tt.want)
			}
		})
	}
}

// Every migrant from the middle cell scores its neighbours against the census
// taken before the pass. The jungle end starts empty and rich, so against the
// census the bare desert end has no realistic chance; if arrivals were visible
// to later decisions the jungle would fill and migrants would spill into the
// desert. Arrivals must also not move again in the same pass.
func TestMigrationUsesPrePassCensus(t *testing.T) {
	layout := "OOOOO\nODJJO\nOOOOO"
	ps := animals.DefaultParamSet()
	ps[animals.Herbivore].Lambda = 1
	ps[animals.Herbivore].Mu = 10

	for _, seed := range []uint64{1, 2, 3} {
		is, err := New(layout, ps, landscape.DefaultFodder())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := is.Place([]Placement{group(1, 2, "Herbivore", 400, 5, 40)}); err != nil {
			t.Fatalf("Place: %v", err)
		}
		moved := is.Migrate(rng.New(seed))

		desert := is.Patch(Location{Row: 1, Col: 1}).Count(animals.Herbivore)
		middle := is.Patch(Location{Row: 1, Col: 2}).Count(animals.Herbivore)
		jungle := is.Patch(Location{Row: 1, Col: 3}).Count(animals.Herbivore)

		if moved[animals.Herbivore] == 0 {
			t.Fatalf("seed %d: expected migrants", seed)
		}
		if desert != 0 {
			t.Errorf("seed %d: %d migrants chose the desert against the census", seed, desert)
		}
		if jungle != moved[animals.Herbivore] || middle+jungle != 400 {
			t.Errorf("seed %d: moved %d, jungle %d, middle %d", seed, moved[animals.Herbivore], jungle, middle)
		}
	}
}
