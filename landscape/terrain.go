// Package landscape implements a single terrain cell: its fodder stock and
// the per-cycle feeding, reproduction, aging and death of the animals in it.
package landscape

import (
	"errors"
	"fmt"
)

// Terrain is the kind of a cell.
type Terrain uint8

const (
	Ocean Terrain = iota
	Mountain
	Desert
	Savannah
	Jungle
)

// NumTerrains is the number of terrain kinds.
const NumTerrains = 5

// ErrUnknownTerrain is returned for a map code outside O, M, D, S, J.
var ErrUnknownTerrain = errors.New("unknown terrain code")

var terrainCodes = [NumTerrains]byte{'O', 'M', 'D', 'S', 'J'}

var terrainNames = [NumTerrains]string{"Ocean", "Mountain", "Desert", "Savannah", "Jungle"}

func (t Terrain) String() string {
	if int(t) < NumTerrains {
		return terrainNames[t]
	}
	return fmt.Sprintf("Terrain(%d)", uint8(t))
}

// Code returns the single-letter map code.
func (t Terrain) Code() byte {
	if int(t) < NumTerrains {
		return terrainCodes[t]
	}
	return '?'
}

// Passable reports whether animals may live in or move into the terrain.
func (t Terrain) Passable() bool {
	return t == Desert || t == Savannah || t == Jungle
}

// ParseTerrain maps a map code to a Terrain.
func ParseTerrain(c rune) (Terrain, error) {
	for i, code := range terrainCodes {
		if rune(code) == c {
			return Terrain(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTerrain, c)
}

// ParseTerrainName accepts either a map code ("J") or a name ("Jungle").
func ParseTerrainName(name string) (Terrain, error) {
	for i, n := range terrainNames {
		if n == name || (len(name) == 1 && name[0] == terrainCodes[i]) {
			return Terrain(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTerrain, name)
}

// FodderParams describes plant growth on a terrain kind.
type FodderParams struct {
	FMax  float64 `yaml:"f_max"`
	Alpha float64 `yaml:"alpha,omitempty"` // Savannah regrowth fraction
}

// FodderSet holds fodder parameters for every terrain, indexed by Terrain.
type FodderSet [NumTerrains]FodderParams

// DefaultFodder returns the stock fodder parameters.
func DefaultFodder() FodderSet {
	var fs FodderSet
	fs[Savannah] = FodderParams{FMax: 300, Alpha: 0.3}
	fs[Jungle] = FodderParams{FMax: 800}
	return fs
}
