// Package island implements the grid of patches: map parsing, placement of
// populations, the global cycle and the migration pass between patches.
package island

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pthm-cable/biosim/landscape"
)

// ErrInvalidMap is returned for malformed terrain layouts.
var ErrInvalidMap = errors.New("invalid island map")

// DefaultMap is the stock 21-column island.
const DefaultMap = `OOOOOOOOOOOOOOOOOOOOO
OOOOOOOOSMMMMJJJJJJJO
OSSSSSJJJJMMJJJJJJJOO
OSSSSSSSSSMMJJJJJJOOO
OSSSSSJJJJJJJJJJJJOOO
OSSSSSJJJDDJJJSJJJOOO
OSSJJJJJDDDJJJSSSSOOO
OOSSSSJJJDDJJJSOOOOOO
OSSSJJJJJDDJJJJJJJOOO
OSSSSJJJJDDJJJJOOOOOO
OOSSSSJJJJJJJJOOOOOOO
OOOSSSSJJJJJJJOOOOOOO
OOOOOOOOOOOOOOOOOOOOO`

// ParseMap turns a multi-line layout of O, M, D, S, J codes into a terrain
// grid. Leading and trailing whitespace on each line and blank lines are
// ignored. Rows must be of equal length and every border cell must be Ocean.
func ParseMap(layout string) ([][]landscape.Terrain, error) {
	var rows [][]landscape.Terrain
	for _, line := range strings.Split(layout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		row := make([]landscape.Terrain, 0, len(line))
		for col, c := range line {
			t, err := landscape.ParseTerrain(c)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d col %d: %w", ErrInvalidMap, len(rows), col, err)
			}
			row = append(row, t)
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrInvalidMap, len(rows), len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty layout", ErrInvalidMap)
	}

	last, width := len(rows)-1, len(rows[0])
	for r, row := range rows {
		for c, t := range row {
			border := r == 0 || r == last || c == 0 || c == width-1
			if border && t != landscape.Ocean {
				return nil, fmt.Errorf("%w: border cell (%d, %d) is %v, not Ocean", ErrInvalidMap, r, c, t)
			}
		}
	}
	return rows, nil
}

// FormatMap renders a terrain grid back into layout form.
func FormatMap(grid [][]landscape.Terrain) string {
	var b strings.Builder
	for r, row := range grid {
		if r > 0 {
			b.WriteByte('\n')
		}
		for _, t := range row {
			b.WriteByte(t.Code())
		}
	}
	return b.String()
}
