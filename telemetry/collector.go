package telemetry

import (
	"github.com/pthm-cable/biosim/animals"
	"github.com/pthm-cable/biosim/island"
	"github.com/pthm-cable/biosim/landscape"
)

// Collector accumulates cycle events within a window and produces CycleStats.
type Collector struct {
	windowCycles int
	windowStart  int

	events landscape.Events
}

// NewCollector creates a collector that flushes every windowCycles cycles.
func NewCollector(windowCycles int) *Collector {
	return &Collector{windowCycles: max(windowCycles, 1)}
}

// Record adds the events of one cycle to the current window.
func (c *Collector) Record(ev landscape.Events) {
	c.events.Add(ev)
}

// ShouldFlush returns true if enough cycles have passed to flush the window.
func (c *Collector) ShouldFlush(cycle int) bool {
	return cycle-c.windowStart >= c.windowCycles
}

// Flush produces a CycleStats for the island at the given cycle and resets
// counters for the next window.
func (c *Collector) Flush(cycle int, is *island.Island) CycleStats {
	herbs := Summarize(is.Animals(animals.Herbivore))
	carns := Summarize(is.Animals(animals.Carnivore))

	var fodder float64
	for _, cell := range is.Cells() {
		fodder += cell.Fodder
	}

	stats := CycleStats{
		Cycle: cycle,

		Herbivores: herbs.Count,
		Carnivores: carns.Count,

		HerbBirths:     c.events.Births[animals.Herbivore],
		CarnBirths:     c.events.Births[animals.Carnivore],
		HerbDeaths:     c.events.Deaths[animals.Herbivore],
		CarnDeaths:     c.events.Deaths[animals.Carnivore],
		HerbMigrations: c.events.Migrations[animals.Herbivore],
		CarnMigrations: c.events.Migrations[animals.Carnivore],
		Kills:          c.events.Kills,
		FodderEaten:    c.events.Consumed,

		HerbWeightMean:  herbs.WeightMean,
		HerbWeightP10:   herbs.WeightP10,
		HerbWeightP50:   herbs.WeightP50,
		HerbWeightP90:   herbs.WeightP90,
		HerbAgeMean:     herbs.AgeMean,
		HerbFitnessMean: herbs.FitnessMean,

		CarnWeightMean:  carns.WeightMean,
		CarnWeightP10:   carns.WeightP10,
		CarnWeightP50:   carns.WeightP50,
		CarnWeightP90:   carns.WeightP90,
		CarnAgeMean:     carns.AgeMean,
		CarnFitnessMean: carns.FitnessMean,

		TotalFodder: fodder,
	}

	c.events = landscape.Events{}
	c.windowStart = cycle

	return stats
}

// CellRecord is one row of the per-cell population breakdown.
type CellRecord struct {
	Cycle      int     `csv:"cycle" db:"cycle"`
	Row        int     `csv:"row" db:"cell_row"`
	Col        int     `csv:"col" db:"cell_col"`
	Terrain    string  `csv:"terrain" db:"terrain"`
	Herbivores int     `csv:"herbivores" db:"herbivores"`
	Carnivores int     `csv:"carnivores" db:"carnivores"`
	Fodder     float64 `csv:"fodder" db:"fodder"`
}

// CellRecords converts the island's passable cells into records for a cycle.
func CellRecords(cycle int, is *island.Island) []CellRecord {
	cells := is.Cells()
	records := make([]CellRecord, 0, len(cells))
	for _, c := range cells {
		if !c.Terrain.Passable() {
			continue
		}
		records = append(records, CellRecord{
			Cycle:      cycle,
			Row:        c.Row,
			Col:        c.Col,
			Terrain:    string(c.Terrain.Code()),
			Herbivores: c.Herbivores,
			Carnivores: c.Carnivores,
			Fodder:     c.Fodder,
		})
	}
	return records
}
