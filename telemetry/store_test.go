package telemetry

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "biosim.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreCycles(t *testing.T) {
	s := openTestStore(t)

	for run := range 2 {
		rs := s.Run(run)
		for cycle := 1; cycle <= 3; cycle++ {
			stats := CycleStats{Cycle: cycle, Herbivores: 100*run + cycle, Kills: cycle, HerbWeightMean: 12.5}
			if err := rs.WriteCycle(stats); err != nil {
				t.Fatalf("WriteCycle: %v", err)
			}
		}
	}
	// Rewriting a cycle replaces it.
	if err := s.SaveCycle(1, CycleStats{Cycle: 2, Herbivores: 999}); err != nil {
		t.Fatalf("SaveCycle: %v", err)
	}

	got, err := s.Cycles(0)
	if err != nil {
		t.Fatalf("Cycles: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 cycles, got %d", len(got))
	}
	if got[2].Cycle != 3 || got[2].Herbivores != 3 || got[2].Kills != 3 || got[2].HerbWeightMean != 12.5 {
		t.Errorf("unexpected record: %+v", got[2])
	}

	got, err = s.Cycles(1)
	if err != nil {
		t.Fatalf("Cycles: %v", err)
	}
	if len(got) != 3 || got[1].Herbivores != 999 {
		t.Errorf("expected replaced record, got %+v", got)
	}
}

func TestStoreCells(t *testing.T) {
	s := openTestStore(t)
	records := []CellRecord{
		{Cycle: 4, Row: 2, Col: 1, Terrain: "S", Herbivores: 3, Fodder: 120},
		{Cycle: 4, Row: 1, Col: 3, Terrain: "J", Herbivores: 7, Carnivores: 2, Fodder: 800},
	}
	if err := s.Run(0).WriteCells(records); err != nil {
		t.Fatalf("WriteCells: %v", err)
	}

	got, err := s.Cells(0, 4)
	if err != nil {
		t.Fatalf("Cells: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(got))
	}
	if got[0] != records[1] || got[1] != records[0] {
		t.Errorf("expected row-major order, got %+v", got)
	}

	if got, _ := s.Cells(1, 4); len(got) != 0 {
		t.Errorf("expected no cells for another run, got %+v", got)
	}
}
