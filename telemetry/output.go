package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/biosim/config"
)

// Sink receives flushed stats and cell breakdowns.
type Sink interface {
	WriteCycle(stats CycleStats) error
	WriteCells(records []CellRecord) error
}

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir            string
	populationFile *os.File
	cellsFile      *os.File

	// Track if headers have been written
	populationHeaderWritten bool
	cellsHeaderWritten      bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "population.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating population.csv: %w", err)
	}
	om.populationFile = f

	f, err = os.Create(filepath.Join(dir, "cells.csv"))
	if err != nil {
		om.populationFile.Close()
		return nil, fmt.Errorf("creating cells.csv: %w", err)
	}
	om.cellsFile = f

	return om, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteCycle writes a stats record to population.csv.
func (om *OutputManager) WriteCycle(stats CycleStats) error {
	if om == nil {
		return nil
	}
	if err := writeRecords([]CycleStats{stats}, om.populationFile, &om.populationHeaderWritten); err != nil {
		return fmt.Errorf("writing population: %w", err)
	}
	return nil
}

// WriteCells appends per-cell records to cells.csv.
func (om *OutputManager) WriteCells(records []CellRecord) error {
	if om == nil || len(records) == 0 {
		return nil
	}
	if err := writeRecords(records, om.cellsFile, &om.cellsHeaderWritten); err != nil {
		return fmt.Errorf("writing cells: %w", err)
	}
	return nil
}

// writeRecords marshals records, including the header on the first write only.
func writeRecords(records any, f *os.File, headerWritten *bool) error {
	if *headerWritten {
		return gocsv.MarshalWithoutHeaders(records, f)
	}
	if err := gocsv.Marshal(records, f); err != nil {
		return err
	}
	*headerWritten = true
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.populationFile, om.cellsFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
