package telemetry

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store persists per-cycle statistics and cell breakdowns in SQLite. Several
// runs can share one database; rows are keyed by run number.
type Store struct {
	conn *sqlx.DB
}

// OpenStore opens or creates a SQLite database at the given path.
func OpenStore(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows a single writer.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cycles (
		run INTEGER NOT NULL,
		cycle INTEGER NOT NULL,
		herbivores INTEGER NOT NULL,
		carnivores INTEGER NOT NULL,
		herb_births INTEGER NOT NULL,
		carn_births INTEGER NOT NULL,
		herb_deaths INTEGER NOT NULL,
		carn_deaths INTEGER NOT NULL,
		herb_migrations INTEGER NOT NULL,
		carn_migrations INTEGER NOT NULL,
		kills INTEGER NOT NULL,
		fodder_eaten REAL NOT NULL,
		herb_weight_mean REAL NOT NULL,
		herb_weight_p10 REAL NOT NULL,
		herb_weight_p50 REAL NOT NULL,
		herb_weight_p90 REAL NOT NULL,
		herb_age_mean REAL NOT NULL,
		herb_fitness_mean REAL NOT NULL,
		carn_weight_mean REAL NOT NULL,
		carn_weight_p10 REAL NOT NULL,
		carn_weight_p50 REAL NOT NULL,
		carn_weight_p90 REAL NOT NULL,
		carn_age_mean REAL NOT NULL,
		carn_fitness_mean REAL NOT NULL,
		total_fodder REAL NOT NULL,
		PRIMARY KEY (run, cycle)
	);

	CREATE TABLE IF NOT EXISTS cells (
		run INTEGER NOT NULL,
		cycle INTEGER NOT NULL,
		cell_row INTEGER NOT NULL,
		cell_col INTEGER NOT NULL,
		terrain TEXT NOT NULL,
		herbivores INTEGER NOT NULL,
		carnivores INTEGER NOT NULL,
		fodder REAL NOT NULL,
		PRIMARY KEY (run, cycle, cell_row, cell_col)
	);

	CREATE INDEX IF NOT EXISTS idx_cells_cycle ON cells(run, cycle);
	`
	_, err := s.conn.Exec(schema)
	return err
}

type cycleRow struct {
	Run int `db:"run"`
	CycleStats
}

type cellRow struct {
	Run int `db:"run"`
	CellRecord
}

// Run binds the store to one run number.
func (s *Store) Run(run int) *RunStore {
	return &RunStore{store: s, run: run}
}

// SaveCycle writes one stats record for a run, replacing any previous record
// for the same cycle.
func (s *Store) SaveCycle(run int, stats CycleStats) error {
	_, err := s.conn.NamedExec(`INSERT OR REPLACE INTO cycles
		(run, cycle, herbivores, carnivores, herb_births, carn_births,
		 herb_deaths, carn_deaths, herb_migrations, carn_migrations, kills, fodder_eaten,
		 herb_weight_mean, herb_weight_p10, herb_weight_p50, herb_weight_p90,
		 herb_age_mean, herb_fitness_mean,
		 carn_weight_mean, carn_weight_p10, carn_weight_p50, carn_weight_p90,
		 carn_age_mean, carn_fitness_mean, total_fodder)
		VALUES
		(:run, :cycle, :herbivores, :carnivores, :herb_births, :carn_births,
		 :herb_deaths, :carn_deaths, :herb_migrations, :carn_migrations, :kills, :fodder_eaten,
		 :herb_weight_mean, :herb_weight_p10, :herb_weight_p50, :herb_weight_p90,
		 :herb_age_mean, :herb_fitness_mean,
		 :carn_weight_mean, :carn_weight_p10, :carn_weight_p50, :carn_weight_p90,
		 :carn_age_mean, :carn_fitness_mean, :total_fodder)`,
		cycleRow{Run: run, CycleStats: stats})
	if err != nil {
		return fmt.Errorf("save cycle %d: %w", stats.Cycle, err)
	}
	return nil
}

// SaveCells writes the per-cell breakdown for a run in one transaction.
func (s *Store) SaveCells(run int, records []CellRecord) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO cells
		(run, cycle, cell_row, cell_col, terrain, herbivores, carnivores, fodder)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(run, r.Cycle, r.Row, r.Col, r.Terrain, r.Herbivores, r.Carnivores, r.Fodder); err != nil {
			return fmt.Errorf("save cell (%d, %d): %w", r.Row, r.Col, err)
		}
	}
	return tx.Commit()
}

// Cycles returns every stats record of a run, ordered by cycle.
func (s *Store) Cycles(run int) ([]CycleStats, error) {
	var rows []cycleRow
	if err := s.conn.Select(&rows, `SELECT * FROM cycles WHERE run = ? ORDER BY cycle`, run); err != nil {
		return nil, err
	}
	out := make([]CycleStats, len(rows))
	for i, r := range rows {
		out[i] = r.CycleStats
	}
	return out, nil
}

// Cells returns the cell records of a run at one cycle, in row-major order.
func (s *Store) Cells(run, cycle int) ([]CellRecord, error) {
	var rows []cellRow
	err := s.conn.Select(&rows, `SELECT * FROM cells WHERE run = ? AND cycle = ? ORDER BY cell_row, cell_col`, run, cycle)
	if err != nil {
		return nil, err
	}
	out := make([]CellRecord, len(rows))
	for i, r := range rows {
		out[i] = r.CellRecord
	}
	return out, nil
}

// RunStore writes records for a single run.
type RunStore struct {
	store *Store
	run   int
}

// WriteCycle implements Sink.
func (r *RunStore) WriteCycle(stats CycleStats) error {
	return r.store.SaveCycle(r.run, stats)
}

// WriteCells implements Sink.
func (r *RunStore) WriteCells(records []CellRecord) error {
	return r.store.SaveCells(r.run, records)
}
