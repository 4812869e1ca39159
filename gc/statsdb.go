package gc

import (
	"database/sql"
	"fmt"

	// Registers the sqlite3 driver with database/sql.
	_ "github.com/mattn/go-sqlite3"

	"github.com/tebeka/atexit"
)

// StatsDB persists one run's Stats to a SQLite file when --stats-db is
// set, in the style of the teacher's SQLiteTraceWriter: a run_stats table
// holding the single top-level row and a link_stats table holding one
// row per directed link.
type StatsDB struct {
	db *sql.DB
}

// OpenStatsDB opens (creating if necessary) the SQLite file at path and
// prepares its schema.
func OpenStatsDB(path string) (*StatsDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("gc: opening stats db %s: %w", path, err)
	}
	s := &StatsDB{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}

	// Mirrors the teacher's NewSQLiteTraceWriter, which registers its own
	// Flush via atexit.Register right in the constructor: the connection
	// gets closed even if the run later exits through a fatal path that
	// calls atexit.Exit rather than returning normally.
	atexit.Register(func() { s.Close() })

	return s, nil
}

func (s *StatsDB) createSchema() error {
	if err := s.mustExecute(`
		CREATE TABLE IF NOT EXISTS run_stats (
			total_ticks    INTEGER NOT NULL,
			utilization    REAL    NOT NULL,
			read_hit_rate  REAL    NOT NULL,
			write_hit_rate REAL    NOT NULL,
			tlb_hit_rate   REAL    NOT NULL,
			marked_objects INTEGER NOT NULL,
			host_id        VARCHAR(200),
			host_cpus      INTEGER
		);
	`); err != nil {
		return err
	}
	return s.mustExecute(`
		CREATE TABLE IF NOT EXISTS link_stats (
			link_from          INTEGER NOT NULL,
			link_to            INTEGER NOT NULL,
			messages_forwarded INTEGER NOT NULL,
			peak_flits_per_tick INTEGER NOT NULL,
			peak_gbps          REAL    NOT NULL,
			avg_gbps           REAL    NOT NULL
		);
	`)
}

func (s *StatsDB) mustExecute(query string) error {
	_, err := s.db.Exec(query)
	if err != nil {
		return fmt.Errorf("gc: stats db statement failed: %w", err)
	}
	return nil
}

// Write inserts stats as a new run_stats row plus one link_stats row per
// link, in a single transaction.
func (s *StatsDB) Write(stats Stats) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("gc: stats db begin transaction: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO run_stats VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		stats.TotalTicks, stats.Utilization, stats.ReadHitRate, stats.WriteHitRate,
		stats.TLBHitRate, stats.MarkedObjects, stats.Host.ID, stats.Host.CPUs,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("gc: stats db insert run_stats: %w", err)
	}

	for _, l := range stats.Links {
		_, err = tx.Exec(
			`INSERT INTO link_stats VALUES (?, ?, ?, ?, ?, ?)`,
			l.From, l.To, l.MessagesForwarded, l.PeakFlitsPerTick, l.PeakGBps, l.AvgGBps,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("gc: stats db insert link_stats: %w", err)
		}
	}

	return tx.Commit()
}

// Close closes the underlying database connection. Safe to register
// directly with atexit.
func (s *StatsDB) Close() error {
	return s.db.Close()
}
