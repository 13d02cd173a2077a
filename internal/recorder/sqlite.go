package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists fetch-cycle history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so external readers don't block the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fetch_cycles (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp          INTEGER NOT NULL,
			source             TEXT,
			ok                 INTEGER,
			error_kind         TEXT,
			error              TEXT,
			point_count        INTEGER,
			day_coverage       INTEGER,
			resolution_minutes INTEGER,
			has_baseline       INTEGER,
			baseline           REAL,
			current_starts_at  TEXT,
			current_level      TEXT,
			current_price      REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON fetch_cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS price_points (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id  INTEGER NOT NULL,
			starts_at TEXT,
			level     TEXT,
			price     REAL,
			FOREIGN KEY (cycle_id) REFERENCES fetch_cycles(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_points_cycle ON price_points(cycle_id)`,
		`CREATE INDEX IF NOT EXISTS idx_points_starts ON price_points(starts_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(rec *CycleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	res, err := tx.Exec(`INSERT INTO fetch_cycles
		(timestamp, source, ok, error_kind, error, point_count, day_coverage,
		 resolution_minutes, has_baseline, baseline,
		 current_starts_at, current_level, current_price)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Source, rec.OK, rec.ErrorKind, rec.Error,
		rec.PointCount, rec.DayCoverage, rec.ResolutionMinutes,
		rec.HasBaseline, rec.Baseline,
		rec.CurrentStartsAt, rec.CurrentLevel, rec.CurrentPrice,
	)
	if err != nil {
		tx.Rollback()
		return err
	}

	cycleID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return err
	}
	for _, p := range rec.Points {
		if _, err := tx.Exec(`INSERT INTO price_points (cycle_id, starts_at, level, price) VALUES (?,?,?,?)`,
			cycleID, p.StartsAt, p.Level, p.Price); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
