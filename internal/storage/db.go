// Package storage keeps the run history in a local sqlite database so
// past crawls stay auditable across executions.
package storage

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"nfse/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  startedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  tipo TEXT NOT NULL,
  periodStart TEXT NOT NULL,
  periodEnd TEXT NOT NULL,
  outcome TEXT NOT NULL,
  pages INTEGER NOT NULL DEFAULT 0,
  documents INTEGER NOT NULL DEFAULT 0,
  durationMs INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_tipo ON runs(tipo);
`
	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) InsertRun(run internal.RunInfo) error {
	_, err := d.conn.Exec(`
INSERT INTO runs (tipo, periodStart, periodEnd, outcome, pages, documents, durationMs)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(run.Set), run.PeriodStart, run.PeriodEnd, string(run.Outcome),
		run.Pages, run.Documents, run.DurationMs)
	return err
}

func (d *DB) ListRuns(limit int) ([]internal.RunInfo, error) {
	rows, err := d.conn.Query(`
SELECT id, startedAt, tipo, periodStart, periodEnd, outcome, pages, documents, durationMs
FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.RunInfo{}
	for rows.Next() {
		var run internal.RunInfo
		var set, outcome string
		if err := rows.Scan(&run.ID, &run.StartedAt, &set, &run.PeriodStart, &run.PeriodEnd,
			&outcome, &run.Pages, &run.Documents, &run.DurationMs); err != nil {
			return nil, err
		}
		run.Set = internal.DocumentSet(set)
		run.Outcome = internal.SetOutcome(outcome)
		out = append(out, run)
	}
	return out, rows.Err()
}
