package history

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/daygap/internal/apperr"
	"github.com/example/daygap/internal/date"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	start_date  TEXT NOT NULL,
	end_date    TEXT NOT NULL,
	attempted   INTEGER NOT NULL DEFAULT 0,
	created     INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS run_notes (
	run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	date    TEXT NOT NULL,
	path    TEXT NOT NULL DEFAULT '',
	created INTEGER NOT NULL DEFAULT 0,
	error   TEXT NOT NULL DEFAULT '',
	UNIQUE(run_id, date)
);

CREATE INDEX IF NOT EXISTS idx_run_notes_run ON run_notes(run_id);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// DB wraps a sql.DB with run log operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Record inserts a run and its per-note outcomes within a transaction.
func (db *DB) Record(run Run) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO runs (id, source, start_date, end_date, attempted, created, failed, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, string(run.Trigger), run.Start.String(), run.End.String(),
		run.Attempted, run.Created, run.Failed, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}

	if len(run.Notes) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO run_notes (run_id, date, path, created, error) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("history: prepare outcome insert: %w", err)
		}
		defer stmt.Close()
		for _, n := range run.Notes {
			if _, err := stmt.Exec(run.ID, n.Date.String(), n.Path, n.Created, n.Error); err != nil {
				return fmt.Errorf("history: insert outcome: %w", err)
			}
		}
	}

	return tx.Commit()
}

// ListRuns returns runs newest first, without their per-note outcomes,
// plus the total run count for pagination. A non-positive limit falls
// back to one page of 50.
func (db *DB) ListRuns(limit, offset int) ([]Run, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("history: count runs: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT id, source, start_date, end_date, attempted, created, failed, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, run)
	}
	return out, total, rows.Err()
}

// GetRun returns one run with its per-note outcomes.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.conn.QueryRow(`
		SELECT id, source, start_date, end_date, attempted, created, failed, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(`
		SELECT date, path, created, error FROM run_notes WHERE run_id = ? ORDER BY date
	`, id)
	if err != nil {
		return nil, fmt.Errorf("history: run outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			n  NoteOutcome
			ds string
		)
		if err := rows.Scan(&ds, &n.Path, &n.Created, &n.Error); err != nil {
			return nil, fmt.Errorf("history: scan outcome: %w", err)
		}
		if n.Date, err = date.Parse(ds); err != nil {
			return nil, fmt.Errorf("history: run %s: %w", id, err)
		}
		run.Notes = append(run.Notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &run, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run        Run
		source     string
		start, end string
	)
	err := row.Scan(&run.ID, &source, &start, &end,
		&run.Attempted, &run.Created, &run.Failed, &run.StartedAt, &run.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("history: scan run: %w", err)
	}
	run.Trigger = Trigger(source)
	if run.Start, err = date.Parse(start); err != nil {
		return Run{}, fmt.Errorf("history: run %s: %w", run.ID, err)
	}
	if run.End, err = date.Parse(end); err != nil {
		return Run{}, fmt.Errorf("history: run %s: %w", run.ID, err)
	}
	return run, nil
}
