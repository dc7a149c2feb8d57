// Package stats persists encode-run summaries and aggregated word-usage
// counters to a SQLite database for later inspection.
package stats

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/RasaHQ/semantic-map-embedding/core/errors"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	output     TEXT NOT NULL,
	workers    INTEGER NOT NULL,
	rows       INTEGER NOT NULL,
	entries    INTEGER NOT NULL,
	columns    INTEGER NOT NULL,
	digest     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS word_usage (
	run_id TEXT NOT NULL REFERENCES runs(id),
	word   TEXT NOT NULL,
	hits   INTEGER NOT NULL,
	PRIMARY KEY (run_id, word)
);
`

// Run is one recorded encode run.
type Run struct {
	ID        string
	CreatedAt time.Time
	Output    string
	Workers   int
	Rows      uint32
	Entries   uint64
	Columns   uint32
	Digest    string
}

// Recorder writes run records to a SQLite database.
type Recorder struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the statistics database at path.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing statistics schema")
	}
	return &Recorder{db: db}, nil
}

// Close closes the database.
func (r *Recorder) Close() error {
	return r.db.Close()
}

// RecordRun stores one run and its aggregated usage counters in a single
// transaction. A missing run id is filled with a fresh UUID; the stored id
// is returned.
func (r *Recorder) RecordRun(run Run, usage map[string]uint64) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return "", errors.Wrap(err, "starting statistics transaction")
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, created_at, output, workers, rows, entries, columns, digest)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.Format(time.RFC3339), run.Output,
		run.Workers, run.Rows, run.Entries, run.Columns, run.Digest,
	)
	if err != nil {
		return "", errors.Wrap(err, "inserting run record")
	}

	stmt, err := tx.Prepare(`INSERT INTO word_usage (run_id, word, hits) VALUES (?, ?, ?)`)
	if err != nil {
		return "", errors.Wrap(err, "preparing usage insert")
	}
	defer stmt.Close()

	for word, hits := range usage {
		if _, err := stmt.Exec(run.ID, word, hits); err != nil {
			return "", errors.Wrapf(err, "inserting usage for %q", word)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, "committing statistics")
	}
	return run.ID, nil
}

// TopWords returns the run's most-used words, highest hit count first.
func (r *Recorder) TopWords(runID string, limit int) (map[string]uint64, error) {
	rows, err := r.db.Query(
		`SELECT word, hits FROM word_usage WHERE run_id = ? ORDER BY hits DESC, word LIMIT ?`,
		runID, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying word usage")
	}
	defer rows.Close()

	usage := make(map[string]uint64)
	for rows.Next() {
		var word string
		var hits uint64
		if err := rows.Scan(&word, &hits); err != nil {
			return nil, errors.Wrap(err, "scanning word usage")
		}
		usage[word] = hits
	}
	return usage, rows.Err()
}
