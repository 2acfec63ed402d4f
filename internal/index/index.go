// Package index keeps a SQLite copy of every activity flush so edit
// statistics can be queried without parsing the markdown logs.
package index

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	scribeErrors "github.com/bashhack/scribe/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS edits (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	flushed_at INTEGER NOT NULL,
	path       TEXT    NOT NULL,
	count      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_edits_flushed_at ON edits(flushed_at);
CREATE INDEX IF NOT EXISTS idx_edits_path ON edits(path);
`

// FileStat aggregates the activity of one path.
type FileStat struct {
	Path     string
	Edits    int
	Flushes  int
	LastSeen time.Time
}

// Index is the activity database.
type Index struct {
	db *sql.DB
}

// Open opens or creates the index at path.
func Open(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, scribeErrors.Wrap(err, "create index directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, scribeErrors.Wrap(err, "open index")
	}
	// The scheduler loop is the only writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, scribeErrors.Wrap(err, "migrate index")
	}
	return &Index{db: db}, nil
}

// Close closes the database.
func (i *Index) Close() error {
	return i.db.Close()
}

// Record stores one flush.
func (i *Index) Record(ctx context.Context, at time.Time, counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return scribeErrors.Wrap(err, "begin index transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO edits (flushed_at, path, count) VALUES (?, ?, ?)")
	if err != nil {
		return scribeErrors.Wrap(err, "prepare index insert")
	}
	defer func() { _ = stmt.Close() }()

	for path, count := range counts {
		if _, err := stmt.ExecContext(ctx, at.Unix(), path, count); err != nil {
			return scribeErrors.Wrapf(err, "index %s", path)
		}
	}

	if err := tx.Commit(); err != nil {
		return scribeErrors.Wrap(err, "commit index transaction")
	}
	return nil
}

// TopFiles returns the most edited paths since the given time, most edits
// first. A limit of zero or less defaults to 10.
func (i *Index) TopFiles(ctx context.Context, since time.Time, limit int) ([]FileStat, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT path, SUM(count), COUNT(*), MAX(flushed_at)
		FROM edits
		WHERE flushed_at >= ?
		GROUP BY path
		ORDER BY SUM(count) DESC, path ASC
		LIMIT ?`, since.Unix(), limit)
	if err != nil {
		return nil, scribeErrors.Wrap(err, "query top files")
	}
	defer func() { _ = rows.Close() }()

	var stats []FileStat
	for rows.Next() {
		var (
			stat     FileStat
			lastSeen int64
		)
		if err := rows.Scan(&stat.Path, &stat.Edits, &stat.Flushes, &lastSeen); err != nil {
			return nil, scribeErrors.Wrap(err, "scan top files")
		}
		stat.LastSeen = time.Unix(lastSeen, 0)
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}
