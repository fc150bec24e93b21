package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"
	// Import the pure Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/interestgraph/store"
)

// ============================================================================
// SQLITE CACHE DRIVER
// ============================================================================
// Stores the embedding and reasoning caches in one SQLite file instead of two
// JSON documents. Rows are insert-only: a cached label or label pair is never
// rewritten, matching the append-only contract of the in-memory caches.
// ============================================================================

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS embedding_cache (
		label TEXT NOT NULL PRIMARY KEY,
		vector TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reasoning_cache (
		pair TEXT NOT NULL PRIMARY KEY,
		decision INTEGER NOT NULL
	)`,
}

type DB struct {
	db   *sql.DB
	path string
}

// NewDB opens (and migrates) the cache database at path.
func NewDB(ctx context.Context, path string) (store.CacheDriver, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", path)
	}
	// Single writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "failed to migrate cache database")
		}
	}

	return &DB{db: db, path: path}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) LoadEmbeddings(ctx context.Context) (map[string][]float32, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT label, vector FROM embedding_cache`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query embeddings")
	}
	defer rows.Close()

	vectors := make(map[string][]float32)
	for rows.Next() {
		var label, raw string
		if err := rows.Scan(&label, &raw); err != nil {
			return nil, errors.Wrap(err, "failed to scan embedding")
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			return nil, errors.Wrapf(err, "failed to decode embedding for %q", label)
		}
		vectors[label] = vec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (d *DB) SaveEmbeddings(ctx context.Context, vectors map[string][]float32) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO embedding_cache (label, vector) VALUES (?, ?)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare embedding insert")
	}
	defer stmt.Close()

	for label, vec := range vectors {
		raw, err := json.Marshal(vec)
		if err != nil {
			return errors.Wrapf(err, "failed to encode embedding for %q", label)
		}
		if _, err := stmt.ExecContext(ctx, label, string(raw)); err != nil {
			return errors.Wrapf(err, "failed to insert embedding for %q", label)
		}
	}
	return tx.Commit()
}

func (d *DB) LoadDecisions(ctx context.Context) (map[string]bool, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT pair, decision FROM reasoning_cache`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query reasoning decisions")
	}
	defer rows.Close()

	decisions := make(map[string]bool)
	for rows.Next() {
		var pair string
		var decision int
		if err := rows.Scan(&pair, &decision); err != nil {
			return nil, errors.Wrap(err, "failed to scan reasoning decision")
		}
		decisions[pair] = decision != 0
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return decisions, nil
}

func (d *DB) SaveDecisions(ctx context.Context, decisions map[string]bool) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO reasoning_cache (pair, decision) VALUES (?, ?)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare decision insert")
	}
	defer stmt.Close()

	for pair, v := range decisions {
		decision := 0
		if v {
			decision = 1
		}
		if _, err := stmt.ExecContext(ctx, pair, decision); err != nil {
			return errors.Wrapf(err, "failed to insert decision for %q", pair)
		}
	}
	return tx.Commit()
}
