package proofcache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/opentimestamps/opentimestamps-client/internal/ots"
)

const schema = `
CREATE TABLE IF NOT EXISTS proofs (
    commitment  BLOB PRIMARY KEY,
    fragment    BLOB NOT NULL,
    updated_at  INTEGER NOT NULL
);
`

// SQLiteCache is a Cache backed by a SQLite database, one row per
// commitment digest. Concurrent-safe: SQLite serializes writers, and
// readers never block on an in-progress write longer than the busy
// timeout.
type SQLiteCache struct {
	db *sql.DB
}

// OpenSQLiteCache opens or creates the cache database at path.
func OpenSQLiteCache(path string) (*SQLiteCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("proofcache: create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("proofcache: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("proofcache: apply schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

// Get implements Cache.
func (c *SQLiteCache) Get(commitment [32]byte) (*ots.Timestamp, bool, error) {
	var raw []byte
	err := c.db.QueryRow(`SELECT fragment FROM proofs WHERE commitment = ?`, commitment[:]).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("proofcache: query: %w", err)
	}
	ts, err := ots.DecodeTimestamp(commitment[:], raw)
	if err != nil {
		return nil, false, fmt.Errorf("proofcache: decode cached fragment: %w", err)
	}
	return ts, true, nil
}

// Put implements Cache: it merges fragment into whatever is already
// cached (Timestamp.Merge is idempotent), satisfying at-most-once
// semantics for repeated puts of content-identical fragments.
func (c *SQLiteCache) Put(commitment [32]byte, fragment *ots.Timestamp) error {
	existing, found, err := c.Get(commitment)
	if err != nil {
		return err
	}
	merged := fragment
	if found {
		if err := existing.Merge(fragment); err != nil {
			return fmt.Errorf("proofcache: merge: %w", err)
		}
		merged = existing
	}

	encoded, err := ots.EncodeTimestamp(merged)
	if err != nil {
		return fmt.Errorf("proofcache: encode: %w", err)
	}

	_, err = c.db.Exec(
		`INSERT INTO proofs (commitment, fragment, updated_at) VALUES (?, ?, strftime('%s','now'))
		 ON CONFLICT(commitment) DO UPDATE SET fragment = excluded.fragment, updated_at = excluded.updated_at`,
		commitment[:], encoded,
	)
	if err != nil {
		return fmt.Errorf("proofcache: insert: %w", err)
	}
	return nil
}

// Close implements Cache.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
