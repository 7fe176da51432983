// Package store caches compiled table artifacts in SQLite, keyed by the
// SHA-256 of the definition file. A cache hit skips parsing, building,
// and validating the table.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Schema for the compiled table cache.
const schema = `
CREATE TABLE IF NOT EXISTS compiled_tables (
    source_hash  BLOB PRIMARY KEY,
    source_path  TEXT NOT NULL,
    artifact     TEXT NOT NULL,
    created_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_compiled_tables_path ON compiled_tables(source_path);
`

// ErrNotFound is returned when no cached artifact exists for a hash.
var ErrNotFound = errors.New("store: no cached table for source hash")

// Store is the SQLite-backed compiled table cache.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path and runs
// the schema migration.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// HashSource returns the cache key for a definition file's contents.
func HashSource(source []byte) [32]byte {
	return sha256.Sum256(source)
}

// HashString renders a source hash as lowercase hex.
func HashString(hash [32]byte) string {
	return hex.EncodeToString(hash[:])
}

// Put stores an artifact for a source hash, replacing any previous
// entry for the same hash.
func (s *Store) Put(hash [32]byte, sourcePath string, artifact []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO compiled_tables (source_hash, source_path, artifact, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source_hash) DO UPDATE SET
			source_path = excluded.source_path,
			artifact = excluded.artifact,
			created_at = excluded.created_at`,
		hash[:], sourcePath, string(artifact), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("store artifact: %w", err)
	}
	return nil
}

// Get returns the cached artifact for a source hash.
func (s *Store) Get(hash [32]byte) ([]byte, error) {
	var artifact string
	err := s.db.QueryRow(`
		SELECT artifact FROM compiled_tables WHERE source_hash = ?`, hash[:],
	).Scan(&artifact)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	return []byte(artifact), nil
}

// Prune removes all cached tables except the entry for the given hash.
// Old compilations of an edited definition file are never read again.
func (s *Store) Prune(keep [32]byte) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM compiled_tables WHERE source_hash != ?`, keep[:])
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count pruned rows: %w", err)
	}
	return n, nil
}

// Count reports the number of cached tables.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM compiled_tables`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cached tables: %w", err)
	}
	return n, nil
}
