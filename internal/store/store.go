// Package store is the persistence layer: SQLite with complete history.
//
// All tables are append-mostly. Claims are never deleted; retraction is a
// soft flag. The store is safe for concurrent use; database/sql handles
// pooling and individual statements are atomic. Multi-statement reads that
// need a consistent view (snapshot computation) go through a single
// transaction.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/waymark-project/waymark/internal/logging"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store handles persistence of sources, indicators, claims, links, and
// snapshots.
type Store struct {
	db *sql.DB
}

// New opens (creating if necessary) a SQLite store at the given path and
// applies migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL mode for concurrent readers during ingestion
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	logging.Debug("database initialized", "path", dbPath)
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		domain TEXT NOT NULL,
		tier INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sources_domain ON sources(domain);

	CREATE TABLE IF NOT EXISTS indicators (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		baseline REAL NOT NULL,
		target REAL NOT NULL,
		current REAL NOT NULL,
		inverse INTEGER NOT NULL DEFAULT 0,
		first_class INTEGER NOT NULL DEFAULT 0,
		weight REAL NOT NULL DEFAULT 1.0
	);

	CREATE INDEX IF NOT EXISTS idx_indicators_category ON indicators(category);

	CREATE TABLE IF NOT EXISTS claims (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		text TEXT,
		url TEXT,
		source_id TEXT NOT NULL,
		tier INTEGER NOT NULL,
		published_at DATETIME NOT NULL,
		ingested_at DATETIME NOT NULL,
		fingerprint TEXT NOT NULL UNIQUE,
		alt_fingerprint TEXT,
		retracted INTEGER NOT NULL DEFAULT 0,
		retract_reason TEXT,
		retract_evidence_url TEXT,
		needs_review INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_claims_published ON claims(published_at DESC);
	CREATE INDEX IF NOT EXISTS idx_claims_alt_fingerprint ON claims(alt_fingerprint);
	CREATE INDEX IF NOT EXISTS idx_claims_tier ON claims(tier);
	CREATE INDEX IF NOT EXISTS idx_claims_retracted ON claims(retracted);

	CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		claim_id TEXT NOT NULL,
		indicator_code TEXT NOT NULL,
		tier INTEGER NOT NULL,
		provisional INTEGER NOT NULL,
		confidence REAL NOT NULL,
		relation TEXT NOT NULL,
		rationale TEXT,
		needs_review INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		promoted_at DATETIME,
		FOREIGN KEY (claim_id) REFERENCES claims(id),
		FOREIGN KEY (indicator_code) REFERENCES indicators(code)
	);

	CREATE INDEX IF NOT EXISTS idx_links_indicator ON links(indicator_code);
	CREATE INDEX IF NOT EXISTS idx_links_claim ON links(claim_id);
	CREATE INDEX IF NOT EXISTS idx_links_provisional ON links(provisional, tier);

	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		preset TEXT NOT NULL,
		overall REAL NOT NULL,
		insufficient INTEGER NOT NULL,
		band_lower REAL NOT NULL,
		band_upper REAL NOT NULL,
		band_width REAL NOT NULL,
		safety_margin REAL NOT NULL,
		categories TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at DESC);

	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		action TEXT NOT NULL,
		detail TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity, entity_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying connection for advanced queries. Prefer the
// typed methods for common operations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// appendAudit writes an audit entry inside the given transaction.
func appendAudit(tx *sql.Tx, entity, entityID, action, detail string) error {
	_, err := tx.Exec(
		`INSERT INTO audit_log (entity, entity_id, action, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		entity, entityID, action, detail, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// AuditEntry is one row of the administrative changelog.
type AuditEntry struct {
	ID        int64     `json:"id"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditTrail returns audit entries for one entity, oldest first.
func (s *Store) AuditTrail(entity, entityID string) ([]AuditEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, entity, entity_id, action, COALESCE(detail, ''), created_at
		 FROM audit_log WHERE entity = ? AND entity_id = ? ORDER BY id`,
		entity, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit trail: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Entity, &e.EntityID, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
