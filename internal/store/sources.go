package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/waymark-project/waymark/internal/model"
)

// UpsertSource registers a source. Name and domain follow the registry on
// conflict; the tier does NOT. Tier revisions must go through
// ReviseSourceTier so they are logged.
func (s *Store) UpsertSource(src *model.Source) error {
	created := src.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO sources (id, name, domain, tier, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			domain = excluded.domain
	`, src.ID, src.Name, src.Domain, int(src.Tier), created)
	if err != nil {
		return fmt.Errorf("upsert source: %w", err)
	}
	return nil
}

// SourceByID fetches one source.
func (s *Store) SourceByID(id string) (*model.Source, error) {
	row := s.db.QueryRow("SELECT id, name, domain, tier, created_at FROM sources WHERE id = ?", id)
	return scanSource(row)
}

// SourceByDomain fetches the source registered for a domain.
func (s *Store) SourceByDomain(domain string) (*model.Source, error) {
	row := s.db.QueryRow("SELECT id, name, domain, tier, created_at FROM sources WHERE domain = ?", domain)
	return scanSource(row)
}

// Sources lists the registry ordered by tier then name.
func (s *Store) Sources() ([]model.Source, error) {
	rows, err := s.db.Query("SELECT id, name, domain, tier, created_at FROM sources ORDER BY tier, name")
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []model.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}

// ReviseSourceTier changes a source's credibility tier and records the
// revision in the audit log. Existing claims keep the tier they inherited
// at ingestion time.
func (s *Store) ReviseSourceTier(id string, tier model.Tier, reason string) error {
	if !tier.Valid() {
		return fmt.Errorf("invalid tier %d", int(tier))
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var old int
	err = tx.QueryRow("SELECT tier FROM sources WHERE id = ?", id).Scan(&old)
	if err == sql.ErrNoRows {
		return fmt.Errorf("source %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read source tier: %w", err)
	}
	if model.Tier(old) == tier {
		return tx.Commit()
	}

	if _, err := tx.Exec("UPDATE sources SET tier = ? WHERE id = ?", int(tier), id); err != nil {
		return fmt.Errorf("update source tier: %w", err)
	}

	detail := fmt.Sprintf("%s -> %s: %s", model.Tier(old), tier, reason)
	if err := appendAudit(tx, "source", id, "revise_tier", detail); err != nil {
		return err
	}
	return tx.Commit()
}

func scanSource(row rowScanner) (*model.Source, error) {
	var src model.Source
	var tier int
	err := row.Scan(&src.ID, &src.Name, &src.Domain, &tier, &src.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan source: %w", err)
	}
	src.Tier = model.Tier(tier)
	return &src, nil
}
