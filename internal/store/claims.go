package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/waymark-project/waymark/internal/model"
)

// InsertClaim stores a new claim. The caller is expected to have checked
// for an existing fingerprint first; a UNIQUE violation here still maps to
// a duplicate rather than an error so two workers racing on the same claim
// both see success.
func (s *Store) InsertClaim(c *model.Claim) (created bool, err error) {
	res, err := s.db.Exec(`
		INSERT INTO claims (id, title, text, url, source_id, tier, published_at, ingested_at, fingerprint, alt_fingerprint, needs_review)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, c.ID, c.Title, c.Text, c.URL, c.SourceID, int(c.Tier), c.PublishedAt.UTC(), c.IngestedAt.UTC(),
		c.Fingerprint, nullString(c.AltFingerprint), boolInt(c.NeedsReview))
	if err != nil {
		return false, fmt.Errorf("insert claim: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return rows > 0, nil
}

// ClaimByFingerprint looks a claim up by its primary fingerprint, falling
// back to the URL fingerprint when the primary finds nothing.
func (s *Store) ClaimByFingerprint(fingerprint, altFingerprint string) (*model.Claim, error) {
	c, err := s.claimWhere("fingerprint = ?", fingerprint)
	if err == nil {
		return c, nil
	}
	if err != ErrNotFound || altFingerprint == "" {
		return nil, err
	}
	return s.claimWhere("alt_fingerprint = ?", altFingerprint)
}

// ClaimByID fetches a single claim.
func (s *Store) ClaimByID(id string) (*model.Claim, error) {
	return s.claimWhere("id = ?", id)
}

func (s *Store) claimWhere(cond string, args ...interface{}) (*model.Claim, error) {
	row := s.db.QueryRow(`
		SELECT id, title, COALESCE(text, ''), COALESCE(url, ''), source_id, tier,
		       published_at, ingested_at, fingerprint, COALESCE(alt_fingerprint, ''),
		       retracted, COALESCE(retract_reason, ''), COALESCE(retract_evidence_url, ''), needs_review
		FROM claims WHERE `+cond, args...)
	return scanClaim(row)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClaim(row rowScanner) (*model.Claim, error) {
	var c model.Claim
	var tier, retracted, needsReview int
	err := row.Scan(
		&c.ID, &c.Title, &c.Text, &c.URL, &c.SourceID, &tier,
		&c.PublishedAt, &c.IngestedAt, &c.Fingerprint, &c.AltFingerprint,
		&retracted, &c.RetractReason, &c.RetractEvidenceURL, &needsReview,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan claim: %w", err)
	}
	c.Tier = model.Tier(tier)
	c.Retracted = retracted != 0
	c.NeedsReview = needsReview != 0
	return &c, nil
}

// Retract marks a claim retracted. Retracting an already-retracted claim is
// a no-op success: the stored reason is left untouched and no second audit
// entry is written.
func (s *Store) Retract(id, reason, evidenceURL string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE claims SET retracted = 1, retract_reason = ?, retract_evidence_url = ?
		WHERE id = ? AND retracted = 0
	`, reason, nullString(evidenceURL), id)
	if err != nil {
		return fmt.Errorf("retract claim: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		// Either already retracted (idempotent success) or missing.
		var exists int
		if err := tx.QueryRow("SELECT COUNT(*) FROM claims WHERE id = ?", id).Scan(&exists); err != nil {
			return fmt.Errorf("check claim existence: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("claim %s: %w", id, ErrNotFound)
		}
		return tx.Commit()
	}

	if err := appendAudit(tx, "claim", id, "retract", reason); err != nil {
		return err
	}
	return tx.Commit()
}

// ClaimFilter narrows RecentClaims results.
type ClaimFilter struct {
	Tier             model.Tier // 0 means all tiers
	IncludeRetracted bool
	Limit            int
}

// RecentClaims returns claims ordered by publish time, newest first.
// Retracted claims are included only on request and always carry the
// visible retraction flag.
func (s *Store) RecentClaims(f ClaimFilter) ([]model.Claim, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}

	var conds []string
	var args []interface{}
	if !f.IncludeRetracted {
		conds = append(conds, "retracted = 0")
	}
	if f.Tier != 0 {
		conds = append(conds, "tier = ?")
		args = append(args, int(f.Tier))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, f.Limit)

	rows, err := s.db.Query(`
		SELECT id, title, COALESCE(text, ''), COALESCE(url, ''), source_id, tier,
		       published_at, ingested_at, fingerprint, COALESCE(alt_fingerprint, ''),
		       retracted, COALESCE(retract_reason, ''), COALESCE(retract_evidence_url, ''), needs_review
		FROM claims`+where+` ORDER BY published_at DESC LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	defer rows.Close()

	return scanClaims(rows)
}

// SearchClaims performs a case-insensitive substring search over claim
// titles. Retracted claims are returned (flagged) for transparency.
func (s *Store) SearchClaims(query string, limit int) ([]model.Claim, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(query) + "%"

	rows, err := s.db.Query(`
		SELECT id, title, COALESCE(text, ''), COALESCE(url, ''), source_id, tier,
		       published_at, ingested_at, fingerprint, COALESCE(alt_fingerprint, ''),
		       retracted, COALESCE(retract_reason, ''), COALESCE(retract_evidence_url, ''), needs_review
		FROM claims
		WHERE title LIKE ? ESCAPE '\'
		ORDER BY published_at DESC LIMIT ?`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search claims: %w", err)
	}
	defer rows.Close()

	return scanClaims(rows)
}

// SetClaimNeedsReview flags or clears the human-review marker.
func (s *Store) SetClaimNeedsReview(id string, needsReview bool) error {
	res, err := s.db.Exec("UPDATE claims SET needs_review = ? WHERE id = ?", boolInt(needsReview), id)
	if err != nil {
		return fmt.Errorf("set needs_review: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("claim %s: %w", id, ErrNotFound)
	}
	return nil
}

// ClaimCount returns total and retracted claim counts.
func (s *Store) ClaimCount() (total, retracted int, err error) {
	err = s.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(retracted), 0) FROM claims").Scan(&total, &retracted)
	if err != nil {
		return 0, 0, fmt.Errorf("count claims: %w", err)
	}
	return total, retracted, nil
}

func scanClaims(rows *sql.Rows) ([]model.Claim, error) {
	var claims []model.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return claims, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
