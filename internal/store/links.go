package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/waymark-project/waymark/internal/model"
)

// InsertLink stores a claim-indicator link. The provisional state must
// already follow the tier creation rules; InsertLink enforces them again so
// a third- or fourth-tier link can never be written final.
func (s *Store) InsertLink(l *model.Link) (int64, error) {
	if l.Tier.NeverScores() && !l.Provisional {
		return 0, fmt.Errorf("tier %s link must be provisional", l.Tier)
	}

	res, err := s.db.Exec(`
		INSERT INTO links (claim_id, indicator_code, tier, provisional, confidence, relation, rationale, needs_review, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ClaimID, l.IndicatorCode, int(l.Tier), boolInt(l.Provisional), l.Confidence,
		string(l.Relation), nullString(l.Rationale), boolInt(l.NeedsReview), l.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("insert link: %w", err)
	}
	return res.LastInsertId()
}

// LinksForClaim returns all links produced from one claim.
func (s *Store) LinksForClaim(claimID string) ([]model.Link, error) {
	return s.links("l.claim_id = ?", claimID)
}

// LinksForIndicator returns all links attached to one indicator.
func (s *Store) LinksForIndicator(code string) ([]model.Link, error) {
	return s.links("l.indicator_code = ?", code)
}

// ProvisionalSecondTier returns candidate links for the corroboration
// scan: provisional, second-tier, on non-retracted claims. The claim's
// publish date rides along so the scanner can apply the window.
type CorroborationCandidate struct {
	Link        model.Link
	ClaimDate   time.Time
	ClaimSource string
}

// ProvisionalSecondTierLinks lists promotion candidates.
func (s *Store) ProvisionalSecondTierLinks() ([]CorroborationCandidate, error) {
	rows, err := s.db.Query(`
		SELECT l.id, l.claim_id, l.indicator_code, l.tier, l.provisional, l.confidence,
		       l.relation, COALESCE(l.rationale, ''), l.needs_review, l.created_at, l.promoted_at,
		       c.published_at, c.source_id
		FROM links l
		JOIN claims c ON c.id = l.claim_id
		WHERE l.provisional = 1 AND l.tier = ? AND c.retracted = 0
	`, int(model.TierSecondary))
	if err != nil {
		return nil, fmt.Errorf("query promotion candidates: %w", err)
	}
	defer rows.Close()

	var out []CorroborationCandidate
	for rows.Next() {
		var cand CorroborationCandidate
		l, err := scanLink(rows, &cand.ClaimDate, &cand.ClaimSource)
		if err != nil {
			return nil, err
		}
		cand.Link = *l
		out = append(out, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promotion candidates: %w", err)
	}
	return out, nil
}

// FinalTopTierLinkExists reports whether the indicator has a final link
// from a top-tier, non-retracted claim published within [from, to].
// Contradicting links do not corroborate.
func (s *Store) FinalTopTierLinkExists(indicatorCode string, from, to time.Time) (bool, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*)
		FROM links l
		JOIN claims c ON c.id = l.claim_id
		WHERE l.indicator_code = ?
		  AND l.tier = ?
		  AND l.provisional = 0
		  AND l.relation != ?
		  AND c.retracted = 0
		  AND c.published_at >= ? AND c.published_at <= ?
	`, indicatorCode, int(model.TierPrimary), string(model.RelationContradicts), from.UTC(), to.UTC()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check corroborating link: %w", err)
	}
	return count > 0, nil
}

// PromoteLink flips a second-tier provisional link to final and applies the
// confidence bonus, capped. The WHERE predicate makes the operation
// idempotent: an already-promoted link matches nothing, so running the scan
// twice cannot re-apply the bonus.
func (s *Store) PromoteLink(linkID int64, bonus, cap float64) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE links
		SET provisional = 0,
		    confidence = MIN(confidence + ?, ?),
		    promoted_at = ?
		WHERE id = ? AND provisional = 1 AND tier = ?
	`, bonus, cap, time.Now().UTC(), linkID, int(model.TierSecondary))
	if err != nil {
		return false, fmt.Errorf("promote link: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return rows > 0, nil
}

// IntegrityViolations returns links that break the construction invariant
// tier >= tertiary => provisional. Any result is a critical alert: the
// store never silently corrects it.
func (s *Store) IntegrityViolations() ([]model.Link, error) {
	return s.links("l.provisional = 0 AND l.tier >= ?", int(model.TierTertiary))
}

// FinalEvidenceByCategory reports, per category, whether at least one
// first-class indicator carries a final link from a non-retracted claim and
// has non-zero progress. Used by the insufficiency rule.
func (s *Store) FinalEvidenceByCategory(tx *sql.Tx) (map[model.Category]bool, error) {
	rows, err := tx.Query(`
		SELECT DISTINCT i.category
		FROM links l
		JOIN claims c ON c.id = l.claim_id
		JOIN indicators i ON i.code = l.indicator_code
		WHERE l.provisional = 0
		  AND c.retracted = 0
		  AND i.first_class = 1
		  AND i.target != i.baseline
		  AND CASE WHEN i.target > i.baseline
		           THEN i.current > i.baseline
		           ELSE i.current < i.baseline
		      END
	`)
	if err != nil {
		return nil, fmt.Errorf("query category evidence: %w", err)
	}
	defer rows.Close()

	out := make(map[model.Category]bool)
	for rows.Next() {
		var cat string
		if err := rows.Scan(&cat); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out[model.Category(cat)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (s *Store) links(cond string, args ...interface{}) ([]model.Link, error) {
	rows, err := s.db.Query(`
		SELECT l.id, l.claim_id, l.indicator_code, l.tier, l.provisional, l.confidence,
		       l.relation, COALESCE(l.rationale, ''), l.needs_review, l.created_at, l.promoted_at
		FROM links l
		WHERE `+cond+`
		ORDER BY l.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var links []model.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return links, nil
}

// scanLink scans a link row; extra receives trailing columns when the
// query joined additional fields.
func scanLink(rows *sql.Rows, extra ...interface{}) (*model.Link, error) {
	var l model.Link
	var tier, provisional, needsReview int
	var relation string
	var promotedAt sql.NullTime

	dest := []interface{}{
		&l.ID, &l.ClaimID, &l.IndicatorCode, &tier, &provisional, &l.Confidence,
		&relation, &l.Rationale, &needsReview, &l.CreatedAt, &promotedAt,
	}
	dest = append(dest, extra...)

	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan link: %w", err)
	}
	l.Tier = model.Tier(tier)
	l.Provisional = provisional != 0
	l.NeedsReview = needsReview != 0
	l.Relation = model.RelationKind(relation)
	if promotedAt.Valid {
		t := promotedAt.Time
		l.PromotedAt = &t
	}
	return &l, nil
}
