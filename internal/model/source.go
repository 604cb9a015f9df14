package model

import "time"

// Tier is the ordered credibility classification of a source.
// Lower values mean higher trust.
type Tier int

const (
	TierUnknown   Tier = 0 // Not yet classified
	TierPrimary   Tier = 1 // Peer-reviewed papers, official benchmarks, government reports
	TierSecondary Tier = 2 // Major press with editorial standards
	TierTertiary  Tier = 3 // Vendor announcements, company blogs
	TierUnvetted  Tier = 4 // Social media, personal blogs, forums
)

func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	case TierUnvetted:
		return "unvetted"
	default:
		return "unknown"
	}
}

// Valid reports whether the tier is one of the four assigned levels.
func (t Tier) Valid() bool {
	return t >= TierPrimary && t <= TierUnvetted
}

// NeverScores reports whether links created from this tier are permanently
// provisional and can never influence scoring.
func (t Tier) NeverScores() bool {
	return t == TierTertiary || t == TierUnvetted
}

// Source identifies an origin of information. Sources are immutable once
// registered; only the tier may be revised by an administrative action,
// which is recorded in the audit log.
type Source struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Domain    string    `json:"domain" yaml:"domain"`
	Tier      Tier      `json:"tier" yaml:"tier"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}
