package model

import "time"

// RelationKind classifies how a claim relates to an indicator.
type RelationKind string

const (
	RelationSupports    RelationKind = "supports"
	RelationContradicts RelationKind = "contradicts"
	RelationRelated     RelationKind = "related"
)

// ValidRelation reports whether k is a known relation kind.
func ValidRelation(k RelationKind) bool {
	switch k {
	case RelationSupports, RelationContradicts, RelationRelated:
		return true
	}
	return false
}

// Link connects a claim to an indicator. It is the only entity with a real
// state machine: provisional -> final.
//
// Creation rules by the tier inherited from the claim's source:
//
//	primary    -> final immediately
//	secondary  -> provisional, promotable by corroboration
//	tertiary   -> provisional forever
//	unvetted   -> provisional forever
//
// The invariant tier >= tertiary => provisional holds at all times and is
// checked by the periodic integrity audit, not only at write time.
type Link struct {
	ID            int64        `json:"id"`
	ClaimID       string       `json:"claim_id"`
	IndicatorCode string       `json:"indicator_code"`
	Tier          Tier         `json:"tier"`
	Provisional   bool         `json:"provisional"`
	Confidence    float64      `json:"confidence"`
	Relation      RelationKind `json:"relation"`
	Rationale     string       `json:"rationale,omitempty"`
	NeedsReview   bool         `json:"needs_review"`
	CreatedAt     time.Time    `json:"created_at"`
	PromotedAt    *time.Time   `json:"promoted_at,omitempty"`
}

// ProvisionalAtCreation returns the initial provisional state for a tier.
func ProvisionalAtCreation(t Tier) bool {
	return t != TierPrimary
}

// Scoring reports whether the link may influence aggregates right now.
func (l Link) Scoring() bool {
	return !l.Provisional
}
