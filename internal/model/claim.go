package model

import "time"

// Claim is a single dated assertion ingested from one source.
//
// A claim is created once per unique fingerprint and never deleted.
// Retraction is a soft state: retracted claims are excluded from every
// scoring aggregate but remain queryable for audit.
type Claim struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Text           string    `json:"text"` // Normalized visible text
	URL            string    `json:"url,omitempty"`
	SourceID       string    `json:"source_id"`
	Tier           Tier      `json:"tier"` // Source tier at ingestion time
	PublishedAt    time.Time `json:"published_at"`
	IngestedAt     time.Time `json:"ingested_at"`
	Fingerprint    string    `json:"fingerprint"`
	AltFingerprint string    `json:"alt_fingerprint,omitempty"` // URL-based fallback

	Retracted          bool   `json:"retracted"`
	RetractReason      string `json:"retract_reason,omitempty"`
	RetractEvidenceURL string `json:"retract_evidence_url,omitempty"`

	NeedsReview bool `json:"needs_review"`
}

// RawClaim is a claim as delivered by an external collector, before
// deduplication and text normalization.
type RawClaim struct {
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"` // May contain HTML
	URL         string    `json:"url,omitempty"`
	SourceID    string    `json:"source_id"`
	PublishedAt time.Time `json:"published_at"`
}
