// Package ingest runs the per-claim pipeline: validate, normalize,
// classify the source tier, deduplicate, persist, and map onto indicators.
// One claim failing never aborts a batch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/waymark-project/waymark/internal/catalog"
	"github.com/waymark-project/waymark/internal/dedup"
	"github.com/waymark-project/waymark/internal/logging"
	"github.com/waymark-project/waymark/internal/mapper"
	"github.com/waymark-project/waymark/internal/metrics"
	"github.com/waymark-project/waymark/internal/model"
	"github.com/waymark-project/waymark/internal/store"
	"github.com/waymark-project/waymark/internal/worker"
)

// Pipeline implements worker.ClaimProcessor.
type Pipeline struct {
	store      *store.Store
	classifier *catalog.Classifier
	mapper     *mapper.Mapper
}

// New builds the ingestion pipeline.
func New(s *store.Store, classifier *catalog.Classifier, m *mapper.Mapper) *Pipeline {
	return &Pipeline{store: s, classifier: classifier, mapper: m}
}

// ProcessClaim runs one raw claim through the full path. Duplicates are a
// normal outcome, not an error.
func (p *Pipeline) ProcessClaim(ctx context.Context, raw model.RawClaim) (*worker.IngestOutcome, error) {
	if err := validateRaw(raw); err != nil {
		metrics.ClaimsFailed.Inc()
		return nil, err
	}

	source, err := p.resolveSource(raw)
	if err != nil {
		metrics.ClaimsFailed.Inc()
		return nil, err
	}

	fingerprint := dedup.Fingerprint(raw.Title, source.Domain, raw.PublishedAt)
	altFingerprint := dedup.AltFingerprint(raw.URL)

	existing, err := p.store.ClaimByFingerprint(fingerprint, altFingerprint)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		metrics.ClaimsFailed.Inc()
		return nil, fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		metrics.ClaimsDeduplicated.Inc()
		logging.Debug("duplicate claim", "existing", existing.ID, "title", raw.Title)
		return &worker.IngestOutcome{ClaimID: existing.ID, Duplicate: true}, nil
	}

	claim := &model.Claim{
		ID:             uuid.New().String(),
		Title:          strings.TrimSpace(raw.Title),
		Text:           NormalizeBody(raw.Body),
		URL:            raw.URL,
		SourceID:       source.ID,
		Tier:           source.Tier,
		PublishedAt:    raw.PublishedAt.UTC(),
		IngestedAt:     time.Now().UTC(),
		Fingerprint:    fingerprint,
		AltFingerprint: altFingerprint,
	}

	created, err := p.store.InsertClaim(claim)
	if err != nil {
		metrics.ClaimsFailed.Inc()
		return nil, fmt.Errorf("persist claim: %w", err)
	}
	if !created {
		// A concurrent worker won the insert race for this fingerprint.
		metrics.ClaimsDeduplicated.Inc()
		return &worker.IngestOutcome{ClaimID: claim.ID, Duplicate: true}, nil
	}
	metrics.ClaimsIngested.Inc()

	links, err := p.mapper.MapClaim(ctx, claim)
	if err != nil {
		// The claim is stored; mapping trouble leaves it unmapped.
		logging.Warn("mapping failed", "claim", claim.ID, "error", err)
	}

	return &worker.IngestOutcome{ClaimID: claim.ID, Links: len(links)}, nil
}

// resolveSource finds the registered source, or registers an unknown one
// with a tier inferred from its domain. Unregistered domains land in the
// unvetted tier until an operator revises them.
func (p *Pipeline) resolveSource(raw model.RawClaim) (*model.Source, error) {
	source, err := p.store.SourceByID(raw.SourceID)
	if err == nil {
		return source, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("source lookup: %w", err)
	}

	domain := hostOf(raw.URL)
	if domain == "" {
		domain = raw.SourceID
	}
	tier := p.classifier.Classify(raw.URL)

	source = &model.Source{
		ID:        raw.SourceID,
		Name:      raw.SourceID,
		Domain:    domain,
		Tier:      tier,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.store.UpsertSource(source); err != nil {
		return nil, fmt.Errorf("register source: %w", err)
	}
	logging.Info("registered new source", "source", source.ID, "domain", domain, "tier", tier.String())
	return source, nil
}

func validateRaw(raw model.RawClaim) error {
	if strings.TrimSpace(raw.Title) == "" {
		return fmt.Errorf("claim title is required")
	}
	if strings.TrimSpace(raw.SourceID) == "" {
		return fmt.Errorf("claim source_id is required")
	}
	if raw.PublishedAt.IsZero() {
		return fmt.Errorf("claim published_at is required")
	}
	return nil
}

func hostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}
