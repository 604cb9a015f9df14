// Package mapper resolves claims onto indicators. Deterministic alias
// rules run first; when they find nothing and a generative provider is
// configured, one budget-gated extraction call runs as a fallback. A claim
// that neither path can place stays unmapped and is never an error.
package mapper

import (
	"context"
	"sort"

	"github.com/waymark-project/waymark/internal/budget"
	"github.com/waymark-project/waymark/internal/llm"
	"github.com/waymark-project/waymark/internal/logging"
	"github.com/waymark-project/waymark/internal/metrics"
	"github.com/waymark-project/waymark/internal/model"
	"github.com/waymark-project/waymark/internal/store"
)

// Mapper turns one claim into zero or more persisted links.
type Mapper struct {
	store      *store.Store
	rules      []Rule
	indicators []model.Indicator
	extractor  llm.Extractor
	governor   *budget.Governor
	cfg        model.MapperConfig
	costPerUSD float64
}

// New builds a mapper over the given indicator catalog. extractor may be
// nil, in which case the mapper runs rules-only.
func New(s *store.Store, indicators []model.Indicator, extractor llm.Extractor, gov *budget.Governor, cfg model.MapperConfig, costPerCallUSD float64) *Mapper {
	return &Mapper{
		store:      s,
		rules:      BuildRules(indicators),
		indicators: indicators,
		extractor:  extractor,
		governor:   gov,
		cfg:        cfg,
		costPerUSD: costPerCallUSD,
	}
}

// MapClaim resolves the claim and persists the resulting links. It returns
// the links written. An empty result means the claim is unmapped.
func (m *Mapper) MapClaim(ctx context.Context, claim *model.Claim) ([]model.Link, error) {
	candidates, path := m.resolve(ctx, claim)
	metrics.MapperOutcomes.WithLabelValues(path).Inc()
	if len(candidates) == 0 {
		logging.Debug("claim unmapped", "claim", claim.ID, "path", path)
		return nil, nil
	}

	// Highest confidence first, then deterministic order, before the
	// fan-out cap is applied.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	if m.cfg.MaxLinksPerClaim > 0 && len(candidates) > m.cfg.MaxLinksPerClaim {
		candidates = candidates[:m.cfg.MaxLinksPerClaim]
	}

	var links []model.Link
	needsReview := false
	for _, c := range candidates {
		l := m.finalize(claim, c)
		id, err := m.store.InsertLink(&l)
		if err != nil {
			logging.Warn("link insert failed", "claim", claim.ID, "indicator", l.IndicatorCode, "error", err)
			continue
		}
		l.ID = id
		if l.Provisional {
			metrics.LinksCreated.WithLabelValues("provisional").Inc()
		} else {
			metrics.LinksCreated.WithLabelValues("final").Inc()
		}
		if l.NeedsReview {
			needsReview = true
		}
		links = append(links, l)
	}

	if needsReview && !claim.NeedsReview {
		if err := m.store.SetClaimNeedsReview(claim.ID, true); err != nil {
			logging.Warn("needs_review flag failed", "claim", claim.ID, "error", err)
		}
	}
	return links, nil
}

// candidate is a pre-tier-adjustment link proposal from either path.
type candidate struct {
	IndicatorCode string
	Confidence    float64
	Relation      model.RelationKind
	Rationale     string
}

// resolve runs rules, then the extraction fallback. The returned path is
// "rules", "llm", or "unmapped".
func (m *Mapper) resolve(ctx context.Context, claim *model.Claim) ([]candidate, string) {
	text := claim.Title + " " + claim.Text
	if matches := evaluate(m.rules, text); len(matches) > 0 {
		out := make([]candidate, 0, len(matches))
		for _, mm := range matches {
			out = append(out, candidate{
				IndicatorCode: mm.indicatorCode,
				Confidence:    mm.confidence,
				Relation:      model.RelationSupports,
			})
		}
		return out, "rules"
	}

	if m.extractor == nil {
		return nil, "unmapped"
	}
	if !m.governor.Allow(m.costPerUSD) {
		metrics.BudgetDenials.Inc()
		logging.Warn("extraction skipped, daily budget exhausted", "claim", claim.ID)
		return nil, "unmapped"
	}
	metrics.BudgetSpendUSD.Set(m.governor.Status().SpentUSD)

	resp, err := m.extractor.Extract(ctx, llm.ExtractRequest{
		ClaimText:  truncate(text, 4000),
		Indicators: m.indicators,
		MaxLinks:   m.cfg.MaxLinksPerClaim,
	})
	if err != nil {
		m.governor.Refund(m.costPerUSD)
		metrics.BudgetSpendUSD.Set(m.governor.Status().SpentUSD)
		logging.Warn("extraction failed", "claim", claim.ID, "error", err)
		return nil, "unmapped"
	}
	if len(resp.Links) == 0 {
		return nil, "unmapped"
	}

	out := make([]candidate, 0, len(resp.Links))
	for _, l := range resp.Links {
		out = append(out, candidate{
			IndicatorCode: l.IndicatorCode,
			Confidence:    l.Confidence,
			Relation:      model.RelationKind(l.Relation),
			Rationale:     l.Rationale,
		})
	}
	return out, "llm"
}

// finalize applies the tier bonus and review policy to a candidate.
func (m *Mapper) finalize(claim *model.Claim, c candidate) model.Link {
	conf := c.Confidence
	switch claim.Tier {
	case model.TierPrimary:
		conf += m.cfg.PrimaryBonus
	case model.TierSecondary:
		conf += m.cfg.SecondaryBonus
	}
	if conf > m.cfg.ConfidenceCap {
		conf = m.cfg.ConfidenceCap
	}

	return model.Link{
		ClaimID:       claim.ID,
		IndicatorCode: c.IndicatorCode,
		Tier:          claim.Tier,
		Provisional:   model.ProvisionalAtCreation(claim.Tier),
		Confidence:    conf,
		Relation:      c.Relation,
		Rationale:     c.Rationale,
		NeedsReview:   conf < m.cfg.ReviewThreshold || claim.Tier.NeverScores(),
	}
}

// truncate bounds prompt size without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) > max {
		r = r[:max]
	}
	return string(r)
}
