// Package corroborate promotes provisional second-tier links to final once
// an independent primary-tier final link lands on the same indicator inside
// the corroboration window. The scan is idempotent: promotion happens in a
// single guarded UPDATE, so re-running over the same rows is a no-op.
package corroborate

import (
	"context"
	"time"

	"github.com/waymark-project/waymark/internal/logging"
	"github.com/waymark-project/waymark/internal/metrics"
	"github.com/waymark-project/waymark/internal/model"
	"github.com/waymark-project/waymark/internal/store"
)

// Scanner runs the periodic promotion and integrity passes.
type Scanner struct {
	store         *store.Store
	cfg           model.CorroborationConfig
	confidenceCap float64
}

// New builds a scanner. confidenceCap bounds the post-bonus confidence the
// same way the mapper bounds it at link creation.
func New(s *store.Store, cfg model.CorroborationConfig, confidenceCap float64) *Scanner {
	return &Scanner{store: s, cfg: cfg, confidenceCap: confidenceCap}
}

// ScanOnce examines every promotable link and returns how many were
// promoted this pass.
func (sc *Scanner) ScanOnce() (int, error) {
	candidates, err := sc.store.ProvisionalSecondTierLinks()
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, cand := range candidates {
		from := cand.ClaimDate.Add(-sc.cfg.Window)
		to := cand.ClaimDate.Add(sc.cfg.Window)

		ok, err := sc.store.FinalTopTierLinkExists(cand.Link.IndicatorCode, from, to)
		if err != nil {
			logging.Warn("corroboration lookup failed", "link", cand.Link.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}

		did, err := sc.store.PromoteLink(cand.Link.ID, sc.cfg.ConfidenceBonus, sc.confidenceCap)
		if err != nil {
			logging.Warn("promotion failed", "link", cand.Link.ID, "error", err)
			continue
		}
		if did {
			promoted++
			metrics.LinksPromoted.Inc()
			logging.Info("link promoted to final",
				"link", cand.Link.ID,
				"indicator", cand.Link.IndicatorCode,
				"claim", cand.Link.ClaimID)
		}
	}
	return promoted, nil
}

// Audit counts links that are final despite a never-scoring tier. A
// non-zero count means a write path bypassed the creation rules.
func (sc *Scanner) Audit() (int, error) {
	violations, err := sc.store.IntegrityViolations()
	if err != nil {
		return 0, err
	}
	metrics.IntegrityViolations.Set(float64(len(violations)))
	for _, v := range violations {
		logging.Error("integrity violation: final link on never-scoring tier",
			"link", v.ID, "tier", v.Tier.String(), "indicator", v.IndicatorCode)
	}
	return len(violations), nil
}

// Run scans on the configured interval until the context is cancelled. The
// first pass runs immediately.
func (sc *Scanner) Run(ctx context.Context) {
	interval := sc.cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := sc.ScanOnce()
		if err != nil {
			logging.Error("corroboration scan failed", "error", err)
		} else if n > 0 {
			logging.Info("corroboration scan complete", "promoted", n)
		}
		if _, err := sc.Audit(); err != nil {
			logging.Error("integrity audit failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
