// Package query is the read side. It answers indicator, score, claim, and
// snapshot lookups, memoizing the expensive ones briefly so a dashboard
// polling the API does not recompute the index on every request. "No data
// yet" is a tagged insufficiency state, never an error.
package query

import (
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/waymark-project/waymark/internal/budget"
	"github.com/waymark-project/waymark/internal/model"
	"github.com/waymark-project/waymark/internal/scoring"
	"github.com/waymark-project/waymark/internal/store"
)

// Service serves read queries over the store.
type Service struct {
	store    *store.Store
	engine   *scoring.Engine
	governor *budget.Governor
	cache    *gocache.Cache
	enabled  bool
}

// New creates the read service. When caching is disabled every call hits
// the store directly.
func New(s *store.Store, engine *scoring.Engine, gov *budget.Governor, cfg model.CacheConfig) *Service {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Service{
		store:    s,
		engine:   engine,
		governor: gov,
		cache:    gocache.New(ttl, 2*ttl),
		enabled:  cfg.Enabled,
	}
}

// IndicatorProgress is one indicator with its derived progress value.
type IndicatorProgress struct {
	model.Indicator
	Progress   float64 `json:"progress"`
	Degenerate bool    `json:"degenerate,omitempty"`
}

// Indicators lists every indicator with progress computed.
func (s *Service) Indicators() ([]IndicatorProgress, error) {
	if cached, ok := s.get("indicators"); ok {
		return cached.([]IndicatorProgress), nil
	}

	indicators, err := s.store.Indicators()
	if err != nil {
		return nil, err
	}
	out := make([]IndicatorProgress, 0, len(indicators))
	for _, ind := range indicators {
		out = append(out, IndicatorProgress{
			Indicator:  ind,
			Progress:   ind.Progress(),
			Degenerate: ind.Degenerate(),
		})
	}
	s.put("indicators", out)
	return out, nil
}

// Scores computes the current score set for a named preset.
func (s *Service) Scores(preset string) (*model.ScoreSet, error) {
	key := "scores:" + preset
	if cached, ok := s.get(key); ok {
		return cached.(*model.ScoreSet), nil
	}

	set, err := s.engine.ComputePreset(preset)
	if err != nil {
		return nil, err
	}
	s.put(key, set)
	return set, nil
}

// ScoresCustom computes a score set for caller-supplied weights. Custom
// computations are never cached: the weight space is unbounded.
func (s *Service) ScoresCustom(weights map[model.Category]float64) (*model.ScoreSet, error) {
	return s.engine.ComputeCustom(weights)
}

// Snapshots returns persisted snapshots in [from, to], newest first.
func (s *Service) Snapshots(from, to time.Time) ([]model.Snapshot, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("range end precedes start")
	}
	return s.store.SnapshotsBetween(from, to)
}

// LatestSnapshot returns the most recent snapshot, or nil when none has
// been taken yet.
func (s *Service) LatestSnapshot() (*model.Snapshot, error) {
	snap, err := s.store.LatestSnapshot()
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return snap, err
}

// RecentClaims lists claims newest first, optionally filtered by tier.
func (s *Service) RecentClaims(f store.ClaimFilter) ([]model.Claim, error) {
	return s.store.RecentClaims(f)
}

// SearchClaims finds claims whose title contains the query string.
func (s *Service) SearchClaims(query string, limit int) ([]model.Claim, error) {
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}
	return s.store.SearchClaims(query, limit)
}

// ClaimLinks returns a claim together with its links.
func (s *Service) ClaimLinks(claimID string) (*model.Claim, []model.Link, error) {
	claim, err := s.store.ClaimByID(claimID)
	if err != nil {
		return nil, nil, err
	}
	links, err := s.store.LinksForClaim(claimID)
	if err != nil {
		return nil, nil, err
	}
	return claim, links, nil
}

// BudgetStatus reports the day's generative-model spend.
func (s *Service) BudgetStatus() budget.Status {
	return s.governor.Status()
}

// Invalidate drops memoized results. Called after writes that change
// scores, such as retraction or indicator updates.
func (s *Service) Invalidate() {
	if s.enabled {
		s.cache.Flush()
	}
}

func (s *Service) get(key string) (interface{}, bool) {
	if !s.enabled {
		return nil, false
	}
	return s.cache.Get(key)
}

func (s *Service) put(key string, v interface{}) {
	if s.enabled {
		s.cache.SetDefault(key, v)
	}
}
