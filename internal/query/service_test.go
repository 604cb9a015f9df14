package query

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/waymark-project/waymark/internal/budget"
	"github.com/waymark-project/waymark/internal/model"
	"github.com/waymark-project/waymark/internal/scoring"
	"github.com/waymark-project/waymark/internal/store"
)

func testService(t *testing.T, cacheEnabled bool) (*Service, *store.Store) {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	inds := []model.Indicator{
		{Code: "CAP-A", Name: "a", Category: model.CategoryCapability, Baseline: 0, Target: 1, Current: 0.5, FirstClass: true, Weight: 1},
		{Code: "INP-A", Name: "b", Category: model.CategoryInputs, Baseline: 0, Target: 1, Current: 0.5, FirstClass: true, Weight: 1},
	}
	for i := range inds {
		if err := s.UpsertIndicator(&inds[i]); err != nil {
			t.Fatalf("UpsertIndicator: %v", err)
		}
	}

	engine := scoring.New(s, model.ScoringConfig{BandWidth: 0.10, WeightTolerance: 0.001})
	gov := budget.New(model.BudgetConfig{DailyCeilingUSD: 50, WarningUSD: 40})
	svc := New(s, engine, gov, model.CacheConfig{Enabled: cacheEnabled, TTL: time.Minute})
	return svc, s
}

func TestIndicatorsWithProgress(t *testing.T) {
	svc, _ := testService(t, false)

	out, err := svc.Indicators()
	if err != nil {
		t.Fatalf("Indicators: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d indicators, want 2", len(out))
	}
	for _, ip := range out {
		if ip.Progress != 0.5 {
			t.Errorf("%s progress = %v, want 0.5", ip.Code, ip.Progress)
		}
	}
}

func TestScoresInsufficientIsNotAnError(t *testing.T) {
	svc, _ := testService(t, false)

	// No links at all: foundational categories lack final evidence.
	set, err := svc.Scores(model.PresetEqual)
	if err != nil {
		t.Fatalf("Scores must not fail on empty evidence: %v", err)
	}
	if !set.Insufficient {
		t.Error("score set should be tagged insufficient")
	}
}

func TestScoresUnknownPreset(t *testing.T) {
	svc, _ := testService(t, false)
	if _, err := svc.Scores("bogus"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestScoresCached(t *testing.T) {
	svc, s := testService(t, true)

	first, err := svc.Scores(model.PresetEqual)
	if err != nil {
		t.Fatalf("Scores: %v", err)
	}

	// Mutate underlying data; the memoized result must survive until
	// Invalidate.
	if err := s.SetIndicatorCurrent("CAP-A", 1.0); err != nil {
		t.Fatalf("SetIndicatorCurrent: %v", err)
	}

	second, err := svc.Scores(model.PresetEqual)
	if err != nil {
		t.Fatalf("Scores: %v", err)
	}
	if second != first {
		t.Error("expected cached score set before invalidation")
	}

	svc.Invalidate()
	third, err := svc.Scores(model.PresetEqual)
	if err != nil {
		t.Fatalf("Scores: %v", err)
	}
	if third == first {
		t.Error("expected fresh computation after invalidation")
	}
}

func TestScoresCustomValidation(t *testing.T) {
	svc, _ := testService(t, false)

	bad := map[model.Category]float64{
		model.CategoryCapability: 0.9,
		model.CategoryAgency:     0.9,
		model.CategoryInputs:     0.9,
		model.CategorySecurity:   0.9,
	}
	if _, err := svc.ScoresCustom(bad); err == nil {
		t.Error("expected rejection of weights summing to 3.6")
	}
}

func TestSearchClaimsEmptyQuery(t *testing.T) {
	svc, _ := testService(t, false)
	if _, err := svc.SearchClaims("", 10); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestLatestSnapshotNilWhenNone(t *testing.T) {
	svc, _ := testService(t, false)
	snap, err := svc.LatestSnapshot()
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if snap != nil {
		t.Error("expected nil snapshot on empty store")
	}
}

func TestSnapshotsRangeValidation(t *testing.T) {
	svc, _ := testService(t, false)
	now := time.Now()
	if _, err := svc.Snapshots(now, now.Add(-time.Hour)); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestBudgetStatus(t *testing.T) {
	svc, _ := testService(t, false)
	st := svc.BudgetStatus()
	if st.CeilingUSD != 50 {
		t.Errorf("ceiling = %v, want 50", st.CeilingUSD)
	}
	if st.Exhausted {
		t.Error("fresh governor should not be exhausted")
	}
}
