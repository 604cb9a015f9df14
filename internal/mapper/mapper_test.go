package mapper

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/waymark-project/waymark/internal/budget"
	"github.com/waymark-project/waymark/internal/llm"
	"github.com/waymark-project/waymark/internal/model"
	"github.com/waymark-project/waymark/internal/store"
)

func testIndicators() []model.Indicator {
	return []model.Indicator{
		{
			Code: "CAP-BENCH", Name: "Benchmark saturation", Category: model.CategoryCapability,
			Baseline: 0, Target: 100, FirstClass: true, Weight: 1,
			Aliases: []string{"benchmark", "state of the art", "sota"},
		},
		{
			Code: "SEC-EVAL", Name: "Safety evaluations", Category: model.CategorySecurity,
			Baseline: 0, Target: 50, FirstClass: true, Weight: 1,
			Aliases: []string{"safety evaluation", "red team"},
		},
	}
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	for _, ind := range testIndicators() {
		if err := s.UpsertIndicator(&ind); err != nil {
			t.Fatalf("UpsertIndicator(%s): %v", ind.Code, err)
		}
	}
	return s
}

func testClaim(t *testing.T, s *store.Store, tier model.Tier, title, text string) *model.Claim {
	t.Helper()
	c := &model.Claim{
		ID:          "claim-" + title[:min(8, len(title))],
		Title:       title,
		Text:        text,
		SourceID:    "src-1",
		Tier:        tier,
		PublishedAt: time.Now().UTC(),
		IngestedAt:  time.Now().UTC(),
		Fingerprint: "fp-" + title,
	}
	if _, err := s.InsertClaim(c); err != nil {
		t.Fatalf("InsertClaim: %v", err)
	}
	return c
}

func defaultMapperConfig() model.MapperConfig {
	return model.MapperConfig{
		MaxLinksPerClaim: 5,
		ReviewThreshold:  0.6,
		ConfidenceCap:    0.95,
		PrimaryBonus:     0.10,
		SecondaryBonus:   0.05,
	}
}

func TestRulesMatchAlias(t *testing.T) {
	s := testStore(t)
	m := New(s, testIndicators(), nil, nil, defaultMapperConfig(), 0)

	claim := testClaim(t, s, model.TierSecondary, "New benchmark results published", "")
	links, err := m.MapClaim(context.Background(), claim)
	if err != nil {
		t.Fatalf("MapClaim: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	l := links[0]
	if l.IndicatorCode != "CAP-BENCH" {
		t.Errorf("indicator = %s, want CAP-BENCH", l.IndicatorCode)
	}
	if !l.Provisional {
		t.Error("secondary-tier link must start provisional")
	}
	want := 0.70 + 0.05 // alias base plus secondary bonus
	if diff := l.Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("confidence = %v, want %v", l.Confidence, want)
	}
	if l.NeedsReview {
		t.Error("confidence above threshold should not need review")
	}
}

func TestPrimaryTierFinalImmediately(t *testing.T) {
	s := testStore(t)
	m := New(s, testIndicators(), nil, nil, defaultMapperConfig(), 0)

	claim := testClaim(t, s, model.TierPrimary, "Red team exercise completed", "")
	links, err := m.MapClaim(context.Background(), claim)
	if err != nil {
		t.Fatalf("MapClaim: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].Provisional {
		t.Error("primary-tier link must be final at creation")
	}
	if links[0].Scoring() != true {
		t.Error("final link must be eligible for scoring")
	}
}

func TestUnvettedTierNeedsReview(t *testing.T) {
	s := testStore(t)
	m := New(s, testIndicators(), nil, nil, defaultMapperConfig(), 0)

	claim := testClaim(t, s, model.TierUnvetted, "Huge benchmark jump claimed", "")
	links, err := m.MapClaim(context.Background(), claim)
	if err != nil {
		t.Fatalf("MapClaim: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if !links[0].NeedsReview {
		t.Error("unvetted-tier link must be flagged for review")
	}
	if !links[0].Provisional {
		t.Error("unvetted-tier link must be provisional")
	}

	got, err := s.ClaimByID(claim.ID)
	if err != nil {
		t.Fatalf("ClaimByID: %v", err)
	}
	if !got.NeedsReview {
		t.Error("claim should carry the needs_review flag")
	}
}

func TestMultipleAliasHitsRaiseConfidence(t *testing.T) {
	s := testStore(t)
	m := New(s, testIndicators(), nil, nil, defaultMapperConfig(), 0)

	claim := testClaim(t, s, model.TierSecondary, "SOTA benchmark broken", "The new state of the art score")
	links, err := m.MapClaim(context.Background(), claim)
	if err != nil {
		t.Fatalf("MapClaim: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	// Three aliases hit: 0.70 + 2*0.05 capped at 0.80, plus secondary bonus.
	want := 0.80 + 0.05
	if diff := links[0].Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("confidence = %v, want %v", links[0].Confidence, want)
	}
}

type stubExtractor struct {
	resp *llm.ExtractResponse
	err  error
	n    int
}

func (f *stubExtractor) Name() string { return "stub" }

func (f *stubExtractor) Extract(_ context.Context, _ llm.ExtractRequest) (*llm.ExtractResponse, error) {
	f.n++
	return f.resp, f.err
}

func TestExtractionFallback(t *testing.T) {
	s := testStore(t)
	stub := &stubExtractor{resp: &llm.ExtractResponse{
		Links: []llm.ExtractedLink{
			{IndicatorCode: "SEC-EVAL", Confidence: 0.55, Relation: "supports", Rationale: "oversight milestone"},
		},
	}}
	gov := budget.New(model.BudgetConfig{DailyCeilingUSD: 10, WarningUSD: 8})
	m := New(s, testIndicators(), stub, gov, defaultMapperConfig(), 0.02)

	claim := testClaim(t, s, model.TierSecondary, "Regulator announces oversight regime", "No catalog terms here")
	links, err := m.MapClaim(context.Background(), claim)
	if err != nil {
		t.Fatalf("MapClaim: %v", err)
	}
	if stub.n != 1 {
		t.Fatalf("extractor called %d times, want 1", stub.n)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].IndicatorCode != "SEC-EVAL" {
		t.Errorf("indicator = %s, want SEC-EVAL", links[0].IndicatorCode)
	}
	// 0.55 + secondary bonus 0.05 = 0.60, exactly at threshold.
	if links[0].NeedsReview {
		t.Error("confidence at threshold should not need review")
	}
}

func TestBudgetDenialSkipsExtraction(t *testing.T) {
	s := testStore(t)
	stub := &stubExtractor{}
	gov := budget.New(model.BudgetConfig{DailyCeilingUSD: 0.01, WarningUSD: 0.01})
	m := New(s, testIndicators(), stub, gov, defaultMapperConfig(), 0.02)

	claim := testClaim(t, s, model.TierSecondary, "Regulator announces oversight regime", "")
	links, err := m.MapClaim(context.Background(), claim)
	if err != nil {
		t.Fatalf("MapClaim: %v", err)
	}
	if stub.n != 0 {
		t.Error("extractor must not be called when the budget denies the spend")
	}
	if len(links) != 0 {
		t.Errorf("expected unmapped claim, got %d links", len(links))
	}
}

func TestExtractionFailureRefundsBudget(t *testing.T) {
	s := testStore(t)
	stub := &stubExtractor{err: errors.New("upstream timeout")}
	gov := budget.New(model.BudgetConfig{DailyCeilingUSD: 10, WarningUSD: 8})
	m := New(s, testIndicators(), stub, gov, defaultMapperConfig(), 1.50)

	claim := testClaim(t, s, model.TierSecondary, "Regulator announces oversight regime", "")
	links, err := m.MapClaim(context.Background(), claim)
	if err != nil {
		t.Fatalf("MapClaim: %v", err)
	}
	if len(links) != 0 {
		t.Errorf("expected unmapped claim, got %d links", len(links))
	}
	if spent := gov.Status().SpentUSD; spent != 0 {
		t.Errorf("spend after refund = %v, want 0", spent)
	}
}

func TestFanOutCap(t *testing.T) {
	s := testStore(t)
	var inds []model.Indicator
	for i := 0; i < 8; i++ {
		ind := model.Indicator{
			Code: "CAP-" + string(rune('A'+i)), Name: "ind", Category: model.CategoryCapability,
			Baseline: 0, Target: 1, FirstClass: true, Weight: 1,
			Aliases: []string{"frontier"},
		}
		inds = append(inds, ind)
		if err := s.UpsertIndicator(&ind); err != nil {
			t.Fatalf("UpsertIndicator: %v", err)
		}
	}
	m := New(s, inds, nil, nil, defaultMapperConfig(), 0)

	claim := testClaim(t, s, model.TierSecondary, "Frontier model released", "")
	links, err := m.MapClaim(context.Background(), claim)
	if err != nil {
		t.Fatalf("MapClaim: %v", err)
	}
	if len(links) != 5 {
		t.Errorf("expected fan-out capped at 5 links, got %d", len(links))
	}
}
