package ingest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/waymark-project/waymark/internal/catalog"
	"github.com/waymark-project/waymark/internal/mapper"
	"github.com/waymark-project/waymark/internal/model"
	"github.com/waymark-project/waymark/internal/store"
)

func testPipeline(t *testing.T) (*Pipeline, *store.Store) {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	cat := catalog.Default()
	for i := range cat.Sources {
		if err := s.UpsertSource(&cat.Sources[i]); err != nil {
			t.Fatalf("UpsertSource: %v", err)
		}
	}
	for i := range cat.Indicators {
		if err := s.UpsertIndicator(&cat.Indicators[i]); err != nil {
			t.Fatalf("UpsertIndicator: %v", err)
		}
	}

	cfg := model.DefaultConfig()
	m := mapper.New(s, cat.Indicators, nil, nil, cfg.Mapper, 0)
	return New(s, catalog.NewClassifier(cat.Sources), m), s
}

func rawClaim(title string) model.RawClaim {
	return model.RawClaim{
		Title:       title,
		URL:         "https://reuters.com/article/compute-spend",
		SourceID:    "reuters",
		PublishedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestProcessClaim_Ingests(t *testing.T) {
	p, s := testPipeline(t)

	out, err := p.ProcessClaim(context.Background(), rawClaim("Training compute spending doubles"))
	if err != nil {
		t.Fatalf("ProcessClaim: %v", err)
	}
	if out.Duplicate {
		t.Fatal("first ingest must not be a duplicate")
	}

	claim, err := s.ClaimByID(out.ClaimID)
	if err != nil {
		t.Fatalf("ClaimByID: %v", err)
	}
	if claim.Tier != model.TierSecondary {
		t.Errorf("tier = %v, want secondary (registered source)", claim.Tier)
	}
	if claim.Fingerprint == "" || claim.AltFingerprint == "" {
		t.Error("fingerprints must be set")
	}
}

func TestProcessClaim_Deduplicates(t *testing.T) {
	p, s := testPipeline(t)
	ctx := context.Background()

	first, err := p.ProcessClaim(ctx, rawClaim("Training compute spending doubles"))
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	// Same title, same day, different formatting: one claim in the store.
	dup := rawClaim("  Training Compute Spending DOUBLES!  ")
	second, err := p.ProcessClaim(ctx, dup)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if !second.Duplicate {
		t.Error("re-ingest must be reported as duplicate")
	}
	if second.ClaimID != first.ClaimID {
		t.Errorf("duplicate resolved to %s, want %s", second.ClaimID, first.ClaimID)
	}

	total, _, err := s.ClaimCount()
	if err != nil {
		t.Fatalf("ClaimCount: %v", err)
	}
	if total != 1 {
		t.Errorf("claim count = %d, want 1", total)
	}
}

func TestProcessClaim_UnknownSourceLandsUnvetted(t *testing.T) {
	p, s := testPipeline(t)

	raw := model.RawClaim{
		Title:       "Anonymous forum post about a secret model",
		URL:         "https://randomforum.example/thread/42",
		SourceID:    "randomforum",
		PublishedAt: time.Now().UTC(),
	}
	out, err := p.ProcessClaim(context.Background(), raw)
	if err != nil {
		t.Fatalf("ProcessClaim: %v", err)
	}

	claim, err := s.ClaimByID(out.ClaimID)
	if err != nil {
		t.Fatalf("ClaimByID: %v", err)
	}
	if claim.Tier != model.TierUnvetted {
		t.Errorf("tier = %v, want unvetted for unknown domain", claim.Tier)
	}

	src, err := s.SourceByID("randomforum")
	if err != nil {
		t.Fatalf("SourceByID: %v", err)
	}
	if src.Tier != model.TierUnvetted {
		t.Errorf("registered source tier = %v, want unvetted", src.Tier)
	}
}

func TestProcessClaim_GovDomainIsPrimary(t *testing.T) {
	p, s := testPipeline(t)

	raw := model.RawClaim{
		Title:       "Agency publishes evaluation framework",
		URL:         "https://ai.gov/reports/evaluation-framework",
		SourceID:    "ai-gov",
		PublishedAt: time.Now().UTC(),
	}
	out, err := p.ProcessClaim(context.Background(), raw)
	if err != nil {
		t.Fatalf("ProcessClaim: %v", err)
	}

	claim, err := s.ClaimByID(out.ClaimID)
	if err != nil {
		t.Fatalf("ClaimByID: %v", err)
	}
	if claim.Tier != model.TierPrimary {
		t.Errorf("tier = %v, want primary for .gov domain", claim.Tier)
	}
}

func TestProcessClaim_Validation(t *testing.T) {
	p, _ := testPipeline(t)
	ctx := context.Background()

	cases := []model.RawClaim{
		{SourceID: "reuters", PublishedAt: time.Now()},
		{Title: "No source", PublishedAt: time.Now()},
		{Title: "No date", SourceID: "reuters"},
	}
	for i, raw := range cases {
		if _, err := p.ProcessClaim(ctx, raw); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestProcessClaim_StripsHTMLBody(t *testing.T) {
	p, s := testPipeline(t)

	raw := rawClaim("Benchmark results announced")
	raw.Body = "<p>The model beats the <b>benchmark</b>.</p><script>alert(1)</script>"
	out, err := p.ProcessClaim(context.Background(), raw)
	if err != nil {
		t.Fatalf("ProcessClaim: %v", err)
	}

	claim, err := s.ClaimByID(out.ClaimID)
	if err != nil {
		t.Fatalf("ClaimByID: %v", err)
	}
	if claim.Text != "The model beats the benchmark ." {
		t.Errorf("normalized body = %q", claim.Text)
	}
}

func TestNormalizeBody_PlainText(t *testing.T) {
	got := NormalizeBody("  plain   text\n\tbody ")
	if got != "plain text body" {
		t.Errorf("NormalizeBody = %q", got)
	}
}
