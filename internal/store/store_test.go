package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/waymark-project/waymark/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedIndicator(t *testing.T, s *Store, code string, cat model.Category) {
	t.Helper()
	ind := model.Indicator{
		Code: code, Name: code, Category: cat,
		Baseline: 0, Target: 1, Current: 0.5, FirstClass: true, Weight: 1,
	}
	if err := s.UpsertIndicator(&ind); err != nil {
		t.Fatalf("UpsertIndicator: %v", err)
	}
}

func seedClaim(t *testing.T, s *Store, id string, tier model.Tier) *model.Claim {
	t.Helper()
	c := &model.Claim{
		ID: id, Title: "claim " + id, SourceID: "src-" + id, Tier: tier,
		PublishedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		IngestedAt:  time.Now().UTC(),
		Fingerprint: "fp-" + id,
	}
	if _, err := s.InsertClaim(c); err != nil {
		t.Fatalf("InsertClaim(%s): %v", id, err)
	}
	return c
}

func TestInsertClaimConflictIsNotAnError(t *testing.T) {
	s := testStore(t)

	c := &model.Claim{
		ID: "c1", Title: "t", SourceID: "src", Tier: model.TierSecondary,
		PublishedAt: time.Now().UTC(), IngestedAt: time.Now().UTC(),
		Fingerprint: "same-fp",
	}
	created, err := s.InsertClaim(c)
	if err != nil || !created {
		t.Fatalf("first insert: created=%v err=%v", created, err)
	}

	dup := *c
	dup.ID = "c2"
	created, err = s.InsertClaim(&dup)
	if err != nil {
		t.Fatalf("conflicting insert must not error: %v", err)
	}
	if created {
		t.Error("conflicting insert must report created=false")
	}

	total, _, err := s.ClaimCount()
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("claim count = %d, want 1", total)
	}
}

func TestClaimByFingerprintAltFallback(t *testing.T) {
	s := testStore(t)
	c := &model.Claim{
		ID: "c1", Title: "t", SourceID: "src", Tier: model.TierSecondary,
		PublishedAt: time.Now().UTC(), IngestedAt: time.Now().UTC(),
		Fingerprint: "fp-main", AltFingerprint: "fp-alt",
	}
	if _, err := s.InsertClaim(c); err != nil {
		t.Fatal(err)
	}

	// Direct fingerprint misses, alt matches: same story under a new
	// headline on the same URL.
	got, err := s.ClaimByFingerprint("fp-other", "fp-alt")
	if err != nil {
		t.Fatalf("ClaimByFingerprint: %v", err)
	}
	if got.ID != "c1" {
		t.Errorf("resolved %s, want c1", got.ID)
	}
}

func TestRetractIsIdempotent(t *testing.T) {
	s := testStore(t)
	seedClaim(t, s, "c1", model.TierSecondary)

	if err := s.Retract("c1", "publisher correction", "https://example.org/fix"); err != nil {
		t.Fatalf("first retract: %v", err)
	}
	if err := s.Retract("c1", "again", "https://example.org/fix2"); err != nil {
		t.Fatalf("second retract must be a no-op, got: %v", err)
	}

	claim, err := s.ClaimByID("c1")
	if err != nil {
		t.Fatal(err)
	}
	if !claim.Retracted {
		t.Error("claim should be retracted")
	}
	if claim.RetractReason != "publisher correction" {
		t.Errorf("reason = %q, first retraction must win", claim.RetractReason)
	}

	entries, err := s.AuditTrail("claim", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("audit entries = %d, want exactly 1", len(entries))
	}
}

func TestRetractMissingClaim(t *testing.T) {
	s := testStore(t)
	if err := s.Retract("nope", "r", "u"); err == nil {
		t.Error("expected error for unknown claim")
	}
}

func TestInsertLinkEnforcesTierRules(t *testing.T) {
	s := testStore(t)
	seedIndicator(t, s, "CAP-A", model.CategoryCapability)
	seedClaim(t, s, "c1", model.TierTertiary)

	_, err := s.InsertLink(&model.Link{
		ClaimID: "c1", IndicatorCode: "CAP-A", Tier: model.TierTertiary,
		Provisional: false, Confidence: 0.9, Relation: model.RelationSupports,
		CreatedAt: time.Now().UTC(),
	})
	if err == nil {
		t.Fatal("final third-tier link must be rejected")
	}

	id, err := s.InsertLink(&model.Link{
		ClaimID: "c1", IndicatorCode: "CAP-A", Tier: model.TierTertiary,
		Provisional: true, Confidence: 0.9, Relation: model.RelationSupports,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("provisional third-tier link rejected: %v", err)
	}
	if id == 0 {
		t.Error("expected link id")
	}

	violations, err := s.IntegrityViolations()
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) != 0 {
		t.Errorf("violations = %d, want 0", len(violations))
	}
}

func TestReviseSourceTierAudited(t *testing.T) {
	s := testStore(t)
	src := &model.Source{
		ID: "blog", Name: "Lab blog", Domain: "blog.example",
		Tier: model.TierTertiary, CreatedAt: time.Now().UTC(),
	}
	if err := s.UpsertSource(src); err != nil {
		t.Fatal(err)
	}

	if err := s.ReviseSourceTier("blog", model.TierSecondary, "editorial review added"); err != nil {
		t.Fatalf("ReviseSourceTier: %v", err)
	}

	got, err := s.SourceByID("blog")
	if err != nil {
		t.Fatal(err)
	}
	if got.Tier != model.TierSecondary {
		t.Errorf("tier = %v, want secondary", got.Tier)
	}

	entries, err := s.AuditTrail("source", "blog")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	if entries[0].Action != "revise_tier" {
		t.Errorf("action = %q", entries[0].Action)
	}
}

func TestUpsertSourcePreservesTier(t *testing.T) {
	s := testStore(t)
	src := &model.Source{
		ID: "blog", Name: "Lab blog", Domain: "blog.example",
		Tier: model.TierTertiary, CreatedAt: time.Now().UTC(),
	}
	if err := s.UpsertSource(src); err != nil {
		t.Fatal(err)
	}
	if err := s.ReviseSourceTier("blog", model.TierSecondary, "review"); err != nil {
		t.Fatal(err)
	}

	// Re-seeding the catalog must not silently undo the revision.
	again := *src
	if err := s.UpsertSource(&again); err != nil {
		t.Fatal(err)
	}
	got, err := s.SourceByID("blog")
	if err != nil {
		t.Fatal(err)
	}
	if got.Tier != model.TierSecondary {
		t.Errorf("tier = %v, upsert clobbered the revision", got.Tier)
	}
}

func TestUpsertIndicatorPreservesCurrent(t *testing.T) {
	s := testStore(t)
	seedIndicator(t, s, "CAP-A", model.CategoryCapability)
	if err := s.SetIndicatorCurrent("CAP-A", 0.8); err != nil {
		t.Fatal(err)
	}

	seedIndicator(t, s, "CAP-A", model.CategoryCapability)

	got, err := s.IndicatorByCode("CAP-A")
	if err != nil {
		t.Fatal(err)
	}
	if got.Current != 0.8 {
		t.Errorf("current = %v, re-seed clobbered the measured value", got.Current)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := testStore(t)

	snap := &model.Snapshot{
		ID:        "snap-1",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ScoreSet: model.ScoreSet{
			Overall:      0.42,
			Preset:       model.PresetEqual,
			Band:         model.Band{Lower: 0.378, Upper: 0.462, Width: 0.10},
			SafetyMargin: -0.2,
			Categories: []model.CategoryScore{
				{Category: model.CategoryCapability, Score: 0.6, Indicators: 2},
				{Category: model.CategorySecurity, Score: 0.4, Indicators: 1},
			},
		},
	}
	if err := s.InsertSnapshot(snap); err != nil {
		t.Fatalf("InsertSnapshot: %v", err)
	}

	got, err := s.LatestSnapshot()
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if got.ID != "snap-1" || got.Overall != 0.42 {
		t.Errorf("snapshot = %+v", got)
	}
	if len(got.Categories) != 2 {
		t.Errorf("categories = %d, want 2", len(got.Categories))
	}

	snaps, err := s.SnapshotsBetween(
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 {
		t.Errorf("snapshots in range = %d, want 1", len(snaps))
	}
}

func TestLoadScoringDataFinalEvidence(t *testing.T) {
	s := testStore(t)
	seedIndicator(t, s, "INP-A", model.CategoryInputs)
	seedIndicator(t, s, "SEC-A", model.CategorySecurity)
	seedClaim(t, s, "c1", model.TierPrimary)

	// Final supporting link on inputs only.
	if _, err := s.InsertLink(&model.Link{
		ClaimID: "c1", IndicatorCode: "INP-A", Tier: model.TierPrimary,
		Provisional: false, Confidence: 0.9, Relation: model.RelationSupports,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatal(err)
	}

	data, err := s.LoadScoringData()
	if err != nil {
		t.Fatalf("LoadScoringData: %v", err)
	}
	if !data.FinalEvidence[model.CategoryInputs] {
		t.Error("inputs should have final evidence")
	}
	if data.FinalEvidence[model.CategorySecurity] {
		t.Error("security should not have final evidence")
	}
	if len(data.Indicators) != 2 {
		t.Errorf("indicators = %d, want 2", len(data.Indicators))
	}
}

func TestSearchClaimsEscapesLike(t *testing.T) {
	s := testStore(t)
	c := seedClaim(t, s, "c1", model.TierSecondary)
	_ = c

	claims, err := s.SearchClaims("claim c1", 10)
	if err != nil {
		t.Fatalf("SearchClaims: %v", err)
	}
	if len(claims) != 1 {
		t.Errorf("results = %d, want 1", len(claims))
	}

	// Wildcard characters are literals, not patterns.
	claims, err = s.SearchClaims("%", 10)
	if err != nil {
		t.Fatalf("SearchClaims: %v", err)
	}
	if len(claims) != 0 {
		t.Errorf("%% matched %d claims, want 0", len(claims))
	}
}

func TestRecentClaimsFilters(t *testing.T) {
	s := testStore(t)
	seedClaim(t, s, "c1", model.TierPrimary)
	seedClaim(t, s, "c2", model.TierUnvetted)
	if err := s.Retract("c2", "spam", "https://example.org/why"); err != nil {
		t.Fatal(err)
	}

	claims, err := s.RecentClaims(ClaimFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(claims) != 1 {
		t.Errorf("default filter returned %d claims, want 1 (retracted hidden)", len(claims))
	}

	claims, err = s.RecentClaims(ClaimFilter{IncludeRetracted: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(claims) != 2 {
		t.Errorf("include_retracted returned %d claims, want 2", len(claims))
	}

	claims, err = s.RecentClaims(ClaimFilter{Tier: model.TierPrimary})
	if err != nil {
		t.Fatal(err)
	}
	if len(claims) != 1 || claims[0].ID != "c1" {
		t.Errorf("tier filter returned %+v", claims)
	}
}
