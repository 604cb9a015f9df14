package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/waymark-project/waymark/internal/model"
)

type stubProcessor struct {
	calls   int32
	failFor string
}

func (p *stubProcessor) ProcessClaim(_ context.Context, raw model.RawClaim) (*IngestOutcome, error) {
	atomic.AddInt32(&p.calls, 1)
	if p.failFor != "" && raw.Title == p.failFor {
		return nil, errors.New("processing failed")
	}
	return &IngestOutcome{ClaimID: "id-" + raw.Title, Links: 1}, nil
}

func TestBatchProcessor_ProcessClaims(t *testing.T) {
	p := &stubProcessor{}
	b := NewBatchProcessor(p, 4)

	raws := []model.RawClaim{
		{Title: "a", SourceID: "s1", PublishedAt: time.Now()},
		{Title: "b", SourceID: "s1", PublishedAt: time.Now()},
		{Title: "c", SourceID: "s2", PublishedAt: time.Now()},
	}
	results := b.ProcessClaims(context.Background(), raws)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if n := atomic.LoadInt32(&p.calls); n != 3 {
		t.Errorf("processor called %d times, want 3", n)
	}
	for _, r := range results {
		if r.GetError() != nil {
			t.Errorf("unexpected error for %q: %v", r.Raw.Title, r.Error)
		}
	}
}

func TestBatchProcessor_FailureDoesNotStopBatch(t *testing.T) {
	p := &stubProcessor{failFor: "b"}
	b := NewBatchProcessor(p, 2)

	raws := []model.RawClaim{
		{Title: "a", SourceID: "s1"},
		{Title: "b", SourceID: "s1"},
		{Title: "c", SourceID: "s1"},
	}
	results := b.ProcessClaims(context.Background(), raws)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	failed := 0
	for _, r := range results {
		if r.GetError() != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("expected exactly 1 failed result, got %d", failed)
	}
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	b := NewBatchProcessor(&stubProcessor{}, 2)
	results := b.ProcessClaims(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected empty result set, got %d", len(results))
	}
}

func TestReadClaimsFromFile(t *testing.T) {
	content := `# seed batch
{"title": "First claim", "source_id": "src-1", "published_at": "2026-03-01T12:00:00Z"}

{"title": "Second claim", "url": "https://example.com/a", "source_id": "src-2", "published_at": "2026-03-02T08:30:00Z"}
`
	path := filepath.Join(t.TempDir(), "claims.jsonl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	raws, err := ReadClaimsFromFile(path)
	if err != nil {
		t.Fatalf("ReadClaimsFromFile: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(raws))
	}
	if raws[0].Title != "First claim" || raws[0].SourceID != "src-1" {
		t.Errorf("first claim parsed wrong: %+v", raws[0])
	}
	if raws[1].URL != "https://example.com/a" {
		t.Errorf("second claim URL = %q", raws[1].URL)
	}
}

func TestReadClaimsFromFile_MalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.jsonl")
	if err := os.WriteFile(path, []byte("{not json}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadClaimsFromFile(path); err == nil {
		t.Error("expected error for malformed line")
	}
}

func TestReadClaimsFromFile_Missing(t *testing.T) {
	if _, err := ReadClaimsFromFile("/nonexistent/claims.jsonl"); err == nil {
		t.Error("expected error for missing file")
	}
}
