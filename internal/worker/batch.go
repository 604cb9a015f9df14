package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/waymark-project/waymark/internal/model"
)

// ClaimProcessor runs the full per-claim path: normalize, classify,
// deduplicate, persist, map.
type ClaimProcessor interface {
	ProcessClaim(ctx context.Context, raw model.RawClaim) (*IngestOutcome, error)
}

// IngestOutcome describes what happened to one raw claim.
type IngestOutcome struct {
	ClaimID   string
	Duplicate bool
	Links     int
}

// IngestJob wraps one raw claim for the pool.
type IngestJob struct {
	Raw       model.RawClaim
	Processor ClaimProcessor
}

// Execute runs the processor on the wrapped claim.
func (j *IngestJob) Execute(ctx context.Context) Result {
	outcome, err := j.Processor.ProcessClaim(ctx, j.Raw)
	return &IngestResult{Raw: j.Raw, Outcome: outcome, Error: err}
}

// IngestResult is one per-claim result from a batch.
type IngestResult struct {
	Raw     model.RawClaim
	Outcome *IngestOutcome
	Error   error
}

// GetError returns the per-claim error, if any.
func (r *IngestResult) GetError() error {
	return r.Error
}

// BatchProcessor ingests raw claims concurrently. A failing claim produces
// an errored result and does not stop the batch.
type BatchProcessor struct {
	processor   ClaimProcessor
	concurrency int
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(processor ClaimProcessor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessClaims runs a batch through the worker pool.
func (b *BatchProcessor) ProcessClaims(ctx context.Context, raws []model.RawClaim) []*IngestResult {
	if len(raws) == 0 {
		return []*IngestResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, raw := range raws {
		pool.Submit(&IngestJob{Raw: raw, Processor: b.processor})
	}

	results := pool.Wait()

	out := make([]*IngestResult, len(results))
	for i, result := range results {
		out[i] = result.(*IngestResult)
	}
	return out
}

// ProcessFile reads raw claims from a JSON Lines file and ingests them.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*IngestResult, error) {
	raws, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}
	return b.ProcessClaims(ctx, raws), nil
}

// ReadClaimsFromFile parses one raw claim per line. Blank lines and lines
// starting with # are skipped.
func ReadClaimsFromFile(filePath string) ([]model.RawClaim, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var raws []model.RawClaim
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var raw model.RawClaim
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		raws = append(raws, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return raws, nil
}
