// Package llm provides the structured-extraction fallback used by the
// mapper when deterministic rules are inconclusive. Extraction output is
// parsed into the same link tuples the rules produce. Any extraction
// failure is treated by the caller as "unmapped", never as a fatal error.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/waymark-project/waymark/internal/model"
)

// Extractor is implemented by generative-model providers.
type Extractor interface {
	// Name returns the provider name.
	Name() string

	// Extract maps claim text onto the indicator catalog.
	Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error)
}

// ExtractRequest is the input for one structured-extraction call.
type ExtractRequest struct {
	// ClaimText is the normalized claim text.
	ClaimText string

	// Indicators is the catalog the model may link against. Codes outside
	// this list are discarded from the answer.
	Indicators []model.Indicator

	// MaxLinks bounds the answer size.
	MaxLinks int
}

// ExtractedLink is one (indicator, confidence, relation) tuple.
type ExtractedLink struct {
	IndicatorCode string  `json:"indicator"`
	Confidence    float64 `json:"confidence"`
	Relation      string  `json:"relation"`
	Rationale     string  `json:"rationale,omitempty"`
}

// ExtractResponse is the parsed model answer.
type ExtractResponse struct {
	Links      []ExtractedLink
	Model      string
	TokensUsed int
}

// NewExtractor creates a provider from configuration. Returns (nil, nil)
// when no provider is configured; the mapper then runs rules-only.
func NewExtractor(cfg model.LLMConfig) (Extractor, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIExtractor(cfg)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai)", cfg.Provider)
	}
}

// buildPrompt renders the extraction instruction. The model is constrained
// to the catalog's codes and must answer with a single JSON object.
func buildPrompt(req ExtractRequest) string {
	var b strings.Builder
	b.WriteString("You map a news claim onto a fixed catalog of progress indicators.\n\n")
	b.WriteString("Indicator catalog (code: description):\n")
	for _, ind := range req.Indicators {
		fmt.Fprintf(&b, "- %s: %s\n", ind.Code, ind.Name)
	}
	fmt.Fprintf(&b, `
Claim:
%s

Answer with a single JSON object of the form
{"links": [{"indicator": "<code>", "confidence": 0.0-1.0, "relation": "supports"|"contradicts"|"related", "rationale": "<one sentence>"}]}

Rules:
- Use ONLY codes from the catalog above.
- At most %d links; an empty list is a valid answer.
- "supports" means the claim is evidence the indicator moved toward its target.
- Do not speculate beyond the claim text.
`, req.ClaimText, req.MaxLinks)
	return b.String()
}
