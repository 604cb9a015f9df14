// Package scoring turns indicator progress into category scores and the
// overall index. Aggregation uses a weighted harmonic mean, which drags the
// result toward the weakest member: one strong indicator cannot carry a
// category whose other indicators stagnate.
package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/waymark-project/waymark/internal/logging"
	"github.com/waymark-project/waymark/internal/metrics"
	"github.com/waymark-project/waymark/internal/model"
	"github.com/waymark-project/waymark/internal/store"
)

// Engine computes score sets from stored state.
type Engine struct {
	store *store.Store
	cfg   model.ScoringConfig
}

// New creates a scoring engine.
func New(s *store.Store, cfg model.ScoringConfig) *Engine {
	return &Engine{store: s, cfg: cfg}
}

// ValidateWeights checks caller-supplied custom weights: every category
// present, nothing negative, and the sum within tolerance of 1.0. Bad
// weights are rejected, never normalized, so the caller sees exactly the
// weighting that was applied.
func (e *Engine) ValidateWeights(weights map[model.Category]float64) error {
	sum := 0.0
	for _, cat := range model.Categories() {
		w, ok := weights[cat]
		if !ok {
			return fmt.Errorf("missing weight for category %q", cat)
		}
		if w < 0 {
			return fmt.Errorf("negative weight %v for category %q", w, cat)
		}
		sum += w
	}
	if len(weights) != len(model.Categories()) {
		return fmt.Errorf("weights contain unknown categories")
	}
	if math.Abs(sum-1.0) > e.cfg.WeightTolerance {
		return fmt.Errorf("weights sum to %v, must sum to 1.0 within %v", sum, e.cfg.WeightTolerance)
	}
	return nil
}

// ComputePreset computes a score set for a named weighting preset.
func (e *Engine) ComputePreset(preset string) (*model.ScoreSet, error) {
	weights, ok := model.PresetWeights(preset)
	if !ok {
		return nil, fmt.Errorf("unknown weight preset %q", preset)
	}
	return e.compute(weights, preset)
}

// ComputeCustom computes a score set for caller-supplied weights.
func (e *Engine) ComputeCustom(weights map[model.Category]float64) (*model.ScoreSet, error) {
	if err := e.ValidateWeights(weights); err != nil {
		return nil, err
	}
	return e.compute(weights, model.PresetCustom)
}

func (e *Engine) compute(weights map[model.Category]float64, preset string) (*model.ScoreSet, error) {
	data, err := e.store.LoadScoringData()
	if err != nil {
		return nil, fmt.Errorf("load scoring data: %w", err)
	}
	set := Score(data, weights, e.cfg.BandWidth)
	set.Preset = preset
	return set, nil
}

// Snapshot computes a score set for the preset and persists it as an
// immutable record.
func (e *Engine) Snapshot(preset string) (*model.Snapshot, error) {
	set, err := e.ComputePreset(preset)
	if err != nil {
		return nil, err
	}
	snap := &model.Snapshot{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		ScoreSet:  *set,
	}
	if err := e.store.InsertSnapshot(snap); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	metrics.SnapshotsTaken.Inc()
	return snap, nil
}

// Score is a pure function of the loaded data. Split out so tests can feed
// fixtures without a database.
func Score(data *store.ScoringData, weights map[model.Category]float64, bandWidth float64) *model.ScoreSet {
	foundational := make(map[model.Category]bool)
	for _, cat := range model.FoundationalCategories() {
		foundational[cat] = true
	}

	byCategory := make(map[model.Category][]model.Indicator)
	for _, ind := range data.Indicators {
		if !ind.FirstClass {
			continue
		}
		byCategory[ind.Category] = append(byCategory[ind.Category], ind)
	}

	set := &model.ScoreSet{Band: model.Band{Width: bandWidth}}
	scores := make(map[model.Category]float64)

	for _, cat := range model.Categories() {
		cs := model.CategoryScore{Category: cat}
		var members []model.Indicator
		for _, ind := range byCategory[cat] {
			if ind.Degenerate() {
				cs.Degenerate++
				logging.Warn("degenerate indicator excluded from aggregation",
					"indicator", ind.Code, "baseline", ind.Baseline)
				continue
			}
			members = append(members, ind)
		}
		cs.Indicators = len(members)

		switch {
		case len(members) == 0:
			cs.Insufficient = true
		case foundational[cat] && !data.FinalEvidence[cat]:
			cs.Insufficient = true
		default:
			cs.Score = harmonic(members)
		}

		if !cs.Insufficient {
			scores[cat] = cs.Score
		}
		set.Categories = append(set.Categories, cs)
	}

	set.Insufficient = overallInsufficient(set.Categories, foundational)
	if !set.Insufficient {
		set.Overall = overall(scores, weights)
	}
	set.SafetyMargin = safetyMargin(set.Categories)
	set.Band = band(set.Overall, bandWidth)
	return set
}

// harmonic is the weighted harmonic mean of indicator progress. A single
// zero-progress member zeroes the category rather than dividing by zero.
func harmonic(members []model.Indicator) float64 {
	var sumW, sumWX float64
	for _, ind := range members {
		w := ind.Weight
		if w <= 0 {
			w = 1
		}
		x := ind.Progress()
		if x == 0 {
			return 0
		}
		sumW += w
		sumWX += w / x
	}
	if sumWX == 0 {
		return 0
	}
	return sumW / sumWX
}

// overall is the weighted harmonic mean over the non-insufficient category
// scores. Weights of excluded categories are dropped and the remaining
// weights renormalize implicitly through the harmonic formula.
func overall(scores map[model.Category]float64, weights map[model.Category]float64) float64 {
	var sumW, sumWX float64
	for cat, score := range scores {
		w := weights[cat]
		if w == 0 {
			continue
		}
		if score == 0 {
			return 0
		}
		sumW += w
		sumWX += w / score
	}
	if sumWX == 0 {
		return 0
	}
	return sumW / sumWX
}

// overallInsufficient holds when every foundational category lacks
// evidence, or when nothing at all is scorable. Capability progress alone
// must not produce a headline number.
func overallInsufficient(categories []model.CategoryScore, foundational map[model.Category]bool) bool {
	foundationalOK := false
	anyOK := false
	for _, cs := range categories {
		if cs.Insufficient {
			continue
		}
		anyOK = true
		if foundational[cs.Category] {
			foundationalOK = true
		}
	}
	return !anyOK || !foundationalOK
}

// safetyMargin is security progress minus the best of the other
// categories. Negative means capability-side progress is outpacing
// safeguards. Insufficient categories count as zero here: absence of
// evidence is not treated as progress in either direction.
func safetyMargin(categories []model.CategoryScore) float64 {
	var security, maxOther float64
	for _, cs := range categories {
		score := cs.Score
		if cs.Insufficient {
			score = 0
		}
		if cs.Category == model.CategorySecurity {
			security = score
		} else if score > maxOther {
			maxOther = score
		}
	}
	return security - maxOther
}

// band derives the confidence band as a fractional spread around the
// overall value, clamped to [0, 1] on both sides.
func band(overall, width float64) model.Band {
	lower := overall * (1 - width)
	upper := overall * (1 + width)
	if lower < 0 {
		lower = 0
	}
	if upper > 1 {
		upper = 1
	}
	return model.Band{Lower: lower, Upper: upper, Width: width}
}
