package model

import "time"

// CategoryScore is the aggregated score for one category.
type CategoryScore struct {
	Category     Category `json:"category"`
	Score        float64  `json:"score"`
	Insufficient bool     `json:"insufficient"` // No scoring-eligible evidence yet
	Indicators   int      `json:"indicators"`   // First-class indicators aggregated
	Degenerate   int      `json:"degenerate"`   // Excluded for baseline == target
}

// Band is the confidence band around the overall index.
type Band struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Width float64 `json:"width"` // Fractional width the band was derived from
}

// ScoreSet is a fully computed set of category scores plus the overall
// index. It is a pure function of the data at computation time.
type ScoreSet struct {
	Overall      float64         `json:"overall"`
	Insufficient bool            `json:"insufficient"` // All foundational categories lack evidence
	Band         Band            `json:"band"`
	SafetyMargin float64         `json:"safety_margin"` // security - max(other); negative is bad
	Preset       string          `json:"preset"`
	Categories   []CategoryScore `json:"categories"`
}

// Snapshot is an immutable, timestamped record of a computed ScoreSet.
// Historical snapshots are a read-only audit trail.
type Snapshot struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ScoreSet
}

// WeightPreset names.
const (
	PresetEqual  = "equal"
	PresetExpert = "expert"
	PresetCustom = "custom"
)

// PresetWeights returns the category weights for a named preset, or false
// for an unknown name.
func PresetWeights(name string) (map[Category]float64, bool) {
	switch name {
	case PresetEqual:
		return map[Category]float64{
			CategoryCapability: 0.25,
			CategoryAgency:     0.25,
			CategoryInputs:     0.25,
			CategorySecurity:   0.25,
		}, true
	case PresetExpert:
		return map[Category]float64{
			CategoryCapability: 0.35,
			CategoryAgency:     0.25,
			CategoryInputs:     0.15,
			CategorySecurity:   0.25,
		}, true
	}
	return nil, false
}
