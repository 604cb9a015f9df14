package model

// Category groups indicators into one of a small fixed set.
type Category string

const (
	CategoryCapability Category = "capability" // What systems can do
	CategoryAgency     Category = "agency"     // Autonomy and tool use
	CategoryInputs     Category = "inputs"     // Compute, capital, talent
	CategorySecurity   Category = "security"   // Safeguards and oversight
)

// Categories lists all categories in canonical order.
func Categories() []Category {
	return []Category{CategoryCapability, CategoryAgency, CategoryInputs, CategorySecurity}
}

// FoundationalCategories are excluded from the overall index until each has
// at least one final link with non-zero progress. This keeps the headline
// number from looking advanced on capability claims alone.
func FoundationalCategories() []Category {
	return []Category{CategoryInputs, CategorySecurity}
}

// Indicator is a trackable milestone ("signpost").
//
// Progress is (current - baseline) / (target - baseline), clamped to [0, 1].
// The formula handles inverse indicators (target below baseline, lower is
// better) without a special case; Inverse is kept for display. An indicator
// whose target equals its baseline is degenerate configuration and is
// excluded from aggregation.
type Indicator struct {
	Code     string   `json:"code" yaml:"code"`
	Name     string   `json:"name" yaml:"name"`
	Category Category `json:"category" yaml:"category"`
	Baseline float64  `json:"baseline" yaml:"baseline"`
	Target   float64  `json:"target" yaml:"target"`
	Current  float64  `json:"current" yaml:"current"`
	Inverse  bool     `json:"inverse,omitempty" yaml:"inverse,omitempty"`

	// FirstClass indicators count toward category and overall scores.
	// Others are monitor-only: tracked, listed, never scored.
	FirstClass bool `json:"first_class" yaml:"first_class"`

	// Aliases feed the deterministic mapper rules.
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Weight  float64  `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Degenerate reports whether progress is undefined for this indicator.
func (ind Indicator) Degenerate() bool {
	return ind.Target == ind.Baseline
}

// Progress returns the clamped progress value. Callers must check
// Degenerate first; Progress returns 0 for degenerate indicators.
func (ind Indicator) Progress() float64 {
	if ind.Degenerate() {
		return 0
	}
	p := (ind.Current - ind.Baseline) / (ind.Target - ind.Baseline)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
