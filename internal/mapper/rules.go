package mapper

import (
	"strings"

	"github.com/waymark-project/waymark/internal/model"
)

// Rule is one deterministic alias match. Rules are built from the
// indicator catalog and evaluated in catalog order, so results are stable
// across runs for the same claim text.
type Rule struct {
	IndicatorCode string
	Alias         string
	Confidence    float64
}

const (
	aliasBaseConfidence = 0.70
	aliasExtraBonus     = 0.05
	aliasMaxConfidence  = 0.80
)

// BuildRules expands each indicator's aliases into lowercase match rules.
// Indicators without aliases produce no rules and can only be reached
// through extraction.
func BuildRules(indicators []model.Indicator) []Rule {
	var rules []Rule
	for _, ind := range indicators {
		for _, alias := range ind.Aliases {
			alias = strings.ToLower(strings.TrimSpace(alias))
			if alias == "" {
				continue
			}
			rules = append(rules, Rule{
				IndicatorCode: ind.Code,
				Alias:         alias,
				Confidence:    aliasBaseConfidence,
			})
		}
	}
	return rules
}

// ruleMatch is one indicator hit with the number of distinct aliases seen.
type ruleMatch struct {
	indicatorCode string
	confidence    float64
}

// evaluate runs every rule against the claim text. Multiple alias hits for
// the same indicator raise confidence slightly, bounded below the level
// where review would never trigger.
func evaluate(rules []Rule, text string) []ruleMatch {
	text = strings.ToLower(text)

	hits := make(map[string]int)
	var order []string
	for _, r := range rules {
		if !strings.Contains(text, r.Alias) {
			continue
		}
		if hits[r.IndicatorCode] == 0 {
			order = append(order, r.IndicatorCode)
		}
		hits[r.IndicatorCode]++
	}

	matches := make([]ruleMatch, 0, len(order))
	for _, code := range order {
		conf := aliasBaseConfidence + float64(hits[code]-1)*aliasExtraBonus
		if conf > aliasMaxConfidence {
			conf = aliasMaxConfidence
		}
		matches = append(matches, ruleMatch{indicatorCode: code, confidence: conf})
	}
	return matches
}
