package catalog

import (
	"net/url"
	"strings"

	"github.com/waymark-project/waymark/internal/model"
)

// Classifier assigns a credibility tier to domains that are not in the
// registry, so claims from unregistered origins still enter the pipeline
// with a defensible tier instead of being dropped.
type Classifier struct {
	exact    map[string]model.Tier
	suffixes []suffixRule
}

type suffixRule struct {
	suffix string
	tier   model.Tier
}

// NewClassifier builds a classifier over the registry's sources plus
// structural suffix rules (.gov, .edu and friends).
func NewClassifier(sources []model.Source) *Classifier {
	c := &Classifier{
		exact: make(map[string]model.Tier, len(sources)),
		suffixes: []suffixRule{
			{".gov", model.TierPrimary},
			{".edu", model.TierPrimary},
			{".ac.uk", model.TierPrimary},
			{".int", model.TierPrimary},
		},
	}
	for _, src := range sources {
		c.exact[strings.ToLower(src.Domain)] = src.Tier
	}
	return c
}

// Classify returns the tier for a host or full URL. Unknown domains are
// unvetted: the burden of proof is on the source, not the pipeline.
func (c *Classifier) Classify(rawURL string) model.Tier {
	host := hostOf(rawURL)
	if host == "" {
		return model.TierUnvetted
	}

	// Exact registry match first, then parent domains, so a registered
	// "reuters.com" also covers "uk.reuters.com".
	for probe := host; probe != ""; {
		if tier, ok := c.exact[probe]; ok {
			return tier
		}
		idx := strings.Index(probe, ".")
		if idx < 0 {
			break
		}
		probe = probe[idx+1:]
	}

	for _, rule := range c.suffixes {
		if strings.HasSuffix(host, rule.suffix) {
			return rule.tier
		}
	}
	return model.TierUnvetted
}

func hostOf(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "://") {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Host == "" {
			return ""
		}
		raw = parsed.Host
	}
	if idx := strings.Index(raw, ":"); idx > 0 {
		raw = raw[:idx]
	}
	return strings.TrimPrefix(raw, "www.")
}
