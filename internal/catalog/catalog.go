// Package catalog holds the static configuration of the pipeline: the
// source registry and the indicator ("signpost") catalog.
package catalog

import (
	"fmt"
	"os"

	"github.com/waymark-project/waymark/internal/model"
	"gopkg.in/yaml.v3"
)

// Catalog bundles the registry and signposts.
type Catalog struct {
	Sources    []model.Source    `yaml:"sources"`
	Indicators []model.Indicator `yaml:"indicators"`
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects malformed entries before they reach the store.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool)
	for _, src := range c.Sources {
		if src.ID == "" || src.Domain == "" {
			return fmt.Errorf("source %q: id and domain are required", src.Name)
		}
		if !src.Tier.Valid() {
			return fmt.Errorf("source %s: invalid tier %d", src.ID, int(src.Tier))
		}
		if seen[src.ID] {
			return fmt.Errorf("duplicate source id %s", src.ID)
		}
		seen[src.ID] = true
	}

	codes := make(map[string]bool)
	for _, ind := range c.Indicators {
		if ind.Code == "" {
			return fmt.Errorf("indicator %q: code is required", ind.Name)
		}
		if codes[ind.Code] {
			return fmt.Errorf("duplicate indicator code %s", ind.Code)
		}
		codes[ind.Code] = true
		switch ind.Category {
		case model.CategoryCapability, model.CategoryAgency, model.CategoryInputs, model.CategorySecurity:
		default:
			return fmt.Errorf("indicator %s: unknown category %q", ind.Code, ind.Category)
		}
	}
	return nil
}

// Default returns the built-in catalog. Degenerate baselines are caught by
// the scoring engine, not here, so operators editing a YAML copy get the
// same lenient treatment.
func Default() *Catalog {
	return &Catalog{
		Sources:    defaultSources(),
		Indicators: defaultIndicators(),
	}
}

func defaultSources() []model.Source {
	return []model.Source{
		{ID: "arxiv", Name: "arXiv", Domain: "arxiv.org", Tier: model.TierPrimary},
		{ID: "nature", Name: "Nature", Domain: "nature.com", Tier: model.TierPrimary},
		{ID: "nist", Name: "NIST", Domain: "nist.gov", Tier: model.TierPrimary},
		{ID: "epoch", Name: "Epoch AI", Domain: "epoch.ai", Tier: model.TierPrimary},
		{ID: "reuters", Name: "Reuters", Domain: "reuters.com", Tier: model.TierSecondary},
		{ID: "ft", Name: "Financial Times", Domain: "ft.com", Tier: model.TierSecondary},
		{ID: "nyt", Name: "The New York Times", Domain: "nytimes.com", Tier: model.TierSecondary},
		{ID: "theverge", Name: "The Verge", Domain: "theverge.com", Tier: model.TierSecondary},
		{ID: "openai-blog", Name: "OpenAI Blog", Domain: "openai.com", Tier: model.TierTertiary},
		{ID: "deepmind-blog", Name: "DeepMind Blog", Domain: "deepmind.google", Tier: model.TierTertiary},
		{ID: "anthropic-blog", Name: "Anthropic Blog", Domain: "anthropic.com", Tier: model.TierTertiary},
		{ID: "x", Name: "X / Twitter", Domain: "x.com", Tier: model.TierUnvetted},
		{ID: "reddit", Name: "Reddit", Domain: "reddit.com", Tier: model.TierUnvetted},
		{ID: "hn", Name: "Hacker News", Domain: "news.ycombinator.com", Tier: model.TierUnvetted},
	}
}

func defaultIndicators() []model.Indicator {
	return []model.Indicator{
		{
			Code: "CAP-BENCH", Name: "Expert-level benchmark coverage",
			Category: model.CategoryCapability, Baseline: 20, Target: 100, Current: 20,
			FirstClass: true, Weight: 1,
			Aliases: []string{"benchmark", "state of the art", "sota", "exam", "gold medal"},
		},
		{
			Code: "CAP-HORIZON", Name: "Autonomous task horizon (hours)",
			Category: model.CategoryCapability, Baseline: 0.1, Target: 160, Current: 0.1,
			FirstClass: true, Weight: 1,
			Aliases: []string{"task horizon", "long-horizon", "week-long task", "multi-day task"},
		},
		{
			Code: "CAP-RESEARCH", Name: "Automated research contributions",
			Category: model.CategoryCapability, Baseline: 0, Target: 50, Current: 0,
			FirstClass: true, Weight: 1,
			Aliases: []string{"automated research", "ai-discovered", "ai discovered", "scientific discovery"},
		},
		{
			Code: "AGY-AUTON", Name: "Unsupervised deployment share",
			Category: model.CategoryAgency, Baseline: 0, Target: 80, Current: 0,
			FirstClass: true, Weight: 1,
			Aliases: []string{"autonomous agent", "unsupervised", "without human oversight", "agentic"},
		},
		{
			Code: "AGY-TOOL", Name: "Tool-use task success rate",
			Category: model.CategoryAgency, Baseline: 30, Target: 99, Current: 30,
			FirstClass: true, Weight: 1,
			Aliases: []string{"tool use", "computer use", "browser use", "api orchestration"},
		},
		{
			Code: "INP-COMPUTE", Name: "Frontier training compute (log FLOP)",
			Category: model.CategoryInputs, Baseline: 25, Target: 29, Current: 25,
			FirstClass: true, Weight: 1,
			Aliases: []string{"training compute", "flop", "gpu cluster", "datacenter buildout", "data center"},
		},
		{
			Code: "INP-INVEST", Name: "Annual capital investment ($B)",
			Category: model.CategoryInputs, Baseline: 30, Target: 500, Current: 30,
			FirstClass: true, Weight: 1,
			Aliases: []string{"investment", "capex", "funding round", "billion"},
		},
		{
			Code: "SEC-EVAL", Name: "Pre-deployment evaluation coverage",
			Category: model.CategorySecurity, Baseline: 10, Target: 100, Current: 10,
			FirstClass: true, Weight: 1,
			Aliases: []string{"safety evaluation", "pre-deployment", "red team", "red-team", "dangerous capability"},
		},
		{
			Code: "SEC-INCID", Name: "Major incident rate (per quarter)",
			Category: model.CategorySecurity, Baseline: 12, Target: 1, Current: 12,
			Inverse: true, FirstClass: true, Weight: 1,
			Aliases: []string{"incident", "misuse", "security breach", "model theft"},
		},
		{
			// Monitor-only: tracked for context, never scored.
			Code: "CAP-CHAT", Name: "Consumer chat adoption",
			Category: model.CategoryCapability, Baseline: 0, Target: 1000, Current: 0,
			FirstClass: false, Weight: 1,
			Aliases: []string{"weekly active users", "chat adoption"},
		},
	}
}
