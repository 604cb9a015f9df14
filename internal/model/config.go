package model

import "time"

// Config is the full runtime configuration.
//
// Hierarchy (highest to lowest priority): CLI flags, WAYMARK_* environment
// variables, ~/.waymark/config.yaml, the defaults below. Policy constants
// (corroboration window, band width, budget ceiling) live here rather than
// in code so operators can revise them without a release.
type Config struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"`

	// CatalogPath points at a YAML source/indicator catalog. Empty means
	// the built-in catalog.
	CatalogPath string `yaml:"catalog_path" mapstructure:"catalog_path"`

	HTTP          HTTPConfig          `yaml:"http" mapstructure:"http"`
	Budget        BudgetConfig        `yaml:"budget" mapstructure:"budget"`
	Mapper        MapperConfig        `yaml:"mapper" mapstructure:"mapper"`
	Corroboration CorroborationConfig `yaml:"corroboration" mapstructure:"corroboration"`
	Scoring       ScoringConfig       `yaml:"scoring" mapstructure:"scoring"`
	LLM           LLMConfig           `yaml:"llm" mapstructure:"llm"`
	Concurrency   ConcurrencyConfig   `yaml:"concurrency" mapstructure:"concurrency"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
}

// HTTPConfig controls outbound HTTP used for evidence URL checks.
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// BudgetConfig bounds generative-model spend per calendar day (UTC).
type BudgetConfig struct {
	DailyCeilingUSD float64 `yaml:"daily_ceiling_usd" mapstructure:"daily_ceiling_usd"`
	WarningUSD      float64 `yaml:"warning_usd" mapstructure:"warning_usd"`
}

// MapperConfig tunes the claim-to-indicator mapper.
type MapperConfig struct {
	MaxLinksPerClaim int     `yaml:"max_links_per_claim" mapstructure:"max_links_per_claim"`
	ReviewThreshold  float64 `yaml:"review_threshold" mapstructure:"review_threshold"`
	ConfidenceCap    float64 `yaml:"confidence_cap" mapstructure:"confidence_cap"`
	PrimaryBonus     float64 `yaml:"primary_bonus" mapstructure:"primary_bonus"`
	SecondaryBonus   float64 `yaml:"secondary_bonus" mapstructure:"secondary_bonus"`
}

// CorroborationConfig tunes the promotion scan for second-tier links.
type CorroborationConfig struct {
	Window          time.Duration `yaml:"window" mapstructure:"window"`
	ConfidenceBonus float64       `yaml:"confidence_bonus" mapstructure:"confidence_bonus"`
	Interval        time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ScoringConfig tunes the scoring engine.
type ScoringConfig struct {
	BandWidth       float64 `yaml:"band_width" mapstructure:"band_width"`
	WeightTolerance float64 `yaml:"weight_tolerance" mapstructure:"weight_tolerance"`
}

// LLMConfig configures the structured-extraction fallback.
type LLMConfig struct {
	Provider        string  `yaml:"provider" mapstructure:"provider"` // "openai" or "" (disabled)
	Model           string  `yaml:"model" mapstructure:"model"`
	APIKey          string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	Timeout         int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens       int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	CostPerCallUSD  float64 `yaml:"cost_per_call_usd" mapstructure:"cost_per_call_usd"`
	CallsPerSecond  float64 `yaml:"calls_per_second" mapstructure:"calls_per_second"`
	CallBurst       int     `yaml:"call_burst" mapstructure:"call_burst"`
}

// ConcurrencyConfig sizes the worker pools.
type ConcurrencyConfig struct {
	IngestWorkers int `yaml:"ingest_workers" mapstructure:"ingest_workers"`
	CheckWorkers  int `yaml:"check_workers" mapstructure:"check_workers"`
}

// CacheConfig tunes the read-model cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ServerConfig configures the HTTP read/admin API.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DBPath: "waymark.db",
		HTTP: HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "Waymark/0.2 (+https://github.com/waymark-project/waymark)",
		},
		Budget: BudgetConfig{
			DailyCeilingUSD: 50.0,
			WarningUSD:      40.0,
		},
		Mapper: MapperConfig{
			MaxLinksPerClaim: 5,
			ReviewThreshold:  0.6,
			ConfidenceCap:    0.95,
			PrimaryBonus:     0.10,
			SecondaryBonus:   0.05,
		},
		Corroboration: CorroborationConfig{
			Window:          14 * 24 * time.Hour,
			ConfidenceBonus: 0.15,
			Interval:        time.Hour,
		},
		Scoring: ScoringConfig{
			BandWidth:       0.10,
			WeightTolerance: 0.001,
		},
		LLM: LLMConfig{
			Provider:       "", // Disabled by default
			Timeout:        30,
			MaxTokens:      500,
			CostPerCallUSD: 0.01,
			CallsPerSecond: 1,
			CallBurst:      3,
		},
		Concurrency: ConcurrencyConfig{
			IngestWorkers: 4,
			CheckWorkers:  10,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     30 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":8642",
		},
	}
}
