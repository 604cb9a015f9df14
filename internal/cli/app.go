package cli

import (
	"fmt"

	"github.com/waymark-project/waymark/internal/budget"
	"github.com/waymark-project/waymark/internal/catalog"
	"github.com/waymark-project/waymark/internal/corroborate"
	"github.com/waymark-project/waymark/internal/ingest"
	"github.com/waymark-project/waymark/internal/llm"
	"github.com/waymark-project/waymark/internal/logging"
	"github.com/waymark-project/waymark/internal/mapper"
	"github.com/waymark-project/waymark/internal/model"
	"github.com/waymark-project/waymark/internal/query"
	"github.com/waymark-project/waymark/internal/scoring"
	"github.com/waymark-project/waymark/internal/store"
	"github.com/waymark-project/waymark/internal/validate"
)

// app holds one fully wired instance of the system. Every command builds
// it the same way so behavior cannot drift between the CLI and the server.
type app struct {
	cfg      *model.Config
	catalog  *catalog.Catalog
	store    *store.Store
	governor *budget.Governor
	mapper   *mapper.Mapper
	engine   *scoring.Engine
	query    *query.Service
	scanner  *corroborate.Scanner
	checker  *validate.Checker
	pipeline *ingest.Pipeline
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		cat, err = catalog.Load(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
	} else {
		cat = catalog.Default()
	}

	s, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// Seed the registry so lookups and scoring see the catalog. Upserts
	// preserve operator tier revisions and current indicator values.
	for i := range cat.Sources {
		if err := s.UpsertSource(&cat.Sources[i]); err != nil {
			s.Close()
			return nil, fmt.Errorf("seed source %s: %w", cat.Sources[i].ID, err)
		}
	}
	for i := range cat.Indicators {
		if err := s.UpsertIndicator(&cat.Indicators[i]); err != nil {
			s.Close()
			return nil, fmt.Errorf("seed indicator %s: %w", cat.Indicators[i].Code, err)
		}
	}

	extractor, err := llm.NewExtractor(cfg.LLM)
	if err != nil {
		s.Close()
		return nil, err
	}
	if extractor != nil {
		logging.Debug("extraction fallback enabled", "provider", extractor.Name(), "model", cfg.LLM.Model)
	}

	gov := budget.New(cfg.Budget)
	m := mapper.New(s, cat.Indicators, extractor, gov, cfg.Mapper, cfg.LLM.CostPerCallUSD)
	engine := scoring.New(s, cfg.Scoring)

	return &app{
		cfg:      cfg,
		catalog:  cat,
		store:    s,
		governor: gov,
		mapper:   m,
		engine:   engine,
		query:    query.New(s, engine, gov, cfg.Cache),
		scanner:  corroborate.New(s, cfg.Corroboration, cfg.Mapper.ConfidenceCap),
		checker:  validate.NewChecker(cfg.HTTP),
		pipeline: ingest.New(s, catalog.NewClassifier(cat.Sources), m),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logging.Warn("store close failed", "error", err)
	}
}
