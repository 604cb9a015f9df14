// Package metrics holds the Prometheus instruments. Everything is
// registered at init through promauto so the collectors exist before the
// first ingest runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ClaimsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "waymark",
		Name:      "claims_ingested_total",
		Help:      "Claims accepted into the store.",
	})

	ClaimsDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "waymark",
		Name:      "claims_deduplicated_total",
		Help:      "Incoming claims rejected as duplicates of an existing fingerprint.",
	})

	ClaimsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "waymark",
		Name:      "claims_failed_total",
		Help:      "Claims dropped because normalization or persistence failed.",
	})

	// MapperOutcomes is labeled by how the claim was resolved:
	// "rules", "llm", or "unmapped".
	MapperOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "waymark",
		Name:      "mapper_outcomes_total",
		Help:      "Claim-to-indicator mapping outcomes by resolution path.",
	}, []string{"path"})

	LinksCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "waymark",
		Name:      "links_created_total",
		Help:      "Links written, labeled by initial state.",
	}, []string{"state"})

	LinksPromoted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "waymark",
		Name:      "links_promoted_total",
		Help:      "Provisional links promoted to final by corroboration.",
	})

	BudgetSpendUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "waymark",
		Name:      "budget_spend_usd",
		Help:      "Generative-model spend recorded for the current UTC day.",
	})

	BudgetDenials = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "waymark",
		Name:      "budget_denials_total",
		Help:      "Extraction calls refused because the daily ceiling would be exceeded.",
	})

	IntegrityViolations = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "waymark",
		Name:      "integrity_violations",
		Help:      "Links found final despite a never-scoring tier, from the last audit pass.",
	})

	SnapshotsTaken = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "waymark",
		Name:      "snapshots_total",
		Help:      "Score snapshots computed and persisted.",
	})
)
