// Package budget tracks generative-model spend against a hard daily
// ceiling so exhaustion forces the deterministic mapping path instead of
// more API calls.
package budget

import (
	"sync/atomic"
	"time"

	"github.com/waymark-project/waymark/internal/model"
)

// Spend is tracked in integer micro-dollars so the ledger can use atomic
// compare-and-swap instead of read-then-write.
const microPerUSD = 1_000_000

// dayLedger holds the spend for a single UTC calendar day. A new ledger is
// swapped in at day rollover; no cron reset is needed.
type dayLedger struct {
	day   int64 // Unix day number
	spent atomic.Int64
}

// Governor is the process-wide spend ledger. Safe for concurrent use by
// any number of ingestion workers.
type Governor struct {
	ceilingMicro int64
	warnMicro    int64
	ledger       atomic.Pointer[dayLedger]
	now          func() time.Time
}

// New creates a governor from configuration.
func New(cfg model.BudgetConfig) *Governor {
	g := &Governor{
		ceilingMicro: int64(cfg.DailyCeilingUSD * microPerUSD),
		warnMicro:    int64(cfg.WarningUSD * microPerUSD),
		now:          time.Now,
	}
	g.ledger.Store(&dayLedger{day: unixDay(g.now())})
	return g
}

// Allow reserves estimatedCost against today's ledger. It returns false
// when the reservation would push cumulative spend past the daily ceiling;
// the caller must then fall back to deterministic mapping. Denial is a
// normal data path, not an error.
func (g *Governor) Allow(estimatedCostUSD float64) bool {
	if estimatedCostUSD < 0 {
		return false
	}
	cost := int64(estimatedCostUSD * microPerUSD)
	led := g.today()

	for {
		cur := led.spent.Load()
		if cur+cost > g.ceilingMicro {
			return false
		}
		if led.spent.CompareAndSwap(cur, cur+cost) {
			return true
		}
	}
}

// Refund returns a previously reserved amount, e.g. when the model call
// was cancelled before it was billed.
func (g *Governor) Refund(costUSD float64) {
	if costUSD <= 0 {
		return
	}
	led := g.today()
	cost := int64(costUSD * microPerUSD)
	for {
		cur := led.spent.Load()
		next := cur - cost
		if next < 0 {
			next = 0
		}
		if led.spent.CompareAndSwap(cur, next) {
			return
		}
	}
}

// Status is the governor's observable state.
type Status struct {
	Day        string  `json:"day"`
	SpentUSD   float64 `json:"spent_usd"`
	CeilingUSD float64 `json:"ceiling_usd"`
	WarningUSD float64 `json:"warning_usd"`
	Warning    bool    `json:"warning"`   // Spend crossed the warning threshold
	Exhausted  bool    `json:"exhausted"` // No further calls possible today
}

// Status reports current spend. The warning threshold is observability
// only; it never blocks calls.
func (g *Governor) Status() Status {
	led := g.today()
	spent := led.spent.Load()
	return Status{
		Day:        time.Unix(led.day*86400, 0).UTC().Format("2006-01-02"),
		SpentUSD:   float64(spent) / microPerUSD,
		CeilingUSD: float64(g.ceilingMicro) / microPerUSD,
		WarningUSD: float64(g.warnMicro) / microPerUSD,
		Warning:    spent >= g.warnMicro,
		Exhausted:  spent >= g.ceilingMicro,
	}
}

// today returns the ledger for the current day, rolling over atomically at
// the day boundary. Losing a racing increment from the dying day is fine;
// the old day's spend is irrelevant once it has passed.
func (g *Governor) today() *dayLedger {
	day := unixDay(g.now())
	for {
		led := g.ledger.Load()
		if led.day == day {
			return led
		}
		fresh := &dayLedger{day: day}
		if g.ledger.CompareAndSwap(led, fresh) {
			return fresh
		}
	}
}

func unixDay(t time.Time) int64 {
	return t.UTC().Unix() / 86400
}
