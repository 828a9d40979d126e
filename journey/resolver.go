/*
resolver.go - Two-source revenue reconciliation

PURPOSE:
  Each calendar month has up to two revenue figures: the ledger (manually
  entered, with a goal) and the journal (itemized sales summed by month).
  The Resolver picks one authoritative figure per month.

RULE:
  - Both zero or absent: revenue 0, source none
  - Otherwise the larger value wins; ties go to the ledger
  - Goal always comes from the ledger (the journal has no goal)

  The larger source is assumed to be the more completely updated one. The
  rule lives behind the Resolver interface so a timestamp-based policy can
  replace it without touching the timeline.

SEE ALSO:
  - timeline.go: Calls Resolve once per program month
*/
package journey

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER - Monthly rows split into current and historical cycles
// =============================================================================

type monthKey struct {
	Year  int
	Month time.Month
}

// Ledger indexes monthly rows for lookup by (month, year).
type Ledger struct {
	current    map[monthKey]MonthlyRecord
	historical map[monthKey]MonthlyRecord
}

// NewLedger indexes records by cycle. Rows with an empty cycle count as current.
// A later row for the same key replaces an earlier one.
func NewLedger(records []MonthlyRecord) Ledger {
	l := Ledger{
		current:    make(map[monthKey]MonthlyRecord),
		historical: make(map[monthKey]MonthlyRecord),
	}
	for _, r := range records {
		k := monthKey{Year: r.Year, Month: r.Month}
		if r.Cycle == CycleHistorical {
			l.historical[k] = r
		} else {
			l.current[k] = r
		}
	}
	return l
}

// Lookup finds the row for a month, trying the current cycle first.
func (l Ledger) Lookup(month time.Month, year int) (MonthlyRecord, bool) {
	k := monthKey{Year: year, Month: month}
	if r, ok := l.current[k]; ok {
		return r, true
	}
	r, ok := l.historical[k]
	return r, ok
}

// =============================================================================
// JOURNAL - Itemized sales aggregated by month
// =============================================================================

// Journal holds monthly revenue totals.
type Journal struct {
	totals map[monthKey]decimal.Decimal
}

// NewJournal builds a journal from precomputed monthly totals, such as those
// returned by a GROUP BY query. Keys use month 1-12.
func NewJournal(totals map[Month]decimal.Decimal) Journal {
	j := Journal{totals: make(map[monthKey]decimal.Decimal, len(totals))}
	for m, v := range totals {
		k := monthKey{Year: m.Year(), Month: m.Calendar()}
		j.totals[k] = j.totals[k].Add(v)
	}
	return j
}

// AggregateJournal sums itemized entries by calendar month.
func AggregateJournal(entries []JournalEntry) Journal {
	j := Journal{totals: make(map[monthKey]decimal.Decimal)}
	for _, e := range entries {
		k := monthKey{Year: e.Date.Year(), Month: e.Date.Month()}
		j.totals[k] = j.totals[k].Add(e.Amount)
	}
	return j
}

// Revenue returns the total for a month, zero when absent.
func (j Journal) Revenue(month time.Month, year int) decimal.Decimal {
	return j.totals[monthKey{Year: year, Month: month}]
}

// Totals returns a copy of the monthly totals.
func (j Journal) Totals() map[Month]decimal.Decimal {
	out := make(map[Month]decimal.Decimal, len(j.totals))
	for k, v := range j.totals {
		out[NewMonth(k.Year, k.Month)] = v
	}
	return out
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver produces the authoritative revenue for a calendar month.
type Resolver interface {
	Resolve(month time.Month, year int) ReconciledMonth
}

// MaxResolver implements the "larger source wins" rule.
type MaxResolver struct {
	Ledger  Ledger
	Journal Journal
}

func NewMaxResolver(ledger Ledger, journal Journal) *MaxResolver {
	return &MaxResolver{Ledger: ledger, Journal: journal}
}

func (r *MaxResolver) Resolve(month time.Month, year int) ReconciledMonth {
	var ledgerRevenue, goal decimal.Decimal
	if row, ok := r.Ledger.Lookup(month, year); ok {
		ledgerRevenue = row.Revenue
		goal = row.Goal
	}
	journalRevenue := r.Journal.Revenue(month, year)

	rm := ReconciledMonth{
		Month:          month,
		Year:           year,
		Goal:           goal,
		LedgerRevenue:  ledgerRevenue,
		JournalRevenue: journalRevenue,
	}
	rm.Revenue, rm.Source = Reconcile(ledgerRevenue, journalRevenue)
	return rm
}

// Reconcile applies the rule to two raw figures.
func Reconcile(ledgerRevenue, journalRevenue decimal.Decimal) (decimal.Decimal, Source) {
	if !ledgerRevenue.IsPositive() && !journalRevenue.IsPositive() {
		return decimal.Zero, SourceNone
	}
	if ledgerRevenue.GreaterThanOrEqual(journalRevenue) {
		return ledgerRevenue, SourceLedger
	}
	return journalRevenue, SourceJournal
}
