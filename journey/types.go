/*
Package journey provides the mentorship journey analytics engine.

PURPOSE:
  Turns raw monthly revenue/goal records into a structured picture of a
  mentorship program: one milestone per program month, goal streaks,
  consistency and growth statistics, and an end-of-program projection.
  The achievements package consumes the resulting JourneyMetrics.

KEY CONCEPTS IN THIS FILE (types.go):
  - MonthlyRecord: A ledger row (manually entered revenue + goal)
  - JournalEntry: An itemized sale, summed by month into the journal
  - ReconciledMonth: One authoritative revenue figure per calendar month
  - Milestone: A program month with lifecycle status
  - JourneyMetrics: The root aggregate returned by Engine.Compute

DESIGN PRINCIPLES:
  1. Purity: Compute is a function of its inputs and the injected clock
  2. Precision: Money and percentages use decimal.Decimal
  3. Degrade, don't fail: missing data resolves to zero, never an error
  4. No caching: every call rebuilds the full timeline

USAGE:
  engine := journey.NewEngine(journey.SystemClock{})
  metrics := engine.Compute(mentorship, ledger, journal)
  if metrics == nil {
      // no journey configured
  }

SEE ALSO:
  - resolver.go: Two-source revenue reconciliation
  - timeline.go: Milestone construction and status
  - streak.go: Streaks, consistency, best month, biggest leap
  - growth.go: Growth and projection
*/
package journey

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDurationMonths is the length of a standard mentorship program.
const DefaultDurationMonths = 6

// MaxDurationMonths bounds the timeline a single computation builds.
const MaxDurationMonths = 120

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string

// =============================================================================
// INPUT RECORDS
// =============================================================================

// Cycle tells which ledger subset a row belongs to.
type Cycle string

const (
	CycleCurrent    Cycle = "current"    // Rows entered for the running cycle
	CycleHistorical Cycle = "historical" // Rows imported from earlier years
)

// MonthlyRecord is one ledger row. At most one row per (month, year, cycle).
type MonthlyRecord struct {
	UserID  UserID
	Month   time.Month
	Year    int
	Revenue decimal.Decimal
	Goal    decimal.Decimal
	Cycle   Cycle
}

// JournalEntry is an itemized sale. The journal collection holds their
// monthly sums.
type JournalEntry struct {
	ID          string
	UserID      UserID
	Date        time.Time
	Amount      decimal.Decimal
	Client      string
	Description string
}

// Mentorship is the per-user program configuration.
type Mentorship struct {
	UserID         UserID
	StartDate      time.Time
	DurationMonths int
}

// Duration returns the configured program length, falling back to the default.
func (m Mentorship) Duration() int {
	if m.DurationMonths <= 0 {
		return DefaultDurationMonths
	}
	return m.DurationMonths
}

// EndDate is the first instant after the program.
func (m Mentorship) EndDate() time.Time {
	return m.StartDate.AddDate(0, m.Duration(), 0)
}

// IsConfigured reports whether a start date is set.
func (m Mentorship) IsConfigured() bool {
	return !m.StartDate.IsZero()
}

// =============================================================================
// RECONCILED MONTH
// =============================================================================

// Source records which input supplied the authoritative revenue.
type Source string

const (
	SourceLedger  Source = "ledger"
	SourceJournal Source = "journal"
	SourceNone    Source = "none"
)

type ReconciledMonth struct {
	Month   time.Month
	Year    int
	Revenue decimal.Decimal
	Goal    decimal.Decimal
	Source  Source

	// Raw inputs, kept for auditability
	LedgerRevenue  decimal.Decimal
	JournalRevenue decimal.Decimal
}

// =============================================================================
// MILESTONE
// =============================================================================

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusCurrent   Status = "current"
	StatusCompleted Status = "completed"
)

// Milestone is one program month.
type Milestone struct {
	ProgramMonth int // 1..N
	Month        time.Month
	Year         int

	Revenue         decimal.Decimal
	Goal            decimal.Decimal
	GoalMet         bool
	ProgressPercent decimal.Decimal
	Status          Status

	// Nil when undefined (no previous data, no current data, or upcoming)
	GrowthFromPrevious *decimal.Decimal

	Source         Source
	LedgerRevenue  decimal.Decimal
	JournalRevenue decimal.Decimal
}

// IsObserved reports whether the milestone takes part in statistics.
// Upcoming months are presumed to have unknown revenue.
func (m Milestone) IsObserved() bool {
	return m.Status == StatusCompleted || m.Status == StatusCurrent
}

// IsMiss reports an actual miss: data exists but the goal was not met.
// Months without revenue are not misses.
func (m Milestone) IsMiss() bool {
	return !m.GoalMet && m.Revenue.IsPositive()
}

// Label formats the calendar month, e.g. "Mar 2025".
func (m Milestone) Label() string {
	return NewMonth(m.Year, m.Month).Label()
}

// =============================================================================
// JOURNEY METRICS - Root aggregate
// =============================================================================

// Leap is the largest positive month-over-month jump.
type Leap struct {
	FromMonth int // program month index
	ToMonth   int
	Growth    decimal.Decimal
}

// JourneyMetrics is produced once per Compute call and owned by the caller.
type JourneyMetrics struct {
	CurrentMonth    int
	TotalMonths     int
	RemainingMonths int
	JourneyPercent  decimal.Decimal
	IsComplete      bool

	MonthsWithGoalMet   int
	ConsecutiveGoalsMet int
	BestStreak          int

	GrowthSinceStart     decimal.Decimal
	AverageMonthlyGrowth decimal.Decimal
	BestMonth            *Milestone
	BiggestLeap          *Leap

	ConsistencyScore    decimal.Decimal
	VarianceCoefficient decimal.Decimal

	ProjectedEndResult   decimal.Decimal
	ProjectedTotalGrowth decimal.Decimal

	// ProbabilityOfSuccess is a UX confidence heuristic blending hit rate and
	// consistency. It is not a calibrated probability and must not be read as
	// a forecast.
	ProbabilityOfSuccess decimal.Decimal

	Milestones []Milestone
}

// Observed returns the milestones with status completed or current.
func (jm *JourneyMetrics) Observed() []Milestone {
	return observed(jm.Milestones)
}

func observed(ms []Milestone) []Milestone {
	var out []Milestone
	for _, m := range ms {
		if m.IsObserved() {
			out = append(out, m)
		}
	}
	return out
}
