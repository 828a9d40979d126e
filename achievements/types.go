/*
Package achievements evaluates a fixed catalogue of achievements against
computed journey metrics.

PURPOSE:
  The evaluator is a stateless rule table: every call recomputes IsUnlocked
  from the JourneyMetrics it is given. Nothing is persisted here. Showing a
  "newly unlocked" banner means diffing two evaluations, which Tracker does
  on top of an UnlockStore.

REQUIREMENT TYPES:
  goals_met            monthsWithGoalMet >= value
  streak               bestStreak >= value
  single_month_growth  any milestone's growthFromPrevious >= value
  cumulative_growth    growthSinceStart >= value
  perfect_month        any milestone's progressPercent >= value (120 in the default catalogue)
  comeback             an actual miss immediately followed by a met goal
  journey_complete     the program is over

  Single-month and cumulative growth are distinct requirement types so the
  catalogue can change without the two meanings drifting together.

SEE ALSO:
  - catalogue.go: The default catalogue
  - evaluator.go: Predicates
  - tracker.go: Unlock history and diffing
  - factory/catalogue.go: JSON catalogue overrides
*/
package achievements

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REQUIREMENTS
// =============================================================================

type RequirementType string

const (
	ReqGoalsMet          RequirementType = "goals_met"
	ReqStreak            RequirementType = "streak"
	ReqSingleMonthGrowth RequirementType = "single_month_growth"
	ReqCumulativeGrowth  RequirementType = "cumulative_growth"
	ReqPerfectMonth      RequirementType = "perfect_month"
	ReqComeback          RequirementType = "comeback"
	ReqJourneyComplete   RequirementType = "journey_complete"
)

// Valid reports whether the evaluator knows this requirement type.
func (r RequirementType) Valid() bool {
	_, ok := predicates[r]
	return ok
}

type Requirement struct {
	Type  RequirementType
	Value decimal.Decimal
}

// =============================================================================
// DEFINITIONS
// =============================================================================

type Category string

const (
	CategoryGoals       Category = "goals"
	CategoryConsistency Category = "consistency"
	CategoryGrowth      Category = "growth"
	CategoryMilestone   Category = "milestone"
)

// Definition is a static catalogue entry.
type Definition struct {
	ID          string
	Name        string
	Description string
	Category    Category
	Requirement Requirement
}

// Achievement is a definition with its evaluated state.
type Achievement struct {
	Definition
	IsUnlocked bool

	// Set by Tracker from unlock history, nil from Evaluate alone.
	UnlockedAt *time.Time
}
