package journey

import "time"

// =============================================================================
// ENGINE - Aggregate assembly
// =============================================================================

// Engine computes JourneyMetrics. It holds no state besides the clock and is
// safe for concurrent use.
//
// Control flow:
//
//	Resolver -> TimelineBuilder -> (ComputeStreaks, ComputeGrowth) -> JourneyMetrics
type Engine struct {
	Clock Clock
}

// NewEngine returns an engine reading time from clock. A nil clock uses the
// system clock.
func NewEngine(clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{Clock: clock}
}

// Compute reconciles ledger and journal with the default rule and builds the
// aggregate. It returns nil when no start date is configured.
func (e *Engine) Compute(m Mentorship, ledger Ledger, journal Journal) *JourneyMetrics {
	return e.ComputeWith(m, NewMaxResolver(ledger, journal))
}

// ComputeWith builds the aggregate using a caller-supplied Resolver.
func (e *Engine) ComputeWith(m Mentorship, resolver Resolver) *JourneyMetrics {
	if !m.IsConfigured() {
		return nil
	}
	return assemble(m, resolver, e.now())
}

func (e *Engine) now() time.Time {
	if e.Clock == nil {
		return SystemClock{}.Now()
	}
	return e.Clock.Now()
}

func assemble(m Mentorship, resolver Resolver, now time.Time) *JourneyMetrics {
	builder := &TimelineBuilder{Resolver: resolver}
	milestones := builder.Build(m, now)
	pos := PositionAt(m, now)
	streaks := ComputeStreaks(milestones)
	growth := ComputeGrowth(milestones, streaks.MonthsWithGoalMet, streaks.ConsistencyScore)

	return &JourneyMetrics{
		CurrentMonth:    pos.CurrentMonth,
		TotalMonths:     pos.TotalMonths,
		RemainingMonths: pos.RemainingMonths,
		JourneyPercent:  pos.JourneyPercent,
		IsComplete:      pos.IsComplete,

		MonthsWithGoalMet:   streaks.MonthsWithGoalMet,
		ConsecutiveGoalsMet: streaks.ConsecutiveGoalsMet,
		BestStreak:          streaks.BestStreak,

		GrowthSinceStart:     growth.GrowthSinceStart,
		AverageMonthlyGrowth: growth.AverageMonthlyGrowth,
		BestMonth:            streaks.BestMonth,
		BiggestLeap:          streaks.BiggestLeap,

		ConsistencyScore:    streaks.ConsistencyScore,
		VarianceCoefficient: streaks.VarianceCoefficient,

		ProjectedEndResult:   growth.ProjectedEndResult,
		ProjectedTotalGrowth: growth.ProjectedTotalGrowth,
		ProbabilityOfSuccess: growth.ProbabilityOfSuccess,

		Milestones: milestones,
	}
}
