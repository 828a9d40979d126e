package journey

import (
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STREAK & CONSISTENCY - Single left-to-right pass over observed milestones
// =============================================================================

// StreakStats is the result of the streak and consistency pass.
type StreakStats struct {
	MonthsWithGoalMet   int
	ConsecutiveGoalsMet int
	BestStreak          int
	ConsistencyScore    decimal.Decimal
	VarianceCoefficient decimal.Decimal
	BestMonth           *Milestone
	BiggestLeap         *Leap
}

// ComputeStreaks reduces the timeline. Upcoming milestones are skipped.
//
// Streak rules:
//   - goal met: streak + 1
//   - actual miss (revenue > 0, goal not met): streak resets to 0
//   - no revenue: streak unchanged
func ComputeStreaks(milestones []Milestone) StreakStats {
	var (
		stats    StreakStats
		streak   int
		revenues []decimal.Decimal
	)

	for _, m := range milestones {
		if !m.IsObserved() {
			continue
		}

		switch {
		case m.GoalMet:
			stats.MonthsWithGoalMet++
			streak++
			if streak > stats.BestStreak {
				stats.BestStreak = streak
			}
		case m.Revenue.IsPositive():
			streak = 0
		}

		if m.Revenue.IsPositive() {
			revenues = append(revenues, m.Revenue)
			if stats.BestMonth == nil || m.Revenue.GreaterThan(stats.BestMonth.Revenue) {
				best := m
				stats.BestMonth = &best
			}
		}

		if g := m.GrowthFromPrevious; g != nil && g.IsPositive() {
			if stats.BiggestLeap == nil || g.GreaterThan(stats.BiggestLeap.Growth) {
				stats.BiggestLeap = &Leap{
					FromMonth: m.ProgramMonth - 1,
					ToMonth:   m.ProgramMonth,
					Growth:    *g,
				}
			}
		}
	}

	stats.ConsecutiveGoalsMet = streak
	stats.VarianceCoefficient = CoefficientOfVariation(revenues)
	stats.ConsistencyScore = hundred.Sub(decimal.Min(hundred, stats.VarianceCoefficient))
	return stats
}

// CoefficientOfVariation returns the population standard deviation divided
// by the mean, as a percentage. Fewer than two observations (or a zero mean)
// count as zero variance.
func CoefficientOfVariation(values []decimal.Decimal) decimal.Decimal {
	if len(values) < 2 {
		return decimal.Zero
	}

	n := decimal.NewFromInt(int64(len(values)))
	mean := decimal.Sum(values[0], values[1:]...).Div(n)
	if mean.IsZero() {
		return decimal.Zero
	}

	// Deviations are taken relative to the mean so the float64 square root
	// sees a value bounded by len(values)^2 whatever the revenue scale.
	one := decimal.NewFromInt(1)
	relVariance := decimal.Zero
	for _, v := range values {
		d := v.Div(mean).Sub(one)
		relVariance = relVariance.Add(d.Mul(d))
	}
	relVariance = relVariance.Div(n)

	// decimal has no square root; the relative deviation goes through float64.
	rel := math.Sqrt(relVariance.InexactFloat64())
	if math.IsNaN(rel) || math.IsInf(rel, 0) {
		return hundred
	}
	return decimal.NewFromFloat(rel).Mul(hundred)
}
