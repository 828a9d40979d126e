package journey

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// GROWTH & PROJECTION
// =============================================================================

// projectionPlaces bounds the digits produced by compounding.
const projectionPlaces = 8

// GrowthStats is the result of the growth and projection pass.
type GrowthStats struct {
	GrowthSinceStart     decimal.Decimal
	AverageMonthlyGrowth decimal.Decimal
	ProjectedEndResult   decimal.Decimal
	ProjectedTotalGrowth decimal.Decimal
	ProbabilityOfSuccess decimal.Decimal
}

// ComputeGrowth derives growth and projection figures from the timeline.
// monthsWithGoalMet and consistencyScore come from ComputeStreaks.
//
// The baseline is the first program month's revenue. "Latest" is the most
// recent nonzero observed revenue. The projection compounds the average
// observed revenue by the average monthly growth over the months left.
func ComputeGrowth(milestones []Milestone, monthsWithGoalMet int, consistencyScore decimal.Decimal) GrowthStats {
	var stats GrowthStats
	if len(milestones) == 0 {
		return stats
	}

	baseline := milestones[0].Revenue
	obs := observed(milestones)

	var (
		latest   decimal.Decimal
		revenues []decimal.Decimal
		growths  []decimal.Decimal
	)
	for _, m := range obs {
		if m.Revenue.IsPositive() {
			latest = m.Revenue
			revenues = append(revenues, m.Revenue)
		}
		if m.GrowthFromPrevious != nil {
			growths = append(growths, *m.GrowthFromPrevious)
		}
	}

	stats.GrowthSinceStart = percentChange(baseline, latest)
	stats.AverageMonthlyGrowth = mean(growths)

	avgRevenue := mean(revenues)
	remaining := len(milestones) - len(obs)
	switch {
	case avgRevenue.IsZero():
		stats.ProjectedEndResult = latest
	case remaining == 0:
		stats.ProjectedEndResult = avgRevenue.Round(projectionPlaces)
	default:
		factor := decimal.NewFromInt(1).Add(stats.AverageMonthlyGrowth.Div(hundred))
		stats.ProjectedEndResult = avgRevenue.
			Mul(factor.Pow(decimal.NewFromInt(int64(remaining)))).
			Round(projectionPlaces)
	}
	stats.ProjectedTotalGrowth = percentChange(baseline, stats.ProjectedEndResult)
	stats.ProbabilityOfSuccess = successHeuristic(monthsWithGoalMet, len(obs), consistencyScore)
	return stats
}

// successHeuristic blends the hit rate with a consistency bonus, capped at
// 100. It is a display heuristic, not a statistical probability.
func successHeuristic(hits, observedCount int, consistencyScore decimal.Decimal) decimal.Decimal {
	if observedCount == 0 {
		return decimal.Zero
	}
	hitRate := decimal.NewFromInt(int64(hits)).Mul(hundred).Div(decimal.NewFromInt(int64(observedCount)))
	bonus := decimal.NewFromInt(1).Add(consistencyScore.Div(decimal.NewFromInt(200)))
	return decimal.Min(hundred, hitRate.Mul(bonus))
}

// percentChange returns (to - from) / from * 100, or zero when from is zero.
func percentChange(from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Mul(hundred).Div(from)
}

func mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(values[0], values[1:]...).Div(decimal.NewFromInt(int64(len(values))))
}
