package achievements

import (
	"github.com/shopspring/decimal"
	"github.com/warp/journey-engine/journey"
)

// =============================================================================
// EVALUATOR - Stateless rule table
// =============================================================================

type predicate func(m *journey.JourneyMetrics, value decimal.Decimal) bool

var predicates = map[RequirementType]predicate{
	ReqGoalsMet: func(m *journey.JourneyMetrics, v decimal.Decimal) bool {
		return decimal.NewFromInt(int64(m.MonthsWithGoalMet)).GreaterThanOrEqual(v)
	},
	ReqStreak: func(m *journey.JourneyMetrics, v decimal.Decimal) bool {
		return decimal.NewFromInt(int64(m.BestStreak)).GreaterThanOrEqual(v)
	},
	ReqSingleMonthGrowth: func(m *journey.JourneyMetrics, v decimal.Decimal) bool {
		for _, ms := range m.Milestones {
			if ms.GrowthFromPrevious != nil && ms.GrowthFromPrevious.GreaterThanOrEqual(v) {
				return true
			}
		}
		return false
	},
	ReqCumulativeGrowth: func(m *journey.JourneyMetrics, v decimal.Decimal) bool {
		return m.GrowthSinceStart.GreaterThanOrEqual(v)
	},
	ReqPerfectMonth: func(m *journey.JourneyMetrics, v decimal.Decimal) bool {
		for _, ms := range m.Milestones {
			if ms.ProgressPercent.GreaterThanOrEqual(v) {
				return true
			}
		}
		return false
	},
	ReqComeback: func(m *journey.JourneyMetrics, _ decimal.Decimal) bool {
		for i := 1; i < len(m.Milestones); i++ {
			prev, cur := m.Milestones[i-1], m.Milestones[i]
			if !prev.IsObserved() || !cur.IsObserved() {
				continue
			}
			if prev.IsMiss() && cur.GoalMet {
				return true
			}
		}
		return false
	},
	ReqJourneyComplete: func(m *journey.JourneyMetrics, _ decimal.Decimal) bool {
		return m.IsComplete
	},
}

// Evaluate maps metrics onto the catalogue. Nil metrics (no journey
// configured) leave everything locked; unknown requirement types stay locked.
func Evaluate(metrics *journey.JourneyMetrics, catalogue []Definition) []Achievement {
	out := make([]Achievement, len(catalogue))
	for i, def := range catalogue {
		out[i] = Achievement{Definition: def}
		if metrics == nil {
			continue
		}
		if p, ok := predicates[def.Requirement.Type]; ok {
			out[i].IsUnlocked = p(metrics, def.Requirement.Value)
		}
	}
	return out
}

// Unlocked returns the IDs of unlocked achievements.
func Unlocked(list []Achievement) map[string]bool {
	ids := make(map[string]bool)
	for _, a := range list {
		if a.IsUnlocked {
			ids[a.ID] = true
		}
	}
	return ids
}

// Diff returns achievements unlocked in next but not in prev.
func Diff(prev, next []Achievement) []Achievement {
	before := Unlocked(prev)
	var newly []Achievement
	for _, a := range next {
		if a.IsUnlocked && !before[a.ID] {
			newly = append(newly, a)
		}
	}
	return newly
}
