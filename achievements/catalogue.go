package achievements

import "github.com/shopspring/decimal"

// PerfectMonthThreshold is the progress percentage that makes a month "perfect".
var PerfectMonthThreshold = decimal.NewFromInt(120)

// DefaultCatalogue returns the built-in achievements. IDs are stable: unlock
// history is keyed by them.
func DefaultCatalogue() []Definition {
	return []Definition{
		{
			ID:          "first_goal",
			Name:        "First Win",
			Description: "Hit your monthly goal for the first time",
			Category:    CategoryGoals,
			Requirement: Requirement{Type: ReqGoalsMet, Value: decimal.NewFromInt(1)},
		},
		{
			ID:          "three_goals",
			Name:        "Hat Trick",
			Description: "Hit your monthly goal in three program months",
			Category:    CategoryGoals,
			Requirement: Requirement{Type: ReqGoalsMet, Value: decimal.NewFromInt(3)},
		},
		{
			ID:          "streak_3",
			Name:        "On Fire",
			Description: "Hit your goal three months in a row",
			Category:    CategoryConsistency,
			Requirement: Requirement{Type: ReqStreak, Value: decimal.NewFromInt(3)},
		},
		{
			ID:          "streak_6",
			Name:        "Unstoppable",
			Description: "Hit your goal in every month of the program",
			Category:    CategoryConsistency,
			Requirement: Requirement{Type: ReqStreak, Value: decimal.NewFromInt(6)},
		},
		{
			ID:          "growth_spike",
			Name:        "Breakout Month",
			Description: "Grow revenue by 25% or more over the previous month",
			Category:    CategoryGrowth,
			Requirement: Requirement{Type: ReqSingleMonthGrowth, Value: decimal.NewFromInt(25)},
		},
		{
			ID:          "sustained_growth",
			Name:        "Compounding",
			Description: "Grow revenue 50% above your first program month",
			Category:    CategoryGrowth,
			Requirement: Requirement{Type: ReqCumulativeGrowth, Value: decimal.NewFromInt(50)},
		},
		{
			ID:          "perfect_month",
			Name:        "Overachiever",
			Description: "Reach 120% of a monthly goal",
			Category:    CategoryGoals,
			Requirement: Requirement{Type: ReqPerfectMonth, Value: PerfectMonthThreshold},
		},
		{
			ID:          "comeback",
			Name:        "Comeback",
			Description: "Hit your goal right after missing it",
			Category:    CategoryConsistency,
			Requirement: Requirement{Type: ReqComeback, Value: decimal.NewFromInt(1)},
		},
		{
			ID:          "journey_complete",
			Name:        "Graduate",
			Description: "Complete the mentorship program",
			Category:    CategoryMilestone,
			Requirement: Requirement{Type: ReqJourneyComplete, Value: decimal.NewFromInt(1)},
		},
	}
}
