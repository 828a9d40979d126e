/*
timeline.go - Milestone timeline construction

PURPOSE:
  Walks the fixed program length from the start month and builds one
  Milestone per program month, with reconciled revenue and a lifecycle
  status derived from the injected clock.

STATUS RULE (first-of-month comparison against "now"):
  milestone month <  now month  -> completed
  milestone month == now month  -> current (completed if the journey is over)
  milestone month >  now month  -> upcoming

  CurrentMonth on the aggregate comes from a different comparison (whole
  months elapsed since the start date), so near month boundaries a milestone
  may already be completed while CurrentMonth still points at it. Both
  numbers are reported as computed.

SEE ALSO:
  - resolver.go: Supplies revenue and goal
  - engine.go: Assembles the aggregate
*/
package journey

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// TimelineBuilder builds program milestones.
type TimelineBuilder struct {
	Resolver Resolver
}

// Position is where "now" falls in a program.
type Position struct {
	CurrentMonth    int
	TotalMonths     int
	RemainingMonths int
	JourneyPercent  decimal.Decimal
	IsComplete      bool
}

// PositionAt computes the elapsed-month position of now within the program.
func PositionAt(m Mentorship, now time.Time) Position {
	total := m.Duration()
	elapsed := ElapsedMonths(m.StartDate, now)
	complete := !now.Before(m.EndDate())

	current := clamp(elapsed+1, 1, total)
	percent := decimal.NewFromInt(int64(clamp(elapsed, 0, total))).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(total)))
	if complete {
		percent = hundred
	}

	return Position{
		CurrentMonth:    current,
		TotalMonths:     total,
		RemainingMonths: total - current,
		JourneyPercent:  percent,
		IsComplete:      complete,
	}
}

// Build returns exactly m.Duration() milestones in chronological order.
func (b *TimelineBuilder) Build(m Mentorship, now time.Time) []Milestone {
	total := m.Duration()
	complete := !now.Before(m.EndDate())
	nowMonth := MonthOf(now)
	start := MonthOf(m.StartDate)

	milestones := make([]Milestone, 0, total)
	for i := 0; i < total; i++ {
		month := start.AddMonths(i)
		rm := b.Resolver.Resolve(month.Calendar(), month.Year())

		ms := Milestone{
			ProgramMonth:    i + 1,
			Month:           month.Calendar(),
			Year:            month.Year(),
			Revenue:         rm.Revenue,
			Goal:            rm.Goal,
			GoalMet:         rm.Goal.IsPositive() && rm.Revenue.GreaterThanOrEqual(rm.Goal),
			ProgressPercent: progress(rm.Revenue, rm.Goal),
			Status:          statusFor(month, nowMonth, complete),
			Source:          rm.Source,
			LedgerRevenue:   rm.LedgerRevenue,
			JournalRevenue:  rm.JournalRevenue,
		}

		if i > 0 {
			prev := milestones[i-1]
			if !prev.Revenue.IsZero() && !ms.Revenue.IsZero() && ms.Status != StatusUpcoming {
				g := percentChange(prev.Revenue, ms.Revenue)
				ms.GrowthFromPrevious = &g
			}
		}

		milestones = append(milestones, ms)
	}
	return milestones
}

func statusFor(month, now Month, complete bool) Status {
	switch {
	case month.Before(now):
		return StatusCompleted
	case month.Equal(now):
		if complete {
			return StatusCompleted
		}
		return StatusCurrent
	default:
		return StatusUpcoming
	}
}

func progress(revenue, goal decimal.Decimal) decimal.Decimal {
	if !goal.IsPositive() {
		return decimal.Zero
	}
	return revenue.Mul(hundred).Div(goal)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
