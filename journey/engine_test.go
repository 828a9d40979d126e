package journey_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/journey-engine/journey"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func money(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func row(month time.Month, year int, revenue, goal int64) journey.MonthlyRecord {
	return journey.MonthlyRecord{
		UserID:  "mentee-1",
		Month:   month,
		Year:    year,
		Revenue: money(revenue),
		Goal:    money(goal),
		Cycle:   journey.CycleCurrent,
	}
}

func sale(day time.Time, amount int64) journey.JournalEntry {
	return journey.JournalEntry{UserID: "mentee-1", Date: day, Amount: money(amount)}
}

func mentorship(start time.Time) journey.Mentorship {
	return journey.Mentorship{UserID: "mentee-1", StartDate: start, DurationMonths: 6}
}

func engineAt(now time.Time) *journey.Engine {
	return journey.NewEngine(journey.FixedClock{At: now})
}

// ledgerFrom builds consecutive monthly rows starting at start.
func ledgerFrom(start journey.Month, revenues []int64, goal int64) journey.Ledger {
	var rows []journey.MonthlyRecord
	for i, r := range revenues {
		m := start.AddMonths(i)
		rows = append(rows, row(m.Calendar(), m.Year(), r, goal))
	}
	return journey.NewLedger(rows)
}

func assertDecimal(t *testing.T, name string, want, got decimal.Decimal) {
	t.Helper()
	if !want.Equal(got) {
		t.Errorf("%s: expected %s, got %s", name, want, got)
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestCompute_AllGoalsMet_JourneyComplete(t *testing.T) {
	// GIVEN: Program started 6 months ago, every month over goal
	// WHEN: Computing metrics
	// THEN: 6 goals met, best streak 6, journey complete at 100%

	start := date(2025, time.January, 15)
	ledger := ledgerFrom(journey.MonthOf(start), []int64{12000, 12000, 12000, 12000, 12000, 12000}, 10000)

	metrics := engineAt(date(2025, time.July, 15)).Compute(mentorship(start), ledger, journey.Journal{})
	if metrics == nil {
		t.Fatal("expected metrics, got nil")
	}

	if metrics.MonthsWithGoalMet != 6 {
		t.Errorf("expected 6 months with goal met, got %d", metrics.MonthsWithGoalMet)
	}
	if metrics.BestStreak != 6 {
		t.Errorf("expected best streak 6, got %d", metrics.BestStreak)
	}
	if metrics.ConsecutiveGoalsMet != 6 {
		t.Errorf("expected current streak 6, got %d", metrics.ConsecutiveGoalsMet)
	}
	if !metrics.IsComplete {
		t.Error("expected journey to be complete")
	}
	assertDecimal(t, "journey percent", money(100), metrics.JourneyPercent)
	if metrics.CurrentMonth != 6 || metrics.RemainingMonths != 0 {
		t.Errorf("expected month 6 with 0 remaining, got %d/%d", metrics.CurrentMonth, metrics.RemainingMonths)
	}
	for _, m := range metrics.Milestones {
		if m.Status != journey.StatusCompleted {
			t.Errorf("month %d: expected completed, got %s", m.ProgramMonth, m.Status)
		}
	}
	assertDecimal(t, "consistency", money(100), metrics.ConsistencyScore)
	assertDecimal(t, "projection", money(12000), metrics.ProjectedEndResult)
	assertDecimal(t, "probability", money(100), metrics.ProbabilityOfSuccess)
}

func TestCompute_JournalFillsMissingLedgerMonth(t *testing.T) {
	// GIVEN: Ledger month 3 has no revenue, journal month 3 totals 12000, goal 10000
	// WHEN: Computing metrics
	// THEN: Month 3 uses the journal figure and meets its goal

	start := date(2025, time.January, 1)
	ledger := journey.NewLedger([]journey.MonthlyRecord{
		row(time.January, 2025, 11000, 10000),
		row(time.February, 2025, 11000, 10000),
		row(time.March, 2025, 0, 10000),
	})
	journal := journey.AggregateJournal([]journey.JournalEntry{
		sale(date(2025, time.March, 3), 5000),
		sale(date(2025, time.March, 21), 7000),
	})

	metrics := engineAt(date(2025, time.April, 2)).Compute(mentorship(start), ledger, journal)

	m3 := metrics.Milestones[2]
	assertDecimal(t, "month 3 revenue", money(12000), m3.Revenue)
	if m3.Source != journey.SourceJournal {
		t.Errorf("expected source journal, got %s", m3.Source)
	}
	if !m3.GoalMet {
		t.Error("expected month 3 goal met")
	}
	assertDecimal(t, "raw ledger", money(0), m3.LedgerRevenue)
	assertDecimal(t, "raw journal", money(12000), m3.JournalRevenue)
	if metrics.BestStreak != 3 {
		t.Errorf("expected streak 3, got %d", metrics.BestStreak)
	}
}

func TestCompute_BiggestLeapAndStreakReset(t *testing.T) {
	// GIVEN: Revenues 10000, 10000, 15000, 10000; month 4 goal raised to 12000
	// WHEN: Computing in month 4
	// THEN: Biggest leap is month 2 -> 3 at 50%, and the month-4 miss resets the streak

	start := date(2025, time.January, 1)
	ledger := journey.NewLedger([]journey.MonthlyRecord{
		row(time.January, 2025, 10000, 10000),
		row(time.February, 2025, 10000, 10000),
		row(time.March, 2025, 15000, 10000),
		row(time.April, 2025, 10000, 12000),
	})

	metrics := engineAt(date(2025, time.April, 10)).Compute(mentorship(start), ledger, journey.Journal{})

	if metrics.BiggestLeap == nil {
		t.Fatal("expected a biggest leap")
	}
	if metrics.BiggestLeap.FromMonth != 2 || metrics.BiggestLeap.ToMonth != 3 {
		t.Errorf("expected leap 2 -> 3, got %d -> %d", metrics.BiggestLeap.FromMonth, metrics.BiggestLeap.ToMonth)
	}
	assertDecimal(t, "leap growth", money(50), metrics.BiggestLeap.Growth)

	if metrics.BestStreak != 3 {
		t.Errorf("expected best streak 3, got %d", metrics.BestStreak)
	}
	if metrics.ConsecutiveGoalsMet != 0 {
		t.Errorf("expected streak reset to 0 after the miss, got %d", metrics.ConsecutiveGoalsMet)
	}
	if metrics.MonthsWithGoalMet != 3 {
		t.Errorf("expected 3 goals met, got %d", metrics.MonthsWithGoalMet)
	}

	if metrics.BestMonth == nil || metrics.BestMonth.ProgramMonth != 3 {
		t.Errorf("expected best month 3, got %+v", metrics.BestMonth)
	}
	if metrics.Milestones[3].Status != journey.StatusCurrent {
		t.Errorf("expected month 4 current, got %s", metrics.Milestones[3].Status)
	}
	assertDecimal(t, "journey percent", money(50), metrics.JourneyPercent)
	assertDecimal(t, "probability", money(100), metrics.ProbabilityOfSuccess)
	if !metrics.ProjectedEndResult.GreaterThan(money(11250)) {
		t.Errorf("expected projection above average revenue 11250, got %s", metrics.ProjectedEndResult)
	}
}

func TestCompute_NoFirstMonthRevenue_GrowthGuarded(t *testing.T) {
	// GIVEN: No data in month 1, revenue in months 2 and 3
	// WHEN: Computing metrics
	// THEN: Growth since start and projected total growth are 0, not a division error

	start := date(2025, time.January, 1)
	ledger := journey.NewLedger([]journey.MonthlyRecord{
		row(time.February, 2025, 8000, 10000),
		row(time.March, 2025, 12000, 10000),
	})

	metrics := engineAt(date(2025, time.March, 20)).Compute(mentorship(start), ledger, journey.Journal{})

	assertDecimal(t, "growth since start", decimal.Zero, metrics.GrowthSinceStart)
	assertDecimal(t, "projected total growth", decimal.Zero, metrics.ProjectedTotalGrowth)
	if metrics.Milestones[1].GrowthFromPrevious != nil {
		t.Error("month 2 growth should be undefined when month 1 has no revenue")
	}
	assertDecimal(t, "month 3 growth", money(50), *metrics.Milestones[2].GrowthFromPrevious)
	assertDecimal(t, "average growth", money(50), metrics.AverageMonthlyGrowth)
}

func TestCompute_NoStartDate_ReturnsNil(t *testing.T) {
	metrics := engineAt(date(2025, time.March, 1)).Compute(journey.Mentorship{UserID: "u"}, journey.Ledger{}, journey.Journal{})
	if metrics != nil {
		t.Errorf("expected nil metrics without a start date, got %+v", metrics)
	}
}

func TestCompute_NowBeforeStart_AllUpcoming(t *testing.T) {
	start := date(2025, time.June, 1)
	metrics := engineAt(date(2025, time.March, 1)).Compute(mentorship(start), journey.Ledger{}, journey.Journal{})

	for _, m := range metrics.Milestones {
		if m.Status != journey.StatusUpcoming {
			t.Errorf("month %d: expected upcoming, got %s", m.ProgramMonth, m.Status)
		}
	}
	if metrics.CurrentMonth != 1 {
		t.Errorf("expected current month clamped to 1, got %d", metrics.CurrentMonth)
	}
	assertDecimal(t, "journey percent", decimal.Zero, metrics.JourneyPercent)
	assertDecimal(t, "probability", decimal.Zero, metrics.ProbabilityOfSuccess)
	assertDecimal(t, "consistency", money(100), metrics.ConsistencyScore)
}

func TestCompute_FarPastWindow_AllCompleted(t *testing.T) {
	start := date(2023, time.November, 1)
	metrics := engineAt(date(2025, time.March, 1)).Compute(mentorship(start), journey.Ledger{}, journey.Journal{})

	if !metrics.IsComplete {
		t.Error("expected complete")
	}
	if metrics.Milestones[0].Year != 2023 || metrics.Milestones[2].Year != 2024 || metrics.Milestones[2].Month != time.January {
		t.Errorf("expected timeline to roll over the year boundary, got %d-%d", metrics.Milestones[2].Year, metrics.Milestones[2].Month)
	}
	for _, m := range metrics.Milestones {
		if m.Status != journey.StatusCompleted {
			t.Errorf("month %d: expected completed, got %s", m.ProgramMonth, m.Status)
		}
	}
}

func TestCompute_CurrentMonthAndStatusMayDisagree(t *testing.T) {
	// GIVEN: Start on Jan 20, now is Mar 5
	// WHEN: Computing metrics
	// THEN: Only one whole month has elapsed, so CurrentMonth is 2, yet
	//       February's milestone is already completed and March is current.
	//       The two clocks are reported as computed.

	start := date(2025, time.January, 20)
	metrics := engineAt(date(2025, time.March, 5)).Compute(mentorship(start), journey.Ledger{}, journey.Journal{})

	if metrics.CurrentMonth != 2 {
		t.Errorf("expected current month 2, got %d", metrics.CurrentMonth)
	}
	if metrics.Milestones[1].Status != journey.StatusCompleted {
		t.Errorf("expected month 2 completed, got %s", metrics.Milestones[1].Status)
	}
	if metrics.Milestones[2].Status != journey.StatusCurrent {
		t.Errorf("expected month 3 current, got %s", metrics.Milestones[2].Status)
	}
}

func TestCompute_UpcomingMonthsIgnoredByStatistics(t *testing.T) {
	// GIVEN: Ledger rows already entered for future months
	// WHEN: Computing in month 2
	// THEN: Future revenue does not count towards goals, streaks or best month

	start := date(2025, time.January, 1)
	ledger := ledgerFrom(journey.MonthOf(start), []int64{11000, 11000, 90000, 90000}, 10000)

	metrics := engineAt(date(2025, time.February, 14)).Compute(mentorship(start), ledger, journey.Journal{})

	if metrics.MonthsWithGoalMet != 2 {
		t.Errorf("expected 2 goals met, got %d", metrics.MonthsWithGoalMet)
	}
	if metrics.BestMonth.ProgramMonth != 1 {
		t.Errorf("expected first of equal months to be best, got %d", metrics.BestMonth.ProgramMonth)
	}
	if metrics.Milestones[2].GrowthFromPrevious != nil {
		t.Error("upcoming milestone should have no growth")
	}
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestTimeline_LengthAndOrder(t *testing.T) {
	start := date(2024, time.September, 10)
	now := date(2025, time.February, 1)

	for n := 1; n <= 24; n++ {
		m := journey.Mentorship{UserID: "u", StartDate: start, DurationMonths: n}
		metrics := engineAt(now).Compute(m, journey.Ledger{}, journey.Journal{})

		if len(metrics.Milestones) != n {
			t.Fatalf("duration %d: expected %d milestones, got %d", n, n, len(metrics.Milestones))
		}
		for i, ms := range metrics.Milestones {
			if ms.ProgramMonth != i+1 {
				t.Errorf("duration %d: index %d has program month %d", n, i, ms.ProgramMonth)
			}
			want := journey.MonthOf(start).AddMonths(i)
			if ms.Month != want.Calendar() || ms.Year != want.Year() {
				t.Errorf("duration %d: month %d is %d-%d, expected %s", n, i+1, ms.Year, ms.Month, want)
			}
		}
	}
}

func TestTimeline_StatusMonotonic(t *testing.T) {
	rank := map[journey.Status]int{
		journey.StatusCompleted: 0,
		journey.StatusCurrent:   1,
		journey.StatusUpcoming:  2,
	}
	start := date(2025, time.March, 31)

	for offset := -3; offset < 12; offset++ {
		now := start.AddDate(0, offset, 0)
		metrics := engineAt(now).Compute(mentorship(start), journey.Ledger{}, journey.Journal{})

		for i := 1; i < len(metrics.Milestones); i++ {
			prev, cur := metrics.Milestones[i-1].Status, metrics.Milestones[i].Status
			if rank[cur] < rank[prev] {
				t.Errorf("now %s: status went %s -> %s at month %d", now.Format("2006-01-02"), prev, cur, i+1)
			}
		}
	}
}

func TestStreaks_RandomizedInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	start := date(2025, time.January, 1)
	now := date(2025, time.June, 15)

	for run := 0; run < 200; run++ {
		revenues := make([]int64, 6)
		for i := range revenues {
			switch rng.Intn(3) {
			case 0:
				revenues[i] = 0
			case 1:
				revenues[i] = 5000 + rng.Int63n(4000)
			default:
				revenues[i] = 10000 + rng.Int63n(8000)
			}
		}
		ledger := ledgerFrom(journey.MonthOf(start), revenues, 10000)
		metrics := engineAt(now).Compute(mentorship(start), ledger, journey.Journal{})

		if metrics.ConsecutiveGoalsMet < 0 || metrics.BestStreak < metrics.ConsecutiveGoalsMet {
			t.Fatalf("revenues %v: streak invariant broken (best %d, current %d)", revenues, metrics.BestStreak, metrics.ConsecutiveGoalsMet)
		}
		if metrics.ConsistencyScore.IsNegative() || metrics.ConsistencyScore.GreaterThan(money(100)) {
			t.Fatalf("revenues %v: consistency %s out of bounds", revenues, metrics.ConsistencyScore)
		}
		if metrics.ProbabilityOfSuccess.IsNegative() || metrics.ProbabilityOfSuccess.GreaterThan(money(100)) {
			t.Fatalf("revenues %v: probability %s out of bounds", revenues, metrics.ProbabilityOfSuccess)
		}

		// A miss must leave the streak at zero when it is the last observed month
		last := metrics.Milestones[5]
		if last.IsMiss() && metrics.ConsecutiveGoalsMet != 0 {
			t.Fatalf("revenues %v: miss in last month but streak is %d", revenues, metrics.ConsecutiveGoalsMet)
		}
	}
}

func TestStreaks_NoDataMonthLeavesStreakUnchanged(t *testing.T) {
	ms := []journey.Milestone{
		{ProgramMonth: 1, Status: journey.StatusCompleted, Revenue: money(12000), Goal: money(10000), GoalMet: true},
		{ProgramMonth: 2, Status: journey.StatusCompleted, Revenue: decimal.Zero, Goal: money(10000)},
		{ProgramMonth: 3, Status: journey.StatusCurrent, Revenue: money(11000), Goal: money(10000), GoalMet: true},
	}

	stats := journey.ComputeStreaks(ms)
	if stats.ConsecutiveGoalsMet != 2 || stats.BestStreak != 2 {
		t.Errorf("expected streak 2 across the empty month, got current %d best %d", stats.ConsecutiveGoalsMet, stats.BestStreak)
	}
}

func TestConsistency_SingleObservationIsPerfect(t *testing.T) {
	ms := []journey.Milestone{
		{ProgramMonth: 1, Status: journey.StatusCurrent, Revenue: money(7000), Goal: money(10000)},
	}
	stats := journey.ComputeStreaks(ms)
	assertDecimal(t, "consistency", money(100), stats.ConsistencyScore)
	assertDecimal(t, "cv", decimal.Zero, stats.VarianceCoefficient)
}

func TestConsistency_PopulationStdDev(t *testing.T) {
	// mean 10000, population stddev 2000 -> CV 20, score 80
	cv := journey.CoefficientOfVariation([]decimal.Decimal{money(8000), money(12000)})
	assertDecimal(t, "cv", money(20), cv)
}

func TestConsistency_HugeRevenuesStayFinite(t *testing.T) {
	// GIVEN: Two months of revenue far beyond float64 range when squared
	// WHEN: Computing metrics
	// THEN: CV is scale independent (50) and nothing panics

	huge := func(month time.Month, s string) journey.MonthlyRecord {
		return journey.MonthlyRecord{
			UserID:  "mentee-1",
			Month:   month,
			Year:    2025,
			Revenue: decimal.RequireFromString(s),
			Goal:    decimal.RequireFromString("1e200"),
			Cycle:   journey.CycleCurrent,
		}
	}
	ledger := journey.NewLedger([]journey.MonthlyRecord{
		huge(time.January, "1e200"),
		huge(time.February, "3e200"),
	})

	metrics := engineAt(date(2025, time.March, 10)).Compute(mentorship(date(2025, time.January, 1)), ledger, journey.Journal{})
	if metrics == nil {
		t.Fatal("expected metrics, got nil")
	}
	assertDecimal(t, "cv", money(50), metrics.VarianceCoefficient)
	assertDecimal(t, "consistency", money(50), metrics.ConsistencyScore)
	assertDecimal(t, "growth", money(200), metrics.GrowthSinceStart)
}

func TestConsistency_HighVarianceFloorsAtZero(t *testing.T) {
	ms := []journey.Milestone{
		{ProgramMonth: 1, Status: journey.StatusCompleted, Revenue: money(100)},
		{ProgramMonth: 2, Status: journey.StatusCompleted, Revenue: money(100)},
		{ProgramMonth: 3, Status: journey.StatusCompleted, Revenue: money(100)},
		{ProgramMonth: 4, Status: journey.StatusCompleted, Revenue: money(100000)},
	}
	stats := journey.ComputeStreaks(ms)
	assertDecimal(t, "consistency", decimal.Zero, stats.ConsistencyScore)
	if !stats.VarianceCoefficient.GreaterThan(money(100)) {
		t.Errorf("expected CV above 100, got %s", stats.VarianceCoefficient)
	}
}

func TestProgress_ZeroGoal(t *testing.T) {
	start := date(2025, time.January, 1)
	ledger := journey.NewLedger([]journey.MonthlyRecord{row(time.January, 2025, 5000, 0)})
	metrics := engineAt(date(2025, time.January, 20)).Compute(mentorship(start), ledger, journey.Journal{})

	m := metrics.Milestones[0]
	assertDecimal(t, "progress", decimal.Zero, m.ProgressPercent)
	if m.GoalMet {
		t.Error("a zero goal is never met")
	}
}

func TestElapsedMonths(t *testing.T) {
	tests := []struct {
		start, now time.Time
		want       int
	}{
		{date(2025, time.January, 15), date(2025, time.January, 15), 0},
		{date(2025, time.January, 15), date(2025, time.February, 14), 0},
		{date(2025, time.January, 15), date(2025, time.February, 15), 1},
		{date(2024, time.November, 1), date(2025, time.February, 1), 3},
		{date(2025, time.March, 1), date(2025, time.January, 1), -2},
	}
	for _, tt := range tests {
		if got := journey.ElapsedMonths(tt.start, tt.now); got != tt.want {
			t.Errorf("ElapsedMonths(%s, %s) = %d, want %d", tt.start.Format("2006-01-02"), tt.now.Format("2006-01-02"), got, tt.want)
		}
	}
}
