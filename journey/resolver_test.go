package journey_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/journey-engine/journey"
	"github.com/warp/journey-engine/journey/store"
)

func TestReconcile_LargerSourceWins(t *testing.T) {
	tests := []struct {
		name           string
		ledger, journal int64
		wantRevenue    int64
		wantSource     journey.Source
	}{
		{"both zero", 0, 0, 0, journey.SourceNone},
		{"ledger only", 9000, 0, 9000, journey.SourceLedger},
		{"journal only", 0, 12000, 12000, journey.SourceJournal},
		{"journal larger", 9000, 12000, 12000, journey.SourceJournal},
		{"ledger larger", 15000, 12000, 15000, journey.SourceLedger},
		{"tie favors ledger", 12000, 12000, 12000, journey.SourceLedger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			revenue, source := journey.Reconcile(money(tt.ledger), money(tt.journal))
			assertDecimal(t, "revenue", money(tt.wantRevenue), revenue)
			if source != tt.wantSource {
				t.Errorf("expected source %s, got %s", tt.wantSource, source)
			}

			// Same inputs, same answer
			again, sourceAgain := journey.Reconcile(money(tt.ledger), money(tt.journal))
			if !again.Equal(revenue) || sourceAgain != source {
				t.Error("reconciliation is not idempotent")
			}
		})
	}
}

func TestResolver_CurrentCycleBeforeHistorical(t *testing.T) {
	ledger := journey.NewLedger([]journey.MonthlyRecord{
		{Month: time.May, Year: 2024, Revenue: money(3000), Goal: money(5000), Cycle: journey.CycleHistorical},
		{Month: time.May, Year: 2024, Revenue: money(7000), Goal: money(6000), Cycle: journey.CycleCurrent},
		{Month: time.June, Year: 2024, Revenue: money(4000), Goal: money(5000), Cycle: journey.CycleHistorical},
	})
	r := journey.NewMaxResolver(ledger, journey.Journal{})

	may := r.Resolve(time.May, 2024)
	assertDecimal(t, "may revenue", money(7000), may.Revenue)
	assertDecimal(t, "may goal", money(6000), may.Goal)

	june := r.Resolve(time.June, 2024)
	assertDecimal(t, "june revenue from historical", money(4000), june.Revenue)
	if june.Source != journey.SourceLedger {
		t.Errorf("expected ledger source, got %s", june.Source)
	}
}

func TestResolver_GoalAlwaysFromLedger(t *testing.T) {
	ledger := journey.NewLedger([]journey.MonthlyRecord{
		{Month: time.March, Year: 2025, Revenue: decimal.Zero, Goal: money(10000)},
	})
	journal := journey.AggregateJournal([]journey.JournalEntry{
		sale(date(2025, time.March, 10), 12000),
	})

	rm := journey.NewMaxResolver(ledger, journal).Resolve(time.March, 2025)
	assertDecimal(t, "goal", money(10000), rm.Goal)
	if rm.Source != journey.SourceJournal {
		t.Errorf("expected journal source, got %s", rm.Source)
	}

	empty := journey.NewMaxResolver(journey.Ledger{}, journal).Resolve(time.April, 2025)
	if empty.Source != journey.SourceNone || !empty.Goal.IsZero() {
		t.Errorf("expected empty month, got %+v", empty)
	}
}

func TestAggregateJournal_SumsByCalendarMonth(t *testing.T) {
	journal := journey.AggregateJournal([]journey.JournalEntry{
		sale(date(2025, time.January, 2), 1000),
		sale(date(2025, time.January, 31), 2500),
		sale(date(2024, time.January, 15), 9999),
		sale(date(2025, time.February, 1), 400),
	})

	assertDecimal(t, "jan 2025", money(3500), journal.Revenue(time.January, 2025))
	assertDecimal(t, "jan 2024", money(9999), journal.Revenue(time.January, 2024))
	assertDecimal(t, "feb 2025", money(400), journal.Revenue(time.February, 2025))
	assertDecimal(t, "mar 2025", decimal.Zero, journal.Revenue(time.March, 2025))
}

func TestLoadInputs_FromMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	start := date(2025, time.January, 1)
	if err := s.SaveMentorship(ctx, mentorship(start)); err != nil {
		t.Fatalf("save mentorship: %v", err)
	}
	if err := s.SaveRecord(ctx, row(time.January, 2025, 9000, 10000)); err != nil {
		t.Fatalf("save record: %v", err)
	}
	for _, e := range []journey.JournalEntry{
		{ID: "s1", UserID: "mentee-1", Date: date(2025, time.January, 5), Amount: money(6000)},
		{ID: "s2", UserID: "mentee-1", Date: date(2025, time.January, 25), Amount: money(5000)},
		{ID: "s3", UserID: "mentee-1", Date: date(2025, time.August, 1), Amount: money(50000)},
	} {
		if err := s.AddEntry(ctx, e); err != nil {
			t.Fatalf("add entry: %v", err)
		}
	}

	in, err := journey.LoadInputs(ctx, s, "mentee-1")
	if err != nil {
		t.Fatalf("load inputs: %v", err)
	}
	assertDecimal(t, "january journal", money(11000), in.Journal.Revenue(time.January, 2025))
	assertDecimal(t, "out-of-window journal", decimal.Zero, in.Journal.Revenue(time.August, 2025))

	metrics := engineAt(date(2025, time.February, 3)).Compute(in.Mentorship, in.Ledger, in.Journal)
	first := metrics.Milestones[0]
	assertDecimal(t, "january revenue", money(11000), first.Revenue)
	if !first.GoalMet {
		t.Error("journal total should carry January over its goal")
	}

	if _, err := journey.LoadInputs(ctx, s, "nobody"); !journey.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestMemoryStore_AddEntryAssignsID(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	// GIVEN: Two entries without IDs and one duplicate of an explicit ID
	for i := 0; i < 2; i++ {
		if err := s.AddEntry(ctx, sale(date(2025, time.January, 5), 100)); err != nil {
			t.Fatalf("add entry: %v", err)
		}
	}
	if err := s.AddEntry(ctx, journey.JournalEntry{ID: "s1", UserID: "mentee-1", Date: date(2025, time.January, 6), Amount: money(1)}); err != nil {
		t.Fatalf("add entry: %v", err)
	}
	err := s.AddEntry(ctx, journey.JournalEntry{ID: "s1", UserID: "mentee-1", Date: date(2025, time.January, 7), Amount: money(1)})
	if !journey.IsConflict(err) {
		t.Errorf("expected duplicate error, got %v", err)
	}

	// THEN: Every stored entry has a distinct ID
	entries, err := s.ListEntries(ctx, "mentee-1")
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	seen := make(map[string]bool)
	for _, e := range entries {
		if e.ID == "" || seen[e.ID] {
			t.Errorf("entry ID %q is empty or repeated", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestValidateRecord(t *testing.T) {
	err := journey.ValidateRecord(journey.MonthlyRecord{Month: 13, Year: 2025})
	if !journey.IsClientError(err) {
		t.Errorf("expected client error for month 13, got %v", err)
	}
	err = journey.ValidateRecord(journey.MonthlyRecord{Month: time.May, Year: 2025, Revenue: money(-1)})
	if !journey.IsClientError(err) {
		t.Errorf("expected client error for negative revenue, got %v", err)
	}
	if err := journey.ValidateRecord(row(time.May, 2025, 10, 10)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
