/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built datasets that populate one user's mentorship, ledger
  and journal with data demonstrating a specific engine behavior. Dates are
  relative to the engine clock so a scenario looks the same whenever it is
  loaded.

AVAILABLE SCENARIOS:
  all-goals-met:      Six completed months, every goal met
  journal-fills-gap:  Ledger month 3 empty, journal sales supply 12000
  leap-then-drop:     10000, 10000, 15000, 10000 with a miss after the jump
  no-first-month:     No data in month 1, growth guards resolve to zero
  perfect-month:      119.9999% one month, 125% the next

HOW SCENARIOS WORK:
  1. Delete the user's existing data and unlock history
  2. Save the mentorship
  3. Upsert ledger rows
  4. Add journal entries

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "leap-then-drop", "user_id": "demo"}

NOTE:
  Loading replaces the target user's data. Only use in development/demo
  environments.

SEE ALSO:
  - handlers.go: Handler context
  - cmd/journeyd: "scenarios" command
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/journey-engine/journey"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// Dataset is everything a scenario writes for one user.
type Dataset struct {
	Mentorship journey.Mentorship
	Records    []journey.MonthlyRecord
	Entries    []journey.JournalEntry
}

// Scenario builds a Dataset relative to now.
type Scenario struct {
	ID          string
	Name        string
	Description string
	Build       func(userID journey.UserID, now time.Time) Dataset
}

// Scenarios lists the demo datasets in display order.
var Scenarios = []Scenario{
	{
		ID:          "all-goals-met",
		Name:        "All Goals Met",
		Description: "Program started six months ago, every month at or above goal",
		Build:       buildAllGoalsMet,
	},
	{
		ID:          "journal-fills-gap",
		Name:        "Journal Fills the Gap",
		Description: "Month 3 ledger is empty; itemized sales total 12000 against a 10000 goal",
		Build:       buildJournalFillsGap,
	},
	{
		ID:          "leap-then-drop",
		Name:        "Leap Then Drop",
		Description: "A 50% jump in month 3 followed by a missed month 4",
		Build:       buildLeapThenDrop,
	},
	{
		ID:          "no-first-month",
		Name:        "No First Month",
		Description: "Nothing recorded in month 1; growth since start stays at zero",
		Build:       buildNoFirstMonth,
	},
	{
		ID:          "perfect-month",
		Name:        "Perfect Month",
		Description: "119.9999% of goal in month 1, 125% in month 2",
		Build:       buildPerfectMonth,
	},
}

// FindScenario returns the scenario with the given ID.
func FindScenario(id string) (Scenario, bool) {
	for _, s := range Scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(Scenarios))
	for i, s := range Scenarios {
		dtos[i] = ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadScenario replaces a user's data with a scenario dataset.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp, err := h.LoadScenarioFor(r.Context(), req.ScenarioID, journey.UserID(req.UserID))
	if err != nil {
		h.handleError(w, "Failed to load scenario", err)
		return
	}

	h.Log.Info().
		Str("scenario", resp.ScenarioID).
		Str("user_id", resp.UserID).
		Msg("scenario loaded")
	writeJSON(w, http.StatusOK, resp)
}

// LoadScenarioFor writes a scenario for userID, defaulting to the scenario ID.
func (h *Handler) LoadScenarioFor(ctx context.Context, scenarioID string, userID journey.UserID) (*LoadScenarioResponse, error) {
	s, ok := FindScenario(scenarioID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errScenarioNotFound, scenarioID)
	}
	if userID == "" {
		userID = journey.UserID(s.ID)
	}

	if err := h.Store.DeleteUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to clear user: %w", err)
	}
	if err := h.Unlocks.DeleteUnlocks(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to clear unlocks: %w", err)
	}

	ds := s.Build(userID, h.Engine.Clock.Now())
	if err := h.Store.SaveMentorship(ctx, ds.Mentorship); err != nil {
		return nil, err
	}
	for _, rec := range ds.Records {
		if err := h.Store.SaveRecord(ctx, rec); err != nil {
			return nil, err
		}
	}
	for _, e := range ds.Entries {
		if err := h.Store.AddEntry(ctx, e); err != nil {
			return nil, err
		}
	}

	return &LoadScenarioResponse{
		ScenarioID: s.ID,
		UserID:     string(userID),
		Records:    len(ds.Records),
		Entries:    len(ds.Entries),
	}, nil
}

// =============================================================================
// SCENARIO BUILDERS
// =============================================================================

// programStart returns the first day of the month monthsAgo months before now.
func programStart(now time.Time, monthsAgo int) time.Time {
	return journey.MonthOf(now).AddMonths(-monthsAgo).Time()
}

// ledgerRows builds consecutive rows from start against a single goal.
func ledgerRows(userID journey.UserID, start time.Time, goal string, revenues ...string) []journey.MonthlyRecord {
	rows := make([]journey.MonthlyRecord, len(revenues))
	for i, rev := range revenues {
		month := journey.MonthOf(start).AddMonths(i)
		rows[i] = journey.MonthlyRecord{
			UserID:  userID,
			Month:   month.Calendar(),
			Year:    month.Year(),
			Revenue: decimal.RequireFromString(rev),
			Goal:    decimal.RequireFromString(goal),
			Cycle:   journey.CycleCurrent,
		}
	}
	return rows
}

func sixMonths(userID journey.UserID, start time.Time) journey.Mentorship {
	return journey.Mentorship{UserID: userID, StartDate: start, DurationMonths: journey.DefaultDurationMonths}
}

func buildAllGoalsMet(userID journey.UserID, now time.Time) Dataset {
	start := programStart(now, 6)
	return Dataset{
		Mentorship: sixMonths(userID, start),
		Records:    ledgerRows(userID, start, "10000", "10500", "11000", "10000", "12500", "13000", "14200"),
	}
}

func buildJournalFillsGap(userID journey.UserID, now time.Time) Dataset {
	start := programStart(now, 3)
	third := journey.MonthOf(start).AddMonths(2).Time()
	return Dataset{
		Mentorship: sixMonths(userID, start),
		Records:    ledgerRows(userID, start, "10000", "9000", "10200", "0"),
		Entries: []journey.JournalEntry{
			{ID: string(userID) + "-sale-1", UserID: userID, Date: third.AddDate(0, 0, 4), Amount: decimal.NewFromInt(4500), Client: "Northwind", Description: "Quarterly retainer"},
			{ID: string(userID) + "-sale-2", UserID: userID, Date: third.AddDate(0, 0, 11), Amount: decimal.NewFromInt(3500), Client: "Contoso", Description: "Workshop"},
			{ID: string(userID) + "-sale-3", UserID: userID, Date: third.AddDate(0, 0, 20), Amount: decimal.NewFromInt(4000), Client: "Fabrikam", Description: "Audit"},
		},
	}
}

func buildLeapThenDrop(userID journey.UserID, now time.Time) Dataset {
	start := programStart(now, 3)
	return Dataset{
		Mentorship: sixMonths(userID, start),
		Records:    ledgerRows(userID, start, "12000", "10000", "10000", "15000", "10000"),
	}
}

func buildNoFirstMonth(userID journey.UserID, now time.Time) Dataset {
	start := programStart(now, 3)
	return Dataset{
		Mentorship: sixMonths(userID, start),
		Records:    ledgerRows(userID, start, "10000", "0", "8000", "9500", "11000"),
	}
}

func buildPerfectMonth(userID journey.UserID, now time.Time) Dataset {
	start := programStart(now, 1)
	return Dataset{
		Mentorship: sixMonths(userID, start),
		Records:    ledgerRows(userID, start, "10000", "11999.99", "12500"),
	}
}
