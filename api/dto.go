/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the journey
  and achievements types from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY AND PERCENTAGES:
  decimal.Decimal marshals as a JSON string ("1234.5"), so clients never see
  float rounding.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/journey-engine/achievements"
	"github.com/warp/journey-engine/journey"
)

const dateLayout = "2006-01-02"

// =============================================================================
// CONFIGURATION
// =============================================================================

type MentorshipDTO struct {
	UserID         string `json:"user_id"`
	StartDate      string `json:"start_date,omitempty"`
	EndDate        string `json:"end_date,omitempty"`
	DurationMonths int    `json:"duration_months"`
	Configured     bool   `json:"configured"`
}

// SaveMentorshipRequest sets a program. An empty start date clears the
// journey without deleting records; zero duration uses the server default.
type SaveMentorshipRequest struct {
	StartDate      string `json:"start_date"`
	DurationMonths int    `json:"duration_months"`
}

// =============================================================================
// RECORDS
// =============================================================================

type LedgerRecordDTO struct {
	Month   int             `json:"month"`
	Year    int             `json:"year"`
	Revenue decimal.Decimal `json:"revenue"`
	Goal    decimal.Decimal `json:"goal"`
	Cycle   string          `json:"cycle"`
}

type SaveLedgerRequest struct {
	Month   int             `json:"month"`
	Year    int             `json:"year"`
	Revenue decimal.Decimal `json:"revenue"`
	Goal    decimal.Decimal `json:"goal"`
	Cycle   string          `json:"cycle,omitempty"`
}

type JournalEntryDTO struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Client      string          `json:"client,omitempty"`
	Description string          `json:"description,omitempty"`
}

type AddJournalRequest struct {
	ID          string          `json:"id,omitempty"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Client      string          `json:"client,omitempty"`
	Description string          `json:"description,omitempty"`
}

// =============================================================================
// JOURNEY
// =============================================================================

type MilestoneDTO struct {
	ProgramMonth       int              `json:"program_month"`
	Month              int              `json:"month"`
	Year               int              `json:"year"`
	Label              string           `json:"label"`
	Revenue            decimal.Decimal  `json:"revenue"`
	Goal               decimal.Decimal  `json:"goal"`
	GoalMet            bool             `json:"goal_met"`
	ProgressPercent    decimal.Decimal  `json:"progress_percent"`
	Status             string           `json:"status"`
	GrowthFromPrevious *decimal.Decimal `json:"growth_from_previous"`
	Source             string           `json:"source"`
	LedgerRevenue      decimal.Decimal  `json:"ledger_revenue"`
	JournalRevenue     decimal.Decimal  `json:"journal_revenue"`
}

type LeapDTO struct {
	FromMonth int             `json:"from_month"`
	ToMonth   int             `json:"to_month"`
	Growth    decimal.Decimal `json:"growth"`
}

// JourneyResponse is the dashboard payload. Configured=false carries no
// metrics.
type JourneyResponse struct {
	Configured bool        `json:"configured"`
	Journey    *JourneyDTO `json:"journey,omitempty"`
}

type JourneyDTO struct {
	CurrentMonth    int             `json:"current_month"`
	TotalMonths     int             `json:"total_months"`
	RemainingMonths int             `json:"remaining_months"`
	JourneyPercent  decimal.Decimal `json:"journey_percent"`
	IsComplete      bool            `json:"is_complete"`

	MonthsWithGoalMet   int `json:"months_with_goal_met"`
	ConsecutiveGoalsMet int `json:"consecutive_goals_met"`
	BestStreak          int `json:"best_streak"`

	GrowthSinceStart     decimal.Decimal `json:"growth_since_start"`
	AverageMonthlyGrowth decimal.Decimal `json:"average_monthly_growth"`
	BestMonth            *MilestoneDTO   `json:"best_month"`
	BiggestLeap          *LeapDTO        `json:"biggest_leap"`

	ConsistencyScore    decimal.Decimal `json:"consistency_score"`
	VarianceCoefficient decimal.Decimal `json:"variance_coefficient"`

	ProjectedEndResult   decimal.Decimal `json:"projected_end_result"`
	ProjectedTotalGrowth decimal.Decimal `json:"projected_total_growth"`
	ProbabilityOfSuccess decimal.Decimal `json:"probability_of_success"`

	Milestones []MilestoneDTO `json:"milestones"`
}

// =============================================================================
// ACHIEVEMENTS
// =============================================================================

type AchievementDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Requirement string          `json:"requirement"`
	Value       decimal.Decimal `json:"value"`
	IsUnlocked  bool            `json:"is_unlocked"`
	UnlockedAt  *time.Time      `json:"unlocked_at,omitempty"`
}

type AchievementsResponse struct {
	Configured    bool             `json:"configured"`
	Achievements  []AchievementDTO `json:"achievements"`
	NewlyUnlocked []AchievementDTO `json:"newly_unlocked"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
	UserID     string `json:"user_id,omitempty"` // defaults to the scenario ID
}

type LoadScenarioResponse struct {
	ScenarioID string `json:"scenario_id"`
	UserID     string `json:"user_id"`
	Records    int    `json:"records"`
	Entries    int    `json:"entries"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toMentorshipDTO(m journey.Mentorship) MentorshipDTO {
	dto := MentorshipDTO{
		UserID:         string(m.UserID),
		DurationMonths: m.Duration(),
		Configured:     m.IsConfigured(),
	}
	if m.IsConfigured() {
		dto.StartDate = m.StartDate.Format(dateLayout)
		dto.EndDate = m.EndDate().Format(dateLayout)
	}
	return dto
}

func toLedgerDTO(r journey.MonthlyRecord) LedgerRecordDTO {
	return LedgerRecordDTO{
		Month:   int(r.Month),
		Year:    r.Year,
		Revenue: r.Revenue,
		Goal:    r.Goal,
		Cycle:   string(r.Cycle),
	}
}

func toJournalDTO(e journey.JournalEntry) JournalEntryDTO {
	return JournalEntryDTO{
		ID:          e.ID,
		Date:        e.Date.Format(dateLayout),
		Amount:      e.Amount,
		Client:      e.Client,
		Description: e.Description,
	}
}

func toMilestoneDTO(m journey.Milestone) MilestoneDTO {
	return MilestoneDTO{
		ProgramMonth:       m.ProgramMonth,
		Month:              int(m.Month),
		Year:               m.Year,
		Label:              m.Label(),
		Revenue:            m.Revenue,
		Goal:               m.Goal,
		GoalMet:            m.GoalMet,
		ProgressPercent:    m.ProgressPercent,
		Status:             string(m.Status),
		GrowthFromPrevious: m.GrowthFromPrevious,
		Source:             string(m.Source),
		LedgerRevenue:      m.LedgerRevenue,
		JournalRevenue:     m.JournalRevenue,
	}
}

func toJourneyDTO(jm *journey.JourneyMetrics) *JourneyDTO {
	dto := &JourneyDTO{
		CurrentMonth:         jm.CurrentMonth,
		TotalMonths:          jm.TotalMonths,
		RemainingMonths:      jm.RemainingMonths,
		JourneyPercent:       jm.JourneyPercent,
		IsComplete:           jm.IsComplete,
		MonthsWithGoalMet:    jm.MonthsWithGoalMet,
		ConsecutiveGoalsMet:  jm.ConsecutiveGoalsMet,
		BestStreak:           jm.BestStreak,
		GrowthSinceStart:     jm.GrowthSinceStart,
		AverageMonthlyGrowth: jm.AverageMonthlyGrowth,
		ConsistencyScore:     jm.ConsistencyScore,
		VarianceCoefficient:  jm.VarianceCoefficient,
		ProjectedEndResult:   jm.ProjectedEndResult,
		ProjectedTotalGrowth: jm.ProjectedTotalGrowth,
		ProbabilityOfSuccess: jm.ProbabilityOfSuccess,
		Milestones:           make([]MilestoneDTO, len(jm.Milestones)),
	}
	for i, m := range jm.Milestones {
		dto.Milestones[i] = toMilestoneDTO(m)
	}
	if jm.BestMonth != nil {
		best := toMilestoneDTO(*jm.BestMonth)
		dto.BestMonth = &best
	}
	if jm.BiggestLeap != nil {
		dto.BiggestLeap = &LeapDTO{
			FromMonth: jm.BiggestLeap.FromMonth,
			ToMonth:   jm.BiggestLeap.ToMonth,
			Growth:    jm.BiggestLeap.Growth,
		}
	}
	return dto
}

func toAchievementDTOs(list []achievements.Achievement) []AchievementDTO {
	dtos := make([]AchievementDTO, len(list))
	for i, a := range list {
		dtos[i] = AchievementDTO{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Category:    string(a.Category),
			Requirement: string(a.Requirement.Type),
			Value:       a.Requirement.Value,
			IsUnlocked:  a.IsUnlocked,
			UnlockedAt:  a.UnlockedAt,
		}
	}
	return dtos
}
