/*
handlers.go - HTTP API handlers for the mentorship journey dashboard

PURPOSE:
  Exposes the journey engine and the achievement evaluator via REST API.
  Handles HTTP request/response and JSON serialization, loads inputs from
  the RecordStore and delegates all computation to journey.Engine.

ENDPOINTS:
  Configuration:
    GET    /api/users/{id}/mentorship    Program configuration (404 if none)
    PUT    /api/users/{id}/mentorship    Set start date and duration

  Records:
    GET    /api/users/{id}/ledger        Ledger rows
    POST   /api/users/{id}/ledger        Upsert a ledger row
    GET    /api/users/{id}/journal       Itemized sales
    POST   /api/users/{id}/journal       Add an itemized sale

  Journey:
    GET    /api/users/{id}/journey       Computed JourneyMetrics
    GET    /api/users/{id}/achievements  Evaluated catalogue with unlock history

  Scenarios:
    GET    /api/scenarios                List demo scenarios
    POST   /api/scenarios/load           Load a demo scenario for a user

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Load inputs (journey.LoadInputs) and compute
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Mentorship or scenario not found
  - 409: Duplicate journal entry
  - 500: Internal errors

  A user without a start date is not an error: journey and achievements
  respond 200 with "configured": false.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/warp/journey-engine/achievements"
	"github.com/warp/journey-engine/journey"
)

var (
	errInvalidCycle     = errors.New("cycle must be current or historical")
	errInvalidDate      = errors.New("date must be YYYY-MM-DD")
	errScenarioNotFound = errors.New("scenario not found")
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     journey.RecordStore
	Unlocks   achievements.UnlockStore
	Engine    *journey.Engine
	Tracker   *achievements.Tracker
	Catalogue []achievements.Definition
	Metrics   *Metrics
	Log       zerolog.Logger

	// DefaultDuration applies to mentorships saved without a length.
	DefaultDuration int
}

// Options configures NewHandler. Zero values fall back to the system clock,
// the built-in catalogue, a six-month program, a disabled logger and fresh
// metrics.
type Options struct {
	Clock           journey.Clock
	Catalogue       []achievements.Definition
	DefaultDuration int
	Logger          *zerolog.Logger
	Metrics         *Metrics
}

// NewHandler creates a new handler over the given stores.
func NewHandler(store journey.RecordStore, unlocks achievements.UnlockStore, opts Options) *Handler {
	clock := opts.Clock
	if clock == nil {
		clock = journey.SystemClock{}
	}
	catalogue := opts.Catalogue
	if len(catalogue) == 0 {
		catalogue = achievements.DefaultCatalogue()
	}
	duration := opts.DefaultDuration
	if duration < 1 {
		duration = journey.DefaultDurationMonths
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	return &Handler{
		Store:           store,
		Unlocks:         unlocks,
		Engine:          journey.NewEngine(clock),
		Tracker:         achievements.NewTracker(unlocks, clock),
		Catalogue:       catalogue,
		Metrics:         metrics,
		Log:             logger,
		DefaultDuration: duration,
	}
}

// =============================================================================
// JOURNEY SERVICE - Shared by handlers, the scheduler and the CLI
// =============================================================================

// ComputeJourney loads a user's inputs and computes the aggregate. A user
// without a mentorship or without a start date yields (nil, nil).
func (h *Handler) ComputeJourney(ctx context.Context, userID journey.UserID) (*journey.JourneyMetrics, error) {
	started := time.Now()

	inputs, err := journey.LoadInputs(ctx, h.Store, userID)
	if journey.IsNotFound(err) {
		h.Metrics.ObserveCompute("unconfigured", started)
		return nil, nil
	}
	if err != nil {
		h.Metrics.ObserveCompute("error", started)
		return nil, err
	}

	metrics := h.Engine.Compute(inputs.Mentorship, inputs.Ledger, inputs.Journal)
	if metrics == nil {
		h.Metrics.ObserveCompute("unconfigured", started)
		return nil, nil
	}
	h.Metrics.ObserveCompute("computed", started)
	return metrics, nil
}

// JourneyFor wraps ComputeJourney in the dashboard payload.
func (h *Handler) JourneyFor(ctx context.Context, userID journey.UserID) (*JourneyResponse, error) {
	metrics, err := h.ComputeJourney(ctx, userID)
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		return &JourneyResponse{Configured: false}, nil
	}
	return &JourneyResponse{Configured: true, Journey: toJourneyDTO(metrics)}, nil
}

// RefreshAchievements evaluates the catalogue, records first unlocks and
// returns the stamped list with the newly unlocked subset.
func (h *Handler) RefreshAchievements(ctx context.Context, userID journey.UserID) (*AchievementsResponse, error) {
	metrics, err := h.ComputeJourney(ctx, userID)
	if err != nil {
		return nil, err
	}

	evaluated := achievements.Evaluate(metrics, h.Catalogue)
	if metrics == nil {
		return &AchievementsResponse{
			Configured:    false,
			Achievements:  toAchievementDTOs(evaluated),
			NewlyUnlocked: []AchievementDTO{},
		}, nil
	}

	list, newly, err := h.Tracker.Record(ctx, userID, evaluated)
	if err != nil {
		return nil, err
	}
	for _, a := range newly {
		h.Metrics.Unlocks.WithLabelValues(a.ID).Inc()
		h.Log.Info().
			Str("user_id", string(userID)).
			Str("achievement", a.ID).
			Msg("achievement unlocked")
	}

	return &AchievementsResponse{
		Configured:    true,
		Achievements:  toAchievementDTOs(list),
		NewlyUnlocked: toAchievementDTOs(newly),
	}, nil
}

// =============================================================================
// HEALTH
// =============================================================================

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports liveness, including the database when the store supports it.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// MENTORSHIP HANDLERS
// =============================================================================

// GetMentorship returns a user's program configuration.
// GET /api/users/{id}/mentorship
func (h *Handler) GetMentorship(w http.ResponseWriter, r *http.Request) {
	m, err := h.Store.GetMentorship(r.Context(), userParam(r))
	if err != nil {
		h.handleError(w, "Failed to get mentorship", err)
		return
	}
	writeJSON(w, http.StatusOK, toMentorshipDTO(*m))
}

// SaveMentorship sets or replaces a user's program configuration.
// PUT /api/users/{id}/mentorship
func (h *Handler) SaveMentorship(w http.ResponseWriter, r *http.Request) {
	var req SaveMentorshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	m := journey.Mentorship{UserID: userParam(r), DurationMonths: req.DurationMonths}
	if m.DurationMonths == 0 {
		m.DurationMonths = h.DefaultDuration
	}
	if req.StartDate != "" {
		start, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_date", errInvalidDate)
			return
		}
		m.StartDate = start
	}

	if err := h.Store.SaveMentorship(r.Context(), m); err != nil {
		h.handleError(w, "Failed to save mentorship", err)
		return
	}
	writeJSON(w, http.StatusOK, toMentorshipDTO(m))
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// ListLedger returns a user's ledger rows.
// GET /api/users/{id}/ledger
func (h *Handler) ListLedger(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListRecords(r.Context(), userParam(r))
	if err != nil {
		h.handleError(w, "Failed to list ledger", err)
		return
	}

	dtos := make([]LedgerRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toLedgerDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveLedgerRecord upserts a ledger row.
// POST /api/users/{id}/ledger
func (h *Handler) SaveLedgerRecord(w http.ResponseWriter, r *http.Request) {
	var req SaveLedgerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cycle, err := parseCycle(req.Cycle)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cycle", err)
		return
	}

	rec := journey.MonthlyRecord{
		UserID:  userParam(r),
		Month:   time.Month(req.Month),
		Year:    req.Year,
		Revenue: req.Revenue,
		Goal:    req.Goal,
		Cycle:   cycle,
	}
	if err := h.Store.SaveRecord(r.Context(), rec); err != nil {
		h.handleError(w, "Failed to save ledger record", err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerDTO(rec))
}

// =============================================================================
// JOURNAL HANDLERS
// =============================================================================

// ListJournal returns a user's itemized sales.
// GET /api/users/{id}/journal
func (h *Handler) ListJournal(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.ListEntries(r.Context(), userParam(r))
	if err != nil {
		h.handleError(w, "Failed to list journal", err)
		return
	}

	dtos := make([]JournalEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toJournalDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddJournalEntry records an itemized sale.
// POST /api/users/{id}/journal
func (h *Handler) AddJournalEntry(w http.ResponseWriter, r *http.Request) {
	var req AddJournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", errInvalidDate)
		return
	}

	entry := journey.JournalEntry{
		ID:          req.ID,
		UserID:      userParam(r),
		Date:        date,
		Amount:      req.Amount,
		Client:      req.Client,
		Description: req.Description,
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	if err := h.Store.AddEntry(r.Context(), entry); err != nil {
		h.handleError(w, "Failed to add journal entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toJournalDTO(entry))
}

// =============================================================================
// JOURNEY HANDLERS
// =============================================================================

// GetJourney returns the computed journey.
// GET /api/users/{id}/journey
func (h *Handler) GetJourney(w http.ResponseWriter, r *http.Request) {
	resp, err := h.JourneyFor(r.Context(), userParam(r))
	if err != nil {
		h.handleError(w, "Failed to compute journey", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAchievements returns the evaluated catalogue. Each call records first
// unlocks, so newly_unlocked is non-empty only on the first call after an
// achievement's rule starts to hold.
// GET /api/users/{id}/achievements
func (h *Handler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	resp, err := h.RefreshAchievements(r.Context(), userParam(r))
	if err != nil {
		h.handleError(w, "Failed to evaluate achievements", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func userParam(r *http.Request) journey.UserID {
	return journey.UserID(chi.URLParam(r, "id"))
}

func parseCycle(s string) (journey.Cycle, error) {
	switch journey.Cycle(s) {
	case "", journey.CycleCurrent:
		return journey.CycleCurrent, nil
	case journey.CycleHistorical:
		return journey.CycleHistorical, nil
	default:
		return "", errInvalidCycle
	}
}

// handleError maps domain errors onto HTTP status codes.
func (h *Handler) handleError(w http.ResponseWriter, message string, err error) {
	switch {
	case journey.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case journey.IsNotFound(err), errors.Is(err, errScenarioNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case journey.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		h.Log.Error().Err(err).Msg(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
