/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists the journey engine's inputs and the achievement unlock history.
  The engine itself never touches the database: handlers and the scheduler
  load rows through journey.LoadInputs and hand plain values to Compute.

INTERFACES IMPLEMENTED:
  journey.RecordStore:       Mentorships, ledger rows, journal entries
  achievements.UnlockStore:  First-unlock timestamps

KEY TABLES:
  mentorships:         One program configuration per user
  ledger_records:      Monthly revenue/goal rows, one per (user, month, year, cycle)
  journal_entries:     Itemized sales
  achievement_unlocks: One row per (user, achievement)

AMOUNTS:
  Revenue, goal and sale amounts are stored as decimal TEXT and summed in Go.
  SQLite's SUM would go through REAL and lose cents.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of WAL mode.

USAGE:
  store, err := sqlite.New("./data/journey.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  inputs, err := journey.LoadInputs(ctx, store, userID)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - journey/store.go: RecordStore contract
  - achievements/tracker.go: UnlockStore contract
  - journey/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/journey-engine/achievements"
	"github.com/warp/journey-engine/journey"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ journey.RecordStore      = (*Store)(nil)
	_ achievements.UnlockStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS mentorships (
		user_id TEXT PRIMARY KEY,
		start_date TEXT,
		duration_months INTEGER NOT NULL DEFAULT 6,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ledger_records (
		user_id TEXT NOT NULL,
		month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
		year INTEGER NOT NULL,
		cycle TEXT NOT NULL DEFAULT 'current',
		revenue TEXT NOT NULL,
		goal TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(user_id, month, year, cycle)
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_user_period
		ON ledger_records(user_id, year, month);

	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		entry_month TEXT NOT NULL,
		amount TEXT NOT NULL,
		client TEXT,
		description TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot path: monthly totals over the program window
	CREATE INDEX IF NOT EXISTS idx_journal_user_month
		ON journal_entries(user_id, entry_month);

	CREATE TABLE IF NOT EXISTS achievement_unlocks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		achievement_id TEXT NOT NULL,
		unlocked_at TEXT NOT NULL,
		UNIQUE(user_id, achievement_id)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// MENTORSHIPS
// =============================================================================

func (s *Store) GetMentorship(ctx context.Context, userID journey.UserID) (*journey.Mentorship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		m         = journey.Mentorship{UserID: userID}
		startDate sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT start_date, duration_months FROM mentorships WHERE user_id = ?",
		userID,
	).Scan(&startDate, &m.DurationMonths)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, journey.ErrMentorshipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mentorship: %w", err)
	}
	if m.StartDate, err = parseTime(startDate); err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveMentorship inserts or replaces a user's configuration.
func (s *Store) SaveMentorship(ctx context.Context, m journey.Mentorship) error {
	if err := journey.ValidateMentorship(m); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO mentorships (user_id, start_date, duration_months, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			start_date = excluded.start_date,
			duration_months = excluded.duration_months,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		m.UserID, formatTime(m.StartDate), m.DurationMonths, now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save mentorship: %w", err)
	}
	return nil
}

func (s *Store) ListMentorships(ctx context.Context) ([]journey.Mentorship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, start_date, duration_months FROM mentorships ORDER BY user_id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query mentorships: %w", err)
	}
	defer rows.Close()

	var result []journey.Mentorship
	for rows.Next() {
		var (
			m         journey.Mentorship
			startDate sql.NullString
		)
		if err := rows.Scan(&m.UserID, &startDate, &m.DurationMonths); err != nil {
			return nil, fmt.Errorf("failed to scan mentorship: %w", err)
		}
		if m.StartDate, err = parseTime(startDate); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// =============================================================================
// LEDGER RECORDS
// =============================================================================

// SaveRecord upserts a ledger row by (user, month, year, cycle).
func (s *Store) SaveRecord(ctx context.Context, r journey.MonthlyRecord) error {
	if err := journey.ValidateRecord(r); err != nil {
		return err
	}
	if r.Cycle == "" {
		r.Cycle = journey.CycleCurrent
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO ledger_records (user_id, month, year, cycle, revenue, goal, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, month, year, cycle) DO UPDATE SET
			revenue = excluded.revenue,
			goal = excluded.goal,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		r.UserID, int(r.Month), r.Year, r.Cycle,
		r.Revenue.String(), r.Goal.String(), now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save ledger record: %w", err)
	}
	return nil
}

// ListRecords returns a user's rows ordered by year, month.
func (s *Store) ListRecords(ctx context.Context, userID journey.UserID) ([]journey.MonthlyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT month, year, cycle, revenue, goal
		FROM ledger_records
		WHERE user_id = ?
		ORDER BY year ASC, month ASC, cycle ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger records: %w", err)
	}
	defer rows.Close()

	var result []journey.MonthlyRecord
	for rows.Next() {
		var (
			r             = journey.MonthlyRecord{UserID: userID}
			month         int
			revenue, goal string
		)
		if err := rows.Scan(&month, &r.Year, &r.Cycle, &revenue, &goal); err != nil {
			return nil, fmt.Errorf("failed to scan ledger record: %w", err)
		}
		r.Month = time.Month(month)
		if r.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, fmt.Errorf("corrupt revenue %q: %w", revenue, err)
		}
		if r.Goal, err = decimal.NewFromString(goal); err != nil {
			return nil, fmt.Errorf("corrupt goal %q: %w", goal, err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// =============================================================================
// JOURNAL ENTRIES
// =============================================================================

// AddEntry appends an itemized sale. An empty ID is assigned a UUID; a
// reused ID returns journey.ErrDuplicateRecord.
func (s *Store) AddEntry(ctx context.Context, e journey.JournalEntry) error {
	if err := journey.ValidateEntry(e); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO journal_entries
		(id, user_id, entry_date, entry_month, amount, client, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.UserID, e.Date.Format(time.RFC3339),
		journey.MonthOf(e.Date).String(), e.Amount.String(),
		nullString(e.Client), nullString(e.Description), now(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return journey.ErrDuplicateRecord
		}
		return fmt.Errorf("failed to add journal entry: %w", err)
	}
	return nil
}

// ListEntries returns a user's entries ordered by date.
func (s *Store) ListEntries(ctx context.Context, userID journey.UserID) ([]journey.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, entry_date, amount, client, description
		FROM journal_entries
		WHERE user_id = ?
		ORDER BY entry_date ASC, created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	var result []journey.JournalEntry
	for rows.Next() {
		var (
			e                   = journey.JournalEntry{UserID: userID}
			date, amount        string
			client, description sql.NullString
		)
		if err := rows.Scan(&e.ID, &date, &amount, &client, &description); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		if e.Date, err = time.Parse(time.RFC3339, date); err != nil {
			return nil, fmt.Errorf("corrupt entry date %q: %w", date, err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt amount %q: %w", amount, err)
		}
		e.Client = client.String
		e.Description = description.String
		result = append(result, e)
	}
	return result, rows.Err()
}

// JournalTotals sums a user's entries by month over [from, to].
func (s *Store) JournalTotals(ctx context.Context, userID journey.UserID, from, to journey.Month) (map[journey.Month]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT entry_month, amount
		FROM journal_entries
		WHERE user_id = ? AND entry_month >= ? AND entry_month <= ?
	`
	rows, err := s.db.QueryContext(ctx, query, userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query journal totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[journey.Month]decimal.Decimal)
	for rows.Next() {
		var key, amount string
		if err := rows.Scan(&key, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan journal total: %w", err)
		}
		month, err := journey.ParseMonth(key)
		if err != nil {
			return nil, err
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount %q: %w", amount, err)
		}
		totals[month] = totals[month].Add(value)
	}
	return totals, rows.Err()
}

// =============================================================================
// ACHIEVEMENT UNLOCKS
// =============================================================================

func (s *Store) ListUnlocks(ctx context.Context, userID journey.UserID) ([]achievements.Unlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, achievement_id, unlocked_at FROM achievement_unlocks WHERE user_id = ? ORDER BY unlocked_at ASC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query unlocks: %w", err)
	}
	defer rows.Close()

	var result []achievements.Unlock
	for rows.Next() {
		var (
			u  = achievements.Unlock{UserID: userID}
			at string
		)
		if err := rows.Scan(&u.ID, &u.AchievementID, &at); err != nil {
			return nil, fmt.Errorf("failed to scan unlock: %w", err)
		}
		if u.UnlockedAt, err = time.Parse(time.RFC3339, at); err != nil {
			return nil, fmt.Errorf("corrupt unlocked_at %q: %w", at, err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// SaveUnlock records a first unlock. A repeat returns journey.ErrDuplicateRecord.
func (s *Store) SaveUnlock(ctx context.Context, u achievements.Unlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO achievement_unlocks (id, user_id, achievement_id, unlocked_at) VALUES (?, ?, ?, ?)",
		u.ID, u.UserID, u.AchievementID, u.UnlockedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return journey.ErrDuplicateRecord
		}
		return fmt.Errorf("failed to save unlock: %w", err)
	}
	return nil
}

func (s *Store) DeleteUnlocks(ctx context.Context, userID journey.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM achievement_unlocks WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete unlocks: %w", err)
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// DeleteUser removes a user's configuration, ledger rows and journal entries
// in one transaction.
func (s *Store) DeleteUser(ctx context.Context, userID journey.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"mentorships", "ledger_records", "journal_entries"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = ?", userID); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"achievement_unlocks", "journal_entries", "ledger_records", "mentorships"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func formatTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func parseTime(ns sql.NullString) (time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt timestamp %q: %w", ns.String, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
