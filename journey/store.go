/*
store.go - Storage collaborator interface

PURPOSE:
  The engine performs no I/O. Records come from a storage collaborator
  reachable by user and period; this file defines that contract and a
  helper that loads everything one Compute call needs.

KEY INTERFACES:
  RecordStore: mentorship configuration, ledger rows, journal entries

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - journey/store/memory.go: In-memory for testing

SEE ALSO:
  - engine.go: Consumes the loaded Ledger and Journal
*/
package journey

import (
	"context"

	"github.com/shopspring/decimal"
)

// RecordStore persists the engine's inputs.
type RecordStore interface {
	// GetMentorship returns ErrMentorshipNotFound when none is configured.
	GetMentorship(ctx context.Context, userID UserID) (*Mentorship, error)
	SaveMentorship(ctx context.Context, m Mentorship) error
	ListMentorships(ctx context.Context) ([]Mentorship, error)

	// SaveRecord upserts by (user, month, year, cycle).
	SaveRecord(ctx context.Context, r MonthlyRecord) error
	ListRecords(ctx context.Context, userID UserID) ([]MonthlyRecord, error)

	// AddEntry appends an itemized sale. Returns ErrDuplicateRecord for a
	// reused ID.
	AddEntry(ctx context.Context, e JournalEntry) error
	ListEntries(ctx context.Context, userID UserID) ([]JournalEntry, error)

	// JournalTotals sums entries by month over [from, to].
	JournalTotals(ctx context.Context, userID UserID, from, to Month) (map[Month]decimal.Decimal, error)

	// DeleteUser drops a user's configuration, rows and entries.
	DeleteUser(ctx context.Context, userID UserID) error
}

// Inputs is everything Compute needs for one user.
type Inputs struct {
	Mentorship Mentorship
	Ledger     Ledger
	Journal    Journal
}

// LoadInputs reads a user's configuration and the records covering the
// program window. A missing mentorship is returned as ErrMentorshipNotFound.
func LoadInputs(ctx context.Context, s RecordStore, userID UserID) (*Inputs, error) {
	m, err := s.GetMentorship(ctx, userID)
	if err != nil {
		return nil, err
	}

	records, err := s.ListRecords(ctx, userID)
	if err != nil {
		return nil, err
	}

	from := MonthOf(m.StartDate)
	to := from.AddMonths(m.Duration() - 1)
	totals, err := s.JournalTotals(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	return &Inputs{
		Mentorship: *m,
		Ledger:     NewLedger(records),
		Journal:    NewJournal(totals),
	}, nil
}
