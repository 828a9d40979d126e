// Package store provides RecordStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/journey-engine/journey"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	mentorships map[journey.UserID]journey.Mentorship
	records     map[recordKey]journey.MonthlyRecord
	entries     map[journey.UserID][]journey.JournalEntry
	entryIDs    map[string]bool
}

type recordKey struct {
	UserID journey.UserID
	Year   int
	Month  int
	Cycle  journey.Cycle
}

func NewMemory() *Memory {
	return &Memory{
		mentorships: make(map[journey.UserID]journey.Mentorship),
		records:     make(map[recordKey]journey.MonthlyRecord),
		entries:     make(map[journey.UserID][]journey.JournalEntry),
		entryIDs:    make(map[string]bool),
	}
}

var _ journey.RecordStore = (*Memory)(nil)

func (m *Memory) GetMentorship(_ context.Context, userID journey.UserID) (*journey.Mentorship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ms, ok := m.mentorships[userID]
	if !ok {
		return nil, journey.ErrMentorshipNotFound
	}
	return &ms, nil
}

func (m *Memory) SaveMentorship(_ context.Context, ms journey.Mentorship) error {
	if err := journey.ValidateMentorship(ms); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mentorships[ms.UserID] = ms
	return nil
}

func (m *Memory) ListMentorships(_ context.Context) ([]journey.Mentorship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]journey.Mentorship, 0, len(m.mentorships))
	for _, ms := range m.mentorships {
		result = append(result, ms)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

// SaveRecord upserts a ledger row.
func (m *Memory) SaveRecord(_ context.Context, r journey.MonthlyRecord) error {
	if err := journey.ValidateRecord(r); err != nil {
		return err
	}
	if r.Cycle == "" {
		r.Cycle = journey.CycleCurrent
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[recordKey{UserID: r.UserID, Year: r.Year, Month: int(r.Month), Cycle: r.Cycle}] = r
	return nil
}

// ListRecords returns a user's rows ordered by year, month.
func (m *Memory) ListRecords(_ context.Context, userID journey.UserID) ([]journey.MonthlyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []journey.MonthlyRecord
	for k, r := range m.records {
		if k.UserID == userID {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year < result[j].Year
		}
		if result[i].Month != result[j].Month {
			return result[i].Month < result[j].Month
		}
		return result[i].Cycle < result[j].Cycle
	})
	return result, nil
}

// AddEntry appends a journal entry, keeping the user's entries sorted by date.
// An empty ID is assigned a UUID.
func (m *Memory) AddEntry(_ context.Context, e journey.JournalEntry) error {
	if err := journey.ValidateEntry(e); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.entryIDs[e.ID] {
		return journey.ErrDuplicateRecord
	}

	entries := m.entries[e.UserID]
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].Date.After(e.Date)
	})
	entries = append(entries, journey.JournalEntry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = e
	m.entries[e.UserID] = entries

	m.entryIDs[e.ID] = true
	return nil
}

func (m *Memory) ListEntries(_ context.Context, userID journey.UserID) ([]journey.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]journey.JournalEntry, len(m.entries[userID]))
	copy(result, m.entries[userID])
	return result, nil
}

func (m *Memory) JournalTotals(_ context.Context, userID journey.UserID, from, to journey.Month) (map[journey.Month]decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var inRange []journey.JournalEntry
	for _, e := range m.entries[userID] {
		month := journey.MonthOf(e.Date)
		if !month.Before(from) && !month.After(to) {
			inRange = append(inRange, e)
		}
	}
	return journey.AggregateJournal(inRange).Totals(), nil
}

func (m *Memory) DeleteUser(_ context.Context, userID journey.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.mentorships, userID)
	for k := range m.records {
		if k.UserID == userID {
			delete(m.records, k)
		}
	}
	for _, e := range m.entries[userID] {
		delete(m.entryIDs, e.ID)
	}
	delete(m.entries, userID)
	return nil
}
