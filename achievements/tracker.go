package achievements

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/journey-engine/journey"
)

// =============================================================================
// UNLOCK HISTORY - Outside the evaluator, owned by the caller
// =============================================================================

// Unlock records the first time an achievement was seen unlocked.
type Unlock struct {
	ID            string
	UserID        journey.UserID
	AchievementID string
	UnlockedAt    time.Time
}

// UnlockStore persists unlock history. SaveUnlock returns
// journey.ErrDuplicateRecord when (user, achievement) is already recorded.
type UnlockStore interface {
	ListUnlocks(ctx context.Context, userID journey.UserID) ([]Unlock, error)
	SaveUnlock(ctx context.Context, u Unlock) error
	DeleteUnlocks(ctx context.Context, userID journey.UserID) error
}

// Tracker diffs a fresh evaluation against unlock history.
type Tracker struct {
	Store UnlockStore
	Clock journey.Clock
}

func NewTracker(store UnlockStore, clock journey.Clock) *Tracker {
	if clock == nil {
		clock = journey.SystemClock{}
	}
	return &Tracker{Store: store, Clock: clock}
}

// Record stamps UnlockedAt on currently unlocked achievements and persists
// first-time unlocks. It returns the stamped list and the newly unlocked
// subset. IsUnlocked is never changed: an achievement whose rule no longer
// holds stays locked even if history says it was unlocked once.
//
// A save that conflicts means another caller recorded the unlock first; the
// stored timestamp is used and the achievement is not reported as new.
func (t *Tracker) Record(ctx context.Context, userID journey.UserID, evaluated []Achievement) ([]Achievement, []Achievement, error) {
	history, err := t.Store.ListUnlocks(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	seen := make(map[string]time.Time, len(history))
	for _, u := range history {
		seen[u.AchievementID] = u.UnlockedAt
	}

	now := t.Clock.Now()
	out := make([]Achievement, len(evaluated))
	var newly []Achievement
	for i, a := range evaluated {
		out[i] = a
		if !a.IsUnlocked {
			continue
		}
		at, ok := seen[a.ID]
		fresh := !ok
		if fresh {
			at = now
			err := t.Store.SaveUnlock(ctx, Unlock{
				ID:            uuid.NewString(),
				UserID:        userID,
				AchievementID: a.ID,
				UnlockedAt:    at,
			})
			switch {
			case journey.IsConflict(err):
				fresh = false
				if at, err = t.storedAt(ctx, userID, a.ID, now); err != nil {
					return nil, nil, err
				}
			case err != nil:
				return nil, nil, err
			}
		}
		stamped := at
		out[i].UnlockedAt = &stamped
		if fresh {
			newly = append(newly, out[i])
		}
	}
	return out, newly, nil
}

// storedAt reloads the recorded unlock time after a conflicting save.
func (t *Tracker) storedAt(ctx context.Context, userID journey.UserID, achievementID string, fallback time.Time) (time.Time, error) {
	history, err := t.Store.ListUnlocks(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	for _, u := range history {
		if u.AchievementID == achievementID {
			return u.UnlockedAt, nil
		}
	}
	return fallback, nil
}

// =============================================================================
// MEMORY UNLOCK STORE
// =============================================================================

type MemoryUnlocks struct {
	mu      sync.RWMutex
	unlocks map[journey.UserID]map[string]Unlock
}

func NewMemoryUnlocks() *MemoryUnlocks {
	return &MemoryUnlocks{unlocks: make(map[journey.UserID]map[string]Unlock)}
}

func (m *MemoryUnlocks) ListUnlocks(_ context.Context, userID journey.UserID) ([]Unlock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Unlock
	for _, u := range m.unlocks[userID] {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UnlockedAt.Before(result[j].UnlockedAt) })
	return result, nil
}

func (m *MemoryUnlocks) SaveUnlock(_ context.Context, u Unlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID, ok := m.unlocks[u.UserID]
	if !ok {
		byID = make(map[string]Unlock)
		m.unlocks[u.UserID] = byID
	}
	if _, exists := byID[u.AchievementID]; exists {
		return journey.ErrDuplicateRecord
	}
	byID[u.AchievementID] = u
	return nil
}

func (m *MemoryUnlocks) DeleteUnlocks(_ context.Context, userID journey.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.unlocks, userID)
	return nil
}
