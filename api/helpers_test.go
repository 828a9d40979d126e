package api

import (
	"testing"
	"time"

	"github.com/warp/journey-engine/journey"
	"github.com/warp/journey-engine/store/sqlite"
)

// testNow is mid-month so program months line up with calendar months.
var testNow = time.Date(2025, time.August, 14, 10, 0, 0, 0, time.UTC)

func setupTestHandler(t *testing.T) *Handler {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewHandler(store, store, Options{Clock: journey.FixedClock{At: testNow}})
}
