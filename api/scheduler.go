/*
scheduler.go - Scheduled achievement sweep

PURPOSE:
  Periodically recomputes every configured journey and records first-time
  achievement unlocks, so unlockedAt reflects roughly when a rule started
  to hold even for users who have not opened the dashboard.

DESIGN:
  - robfig/cron drives the sweep from a cron spec ("@every 1h" by default)
  - Runs once on Start, then on schedule
  - Overlapping runs are skipped, not queued
  - Per-user failures, panics included, are logged and counted; the sweep continues

USAGE:
  scheduler := NewUnlockScheduler(handler, "@every 1h")
  if err := scheduler.Start(); err != nil { ... }
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RefreshAchievements (shared with GET /achievements)
  - achievements/tracker.go: Unlock history
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/warp/journey-engine/journey"
)

// SweepResult summarizes one sweep.
type SweepResult struct {
	Users    int
	Unlocked int
	Failed   int
	Duration time.Duration
}

// UnlockScheduler runs RefreshAchievements for every mentorship on a schedule.
type UnlockScheduler struct {
	Handler *Handler
	Spec    string

	cron    *cron.Cron
	running sync.Mutex
	initial sync.WaitGroup
	mu      sync.Mutex
}

// NewUnlockScheduler creates a scheduler; nothing runs until Start.
func NewUnlockScheduler(h *Handler, spec string) *UnlockScheduler {
	return &UnlockScheduler{Handler: h, Spec: spec}
}

// Start registers the sweep and starts the cron runner.
func (s *UnlockScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil
	}

	c := cron.New(cron.WithChain(cron.Recover(cronLogger{log: s.Handler.Log})))
	if _, err := c.AddFunc(s.Spec, s.tick); err != nil {
		return fmt.Errorf("invalid scheduler spec %q: %w", s.Spec, err)
	}
	s.cron = c
	c.Start()

	// Run immediately on start
	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		defer func() {
			if r := recover(); r != nil {
				s.Handler.Log.Error().Interface("panic", r).Msg("initial sweep panicked")
			}
		}()
		s.tick()
	}()

	s.Handler.Log.Info().Str("spec", s.Spec).Msg("scheduler started")
	return nil
}

// Stop stops the runner and waits for a running sweep to finish.
func (s *UnlockScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.initial.Wait()
	s.cron = nil
	s.Handler.Log.Info().Msg("scheduler stopped")
}

func (s *UnlockScheduler) tick() {
	if !s.running.TryLock() {
		s.Handler.Log.Warn().Msg("previous sweep still running, skipping")
		return
	}
	defer s.running.Unlock()

	if _, err := s.Sweep(context.Background()); err != nil {
		s.Handler.Log.Error().Err(err).Msg("sweep failed")
	}
}

// Sweep refreshes achievements for every configured mentorship.
func (s *UnlockScheduler) Sweep(ctx context.Context) (SweepResult, error) {
	h := s.Handler
	started := time.Now()
	var result SweepResult

	mentorships, err := h.Store.ListMentorships(ctx)
	if err != nil {
		h.Metrics.SchedulerSweeps.WithLabelValues("error").Inc()
		return result, fmt.Errorf("failed to list mentorships: %w", err)
	}

	for _, m := range mentorships {
		if !m.IsConfigured() {
			continue
		}
		result.Users++

		resp, err := s.refresh(ctx, m.UserID)
		if err != nil {
			result.Failed++
			h.Log.Error().Err(err).Str("user_id", string(m.UserID)).Msg("failed to refresh achievements")
			continue
		}
		result.Unlocked += len(resp.NewlyUnlocked)
	}

	result.Duration = time.Since(started)
	outcome := "ok"
	if result.Failed > 0 {
		outcome = "partial"
	}
	h.Metrics.SchedulerSweeps.WithLabelValues(outcome).Inc()
	h.Log.Info().
		Int("users", result.Users).
		Int("unlocked", result.Unlocked).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("sweep complete")
	return result, nil
}

// refresh turns a panic for one user into a failure for that user only.
func (s *UnlockScheduler) refresh(ctx context.Context, userID journey.UserID) (resp *AchievementsResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic refreshing achievements: %v", r)
		}
	}()
	return s.Handler.RefreshAchievements(ctx, userID)
}

// =============================================================================
// CRON LOGGING
// =============================================================================

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
