package snapshot

import (
	"context"
	"time"

	"site-guardian/store"

	"github.com/rs/zerolog/log"
)

// Scheduler owns the two background timers: the recurring snapshot tick
// and the once-a-day digest timer. Both honor the settings stored in the
// persisted document and stop on context cancellation.
type Scheduler struct {
	orch  *Orchestrator
	store *store.Store

	reconfigure chan struct{}
}

// NewScheduler creates a scheduler driving orch.
func NewScheduler(orch *Orchestrator, st *store.Store) *Scheduler {
	return &Scheduler{
		orch:        orch,
		store:       st,
		reconfigure: make(chan struct{}, 1),
	}
}

// Reconfigure nudges the daily timer to re-read settings, e.g. after the
// report hour changed. Non-blocking; coalesces repeated nudges.
func (s *Scheduler) Reconfigure() {
	select {
	case s.reconfigure <- struct{}{}:
	default:
	}
}

// Start launches both loops. They run until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.snapshotLoop(ctx)
	go s.dailyLoop(ctx)
}

func (s *Scheduler) snapshotLoop(ctx context.Context) {
	interval := s.snapshotInterval(ctx)
	log.Info().Dur("interval", interval).Msg("Snapshot scheduler started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Snapshot scheduler stopped")
			return
		case <-ticker.C:
			if err := s.orch.Run(ctx, ReasonScheduled); err != nil {
				// Background cycles fail silently and retry next tick.
				log.Error().Err(err).Msg("Scheduled snapshot failed")
			}
			// Pick up interval changes without restarting the service.
			if next := s.snapshotInterval(ctx); next != interval {
				interval = next
				ticker.Reset(interval)
				log.Info().Dur("interval", interval).Msg("Snapshot interval updated")
			}
		}
	}
}

func (s *Scheduler) snapshotInterval(ctx context.Context) time.Duration {
	minutes := 30
	if db, err := s.store.Load(ctx); err == nil && db.Settings.SnapshotIntervalMinutes > 0 {
		minutes = db.Settings.SnapshotIntervalMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func (s *Scheduler) dailyLoop(ctx context.Context) {
	for {
		fireAt := s.nextDigestTime(ctx, time.Now())
		timer := time.NewTimer(time.Until(fireAt))

		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("Daily report scheduler stopped")
			return
		case <-s.reconfigure:
			// Recompute the fire time from the updated settings.
			timer.Stop()
		case <-timer.C:
			if err := s.orch.RunDailyDigest(ctx); err != nil {
				log.Error().Err(err).Msg("Daily digest run failed")
			}
		}
	}
}

// nextDigestTime returns the next occurrence of the configured local
// report hour, always in the future so the timer reschedules for the
// next day immediately after firing.
func (s *Scheduler) nextDigestTime(ctx context.Context, now time.Time) time.Time {
	hour := 8
	if db, err := s.store.Load(ctx); err == nil {
		if h := db.Settings.DailyReportHourLocal; h >= 0 && h <= 23 {
			hour = h
		}
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
