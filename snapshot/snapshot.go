package snapshot

import (
	"context"
	"time"

	"site-guardian/alert"
	"site-guardian/attribution"
	"site-guardian/history"
	"site-guardian/model"
	"site-guardian/store"
	"site-guardian/trust"
	"site-guardian/utils"

	"github.com/rs/zerolog/log"
)

// Reason codes recorded in meta.lastSnapshotReason.
const (
	ReasonScheduled = "scheduled"
	ReasonOnDemand  = "on-demand"
)

// Lookback floor for the tracker-match pull window. Guards against
// clock anomalies and long gaps between cycles.
const maxLookback = 24 * time.Hour

// MatchSource supplies tracker-match events for a pull window. The live
// implementation is security.Recorder.
type MatchSource interface {
	MatchesSince(ctx context.Context, sinceMillis int64) ([]attribution.MatchEvent, error)
}

// Orchestrator runs one snapshot cycle: pull tracker matches, attribute
// them to origins, update rolling counters, append one history point per
// tracked site, evaluate growth alerts and advance the snapshot meta —
// all inside a single store transaction.
type Orchestrator struct {
	store    *store.Store
	source   MatchSource
	contexts attribution.ContextLookup
	notifier alert.Notifier

	now func() time.Time // injectable for tests
}

// New creates an orchestrator. source may be nil when no match feed is
// configured; the cycle then only refreshes history and alerts.
func New(st *store.Store, source MatchSource, contexts attribution.ContextLookup, notifier alert.Notifier) *Orchestrator {
	return &Orchestrator{
		store:    st,
		source:   source,
		contexts: contexts,
		notifier: notifier,
		now:      time.Now,
	}
}

// Run executes one snapshot cycle. Collaborator failures degrade to
// empty results; notification failures are skipped per site; any other
// failure aborts the whole cycle without advancing meta, so the next run
// retries the same window.
func (o *Orchestrator) Run(ctx context.Context, reason string) error {
	now := o.now()

	since, err := o.pullWindowStart(ctx, now)
	if err != nil {
		return err
	}

	events := o.pullMatches(ctx, since, now.UnixMilli())
	byOrigin := attribution.Attribute(events, o.contexts)

	err = o.store.WithTransaction(ctx, func(db *model.Store) error {
		o.applyTrackerCounts(db, byOrigin, now)
		o.refreshSites(ctx, db, now)

		db.Meta.LastSnapshotAt = now.UnixMilli()
		db.Meta.LastSnapshotReason = reason
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("reason", reason).
		Int("matched_events", len(events)).
		Int("attributed_origins", len(byOrigin)).
		Msg("Snapshot cycle completed")
	return nil
}

// pullWindowStart computes the incremental pull window: since the last
// successful snapshot, but never further back than the 24h floor.
func (o *Orchestrator) pullWindowStart(ctx context.Context, now time.Time) (int64, error) {
	db, err := o.store.Load(ctx)
	if err != nil {
		return 0, err
	}

	floor := now.Add(-maxLookback).UnixMilli()
	since := db.Meta.LastSnapshotAt
	if since < floor {
		since = floor
	}
	return since, nil
}

// pullMatches queries the match source, degrading to an empty result on
// failure so the snapshot still completes with partial data. The window
// is half-open [since, until): an event recorded while the cycle runs
// belongs to the next cycle, so no event is ever counted twice.
func (o *Orchestrator) pullMatches(ctx context.Context, sinceMillis, untilMillis int64) []attribution.MatchEvent {
	if o.source == nil {
		return nil
	}
	events, err := o.source.MatchesSince(ctx, sinceMillis)
	if err != nil {
		log.Error().Err(err).Msg("Tracker match query failed - continuing with empty result")
		return nil
	}

	kept := make([]attribution.MatchEvent, 0, len(events))
	for _, ev := range events {
		if ev.At < untilMillis {
			kept = append(kept, ev)
		}
	}
	return kept
}

// applyTrackerCounts folds attributed counts into each origin's rolling
// tracker counter, creating sites on first sight. Excluded hostnames are
// rejected before the lazy create so they never gain a record at all.
func (o *Orchestrator) applyTrackerCounts(db *model.Store, byOrigin map[string]int64, now time.Time) {
	for origin, count := range byOrigin {
		hostname := utils.HostnameOf(origin)
		if hostname == "" || db.Exclusions.Has(hostname) {
			continue
		}
		site := db.GetSite(origin, hostname)
		site.AddTrackerHits(now, count)
		site.MarkSeen(now)
	}
}

// refreshSites recomputes trust, appends one history point and evaluates
// the alert policy for every tracked, non-excluded site.
func (o *Orchestrator) refreshSites(ctx context.Context, db *model.Store, now time.Time) {
	for _, site := range db.Sites {
		if site == nil || site.Hostname == "" {
			continue
		}
		if db.Exclusions.Has(site.Hostname) {
			continue
		}

		site.RefreshWindows(now)
		score := trust.Score(site)

		decision := alert.Evaluate(site, db.Settings, now)

		site.History = history.Prune(site.History, now, db.Settings.HistoryRetentionDays)
		site.History = history.Append(site.History, model.HistoryPoint{
			TS:            now.UnixMilli(),
			StorageKB:     site.StorageKB(),
			TrackerHits7d: site.TrackerHits7d,
			Trust:         score,
		})

		if decision.Emit {
			site.LastAlertedAt = now.UnixMilli()
			n := alert.NotificationFor(site, decision, now)
			if err := o.notifier.Notify(ctx, n); err != nil {
				// Per-notification failures are non-fatal; the alert is
				// simply skipped for this cycle.
				log.Error().Err(err).Str("hostname", site.Hostname).Msg("Failed to deliver growth alert")
			}
		}
	}
}
