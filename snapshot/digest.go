package snapshot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"site-guardian/model"
	"site-guardian/trust"

	"github.com/rs/zerolog/log"
)

// RunDailyDigest builds and sends the daily privacy digest: the day's
// lowest-trust origin plus a leaderboard of the top-N riskiest sites by
// ascending trust. Best-effort: a delivery failure is logged, never
// retried.
func (o *Orchestrator) RunDailyDigest(ctx context.Context) error {
	now := o.now()

	db, err := o.store.Load(ctx)
	if err != nil {
		return err
	}
	if !db.Settings.DailyReportEnabled {
		return nil
	}

	n, ok := BuildDigest(db, now)
	if !ok {
		log.Info().Msg("Daily digest skipped - no sites seen today")
		return nil
	}

	if err := o.notifier.Notify(ctx, n); err != nil {
		log.Error().Err(err).Msg("Failed to deliver daily digest")
	}
	return nil
}

type digestEntry struct {
	hostname string
	trust    int
}

// BuildDigest summarizes the sites seen in the current local day,
// ascending by trust. Returns false when nothing was seen today.
func BuildDigest(db *model.Store, now time.Time) (model.Notification, bool) {
	var entries []digestEntry
	for _, site := range db.Sites {
		if site == nil || site.Hostname == "" {
			continue
		}
		if db.Exclusions.Has(site.Hostname) {
			continue
		}
		if !sameLocalDay(site.LastSeenToday, now) {
			continue
		}
		entries = append(entries, digestEntry{hostname: site.Hostname, trust: trust.Score(site)})
	}
	if len(entries) == 0 {
		return model.Notification{}, false
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].trust != entries[j].trust {
			return entries[i].trust < entries[j].trust
		}
		return entries[i].hostname < entries[j].hostname
	})

	topN := db.Settings.DailyReportTopN
	if topN < 1 {
		topN = 5
	}
	if topN > len(entries) {
		topN = len(entries)
	}

	board := make([]string, 0, topN)
	for _, e := range entries[:topN] {
		board = append(board, fmt.Sprintf("%s (%d)", e.hostname, e.trust))
	}

	return model.Notification{
		ID:    fmt.Sprintf("sg_daily_%d", now.UnixMilli()),
		Title: "SiteGuardian daily report",
		Message: fmt.Sprintf("Lowest trust today: %s (score %d). Watchlist: %s",
			entries[0].hostname, entries[0].trust, strings.Join(board, ", ")),
	}, true
}

func sameLocalDay(tsMillis int64, now time.Time) bool {
	if tsMillis <= 0 {
		return false
	}
	seen := time.UnixMilli(tsMillis).In(now.Location())
	y1, m1, d1 := seen.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
