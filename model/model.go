package model

import (
	"time"

	"site-guardian/window"
)

// StoreKey is the versioned Redis key holding the whole engine state.
// Schema changes get a new key; there is no live migration.
const StoreKey = "sg:store:v1"

// Settings are user-tunable engine parameters. They live inside the
// persisted document and are mutated only by explicit settings actions.
type Settings struct {
	SnapshotIntervalMinutes int   `json:"snapshotIntervalMinutes"`
	DefaultThresholdKB      int64 `json:"defaultThresholdKB"`
	HistoryRetentionDays    int   `json:"historyRetentionDays"`
	DailyReportEnabled      bool  `json:"dailyReportEnabled"`
	DailyReportHourLocal    int   `json:"dailyReportHourLocal"` // 0-23, local time
	DailyReportTopN         int   `json:"dailyReportTopN"`
}

// Exclusions holds hostnames the user opted out of tracking entirely.
type Exclusions struct {
	Hostnames []string `json:"hostnames"`
}

// Has reports whether hostname is excluded.
func (e Exclusions) Has(hostname string) bool {
	for _, h := range e.Hostnames {
		if h == hostname {
			return true
		}
	}
	return false
}

// Meta records bookkeeping about the last snapshot cycle. LastSnapshotAt
// drives the incremental pull window for tracker-match events.
type Meta struct {
	LastSnapshotAt     int64  `json:"lastSnapshotAt"` // unix milliseconds
	LastSnapshotReason string `json:"lastSnapshotReason"`
}

// Store is the singleton persisted document: all engine state, read and
// written wholesale.
type Store struct {
	Settings   Settings         `json:"settings"`
	Exclusions Exclusions       `json:"exclusions"`
	Meta       Meta             `json:"meta"`
	Sites      map[string]*Site `json:"sites"`
}

// NewStore returns an initialized empty document with default settings.
func NewStore() *Store {
	return &Store{
		Settings: Settings{
			SnapshotIntervalMinutes: 30,
			DefaultThresholdKB:      256,
			HistoryRetentionDays:    30,
			DailyReportEnabled:      false,
			DailyReportHourLocal:    8,
			DailyReportTopN:         5,
		},
		Exclusions: Exclusions{Hostnames: []string{}},
		Sites:      map[string]*Site{},
	}
}

// GetSite returns the Site record for origin, creating it lazily with
// defaults on first sight. One record per distinct origin, never
// duplicated.
func (db *Store) GetSite(origin, hostname string) *Site {
	if site, ok := db.Sites[origin]; ok {
		return site
	}
	site := &Site{
		Origin:      origin,
		Hostname:    hostname,
		ThresholdKB: db.Settings.DefaultThresholdKB,
		History:     []HistoryPoint{},
	}
	if db.Sites == nil {
		db.Sites = map[string]*Site{}
	}
	db.Sites[origin] = site
	return site
}

// HistoryPoint is one immutable sample of a site's state, appended once
// per snapshot cycle.
type HistoryPoint struct {
	TS            int64 `json:"ts"` // unix milliseconds
	StorageKB     int64 `json:"storageKB"`
	TrackerHits7d int64 `json:"trackerHits7d"`
	Trust         int   `json:"trust"` // 0-100, lower = riskier
}

// Site is the per-origin aggregation record. All byte figures are proxy
// estimates, not exact accounting.
type Site struct {
	Origin   string `json:"origin"`
	Hostname string `json:"hostname"`

	LastSeen      int64 `json:"lastSeen"`      // unix milliseconds
	LastSeenToday int64 `json:"lastSeenToday"` // last sighting, consulted by the daily digest

	// Cookies
	CookiesCount         int   `json:"cookiesCount"`
	CookiesBytesEstimate int64 `json:"cookiesBytesEstimate"`
	ThirdPartyCookies    int   `json:"thirdPartyCookies"`

	// Storage
	PersistentBytes int64 `json:"persistentBytes"` // localStorage + IndexedDB + Cache estimate
	SessionBytes    int64 `json:"sessionBytes"`
	StorageEvents7d int64 `json:"storageEvents7d"`

	// Features present
	ServiceWorkerPresent bool `json:"serviceWorkerPresent"`

	// Tracker hits
	TrackerHits7d int64 `json:"trackerHits7d"`

	// Alerts
	ThresholdKB   int64 `json:"thresholdKB"`
	LastAlertedAt int64 `json:"lastAlertedAt"`

	// Time series, ascending by TS
	History []HistoryPoint `json:"history"`

	// Rolling day buckets backing the two 7d counters
	TrackerBuckets      window.Buckets `json:"trackerHitsBuckets,omitempty"`
	StorageEventBuckets window.Buckets `json:"storageEventsBuckets,omitempty"`
}

// StorageKB is the site's total storage footprint in whole kilobytes.
func (s *Site) StorageKB() int64 {
	return (s.PersistentBytes + s.SessionBytes) / 1024
}

// AddTrackerHits records tracker matches against the current day bucket
// and refreshes the windowed summary.
func (s *Site) AddTrackerHits(at time.Time, delta int64) {
	s.TrackerBuckets, s.TrackerHits7d = window.Add(s.TrackerBuckets, at, delta)
}

// AddStorageEvents records storage churn against the current day bucket
// and refreshes the windowed summary.
func (s *Site) AddStorageEvents(at time.Time, delta int64) {
	s.StorageEventBuckets, s.StorageEvents7d = window.Add(s.StorageEventBuckets, at, delta)
}

// RefreshWindows re-prunes both rolling counters so the 7d summaries
// reflect "today" even when nothing was added.
func (s *Site) RefreshWindows(at time.Time) {
	s.TrackerBuckets, s.TrackerHits7d = window.Sum(s.TrackerBuckets, at)
	s.StorageEventBuckets, s.StorageEvents7d = window.Sum(s.StorageEventBuckets, at)
}

// MarkSeen stamps the site as active now.
func (s *Site) MarkSeen(at time.Time) {
	ms := at.UnixMilli()
	s.LastSeen = ms
	s.LastSeenToday = ms
}

// Clear resets all accumulated counters, bytes, buckets and history.
// Origin identity and the per-site threshold survive so a cleared site
// keeps its configuration.
func (s *Site) Clear() {
	s.CookiesCount = 0
	s.CookiesBytesEstimate = 0
	s.ThirdPartyCookies = 0
	s.PersistentBytes = 0
	s.SessionBytes = 0
	s.ServiceWorkerPresent = false
	s.StorageEvents7d = 0
	s.TrackerHits7d = 0
	s.TrackerBuckets = nil
	s.StorageEventBuckets = nil
	s.History = []HistoryPoint{}
}

// Notification is a one-shot user-facing message (growth alert or daily
// digest). Delivery is best-effort.
type Notification struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}
