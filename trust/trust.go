package trust

import "site-guardian/model"

// Penalty weights and caps. Each term is capped independently before
// summation so no single extreme signal drives the total negative or
// distorts the shape of the curve.
const (
	trackerWeight = 2
	trackerCap    = 45

	thirdPartyWeight = 5
	thirdPartyCap    = 25

	storageKBPerPoint = 64 // 1 point per 64KB of persistent storage
	storageCap        = 20

	churnEventsPerPoint = 50
	churnCap            = 10

	serviceWorkerPenalty = 5

	riskyLine = 40
)

// Score maps a site's current aggregated signals to a 0-100 trust score.
// Pure and deterministic: more signals always means a lower score.
func Score(site *model.Site) int {
	trackerPenalty := capped(site.TrackerHits7d*trackerWeight, trackerCap)
	thirdPartyPenalty := capped(int64(site.ThirdPartyCookies)*thirdPartyWeight, thirdPartyCap)

	persistentKB := site.PersistentBytes / 1024
	storagePenalty := capped(persistentKB/storageKBPerPoint, storageCap)

	churnPenalty := capped(site.StorageEvents7d/churnEventsPerPoint, churnCap)

	var swPenalty int64
	if site.ServiceWorkerPresent {
		swPenalty = serviceWorkerPenalty
	}

	score := 100 - trackerPenalty - thirdPartyPenalty - storagePenalty - churnPenalty - swPenalty
	score = clamp(score, 0, 100)

	// Compress the sub-40 range to visually separate "bad" from "very
	// bad" on the dashboard.
	if score < riskyLine {
		score = score * 85 / 100
	}
	return int(score)
}

func capped(n, limit int64) int64 {
	if n > limit {
		return limit
	}
	return n
}

func clamp(n, lo, hi int64) int64 {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
