package history

import (
	"time"

	"site-guardian/model"
)

const dayMillis = int64(24 * 60 * 60 * 1000)

// Append pushes one point onto the series. Callers append in
// chronological order, so ordering is preserved without re-sorting.
func Append(points []model.HistoryPoint, p model.HistoryPoint) []model.HistoryPoint {
	return append(points, p)
}

// Prune drops every point older than the retention window, keeping the
// original order of the survivors.
func Prune(points []model.HistoryPoint, at time.Time, retentionDays int) []model.HistoryPoint {
	cutoff := at.UnixMilli() - int64(retentionDays)*dayMillis
	kept := points[:0]
	for _, p := range points {
		if p.TS >= cutoff {
			kept = append(kept, p)
		}
	}
	return kept
}

// Latest returns the most recent point. An empty series is not an error:
// it yields a defined default of full trust and zero storage.
func Latest(points []model.HistoryPoint) model.HistoryPoint {
	if len(points) == 0 {
		return model.HistoryPoint{Trust: 100, StorageKB: 0}
	}
	return points[len(points)-1]
}
