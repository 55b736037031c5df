package window

import "time"

// Days is the size of the rolling window.
const Days = 7

const dayMillis = int64(24 * 60 * 60 * 1000)

// Buckets is a daily-bucketed rolling accumulator. Keys are day indexes
// (unix milliseconds divided by a fixed 24h unit, not calendar-aware),
// values are the deltas recorded during that day. Summing the live
// buckets approximates a sliding 7-day window at daily granularity.
type Buckets map[int64]int64

// DayIndex returns the fixed-unit day bucket for a point in time.
func DayIndex(at time.Time) int64 {
	return at.UnixMilli() / dayMillis
}

// Add records delta against the bucket for at, prunes expired buckets and
// returns the updated bucket set together with the windowed total.
func Add(b Buckets, at time.Time, delta int64) (Buckets, int64) {
	if b == nil {
		b = Buckets{}
	}
	day := DayIndex(at)
	b[day] += delta
	return b, pruneAndSum(b, day)
}

// Sum prunes expired buckets and returns the windowed total. Reading is
// idempotent: repeated calls within the same day bucket return the same
// value and pruning an already-pruned set is a no-op.
func Sum(b Buckets, at time.Time) (Buckets, int64) {
	if b == nil {
		return nil, 0
	}
	return b, pruneAndSum(b, DayIndex(at))
}

func pruneAndSum(b Buckets, today int64) int64 {
	cutoff := today - Days
	var total int64
	for day, n := range b {
		if day < cutoff {
			delete(b, day)
			continue
		}
		total += n
	}
	return total
}
