package window

import (
	"testing"
	"time"
)

func day(n int) time.Time {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, n)
}

func TestAddSumsTrailingWindowOnly(t *testing.T) {
	var b Buckets
	var total int64

	// One delta per simulated day for 10 days
	for i := 0; i < 10; i++ {
		b, total = Add(b, day(i), 1)
	}

	// Day 9 "today": buckets for days 2..9 survive (8 live buckets)
	if total != 8 {
		t.Errorf("Expected trailing total 8, got %d", total)
	}

	// Buckets older than the horizon must be gone
	if len(b) != 8 {
		t.Errorf("Expected 8 live buckets, got %d", len(b))
	}
}

func TestAddAccumulatesWithinDay(t *testing.T) {
	var b Buckets
	var total int64

	b, _ = Add(b, day(0), 3)
	b, total = Add(b, day(0), 4)

	if total != 7 {
		t.Errorf("Expected 7, got %d", total)
	}
	if len(b) != 1 {
		t.Errorf("Expected a single bucket, got %d", len(b))
	}
}

func TestSumIsIdempotentWithinDay(t *testing.T) {
	var b Buckets
	b, _ = Add(b, day(0), 5)
	b, _ = Add(b, day(3), 2)

	_, first := Sum(b, day(3))
	_, second := Sum(b, day(3))

	if first != second {
		t.Errorf("Repeated reads diverged: %d vs %d", first, second)
	}
	if first != 7 {
		t.Errorf("Expected 7, got %d", first)
	}
}

func TestPruningAlreadyPrunedIsNoOp(t *testing.T) {
	var b Buckets
	b, _ = Add(b, day(0), 5)

	// Move far past the window; everything expires
	b, total := Sum(b, day(30))
	if total != 0 {
		t.Errorf("Expected 0 after window passed, got %d", total)
	}

	// Pruning again must not change anything
	b2, total2 := Sum(b, day(30))
	if total2 != 0 || len(b2) != 0 {
		t.Errorf("Second prune changed state: total=%d buckets=%d", total2, len(b2))
	}
}

func TestSumNilBuckets(t *testing.T) {
	b, total := Sum(nil, day(0))
	if b != nil || total != 0 {
		t.Errorf("Nil buckets should read as empty, got total=%d", total)
	}
}

func TestAddNegativeDeltaNotBelowWindow(t *testing.T) {
	var b Buckets
	b, _ = Add(b, day(0), 10)
	_, total := Add(b, day(0), -4)
	if total != 6 {
		t.Errorf("Expected 6 after negative delta, got %d", total)
	}
}
