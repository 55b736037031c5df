package history

import (
	"testing"
	"time"

	"site-guardian/model"
)

func TestLatestEmptyDefault(t *testing.T) {
	p := Latest(nil)
	if p.Trust != 100 {
		t.Errorf("Expected default trust 100, got %d", p.Trust)
	}
	if p.StorageKB != 0 {
		t.Errorf("Expected default storageKB 0, got %d", p.StorageKB)
	}
}

func TestLatestReturnsLastPoint(t *testing.T) {
	points := []model.HistoryPoint{
		{TS: 1, Trust: 90},
		{TS: 2, Trust: 80},
		{TS: 3, Trust: 70},
	}
	p := Latest(points)
	if p.TS != 3 || p.Trust != 70 {
		t.Errorf("Expected last point, got %+v", p)
	}
}

func TestPruneDropsExpiredKeepsOrder(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	dayMs := int64(24 * 60 * 60 * 1000)

	var points []model.HistoryPoint
	// 40 daily points, oldest first
	for i := 40; i >= 1; i-- {
		points = Append(points, model.HistoryPoint{TS: now.UnixMilli() - int64(i)*dayMs, Trust: i})
	}

	kept := Prune(points, now, 30)

	if len(kept) != 30 {
		t.Fatalf("Expected 30 surviving points, got %d", len(kept))
	}
	for i := 1; i < len(kept); i++ {
		if kept[i].TS <= kept[i-1].TS {
			t.Fatalf("Order violated at index %d", i)
		}
	}
	cutoff := now.UnixMilli() - 30*dayMs
	for _, p := range kept {
		if p.TS < cutoff {
			t.Errorf("Point older than retention survived: %d", p.TS)
		}
	}
}

func TestPruneEmptySeries(t *testing.T) {
	kept := Prune(nil, time.Now(), 30)
	if len(kept) != 0 {
		t.Errorf("Expected empty result, got %d points", len(kept))
	}
}
