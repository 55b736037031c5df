package alert

import (
	"strings"
	"testing"
	"time"

	"site-guardian/model"
)

var testSettings = model.Settings{DefaultThresholdKB: 256}

func siteWithHistory(prevKB, nowKB int64) *model.Site {
	return &model.Site{
		Hostname:        "example.com",
		ThresholdKB:     100,
		PersistentBytes: nowKB * 1024,
		History: []model.HistoryPoint{
			{TS: 1000, StorageKB: prevKB},
		},
	}
}

func TestEvaluateEmitsOnGrowth(t *testing.T) {
	site := siteWithHistory(50, 200)

	d := Evaluate(site, testSettings, time.Now())
	if !d.Emit {
		t.Fatal("Expected emit for +150 KB against a 100 KB threshold")
	}
	if d.DeltaKB != 150 {
		t.Errorf("DeltaKB = %d, want 150", d.DeltaKB)
	}
	if d.ThresholdKB != 100 {
		t.Errorf("ThresholdKB = %d, want 100", d.ThresholdKB)
	}
}

func TestEvaluateSuppression(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		site *model.Site
	}{
		{"Shrinking storage", siteWithHistory(300, 200)},
		{"Unchanged storage", siteWithHistory(200, 200)},
		{"Growth below threshold", siteWithHistory(150, 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := Evaluate(tt.site, testSettings, now); d.Emit {
				t.Errorf("Expected no emit, got %+v", d)
			}
		})
	}
}

func TestEvaluateFirstObservation(t *testing.T) {
	// No history means no baseline: delta is zero no matter how much
	// storage the first sample reports.
	site := &model.Site{Hostname: "example.com", PersistentBytes: 10 << 20, ThresholdKB: 1}

	d := Evaluate(site, testSettings, time.Now())
	if d.Emit || d.DeltaKB != 0 {
		t.Errorf("Expected silent first observation, got %+v", d)
	}
}

func TestEvaluateCooldown(t *testing.T) {
	now := time.Now()
	site := siteWithHistory(50, 200)
	site.LastAlertedAt = now.Add(-30 * time.Minute).UnixMilli()

	if d := Evaluate(site, testSettings, now); d.Emit {
		t.Error("Expected suppression inside the 60-minute cooldown")
	}

	site.LastAlertedAt = now.Add(-61 * time.Minute).UnixMilli()
	if d := Evaluate(site, testSettings, now); !d.Emit {
		t.Error("Expected emit once the cooldown has elapsed")
	}
}

func TestEvaluateDefaultThresholdFallback(t *testing.T) {
	site := siteWithHistory(0, 300)
	site.ThresholdKB = 0 // unset, falls back to settings

	d := Evaluate(site, testSettings, time.Now())
	if d.ThresholdKB != 256 {
		t.Errorf("ThresholdKB = %d, want settings default 256", d.ThresholdKB)
	}
	if !d.Emit {
		t.Error("Expected emit for +300 KB against the 256 KB default")
	}
}

func TestNotificationFor(t *testing.T) {
	site := siteWithHistory(50, 200)
	at := time.UnixMilli(1700000000000)

	n := NotificationFor(site, Evaluate(site, testSettings, at), at)
	if n.ID != "sg_example.com_1700000000000" {
		t.Errorf("ID = %q", n.ID)
	}
	if !strings.Contains(n.Message, "+150 KB") || !strings.Contains(n.Message, "100 KB") {
		t.Errorf("Message = %q", n.Message)
	}
}
