package security

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"site-guardian/attribution"
)

func TestMatcherMatchURL(t *testing.T) {
	m := NewMatcher([]string{"tracker.net", ".Analytics.example", "ads.example.org"})

	tests := []struct {
		name  string
		url   string
		match bool
	}{
		{"Exact domain", "https://tracker.net/pixel.gif", true},
		{"Subdomain", "https://cdn.tracker.net/js/t.js", true},
		{"Deep subdomain", "https://a.b.tracker.net/x", true},
		{"Case and dot normalized", "https://tag.analytics.example/collect", true},
		{"Listed subdomain only", "https://ads.example.org/b", true},
		{"Parent of listed subdomain", "https://example.org/page", false},
		{"Unrelated", "https://example.com/", false},
		{"Suffix lookalike", "https://nottracker.net/", false},
		{"Garbage URL", "::::", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.MatchURL(tt.url); got != tt.match {
				t.Errorf("MatchURL(%q) = %v, want %v", tt.url, got, tt.match)
			}
		})
	}
}

func TestLoadMatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trackers.txt")
	content := "# tracker list\ntracker.net\n\n  beacon.example  \n# comment\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write list: %v", err)
	}

	m, err := LoadMatcher(path)
	if err != nil {
		t.Fatalf("LoadMatcher() error = %v", err)
	}
	if m.Size() != 2 {
		t.Errorf("Size() = %d, want 2", m.Size())
	}
	if !m.MatchURL("https://beacon.example/ping") {
		t.Error("Expected beacon.example to match")
	}
}

func TestLoadMatcherMissingFile(t *testing.T) {
	if _, err := LoadMatcher(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestRecorderMatchesSince(t *testing.T) {
	r := NewRecorder(100)
	r.Record(attribution.MatchEvent{At: 100})
	r.Record(attribution.MatchEvent{At: 200})
	r.Record(attribution.MatchEvent{At: 300})

	events, err := r.MatchesSince(context.Background(), 200)
	if err != nil {
		t.Fatalf("MatchesSince() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events at or after 200, got %d", len(events))
	}
	if events[0].At != 200 || events[1].At != 300 {
		t.Errorf("Unexpected events: %+v", events)
	}
}

func TestRecorderBounded(t *testing.T) {
	r := NewRecorder(3)
	for i := 1; i <= 5; i++ {
		r.Record(attribution.MatchEvent{At: int64(i)})
	}

	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}

	events, _ := r.MatchesSince(context.Background(), 0)
	if events[0].At != 3 {
		t.Errorf("Expected oldest surviving event at=3, got %d", events[0].At)
	}
}
