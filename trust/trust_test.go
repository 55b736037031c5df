package trust

import (
	"testing"

	"site-guardian/model"
)

func TestScoreCleanSiteIsPerfect(t *testing.T) {
	site := &model.Site{}
	if got := Score(site); got != 100 {
		t.Errorf("Expected 100 for a site with no signals, got %d", got)
	}
}

func TestScoreKnownProfile(t *testing.T) {
	// trackerPenalty capped at 45, thirdParty capped at 25:
	// 100 - 45 - 25 = 30, then compressed below 40: 30*85/100 = 25
	site := &model.Site{
		TrackerHits7d:     100,
		ThirdPartyCookies: 10,
	}
	if got := Score(site); got != 25 {
		t.Errorf("Expected 25, got %d", got)
	}
}

func TestScorePenaltyTable(t *testing.T) {
	tests := []struct {
		name string
		site model.Site
		want int
	}{
		{"Single tracker hit", model.Site{TrackerHits7d: 1}, 98},
		{"Service worker only", model.Site{ServiceWorkerPresent: true}, 95},
		{"One third-party cookie", model.Site{ThirdPartyCookies: 1}, 95},
		{"64KB persistent storage", model.Site{PersistentBytes: 64 * 1024}, 99},
		{"Churn below a point", model.Site{StorageEvents7d: 49}, 100},
		{"Churn one point", model.Site{StorageEvents7d: 50}, 99},
		{"Everything maxed", model.Site{
			TrackerHits7d:        1000,
			ThirdPartyCookies:    1000,
			PersistentBytes:      1 << 30,
			StorageEvents7d:      100000,
			ServiceWorkerPresent: true,
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(&tt.site); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreMonotonicity(t *testing.T) {
	base := model.Site{
		TrackerHits7d:     3,
		ThirdPartyCookies: 2,
		PersistentBytes:   200 * 1024,
		StorageEvents7d:   80,
	}

	bump := []struct {
		name  string
		worse func(s *model.Site)
	}{
		{"trackerHits7d", func(s *model.Site) { s.TrackerHits7d++ }},
		{"thirdPartyCookies", func(s *model.Site) { s.ThirdPartyCookies++ }},
		{"persistentBytes", func(s *model.Site) { s.PersistentBytes += 64 * 1024 }},
		{"storageEvents7d", func(s *model.Site) { s.StorageEvents7d += 50 }},
		{"serviceWorker", func(s *model.Site) { s.ServiceWorkerPresent = true }},
	}

	for _, tt := range bump {
		t.Run(tt.name, func(t *testing.T) {
			before := base
			after := base
			tt.worse(&after)
			if Score(&after) > Score(&before) {
				t.Errorf("Increasing %s raised the score: %d -> %d",
					tt.name, Score(&before), Score(&after))
			}
		})
	}
}

func TestScoreNeverOutOfRange(t *testing.T) {
	extremes := []model.Site{
		{},
		{TrackerHits7d: 1 << 40},
		{PersistentBytes: 1 << 50, StorageEvents7d: 1 << 40, ThirdPartyCookies: 1 << 20, TrackerHits7d: 1 << 30, ServiceWorkerPresent: true},
	}
	for _, site := range extremes {
		got := Score(&site)
		if got < 0 || got > 100 {
			t.Errorf("Score out of range: %d for %+v", got, site)
		}
	}
}
