package store

import (
	"context"
	"errors"
	"testing"

	"site-guardian/config"
	"site-guardian/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return New(rdb, config.RedisConfig{OperationTimeout: 5})
}

func TestLoadMissingKeyYieldsDefaults(t *testing.T) {
	s := newTestStore(t)

	db, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if db.Settings.SnapshotIntervalMinutes != 30 {
		t.Errorf("SnapshotIntervalMinutes = %d, want 30", db.Settings.SnapshotIntervalMinutes)
	}
	if db.Settings.DefaultThresholdKB != 256 {
		t.Errorf("DefaultThresholdKB = %d, want 256", db.Settings.DefaultThresholdKB)
	}
	if len(db.Sites) != 0 {
		t.Errorf("Expected empty site table, got %d entries", len(db.Sites))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	db := model.NewStore()
	site := db.GetSite("https://example.com", "example.com")
	site.PersistentBytes = 4096
	site.TrackerHits7d = 7
	db.Meta.LastSnapshotAt = 1700000000000
	db.Meta.LastSnapshotReason = "scheduled"

	if err := s.Save(ctx, db); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got := loaded.Sites["https://example.com"]
	if got == nil {
		t.Fatal("Site missing after round trip")
	}
	if got.PersistentBytes != 4096 || got.TrackerHits7d != 7 {
		t.Errorf("Site fields lost: %+v", got)
	}
	if loaded.Meta.LastSnapshotReason != "scheduled" {
		t.Errorf("Meta lost: %+v", loaded.Meta)
	}
}

func TestWithTransactionMutates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTransaction(ctx, func(db *model.Store) error {
		db.GetSite("https://example.com", "example.com").CookiesCount = 3
		return nil
	})
	if err != nil {
		t.Fatalf("WithTransaction() error = %v", err)
	}

	db, _ := s.Load(ctx)
	if db.Sites["https://example.com"].CookiesCount != 3 {
		t.Error("Mutation was not persisted")
	}
}

func TestWithTransactionErrorSavesNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithTransaction(ctx, func(db *model.Store) error {
		db.GetSite("https://example.com", "example.com")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected mutator error back, got %v", err)
	}

	db, _ := s.Load(ctx)
	if len(db.Sites) != 0 {
		t.Error("Failed transaction must not persist changes")
	}
}

func TestEnsureInitializedSeedsOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := model.Settings{
		SnapshotIntervalMinutes: 15,
		DefaultThresholdKB:      512,
		HistoryRetentionDays:    14,
		DailyReportHourLocal:    9,
		DailyReportTopN:         3,
	}
	if err := s.EnsureInitialized(ctx, seed); err != nil {
		t.Fatalf("EnsureInitialized() error = %v", err)
	}

	db, _ := s.Load(ctx)
	if db.Settings.DefaultThresholdKB != 512 {
		t.Errorf("Seed not applied: %+v", db.Settings)
	}

	// The user owns the document once it exists; a second init with
	// different values must not overwrite it.
	db.Settings.DefaultThresholdKB = 64
	if err := s.Save(ctx, db); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.EnsureInitialized(ctx, seed); err != nil {
		t.Fatalf("EnsureInitialized() second call error = %v", err)
	}

	db, _ = s.Load(ctx)
	if db.Settings.DefaultThresholdKB != 64 {
		t.Errorf("Second EnsureInitialized overwrote user settings: %+v", db.Settings)
	}
}
