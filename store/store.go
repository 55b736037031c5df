package store

import (
	"context"
	"encoding/json"
	"time"

	"site-guardian/config"
	"site-guardian/model"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// Store persists the whole engine state as one versioned JSON document
// under model.StoreKey. Every mutation is load-full-document, mutate in
// memory, save-full-document.
//
// Concurrency note: WithTransaction is atomic only from the mutator's
// point of view. Two interleaved load/mutate/save cycles race and the
// later save wins, silently dropping the earlier one's changes. That
// last-write-wins behavior is deliberate and matches the accepted
// failure model; upgrading it would require WATCH/MULTI (compare-and-
// swap) or an explicit cross-process lock.
type Store struct {
	rdb     *redis.Client
	timeout time.Duration
}

// New creates a store backed by rdb.
func New(rdb *redis.Client, cfg config.RedisConfig) *Store {
	timeout := time.Duration(cfg.OperationTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{rdb: rdb, timeout: timeout}
}

// Load reads the document. A missing key yields a fresh default
// document, not an error.
func (s *Store) Load(ctx context.Context) (*model.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.rdb.Get(ctx, model.StoreKey).Bytes()
	if err == redis.Nil {
		return model.NewStore(), nil
	} else if err != nil {
		return nil, err
	}

	var db model.Store
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, err
	}
	if db.Sites == nil {
		db.Sites = map[string]*model.Site{}
	}
	return &db, nil
}

// Save writes the document wholesale.
func (s *Store) Save(ctx context.Context, db *model.Store) error {
	data, err := json.Marshal(db)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.rdb.Set(ctx, model.StoreKey, data, 0).Err()
}

// WithTransaction loads the document, applies mutate and saves the
// result. When mutate returns an error nothing is saved, so a failed
// cycle leaves the persisted state untouched and the caller retries
// later. See the type comment for the cross-call atomicity caveat.
func (s *Store) WithTransaction(ctx context.Context, mutate func(db *model.Store) error) error {
	db, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := mutate(db); err != nil {
		return err
	}
	return s.Save(ctx, db)
}

// EnsureInitialized seeds a fresh store document with the configured
// settings. An existing document is left exactly as it is: settings are
// owned by the user once the store exists.
func (s *Store) EnsureInitialized(ctx context.Context, settings model.Settings) error {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.rdb.Exists(opCtx, model.StoreKey).Result()
	if err != nil {
		return err
	}
	if exists > 0 {
		return nil
	}

	db := model.NewStore()
	db.Settings = settings
	if err := s.Save(ctx, db); err != nil {
		return err
	}

	log.Info().
		Int("snapshot_interval_minutes", settings.SnapshotIntervalMinutes).
		Int64("default_threshold_kb", settings.DefaultThresholdKB).
		Int("history_retention_days", settings.HistoryRetentionDays).
		Msg("Store initialized with default settings")
	return nil
}
