package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"site-guardian/attribution"
	"site-guardian/cache"
	"site-guardian/config"
	"site-guardian/model"
	"site-guardian/security"
	"site-guardian/snapshot"
	"site-guardian/store"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const stateCacheKey = "state"

// PageBroadcaster delivers fire-and-forget directives to live page
// contexts. The engine only depends on this contract; delivery transport
// belongs to the collector side.
type PageBroadcaster interface {
	ClearPageStorage(ctx context.Context, contextID, origin string) error
}

// LogBroadcaster is the default PageBroadcaster: it records the directive
// and succeeds. Useful until a real push channel to collectors exists.
type LogBroadcaster struct{}

// ClearPageStorage implements PageBroadcaster.
func (LogBroadcaster) ClearPageStorage(_ context.Context, contextID, origin string) error {
	log.Info().
		Str("context_id", contextID).
		Str("origin", origin).
		Msg("Clear page storage directive issued")
	return nil
}

// Reconfigurable is the slice of the scheduler the handlers need: a
// nudge after settings mutations.
type Reconfigurable interface {
	Reconfigure()
}

// EngineHandler is the ingestion API surface: every verb performs one or
// more read-modify-write cycles against the persisted store and answers
// with an ok/error envelope.
type EngineHandler struct {
	redis     *redis.Client
	store     *store.Store
	cache     *cache.Cache
	config    config.Config
	orch      *snapshot.Orchestrator
	contexts  *attribution.ContextTable
	matcher   *security.Matcher
	recorder  *security.Recorder
	pages     PageBroadcaster
	scheduler Reconfigurable
}

// NewEngineHandler creates the handler with dependency injection.
func NewEngineHandler(
	redisClient *redis.Client,
	st *store.Store,
	cacheClient *cache.Cache,
	cfg config.Config,
	orch *snapshot.Orchestrator,
	contexts *attribution.ContextTable,
	matcher *security.Matcher,
	recorder *security.Recorder,
	pages PageBroadcaster,
	scheduler Reconfigurable,
) *EngineHandler {
	if pages == nil {
		pages = LogBroadcaster{}
	}
	return &EngineHandler{
		redis:     redisClient,
		store:     st,
		cache:     cacheClient,
		config:    cfg,
		orch:      orch,
		contexts:  contexts,
		matcher:   matcher,
		recorder:  recorder,
		pages:     pages,
		scheduler: scheduler,
	}
}

func (h *EngineHandler) opCtx(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := time.Duration(h.config.Redis.OperationTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(r.Context(), timeout)
}

func (h *EngineHandler) invalidateState() {
	if h.config.Cache.Enabled && h.cache != nil {
		h.cache.Delete(stateCacheKey)
	}
}

// StateResponse wraps the whole store document for the dashboard.
type StateResponse struct {
	OK    bool         `json:"ok"`
	State *model.Store `json:"state"`
}

// GetState handles GET /api/state
func (h *EngineHandler) GetState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	if h.config.Cache.Enabled && h.cache != nil {
		if cached, found := h.cache.Get(stateCacheKey); found {
			if data, ok := cached.([]byte); ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write(data)
				return
			}
		}
	}

	db, err := h.store.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load state")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to load state")
		return
	}

	data, err := json.Marshal(StateResponse{OK: true, State: db})
	if err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "")
		return
	}

	if h.config.Cache.Enabled && h.cache != nil {
		h.cache.Set(stateCacheKey, data, int64(len(data)))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// SnapshotNow handles POST /api/snapshot: an on-demand snapshot cycle,
// e.g. when the dashboard opens and wants near-real-time state.
func (h *EngineHandler) SnapshotNow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	if err := h.orch.Run(ctx, snapshot.ReasonOnDemand); err != nil {
		log.Error().Err(err).Msg("On-demand snapshot failed")
		SendJSONError(w, http.StatusInternalServerError, err, "Snapshot failed")
		return
	}

	h.invalidateState()
	SendJSONSuccess(w, http.StatusOK, OKResponse{OK: true})
}

// HealthCheck handles GET /health
func (h *EngineHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.redis.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Msg("Redis health check failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "unhealthy",
			"redis":  "unavailable",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"redis":  "connected",
	})
}

// CacheMetrics handles GET /cache/metrics
func (h *EngineHandler) CacheMetrics(w http.ResponseWriter, r *http.Request) {
	if !h.config.Cache.Enabled || h.cache == nil {
		SendJSONError(w, http.StatusServiceUnavailable, errors.New("cache is disabled"), "")
		return
	}

	metrics := h.cache.GetMetricsSnapshot()
	SendJSONSuccess(w, http.StatusOK, metrics)
}
