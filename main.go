package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"site-guardian/alert"
	"site-guardian/attribution"
	"site-guardian/cache"
	"site-guardian/config"
	"site-guardian/handler"
	appLogger "site-guardian/logger"
	"site-guardian/middleware"
	"site-guardian/model"
	"site-guardian/notify"
	redisClient "site-guardian/redis"
	"site-guardian/security"
	"site-guardian/snapshot"
	"site-guardian/store"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize logger
	appLogger.Initialize()

	// Load configuration
	cfg := config.MustLoadConfig()
	log.Info().Msg("Configuration loaded successfully")

	// Initialize Redis client and the persisted store
	rdb := redisClient.NewClient(cfg.Redis)
	st := store.New(rdb, cfg.Redis)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := st.EnsureInitialized(ctx, model.Settings{
		SnapshotIntervalMinutes: cfg.Engine.SnapshotIntervalMinutes,
		DefaultThresholdKB:      cfg.Engine.DefaultThresholdKB,
		HistoryRetentionDays:    cfg.Engine.HistoryRetentionDays,
		DailyReportEnabled:      cfg.Engine.DailyReportEnabled,
		DailyReportHourLocal:    cfg.Engine.DailyReportHourLocal,
		DailyReportTopN:         cfg.Engine.DailyReportTopN,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize store")
	}

	// Initialize cache (if enabled)
	var cacheClient *cache.Cache
	if cfg.Cache.Enabled {
		var err error
		cacheClient, err = cache.New(cfg.Cache)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize cache")
		}
	} else {
		log.Info().Msg("Cache disabled in configuration")
	}

	// Tracker rule set; an unreadable list degrades to an empty matcher
	// so ingestion still works, just without tracker counting.
	matcher, err := security.LoadMatcher(cfg.Trackers.ListPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Trackers.ListPath).Msg("Tracker list unavailable - matching disabled")
		matcher = security.NewMatcher(nil)
	}
	recorder := security.NewRecorder(cfg.Trackers.MaxBufferedMatches)
	contexts := attribution.NewContextTable()

	// Notification sinks: always log, optionally email.
	var notifier alert.Notifier = notify.LogNotifier{}
	if cfg.Email.Enabled {
		notifier = notify.Multi{notify.LogNotifier{}, notify.NewEmailNotifier(cfg.Email)}
	}

	// Snapshot orchestrator and its schedulers
	orch := snapshot.New(st, recorder, contexts, notifier)
	scheduler := snapshot.NewScheduler(orch, st)
	scheduler.Start(ctx)

	// Create handler with dependency injection
	engineHandler := handler.NewEngineHandler(
		rdb, st, cacheClient, cfg, orch, contexts, matcher, recorder,
		handler.LogBroadcaster{}, scheduler,
	)

	// Set up router
	r := mux.NewRouter()

	// Apply global middleware
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	adminAuth := middleware.NewAdminAuth(cfg.Admin.APIKeyHash, cfg.Admin.Enabled)

	r.Use(middleware.CORS)
	r.Use(middleware.RequestLogger)
	r.Use(rateLimiter.Limit)

	// Register routes
	r.HandleFunc("/health", engineHandler.HealthCheck).Methods("GET")
	r.HandleFunc("/cache/metrics", engineHandler.CacheMetrics).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", engineHandler.GetState).Methods("GET")
	api.HandleFunc("/snapshot", engineHandler.SnapshotNow).Methods("POST")
	api.HandleFunc("/metrics", engineHandler.ReportMetrics).Methods("POST")
	api.HandleFunc("/cookies/refresh", engineHandler.RefreshCookies).Methods("POST")
	api.HandleFunc("/requests", engineHandler.ReportRequest).Methods("POST")
	api.HandleFunc("/navigation", engineHandler.ReportNavigation).Methods("POST")

	// Destructive and settings routes sit behind admin auth.
	api.Handle("/exclusions", adminAuth.Protect(http.HandlerFunc(engineHandler.SetExcluded))).Methods("POST")
	api.Handle("/threshold", adminAuth.Protect(http.HandlerFunc(engineHandler.SetThreshold))).Methods("POST")
	api.Handle("/sites/clear", adminAuth.Protect(http.HandlerFunc(engineHandler.ClearSite))).Methods("POST")
	api.Handle("/settings/daily-report", adminAuth.Protect(http.HandlerFunc(engineHandler.SetDailyReport))).Methods("POST")
	api.Handle("/settings/daily-report-hour", adminAuth.Protect(http.HandlerFunc(engineHandler.SetDailyReportHour))).Methods("POST")

	// Configure HTTP server
	serverAddress := fmt.Sprintf("%s:%s", cfg.WebServer.IP, cfg.WebServer.Port)
	server := &http.Server{
		Addr:         serverAddress,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.WebServer.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WebServer.WriteTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("address", serverAddress).
			Str("scheme", cfg.WebServer.Scheme).
			Msg("Starting server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.WebServer.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Close cache
	if cacheClient != nil {
		cacheClient.Close()
	}

	// Close Redis connection
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Redis connection")
	}

	log.Info().Msg("Server stopped gracefully")
}
