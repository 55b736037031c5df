package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"site-guardian/model"
	"site-guardian/utils"

	"github.com/rs/zerolog/log"
)

// Threshold values are clamped to this range (KB).
const maxThresholdKB = 999999

// ExclusionRequest toggles the opt-out for one hostname.
type ExclusionRequest struct {
	Hostname string `json:"hostname"`
	Excluded bool   `json:"excluded"`
}

// SetExcluded handles POST /api/exclusions. An excluded hostname's
// stored data is frozen, not deleted; only an explicit clear removes it.
func (h *EngineHandler) SetExcluded(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	var input ExclusionRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if input.Hostname == "" {
		SendJSONError(w, http.StatusBadRequest, utils.ErrEmptyHostname, "")
		return
	}

	err := h.store.WithTransaction(ctx, func(db *model.Store) error {
		has := db.Exclusions.Has(input.Hostname)
		if input.Excluded && !has {
			db.Exclusions.Hostnames = append(db.Exclusions.Hostnames, input.Hostname)
		}
		if !input.Excluded && has {
			kept := db.Exclusions.Hostnames[:0]
			for _, hn := range db.Exclusions.Hostnames {
				if hn != input.Hostname {
					kept = append(kept, hn)
				}
			}
			db.Exclusions.Hostnames = kept
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("hostname", input.Hostname).Msg("Failed to update exclusions")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to update exclusions")
		return
	}

	log.Info().Str("hostname", input.Hostname).Bool("excluded", input.Excluded).Msg("Exclusion updated")
	h.invalidateState()
	SendJSONSuccess(w, http.StatusOK, OKResponse{OK: true})
}

// ThresholdRequest overrides the per-site alert threshold.
type ThresholdRequest struct {
	Origin      string `json:"origin"`
	ThresholdKB *int64 `json:"thresholdKB"`
}

// SetThreshold handles POST /api/threshold
func (h *EngineHandler) SetThreshold(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	var input ThresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if input.ThresholdKB == nil {
		SendJSONError(w, http.StatusBadRequest, errors.New("thresholdKB is required"), "")
		return
	}

	origin, hostname, err := utils.ParseOrigin(input.Origin)
	if err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "")
		return
	}

	threshold := *input.ThresholdKB
	if threshold < 0 {
		threshold = 0
	}
	if threshold > maxThresholdKB {
		threshold = maxThresholdKB
	}

	err = h.store.WithTransaction(ctx, func(db *model.Store) error {
		site := db.GetSite(origin, hostname)
		site.ThresholdKB = threshold
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("origin", origin).Msg("Failed to set threshold")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to set threshold")
		return
	}

	h.invalidateState()
	SendJSONSuccess(w, http.StatusOK, OKResponse{OK: true})
}

// ClearSiteRequest names the origin to reset.
type ClearSiteRequest struct {
	Origin string `json:"origin"`
}

// ClearSite handles POST /api/sites/clear: resets all accumulated data
// for the origin while keeping its identity and threshold, then fans a
// best-effort "clear page storage" directive out to every live context
// on that origin. Individual directive failures never fail the clear.
func (h *EngineHandler) ClearSite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	var input ClearSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	origin, _, err := utils.ParseOrigin(input.Origin)
	if err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "")
		return
	}

	err = h.store.WithTransaction(ctx, func(db *model.Store) error {
		// A never-seen origin has nothing to clear; don't create a record
		// just to empty it.
		site, ok := db.Sites[origin]
		if !ok {
			return nil
		}
		site.Clear()
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("origin", origin).Msg("Failed to clear site")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to clear site")
		return
	}

	// Best-effort fan-out to live pages; failures are logged and skipped.
	if h.contexts != nil {
		var wg sync.WaitGroup
		for _, contextID := range h.contexts.ContextsFor(origin) {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				if err := h.pages.ClearPageStorage(ctx, id, origin); err != nil {
					log.Warn().Err(err).Str("context_id", id).Str("origin", origin).Msg("Page storage clear failed")
				}
			}(contextID)
		}
		wg.Wait()
	}

	log.Info().Str("origin", origin).Msg("Site cleared")
	h.invalidateState()
	SendJSONSuccess(w, http.StatusOK, OKResponse{OK: true})
}

// DailyReportRequest toggles the daily digest.
type DailyReportRequest struct {
	Enabled bool `json:"enabled"`
}

// SetDailyReport handles POST /api/settings/daily-report
func (h *EngineHandler) SetDailyReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	var input DailyReportRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	err := h.store.WithTransaction(ctx, func(db *model.Store) error {
		db.Settings.DailyReportEnabled = input.Enabled
		return nil
	})
	if err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to update settings")
		return
	}

	if h.scheduler != nil {
		h.scheduler.Reconfigure()
	}
	h.invalidateState()
	SendJSONSuccess(w, http.StatusOK, OKResponse{OK: true})
}

// DailyReportHourRequest moves the local report hour.
type DailyReportHourRequest struct {
	Hour *int `json:"hour"`
}

// SetDailyReportHour handles POST /api/settings/daily-report-hour
func (h *EngineHandler) SetDailyReportHour(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	var input DailyReportHourRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if input.Hour == nil || *input.Hour < 0 || *input.Hour > 23 {
		SendJSONError(w, http.StatusBadRequest, errors.New("hour must be between 0 and 23"), "")
		return
	}

	err := h.store.WithTransaction(ctx, func(db *model.Store) error {
		db.Settings.DailyReportHourLocal = *input.Hour
		return nil
	})
	if err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to update settings")
		return
	}

	if h.scheduler != nil {
		h.scheduler.Reconfigure()
	}
	h.invalidateState()
	SendJSONSuccess(w, http.StatusOK, OKResponse{OK: true})
}
