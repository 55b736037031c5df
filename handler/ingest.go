package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"site-guardian/attribution"
	"site-guardian/cookies"
	"site-guardian/model"
	"site-guardian/utils"

	"github.com/rs/zerolog/log"
)

// MetricsRequest is the collector's storage metrics report. Byte fields
// are pointers so an omitted field keeps the stored value, matching the
// report-what-you-measured contract.
type MetricsRequest struct {
	Origin               string `json:"origin"`
	PersistentBytes      *int64 `json:"persistentBytes"`
	SessionBytes         *int64 `json:"sessionBytes"`
	ServiceWorkerPresent bool   `json:"serviceWorkerPresent"`
	StorageEventsDelta   int64  `json:"storageEventsDelta"`
}

// ReportMetrics handles POST /api/metrics. Excluded origins no-op
// silently: the collector cannot know the exclusion list and must not
// treat the response as an error.
func (h *EngineHandler) ReportMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	var input MetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Error().Err(err).Msg("Failed to decode metrics report")
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	origin, hostname, err := utils.ParseOrigin(input.Origin)
	if err != nil {
		log.Warn().Err(err).Str("origin", input.Origin).Msg("Invalid origin in metrics report")
		SendJSONError(w, http.StatusBadRequest, err, "")
		return
	}

	now := time.Now()
	err = h.store.WithTransaction(ctx, func(db *model.Store) error {
		if db.Exclusions.Has(hostname) {
			return nil // frozen, not an error
		}

		site := db.GetSite(origin, hostname)
		site.MarkSeen(now)
		if input.PersistentBytes != nil {
			site.PersistentBytes = *input.PersistentBytes
		}
		if input.SessionBytes != nil {
			site.SessionBytes = *input.SessionBytes
		}
		site.ServiceWorkerPresent = input.ServiceWorkerPresent

		if input.StorageEventsDelta != 0 {
			site.AddStorageEvents(now, input.StorageEventsDelta)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("origin", origin).Msg("Failed to apply metrics report")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to store metrics")
		return
	}

	h.invalidateState()
	SendJSONSuccess(w, http.StatusOK, OKResponse{OK: true})
}

// CookieRefreshRequest carries the externally collected full cookie list
// for an origin.
type CookieRefreshRequest struct {
	Origin  string           `json:"origin"`
	Cookies []cookies.Cookie `json:"cookies"`
}

// CookieRefreshResponse reports the computed snapshot back to the caller.
type CookieRefreshResponse struct {
	OK bool `json:"ok"`
	cookies.Stats
}

// RefreshCookies handles POST /api/cookies/refresh
func (h *EngineHandler) RefreshCookies(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	var input CookieRefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Error().Err(err).Msg("Failed to decode cookie refresh")
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	origin, hostname, err := utils.ParseOrigin(input.Origin)
	if err != nil {
		log.Warn().Err(err).Str("origin", input.Origin).Msg("Invalid origin in cookie refresh")
		SendJSONError(w, http.StatusBadRequest, err, "")
		return
	}

	// Summarize outside the store transaction; only the result needs the
	// document.
	stats := cookies.Summarize(hostname, input.Cookies)

	now := time.Now()
	err = h.store.WithTransaction(ctx, func(db *model.Store) error {
		if db.Exclusions.Has(hostname) {
			return nil
		}

		site := db.GetSite(origin, hostname)
		site.MarkSeen(now)
		site.CookiesCount = stats.CookiesCount
		site.CookiesBytesEstimate = stats.CookiesBytesEstimate
		site.ThirdPartyCookies = stats.ThirdPartyCookies
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("origin", origin).Msg("Failed to apply cookie refresh")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to store cookie metrics")
		return
	}

	h.invalidateState()
	SendJSONSuccess(w, http.StatusOK, CookieRefreshResponse{OK: true, Stats: stats})
}

// RequestReport is one observed network request, checked against the
// tracker rule set.
type RequestReport struct {
	URL          string `json:"url"`
	ContextID    string `json:"contextId"`
	InitiatorURL string `json:"initiatorUrl"`
}

// RequestReportResponse tells the collector whether the request matched.
type RequestReportResponse struct {
	OK      bool `json:"ok"`
	Matched bool `json:"matched"`
}

// ReportRequest handles POST /api/requests: the collector's stream of
// observed requests. Matches are buffered for the next snapshot cycle;
// non-matches are discarded immediately.
func (h *EngineHandler) ReportRequest(w http.ResponseWriter, r *http.Request) {
	var input RequestReport
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if input.URL == "" {
		SendJSONError(w, http.StatusBadRequest, utils.ErrEmptyOrigin, "url is required")
		return
	}

	matched := h.matcher != nil && h.matcher.MatchURL(input.URL)
	if matched && h.recorder != nil {
		h.recorder.Record(attribution.MatchEvent{
			At:           time.Now().UnixMilli(),
			ContextID:    input.ContextID,
			InitiatorURL: input.InitiatorURL,
		})
	}

	SendJSONSuccess(w, http.StatusOK, RequestReportResponse{OK: true, Matched: matched})
}

// NavigationReport updates the browsing-context side table. An empty
// origin forgets the context (tab closed).
type NavigationReport struct {
	ContextID string `json:"contextId"`
	Origin    string `json:"origin"`
}

// ReportNavigation handles POST /api/navigation
func (h *EngineHandler) ReportNavigation(w http.ResponseWriter, r *http.Request) {
	var input NavigationReport
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if input.ContextID == "" {
		SendJSONError(w, http.StatusBadRequest, utils.ErrEmptyOrigin, "contextId is required")
		return
	}

	if input.Origin == "" {
		h.contexts.Remove(input.ContextID)
		SendJSONSuccess(w, http.StatusOK, OKResponse{OK: true})
		return
	}

	origin, _, err := utils.ParseOrigin(input.Origin)
	if err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "")
		return
	}

	h.contexts.Set(input.ContextID, origin)
	SendJSONSuccess(w, http.StatusOK, OKResponse{OK: true})
}
