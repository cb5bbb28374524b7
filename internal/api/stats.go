package api

import (
	"net/http"
	"runtime"

	"driftwatch/pkg/tracker"
)

// StatsHandler reports upstream usage per provider and process memory.
type StatsHandler struct {
	tracker *tracker.Tracker
	fleet   FleetSource
}

func NewStatsHandler(t *tracker.Tracker, f FleetSource) *StatsHandler {
	return &StatsHandler{tracker: t, fleet: f}
}

type ProviderStatsDTO struct {
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	APISuccess  int64 `json:"api_success"`
	APIFailures int64 `json:"api_errors"`
	HitRate     int64 `json:"hit_rate"`
}

type TrackingStats struct {
	Balloons int    `json:"balloons"`
	LoadID   string `json:"load_id,omitempty"`
}

type StatsResponse struct {
	MemoryMB  uint64                      `json:"memory_mb"`
	Tracking  TrackingStats               `json:"tracking"`
	Providers map[string]ProviderStatsDTO `json:"providers"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := StatsResponse{
		MemoryMB:  mem.Alloc / 1024 / 1024,
		Providers: make(map[string]ProviderStatsDTO),
	}
	if snap, ok := h.fleet.Snapshot(); ok {
		resp.Tracking = TrackingStats{Balloons: len(snap.Tracks), LoadID: snap.LoadID}
	}

	for provider, stats := range h.tracker.Snapshot() {
		hitRate := int64(0)
		if total := stats.CacheHits + stats.CacheMisses; total > 0 {
			hitRate = (stats.CacheHits * 100) / total
		}
		resp.Providers[provider] = ProviderStatsDTO{
			CacheHits:   stats.CacheHits,
			CacheMisses: stats.CacheMisses,
			APISuccess:  stats.APISuccess,
			APIFailures: stats.APIFailures,
			HitRate:     hitRate,
		}
	}

	writeJSON(w, resp)
}
