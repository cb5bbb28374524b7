package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/paulmach/orb/geojson"

	"driftwatch/pkg/fleet"
	"driftwatch/pkg/version"
)

// Handlers groups every endpoint handler. Nil handlers leave their routes unregistered.
type Handlers struct {
	Balloons *BalloonHandler
	Fleet    *FleetHandler
	Weather  *WeatherHandler
	Feed     *FeedHandler
	Stats    *StatsHandler
	Metrics  http.Handler
}

// NewServer creates and configures the HTTP server.
func NewServer(addr string, h Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)

	if h.Stats != nil {
		mux.Handle("GET /api/stats", h.Stats)
	}

	if b := h.Balloons; b != nil {
		mux.HandleFunc("GET /api/balloons", b.HandleList)
		mux.HandleFunc("GET /api/balloons/{id}", b.HandleDetail)
		mux.HandleFunc("GET /api/balloons/{id}/path", b.HandlePath)
		mux.HandleFunc("GET /api/balloons/{id}/quality", b.HandleQuality)
		mux.HandleFunc("GET /api/balloons/{id}/prediction", b.HandlePrediction)
	}

	if f := h.Fleet; f != nil {
		mux.HandleFunc("GET /api/fleet", f.HandleStatus)
		mux.HandleFunc("POST /api/fleet/reload", f.HandleReload)
		mux.HandleFunc("GET /api/quality", f.HandleQuality)
		mux.HandleFunc("GET /api/statistics", f.HandleStatistics)
		mux.HandleFunc("GET /api/wind/misalignment", f.HandleMisalignment)
	}

	if h.Weather != nil {
		mux.HandleFunc("GET /api/weather", h.Weather.Handle)
	}
	if h.Feed != nil {
		mux.HandleFunc("GET /api/feed/{hour}", h.Feed.Handle)
	}
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // misalignment sweeps are slow on a cold cache
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeGeoJSON(w http.ResponseWriter, fc *geojson.FeatureCollection) {
	b, err := fc.MarshalJSON()
	if err != nil {
		slog.Error("Failed to encode GeoJSON", "error", err)
		http.Error(w, "Encoding failed", http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(b); err != nil {
		slog.Error("Failed to write GeoJSON", "error", err)
	}
}

// FleetSource exposes the current fleet.
type FleetSource interface {
	Snapshot() (*fleet.Snapshot, bool)
}

// currentFleet writes 503 and reports false when no load has succeeded yet.
func currentFleet(w http.ResponseWriter, src FleetSource) (*fleet.Snapshot, bool) {
	snap, ok := src.Snapshot()
	if !ok || len(snap.Tracks) == 0 {
		http.Error(w, "no balloon data available", http.StatusServiceUnavailable)
		return nil, false
	}
	return snap, true
}
