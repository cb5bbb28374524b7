package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"driftwatch/pkg/fleet"
	"driftwatch/pkg/misalign"
	"driftwatch/pkg/model"
	"driftwatch/pkg/quality"
	"driftwatch/pkg/stats"
)

// Fleet is the load cycle as seen by the API.
type Fleet interface {
	FleetSource
	Load(ctx context.Context) (*fleet.Snapshot, error)
	LastError() error
}

// MisalignmentComputer evaluates wind misalignment for a fleet.
type MisalignmentComputer interface {
	Compute(ctx context.Context, tracks []model.Track) ([]misalign.Result, error)
}

// FleetHandler serves fleet-wide views.
type FleetHandler struct {
	fleet    Fleet
	quality  *quality.Analyzer
	misalign MisalignmentComputer

	group singleflight.Group
	mu    sync.Mutex
	sweep *MisalignmentResponse // for the load it names
}

func NewFleetHandler(f Fleet, q *quality.Analyzer, m MisalignmentComputer) *FleetHandler {
	return &FleetHandler{fleet: f, quality: q, misalign: m}
}

type FleetStatus struct {
	*fleet.Snapshot
	Balloons  int    `json:"balloons"`
	LastError string `json:"last_error,omitempty"`
}

// HandleStatus describes the current load.
func (h *FleetHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	snap, ok := currentFleet(w, h.fleet)
	if !ok {
		return
	}
	st := FleetStatus{Snapshot: snap, Balloons: len(snap.Tracks)}
	if err := h.fleet.LastError(); err != nil {
		st.LastError = err.Error()
	}
	writeJSON(w, st)
}

// HandleReload runs a load cycle now.
func (h *FleetHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.fleet.Load(r.Context())
	switch {
	case errors.Is(err, fleet.ErrBusy):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, FleetStatus{Snapshot: snap, Balloons: len(snap.Tracks)})
}

// HandleQuality returns a page of the ranked fleet findings, filtered by
// severity and sized by limit.
func (h *FleetHandler) HandleQuality(w http.ResponseWriter, r *http.Request) {
	snap, ok := currentFleet(w, h.fleet)
	if !ok {
		return
	}
	q := r.URL.Query()

	sev := model.Severity(q.Get("severity"))
	switch sev {
	case "", model.SeverityError, model.SeverityWarning:
	case "all":
		sev = ""
	default:
		http.Error(w, "Invalid severity", http.StatusBadRequest)
		return
	}
	limit := quality.PageSize
	if s := q.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = v
	}

	writeJSON(w, quality.Paginate(h.quality.AnalyzeFleet(snap.Tracks), sev, limit))
}

// HandleStatistics returns the fleet statistics.
func (h *FleetHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	snap, ok := currentFleet(w, h.fleet)
	if !ok {
		return
	}
	s, err := stats.Compute(snap.Tracks)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s)
}

type MisalignmentResponse struct {
	LoadID   string            `json:"load_id"`
	Results  []misalign.Result `json:"results"`
	Insights misalign.Insights `json:"insights"`
}

// HandleMisalignment returns the wind misalignment of the current load. The
// sweep runs once per load and is shared by concurrent requests; a client that
// disconnects does not stop it.
func (h *FleetHandler) HandleMisalignment(w http.ResponseWriter, r *http.Request) {
	snap, ok := currentFleet(w, h.fleet)
	if !ok {
		return
	}

	if cached := h.cachedSweep(snap.LoadID); cached != nil {
		writeJSON(w, cached)
		return
	}

	ch := h.group.DoChan(snap.LoadID, func() (any, error) {
		if cached := h.cachedSweep(snap.LoadID); cached != nil {
			return cached, nil
		}
		ctx := context.WithoutCancel(r.Context())
		results, err := h.misalign.Compute(ctx, snap.Tracks)
		if err != nil {
			return nil, err
		}
		resp := &MisalignmentResponse{
			LoadID:   snap.LoadID,
			Results:  results,
			Insights: misalign.Summarize(results),
		}
		h.mu.Lock()
		h.sweep = resp
		h.mu.Unlock()
		return resp, nil
	})

	select {
	case <-r.Context().Done():
		slog.Debug("Misalignment request abandoned", "load_id", snap.LoadID)
	case res := <-ch:
		if res.Err != nil {
			slog.Error("Misalignment sweep failed", "error", res.Err)
			http.Error(w, "failed to load wind", http.StatusBadGateway)
			return
		}
		writeJSON(w, res.Val)
	}
}

func (h *FleetHandler) cachedSweep(loadID string) *MisalignmentResponse {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sweep != nil && h.sweep.LoadID == loadID {
		return h.sweep
	}
	return nil
}
