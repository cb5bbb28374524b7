package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"driftwatch/pkg/fleet"
	"driftwatch/pkg/kinematics"
	"driftwatch/pkg/model"
	"driftwatch/pkg/predict"
	"driftwatch/pkg/quality"
	"driftwatch/pkg/segment"
	"driftwatch/pkg/track"
)

// Predictor forecasts a balloon's path.
type Predictor interface {
	Predict(ctx context.Context, t *model.Track, anchor model.Sample, includeWind bool) ([]model.Prediction, error)
}

// BalloonHandler serves per-balloon views of the current fleet.
type BalloonHandler struct {
	fleet     FleetSource
	quality   *quality.Analyzer
	predictor Predictor
	segments  map[string]segment.Config
}

// NewBalloonHandler creates the handler. segments maps a view name ("map",
// "globe") to its break thresholds; a request without a view uses "map".
func NewBalloonHandler(f FleetSource, q *quality.Analyzer, p Predictor, segments map[string]segment.Config) *BalloonHandler {
	if segments == nil {
		segments = map[string]segment.Config{"map": segment.FlatMap, "globe": segment.Globe}
	}
	return &BalloonHandler{fleet: f, quality: q, predictor: p, segments: segments}
}

type BalloonSummary struct {
	ID      int                `json:"id"`
	Latest  model.Sample       `json:"latest"`
	Samples int                `json:"samples"`
	Motion  *kinematics.Motion `json:"motion,omitempty"`
}

// HandleList returns the latest position of every balloon.
func (h *BalloonHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	snap, ok := currentFleet(w, h.fleet)
	if !ok {
		return
	}
	out := make([]BalloonSummary, len(snap.Tracks))
	for i := range snap.Tracks {
		t := &snap.Tracks[i]
		out[i] = BalloonSummary{ID: t.ID, Latest: t.Latest, Samples: len(t.Samples)}
		if m, ok := kinematics.Latest(t); ok {
			out[i].Motion = &m
		}
	}
	writeJSON(w, out)
}

type BalloonDetail struct {
	model.Track
	Steps    []kinematics.Step    `json:"steps"`
	Velocity *kinematics.Velocity `json:"velocity,omitempty"`
}

// HandleDetail returns a balloon's samples up to max_hour_ago with the motion
// between them.
func (h *BalloonHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookup(w, r)
	if !ok {
		return
	}
	maxHour, ok := maxHourAgo(w, r)
	if !ok {
		return
	}
	samples := track.VisibleSamples(t, maxHour)
	d := BalloonDetail{Track: model.NewTrack(t.ID, samples), Steps: kinematics.Series(samples)}
	if d.Steps == nil {
		d.Steps = []kinematics.Step{}
	}
	if v, ok := kinematics.FitVelocity(t.Samples); ok {
		d.Velocity = &v
	}
	writeJSON(w, d)
}

// HandlePath returns the drawable segments of a balloon as GeoJSON.
func (h *BalloonHandler) HandlePath(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookup(w, r)
	if !ok {
		return
	}
	view := r.URL.Query().Get("view")
	if view == "" {
		view = "map"
	}
	cfg, known := h.segments[view]
	if !known {
		http.Error(w, "Unknown view", http.StatusBadRequest)
		return
	}
	maxHour, ok := maxHourAgo(w, r)
	if !ok {
		return
	}

	segs := segment.Split(track.VisibleSamples(t, maxHour), cfg)
	w.Header().Set("Content-Type", "application/geo+json")
	writeGeoJSON(w, segment.FeatureCollection(t.ID, segs))
}

// HandleQuality returns the findings of one balloon.
func (h *BalloonHandler) HandleQuality(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookup(w, r)
	if !ok {
		return
	}
	findings := h.quality.Analyze(t)
	if findings == nil {
		findings = []model.Finding{}
	}
	writeJSON(w, findings)
}

type PredictionResponse struct {
	BalloonID   int                `json:"balloon_id"`
	Anchor      model.Sample       `json:"anchor"`
	Predictions []model.Prediction `json:"predictions"`
}

// HandlePrediction forecasts from the sample at hour_ago (default 0). The
// wind phase runs only for live queries, hour_ago 0 with wind=true.
// format=geojson returns the forecast as a path.
func (h *BalloonHandler) HandlePrediction(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookup(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	hourAgo := 0
	if s := q.Get("hour_ago"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 || v >= model.HoursInWindow {
			http.Error(w, "Invalid hour_ago", http.StatusBadRequest)
			return
		}
		hourAgo = v
	}
	anchor, found := t.SampleAt(hourAgo)
	if !found {
		http.Error(w, "No sample at hour_ago", http.StatusNotFound)
		return
	}
	includeWind := hourAgo == 0 && q.Get("wind") == "true"

	preds, err := h.predictor.Predict(r.Context(), t, anchor, includeWind)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Debug("Prediction abandoned by client", "balloon", t.ID)
			return
		}
		slog.Error("Prediction failed", "balloon", t.ID, "error", err)
		http.Error(w, "Prediction failed", http.StatusInternalServerError)
		return
	}
	if preds == nil {
		preds = []model.Prediction{}
	}

	if q.Get("format") == "geojson" {
		w.Header().Set("Content-Type", "application/geo+json")
		writeGeoJSON(w, predict.Path(t.ID, anchor, preds))
		return
	}
	writeJSON(w, PredictionResponse{BalloonID: t.ID, Anchor: anchor, Predictions: preds})
}

func (h *BalloonHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.Track, bool) {
	snap, ok := currentFleet(w, h.fleet)
	if !ok {
		return nil, false
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid balloon id", http.StatusBadRequest)
		return nil, false
	}
	t, found := snap.Track(id)
	if !found {
		http.Error(w, "Balloon not found", http.StatusNotFound)
		return nil, false
	}
	return t, true
}

func maxHourAgo(w http.ResponseWriter, r *http.Request) (int, bool) {
	s := r.URL.Query().Get("max_hour_ago")
	if s == "" {
		return model.HoursInWindow, true
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 || v > model.HoursInWindow {
		http.Error(w, "Invalid max_hour_ago", http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

var _ FleetSource = (*fleet.Service)(nil)
