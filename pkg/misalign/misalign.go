// Package misalign compares the observed heading of balloons with the heading
// of the modelled wind along their most recent legs.
package misalign

import (
	"context"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"driftwatch/pkg/batch"
	"driftwatch/pkg/geo"
	"driftwatch/pkg/model"
	"driftwatch/pkg/track"
	"driftwatch/pkg/wind"
)

// Color classifies a segment's misalignment for display.
type Color string

const (
	ColorAligned  Color = "#10b981" // <= 30 degrees
	ColorPartial  Color = "#eab308" // <= 60 degrees
	ColorOpposed  Color = "#ef4444"
	ColorUnknown  Color = "#6b7280" // no modelled wind
	alignedMaxDeg       = 30.0
	partialMaxDeg       = 60.0
)

// ColorFor returns the colour band of a misalignment; nil means unknown.
func ColorFor(deg *float64) Color {
	switch {
	case deg == nil:
		return ColorUnknown
	case *deg <= alignedMaxDeg:
		return ColorAligned
	case *deg <= partialMaxDeg:
		return ColorPartial
	default:
		return ColorOpposed
	}
}

// Segment is one leg between consecutive samples.
type Segment struct {
	From         model.Sample `json:"from"`
	To           model.Sample `json:"to"`
	ObservedDeg  float64      `json:"observed_direction"`
	ModelledDeg  *float64     `json:"modelled_direction"` // downwind heading
	Misalignment *float64     `json:"misalignment"`
	Color        Color        `json:"color"`
}

// MidAltKm is the mean altitude of the leg.
func (s Segment) MidAltKm() float64 {
	return (s.From.AltKm + s.To.AltKm) / 2
}

// Result holds the legs of one balloon. Averages cover legs with a modelled
// wind only and are zero when there are none.
type Result struct {
	BalloonID       int       `json:"balloon_id"`
	Segments        []Segment `json:"segments"`
	AvgMisalignment float64   `json:"avg_misalignment"`
	MaxMisalignment float64   `json:"max_misalignment"`
}

// Config tunes sampling and pacing.
type Config struct {
	SampleSize       int
	SegmentsPerTrack int
	BatchSize        int
	BatchDelay       time.Duration
}

// DefaultConfig matches the upstream's free-tier limits.
func DefaultConfig() Config {
	return Config{SampleSize: 50, SegmentsPerTrack: 2, BatchSize: 3, BatchDelay: time.Second}
}

// Analyzer computes misalignment for a deterministic sample of the fleet.
type Analyzer struct {
	field wind.Field
	cfg   Config
	sleep batch.Sleeper
}

// New creates an analyzer. Zero config fields take their defaults.
func New(field wind.Field, cfg Config) *Analyzer {
	def := DefaultConfig()
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = def.SampleSize
	}
	if cfg.SegmentsPerTrack <= 0 {
		cfg.SegmentsPerTrack = def.SegmentsPerTrack
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	return &Analyzer{field: field, cfg: cfg, sleep: batch.Sleep}
}

// SetSleeper replaces the delay between batches. Intended for tests.
func (a *Analyzer) SetSleeper(s batch.Sleeper) {
	a.sleep = s
}

// Compute samples up to SampleSize tracks with two or more samples and
// evaluates their newest legs. A failed wind query leaves that leg unknown.
// On cancellation the batch in flight completes but Compute returns ctx.Err().
func (a *Analyzer) Compute(ctx context.Context, tracks []model.Track) ([]Result, error) {
	sampled := track.SampleEvenly(track.Eligible(tracks, 2), a.cfg.SampleSize)
	slog.Debug("Computing wind misalignment", "balloons", len(sampled))

	results := make([]Result, len(sampled))
	q := batch.Queue{Size: a.cfg.BatchSize, Delay: a.cfg.BatchDelay, Sleep: a.sleep}
	err := q.Run(ctx, len(sampled), func(ctx context.Context, i int) {
		results[i] = a.evaluate(ctx, &sampled[i])
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Analyzer) evaluate(ctx context.Context, t *model.Track) Result {
	res := Result{BalloonID: t.ID}
	var degs []float64
	for j := 0; j < min(len(t.Samples)-1, a.cfg.SegmentsPerTrack); j++ {
		from, to := t.Samples[j+1], t.Samples[j]
		p1 := geo.Point{Lat: from.Lat, Lon: from.Lon}
		p2 := geo.Point{Lat: to.Lat, Lon: to.Lon}
		seg := Segment{From: from, To: to, ObservedDeg: geo.Bearing(p1, p2)}

		mid := geo.Midpoint(p1, p2)
		obs, err := a.field.At(ctx, mid.Lat, mid.Lon, seg.MidAltKm())
		if err != nil {
			slog.Warn("Wind query failed", "balloon", t.ID, "lat", mid.Lat, "lon", mid.Lon, "error", err)
		} else {
			heading := obs.Heading()
			diff := geo.AngularDifference(seg.ObservedDeg, heading)
			seg.ModelledDeg = &heading
			seg.Misalignment = &diff
			degs = append(degs, diff)
		}
		seg.Color = ColorFor(seg.Misalignment)
		res.Segments = append(res.Segments, seg)
	}
	if len(degs) > 0 {
		res.AvgMisalignment = stat.Mean(degs, nil)
		res.MaxMisalignment = floats.Max(degs)
	}
	return res
}

// BalloonScore names a balloon and its misalignment.
type BalloonScore struct {
	ID           int     `json:"id"`
	Misalignment float64 `json:"misalignment"`
}

// BandScore names an altitude band and its mean misalignment.
type BandScore struct {
	Range        string  `json:"range"`
	Misalignment float64 `json:"misalignment"`
}

// Insights are fleet-level aggregates over Compute results.
type Insights struct {
	AvgMisalignment   float64       `json:"avg_misalignment"`
	WorstBalloon      *BalloonScore `json:"worst_balloon"`
	WorstAltitudeBand *BandScore    `json:"worst_altitude_band"`
}

// Summarize averages the per-balloon means of balloons with at least one
// known leg, picks the balloon with the largest single leg, and the
// altitude band with the largest mean. Ties keep the first.
func Summarize(results []Result) Insights {
	var ins Insights
	var avgs []float64
	for _, r := range results {
		if !r.known() {
			continue
		}
		avgs = append(avgs, r.AvgMisalignment)
		if ins.WorstBalloon == nil || r.MaxMisalignment > ins.WorstBalloon.Misalignment {
			ins.WorstBalloon = &BalloonScore{ID: r.BalloonID, Misalignment: r.MaxMisalignment}
		}
	}
	if len(avgs) > 0 {
		ins.AvgMisalignment = stat.Mean(avgs, nil)
	}

	perBand := make([][]float64, len(model.AltitudeBands))
	for _, r := range results {
		for _, s := range r.Segments {
			b := model.BandIndex(s.MidAltKm())
			if b < 0 || s.Misalignment == nil {
				continue
			}
			perBand[b] = append(perBand[b], *s.Misalignment)
		}
	}
	for i, vals := range perBand {
		if len(vals) == 0 {
			continue
		}
		m := stat.Mean(vals, nil)
		if ins.WorstAltitudeBand == nil || m > ins.WorstAltitudeBand.Misalignment {
			ins.WorstAltitudeBand = &BandScore{Range: model.AltitudeBands[i].Range, Misalignment: m}
		}
	}
	return ins
}

// known reports whether any leg has a modelled wind.
func (r Result) known() bool {
	for _, s := range r.Segments {
		if s.Misalignment != nil {
			return true
		}
	}
	return false
}
