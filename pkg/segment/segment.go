// Package segment splits a sample sequence into paths that can be drawn as
// continuous lines.
package segment

import (
	"github.com/paulmach/orb/geojson"

	"driftwatch/pkg/geo"
	"driftwatch/pkg/model"
)

// MinPoints is the smallest segment worth drawing.
const MinPoints = 2

// Config holds the thresholds above which two consecutive samples are not
// joined.
type Config struct {
	LonJumpDeg float64 `json:"lon_jump_deg"`
	LatJumpDeg float64 `json:"lat_jump_deg"`
	MaxHourGap int     `json:"max_hour_gap"` // 0 means 1
}

// Presets for the two rendering contexts.
var (
	FlatMap = Config{LonJumpDeg: 20, LatJumpDeg: 15, MaxHourGap: 1}
	Globe   = Config{LonJumpDeg: 15, LatJumpDeg: 10, MaxHourGap: 1}
)

func (c Config) maxGap() int {
	if c.MaxHourGap <= 0 {
		return 1
	}
	return c.MaxHourGap
}

// Breaks reports whether the path must not be drawn from a to b.
func (c Config) Breaks(a, b model.Sample) bool {
	gap := b.HourAgo - a.HourAgo
	if gap < 0 {
		gap = -gap
	}
	if gap > c.maxGap() {
		return true
	}
	latDiff := a.Lat - b.Lat
	if latDiff < 0 {
		latDiff = -latDiff
	}
	return geo.LonSeparation(a.Lon, b.Lon) > c.LonJumpDeg || latDiff > c.LatJumpDeg
}

// Split cuts samples at every break. Runs shorter than MinPoints are dropped.
func Split(samples []model.Sample, cfg Config) [][]model.Sample {
	var (
		out     [][]model.Sample
		current []model.Sample
	)
	flush := func() {
		if len(current) >= MinPoints {
			out = append(out, current)
		}
	}
	for i, s := range samples {
		if i > 0 && cfg.Breaks(samples[i-1], s) {
			flush()
			current = nil
		}
		current = append(current, s)
	}
	flush()
	return out
}

// FeatureCollection renders segments as GeoJSON line strings. Longitudes are
// unwrapped per segment, so a line crossing the antimeridian may leave
// [-180, 180].
func FeatureCollection(id int, segments [][]model.Sample) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, seg := range segments {
		pts := make([]geo.Point, len(seg))
		for j, s := range seg {
			pts[j] = geo.Point{Lat: s.Lat, Lon: s.Lon}
		}
		f := geojson.NewFeature(geo.LineString(pts))
		f.Properties["balloon_id"] = id
		f.Properties["segment"] = i
		f.Properties["from_hour_ago"] = seg[len(seg)-1].HourAgo
		f.Properties["to_hour_ago"] = seg[0].HourAgo
		f.Properties["points"] = len(seg)
		fc.Append(f)
	}
	return fc
}
