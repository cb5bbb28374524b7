// Package stats computes fleet-wide summaries over the latest positions.
package stats

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"driftwatch/pkg/cache"
	"driftwatch/pkg/geo"
	"driftwatch/pkg/kinematics"
	"driftwatch/pkg/model"
	"driftwatch/pkg/track"
)

const (
	// CorrelationSampleSize caps the altitude/speed scatter sample.
	CorrelationSampleSize = 100
	// JetStreamKmh is the speed above which a balloon is riding a jet stream.
	JetStreamKmh = 80.0
	// JetStreamShare is the fraction of fast balloons that flags jet stream activity.
	JetStreamShare = 0.1
)

// AltitudeBin counts balloons whose latest altitude falls in a band.
type AltitudeBin struct {
	model.AltitudeBand
	Count int `json:"count"`
}

// RegionCount counts balloons whose latest position falls in a region.
type RegionCount struct {
	Region string `json:"region"`
	Count  int    `json:"count"`
}

// CorrelationPoint is one balloon in the altitude/speed scatter.
type CorrelationPoint struct {
	AltitudeKm float64 `json:"altitude"`
	SpeedKmh   float64 `json:"speed"`
	Name       string  `json:"balloon_name"`
	ID         int     `json:"id"` // position in the sample
}

// Statistics summarises a fleet.
type Statistics struct {
	Balloons            int                `json:"balloons"`
	AvgAltitudeKm       float64            `json:"avg_altitude"`
	AvgSpeedKmh         float64            `json:"avg_speed"`
	MaxSpeedKmh         float64            `json:"max_speed"`
	AltitudeBins        []AltitudeBin      `json:"altitude_bins"`
	Regions             []RegionCount      `json:"region_data"`
	Correlation         []CorrelationPoint `json:"correlation_data"`
	DominantAltitudeBin AltitudeBin        `json:"dominant_altitude_bin"`
	MostPopulatedRegion RegionCount        `json:"most_populated_region"`
	JetStreamActivity   bool               `json:"has_jet_stream_activity"`
}

// Compute summarises tracks. It returns track.ErrNoData for an empty fleet.
// Speeds come from the two newest samples divided by the hours between them;
// pairs that are not ordered in time are left out.
func Compute(tracks []model.Track) (*Statistics, error) {
	if len(tracks) == 0 {
		return nil, track.ErrNoData
	}

	s := &Statistics{Balloons: len(tracks)}

	alts := make([]float64, len(tracks))
	s.AltitudeBins = make([]AltitudeBin, len(model.AltitudeBands))
	for i, b := range model.AltitudeBands {
		s.AltitudeBins[i].AltitudeBand = b
	}
	regionCounts := make(map[string]int, len(geo.Regions))
	var speeds []float64

	for i := range tracks {
		t := &tracks[i]
		alts[i] = t.Latest.AltKm
		if b := model.BandIndex(t.Latest.AltKm); b >= 0 {
			s.AltitudeBins[b].Count++
		}
		if r := geo.ClassifyRegion(geo.Point{Lat: t.Latest.Lat, Lon: t.Latest.Lon}); r != "" {
			regionCounts[r]++
		}
		if m, ok := kinematics.Latest(t); ok {
			speeds = append(speeds, m.SpeedKmh)
		}
	}

	s.AvgAltitudeKm = stat.Mean(alts, nil)
	if len(speeds) > 0 {
		s.AvgSpeedKmh = stat.Mean(speeds, nil)
		s.MaxSpeedKmh = floats.Max(speeds)
	}

	s.DominantAltitudeBin = s.AltitudeBins[0]
	for _, b := range s.AltitudeBins[1:] {
		if b.Count > s.DominantAltitudeBin.Count {
			s.DominantAltitudeBin = b
		}
	}

	s.Regions = []RegionCount{}
	s.MostPopulatedRegion = RegionCount{Region: geo.Regions[0], Count: regionCounts[geo.Regions[0]]}
	for _, r := range geo.Regions {
		n := regionCounts[r]
		if n > 0 {
			s.Regions = append(s.Regions, RegionCount{Region: r, Count: n})
		}
		if n > s.MostPopulatedRegion.Count {
			s.MostPopulatedRegion = RegionCount{Region: r, Count: n}
		}
	}

	s.Correlation = correlation(tracks)
	s.JetStreamActivity = jetStream(speeds)
	return s, nil
}

func correlation(tracks []model.Track) []CorrelationPoint {
	sampled := track.SampleEvenly(track.Eligible(tracks, 2), CorrelationSampleSize)
	out := make([]CorrelationPoint, 0, len(sampled))
	for i := range sampled {
		m, ok := kinematics.Latest(&sampled[i])
		if !ok {
			continue
		}
		out = append(out, CorrelationPoint{
			AltitudeKm: cache.Round(sampled[i].Latest.AltKm, 1),
			SpeedKmh:   cache.Round(m.SpeedKmh, 1),
			Name:       fmt.Sprintf("Balloon %d", sampled[i].ID),
			ID:         i,
		})
	}
	return out
}

func jetStream(speeds []float64) bool {
	fast := 0
	for _, v := range speeds {
		if v > JetStreamKmh {
			fast++
		}
	}
	return float64(fast) > float64(len(speeds))*JetStreamShare
}
