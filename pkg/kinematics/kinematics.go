// Package kinematics derives speed, heading and drift rates from samples,
// always dividing by the real number of hours between them.
package kinematics

import (
	"driftwatch/pkg/geo"
	"driftwatch/pkg/model"
)

// FitWindow is the number of most recent samples a velocity is fit from.
const FitWindow = 3

// Motion is the movement between two samples.
type Motion struct {
	SpeedKmh   float64 `json:"speed_kmh"`
	Bearing    float64 `json:"bearing"`
	DistanceKm float64 `json:"distance_km"`
	Hours      int     `json:"hours"`
}

// Between computes the motion from older to newer. It reports false when the
// pair is not strictly ordered in time.
func Between(older, newer model.Sample) (Motion, bool) {
	dt := older.HourAgo - newer.HourAgo
	if dt <= 0 {
		return Motion{}, false
	}
	from := geo.Point{Lat: older.Lat, Lon: older.Lon}
	to := geo.Point{Lat: newer.Lat, Lon: newer.Lon}
	d := geo.DistanceKm(from, to)
	return Motion{
		SpeedKmh:   d / float64(dt),
		Bearing:    geo.Bearing(from, to),
		DistanceKm: d,
		Hours:      dt,
	}, true
}

// Latest computes the motion into the newest sample of a track.
func Latest(t *model.Track) (Motion, bool) {
	if len(t.Samples) < 2 {
		return Motion{}, false
	}
	return Between(t.Samples[1], t.Samples[0])
}

// Step is the motion into one sample from the one before it.
type Step struct {
	HourAgo int `json:"hour_ago"` // lag of the newer sample
	Motion
}

// Series returns the motion for every valid consecutive pair, newest first.
func Series(samples []model.Sample) []Step {
	var out []Step
	for i := 0; i+1 < len(samples); i++ {
		m, ok := Between(samples[i+1], samples[i])
		if !ok {
			continue
		}
		out = append(out, Step{HourAgo: samples[i].HourAgo, Motion: m})
	}
	return out
}

// Velocity is a per-hour rate of change.
type Velocity struct {
	LatPerHour float64 `json:"lat_per_hour"`
	LonPerHour float64 `json:"lon_per_hour"`
	AltPerHour float64 `json:"alt_per_hour"`
}

// FitVelocity averages the per-hour rates over the consecutive pairs of the
// FitWindow most recent samples. Longitude rates are taken across the shorter
// side of the antimeridian. It reports false with fewer than FitWindow samples
// or when no pair is ordered in time.
func FitVelocity(samples []model.Sample) (Velocity, bool) {
	if len(samples) < FitWindow {
		return Velocity{}, false
	}
	recent := samples[:FitWindow]

	var sum Velocity
	n := 0
	for i := 0; i+1 < len(recent); i++ {
		older, newer := recent[i+1], recent[i]
		dt := float64(older.HourAgo - newer.HourAgo)
		if dt <= 0 {
			continue
		}
		sum.LatPerHour += (newer.Lat - older.Lat) / dt
		sum.LonPerHour += geo.ShortestLonDelta(older.Lon, newer.Lon) / dt
		sum.AltPerHour += (newer.AltKm - older.AltKm) / dt
		n++
	}
	if n == 0 {
		return Velocity{}, false
	}
	return Velocity{
		LatPerHour: sum.LatPerHour / float64(n),
		LonPerHour: sum.LonPerHour / float64(n),
		AltPerHour: sum.AltPerHour / float64(n),
	}, true
}
