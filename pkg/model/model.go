package model

import (
	"time"
)

// HoursInWindow is the number of hourly snapshots that make up one load cycle.
const HoursInWindow = 24

// Sample is one observation of a tracked balloon at a given lag.
type Sample struct {
	HourAgo int     `json:"hour_ago"` // 0 = most recent snapshot
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	AltKm   float64 `json:"alt_km"`

	// Reconstructed from the load time; zero when no reference time was given.
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// Track is the reconstructed history of one balloon.
// The ID is the array index shared by every hourly snapshot.
type Track struct {
	ID      int      `json:"id"`
	Samples []Sample `json:"samples"` // ascending HourAgo, missing hours dropped
	Latest  Sample   `json:"latest"`  // Samples[0]
}

// NewTrack builds a track from samples already sorted by HourAgo.
func NewTrack(id int, samples []Sample) Track {
	t := Track{ID: id, Samples: samples}
	if len(samples) > 0 {
		t.Latest = samples[0]
	}
	return t
}

// SampleAt returns the sample recorded at the given lag, if present.
func (t *Track) SampleAt(hourAgo int) (Sample, bool) {
	for _, s := range t.Samples {
		if s.HourAgo == hourAgo {
			return s, true
		}
		if s.HourAgo > hourAgo {
			break
		}
	}
	return Sample{}, false
}

// Severity grades a data quality finding.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// FindingKind identifies which quality check produced a finding.
type FindingKind string

const (
	FindingIncomplete      FindingKind = "incomplete"
	FindingMissingHours    FindingKind = "missing_hours"
	FindingUnusualAltitude FindingKind = "unusual_altitude"
	FindingPositionJump    FindingKind = "position_jump"
	FindingStationary      FindingKind = "stationary"
	FindingFlatAltitude    FindingKind = "flat_altitude"
)

// Finding is an advisory data quality observation for one balloon.
type Finding struct {
	ObjectID int         `json:"balloon_id"`
	Kind     FindingKind `json:"kind"`
	Message  string      `json:"issue"`
	Severity Severity    `json:"severity"`
}

// PredictionSource records which model produced a predicted point.
type PredictionSource string

const (
	SourceVelocity PredictionSource = "velocity"
	SourceWind     PredictionSource = "wind"
)

// Prediction is a forecast position some hours ahead of the anchor.
type Prediction struct {
	Lat        float64          `json:"lat"`
	Lon        float64          `json:"lon"`
	AltKm      float64          `json:"alt_km"`
	HoursAhead int              `json:"hours_ahead"`
	Source     PredictionSource `json:"prediction_type"`
}
