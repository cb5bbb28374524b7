// Package track reconstructs per-balloon trajectories from hourly snapshots.
package track

import (
	"errors"
	"log/slog"
	"time"

	"driftwatch/pkg/feed"
	"driftwatch/pkg/logging"
	"driftwatch/pkg/model"
)

// ErrNoData is returned when no snapshot holds a single valid point, so the
// number of tracked objects cannot be determined.
var ErrNoData = errors.New("no balloon data available")

// PointRef locates one entry in the hourly snapshots.
type PointRef struct {
	Hour  int `json:"hour"`
	Index int `json:"index"`
}

// Assembly is the result of one load cycle.
type Assembly struct {
	Tracks      []model.Track
	ObjectCount int // length of the first snapshot with a valid point

	// Diagnostics, all non-fatal.
	InvalidPoints  []PointRef // entries that failed validation
	MissingHours   []int      // hours whose snapshot was absent or malformed
	LengthMismatch []int      // hours whose snapshot length differs from ObjectCount
}

// Assemble links snapshots by array index into tracks. snaps[h] is the snapshot
// h hours ago; nil means the hour could not be loaded. When ref is non-zero each
// sample is stamped ref minus its lag.
//
// Objects without a single valid sample are left out. Assembly fails only when
// every snapshot is empty or absent.
func Assemble(snaps []feed.Snapshot, ref time.Time) (*Assembly, error) {
	n := -1
	for _, s := range snaps {
		if s.Valid() > 0 {
			n = len(s)
			break
		}
	}
	if n < 0 {
		return nil, ErrNoData
	}

	a := &Assembly{ObjectCount: n}
	for h := 0; h < model.HoursInWindow; h++ {
		if h >= len(snaps) || snaps[h] == nil {
			a.MissingHours = append(a.MissingHours, h)
			continue
		}
		if len(snaps[h]) != n {
			a.LengthMismatch = append(a.LengthMismatch, h)
		}
		for i, p := range snaps[h] {
			if !p.Usable() {
				a.InvalidPoints = append(a.InvalidPoints, PointRef{Hour: h, Index: i})
			}
		}
	}
	if len(a.LengthMismatch) > 0 {
		slog.Warn("Snapshot length differs from object count", "objects", n, "hours", a.LengthMismatch)
	}

	a.Tracks = make([]model.Track, 0, n)
	for i := 0; i < n; i++ {
		var samples []model.Sample
		for h := 0; h < model.HoursInWindow && h < len(snaps); h++ {
			snap := snaps[h]
			if i >= len(snap) || !snap[i].Usable() {
				logging.TraceDefault("Missing sample", "balloon", i, "hour", h)
				continue
			}
			p := snap[i]
			s := model.Sample{HourAgo: h, Lat: p.Lat(), Lon: p.Lon(), AltKm: p.AltKm()}
			if !ref.IsZero() {
				s.Timestamp = ref.Add(-time.Duration(h) * time.Hour)
			}
			samples = append(samples, s)
		}
		// Hours are visited in order, so samples are already ascending.
		if len(samples) == 0 {
			continue
		}
		a.Tracks = append(a.Tracks, model.NewTrack(i, samples))
	}

	slog.Info("Tracks assembled",
		"objects", n,
		"tracks", len(a.Tracks),
		"invalid_points", len(a.InvalidPoints),
		"missing_hours", len(a.MissingHours),
	)
	return a, nil
}

// VisibleSamples returns the samples newer than maxHourAgo hours.
func VisibleSamples(t *model.Track, maxHourAgo int) []model.Sample {
	out := make([]model.Sample, 0, len(t.Samples))
	for _, s := range t.Samples {
		if s.HourAgo < maxHourAgo {
			out = append(out, s)
		}
	}
	return out
}

// Eligible returns the tracks holding at least minSamples samples.
func Eligible(tracks []model.Track, minSamples int) []model.Track {
	out := make([]model.Track, 0, len(tracks))
	for _, t := range tracks {
		if len(t.Samples) >= minSamples {
			out = append(out, t)
		}
	}
	return out
}

// SampleEvenly picks up to n items spread across items: every step-th item
// with step = max(1, len/n), truncated to n. The result is deterministic.
func SampleEvenly[T any](items []T, n int) []T {
	if n <= 0 || len(items) == 0 {
		return nil
	}
	if len(items) <= n {
		return items
	}
	step := max(1, len(items)/n)
	out := make([]T, 0, n)
	for i := 0; i < len(items) && len(out) < n; i += step {
		out = append(out, items[i])
	}
	return out
}

// Find returns the track with the given id.
func Find(tracks []model.Track, id int) (*model.Track, bool) {
	for i := range tracks {
		if tracks[i].ID == id {
			return &tracks[i], true
		}
		if tracks[i].ID > id {
			break
		}
	}
	return nil, false
}
