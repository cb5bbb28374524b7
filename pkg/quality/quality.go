// Package quality scans tracks for gaps, implausible values and sensor faults.
// Findings are advisory; nothing here fails a load.
package quality

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"driftwatch/pkg/geo"
	"driftwatch/pkg/model"
)

// Policy holds the thresholds of every check.
type Policy struct {
	ExpectedSamples     int
	MinAltitudeKm       float64
	MaxAltitudeKm       float64
	JumpWarningDeg      float64
	JumpErrorDeg        float64
	FlatAltitudeRangeKm float64
	FlatMinSamples      int // flat altitude is only judged above this many samples
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{
		ExpectedSamples:     model.HoursInWindow,
		MinAltitudeKm:       5,
		MaxAltitudeKm:       40,
		JumpWarningDeg:      15,
		JumpErrorDeg:        30,
		FlatAltitudeRangeKm: 0.5,
		FlatMinSamples:      5,
	}
}

// Analyzer runs the checks of one policy.
type Analyzer struct {
	policy Policy
}

// NewAnalyzer creates an analyzer. Zero fields in p fall back to DefaultPolicy.
func NewAnalyzer(p Policy) *Analyzer {
	d := DefaultPolicy()
	if p.ExpectedSamples <= 0 {
		p.ExpectedSamples = d.ExpectedSamples
	}
	if p.MinAltitudeKm == 0 && p.MaxAltitudeKm == 0 {
		p.MinAltitudeKm, p.MaxAltitudeKm = d.MinAltitudeKm, d.MaxAltitudeKm
	}
	if p.JumpWarningDeg <= 0 {
		p.JumpWarningDeg = d.JumpWarningDeg
	}
	if p.JumpErrorDeg <= 0 {
		p.JumpErrorDeg = d.JumpErrorDeg
	}
	if p.FlatAltitudeRangeKm <= 0 {
		p.FlatAltitudeRangeKm = d.FlatAltitudeRangeKm
	}
	if p.FlatMinSamples <= 0 {
		p.FlatMinSamples = d.FlatMinSamples
	}
	return &Analyzer{policy: p}
}

// Policy returns the effective thresholds.
func (a *Analyzer) Policy() Policy {
	return a.policy
}

// Analyze runs every check against one track. Checks are independent and may
// all fire.
func (a *Analyzer) Analyze(t *model.Track) []model.Finding {
	var out []model.Finding
	add := func(kind model.FindingKind, sev model.Severity, msg string) {
		out = append(out, model.Finding{ObjectID: t.ID, Kind: kind, Message: msg, Severity: sev})
	}

	n := len(t.Samples)
	p := a.policy

	if n < p.ExpectedSamples {
		add(model.FindingIncomplete, model.SeverityWarning,
			fmt.Sprintf("Incomplete data: only %d/%d hourly samples available", n, p.ExpectedSamples))
	}

	if missing := missingHours(t.Samples, p.ExpectedSamples); missing > 0 && missing < p.ExpectedSamples {
		label := "hours"
		if missing == 1 {
			label = "hour"
		}
		add(model.FindingMissingHours, model.SeverityWarning,
			fmt.Sprintf("Missing %d %s of data (gaps in trajectory)", missing, label))
	}

	for _, s := range t.Samples {
		if s.AltKm < p.MinAltitudeKm || s.AltKm > p.MaxAltitudeKm {
			add(model.FindingUnusualAltitude, model.SeverityWarning,
				fmt.Sprintf("Unusual altitude detected: %.1f km (typical range: 15-30 km)", s.AltKm))
			break
		}
	}

	if f, ok := a.jump(t.Samples); ok {
		f.ObjectID = t.ID
		out = append(out, f)
	}

	if n > 1 && stationary(t.Samples) {
		add(model.FindingStationary, model.SeverityError,
			fmt.Sprintf("Stationary balloon: no movement detected across %d samples", n))
	}

	if n > p.FlatMinSamples {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, s := range t.Samples {
			lo = math.Min(lo, s.AltKm)
			hi = math.Max(hi, s.AltKm)
		}
		if spread := hi - lo; spread < p.FlatAltitudeRangeKm {
			add(model.FindingFlatAltitude, model.SeverityWarning,
				fmt.Sprintf("Very stable altitude: only %.2f km variation (may indicate sensor issue)", spread))
		}
	}

	return out
}

// jump reports the first consecutive one-hour pair that moved further than
// the warning threshold. Longer gaps are not judged.
func (a *Analyzer) jump(samples []model.Sample) (model.Finding, bool) {
	sorted := slices.Clone(samples)
	slices.SortStableFunc(sorted, func(x, y model.Sample) int { return cmp.Compare(x.HourAgo, y.HourAgo) })

	for i := 0; i+1 < len(sorted); i++ {
		curr, next := sorted[i], sorted[i+1]
		if next.HourAgo-curr.HourAgo != 1 {
			continue
		}
		latDiff := math.Abs(curr.Lat - next.Lat)
		lonDiff := geo.LonSeparation(curr.Lon, next.Lon)

		if latDiff > a.policy.JumpErrorDeg || lonDiff > a.policy.JumpErrorDeg {
			return model.Finding{
				Kind:     model.FindingPositionJump,
				Severity: model.SeverityError,
				Message:  fmt.Sprintf("Unrealistic position jump detected (%.1f° lat, %.1f° lon in 1 hour)", latDiff, lonDiff),
			}, true
		}
		if latDiff > a.policy.JumpWarningDeg || lonDiff > a.policy.JumpWarningDeg {
			return model.Finding{
				Kind:     model.FindingPositionJump,
				Severity: model.SeverityWarning,
				Message:  fmt.Sprintf("Large position jump: moved %.1f° lat, %.1f° lon in 1 hour", latDiff, lonDiff),
			}, true
		}
	}
	return model.Finding{}, false
}

func missingHours(samples []model.Sample, expected int) int {
	seen := make(map[int]bool, len(samples))
	for _, s := range samples {
		if s.HourAgo >= 0 && s.HourAgo < expected {
			seen[s.HourAgo] = true
		}
	}
	return expected - len(seen)
}

// stationary reports whether every sample shares one position at 4-decimal
// precision.
func stationary(samples []model.Sample) bool {
	first := fingerprint(samples[0])
	for _, s := range samples[1:] {
		if fingerprint(s) != first {
			return false
		}
	}
	return true
}

func fingerprint(s model.Sample) string {
	return fmt.Sprintf("%.4f,%.4f", s.Lat, s.Lon)
}

// AnalyzeFleet runs Analyze on every track and ranks the result: errors
// first, then by balloon id, keeping check order within a balloon.
func (a *Analyzer) AnalyzeFleet(tracks []model.Track) []model.Finding {
	var out []model.Finding
	for i := range tracks {
		out = append(out, a.Analyze(&tracks[i])...)
	}
	slices.SortStableFunc(out, func(x, y model.Finding) int {
		if c := cmp.Compare(rank(x.Severity), rank(y.Severity)); c != 0 {
			return c
		}
		return cmp.Compare(x.ObjectID, y.ObjectID)
	})
	return out
}

func rank(s model.Severity) int {
	if s == model.SeverityError {
		return 0
	}
	return 1
}
