package quality

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftwatch/pkg/model"
)

// fullTrack returns 24 hourly samples drifting east with varying altitude.
func fullTrack(id int) model.Track {
	samples := make([]model.Sample, model.HoursInWindow)
	for h := range samples {
		samples[h] = model.Sample{HourAgo: h, Lat: 40, Lon: 10 - float64(h)*0.5, AltKm: 15 + float64(h%4)}
	}
	return model.NewTrack(id, samples)
}

func kinds(fs []model.Finding) []model.FindingKind {
	out := make([]model.FindingKind, len(fs))
	for i, f := range fs {
		out[i] = f.Kind
	}
	return out
}

func TestAnalyze_Clean(t *testing.T) {
	tr := fullTrack(1)
	assert.Empty(t, NewAnalyzer(DefaultPolicy()).Analyze(&tr))
}

func TestAnalyze_Incomplete(t *testing.T) {
	tr := fullTrack(2)
	tr = model.NewTrack(2, tr.Samples[:20])

	fs := NewAnalyzer(DefaultPolicy()).Analyze(&tr)
	require.Equal(t, []model.FindingKind{model.FindingIncomplete, model.FindingMissingHours}, kinds(fs))
	assert.Contains(t, fs[0].Message, "20/24")
	assert.Equal(t, model.SeverityWarning, fs[0].Severity)
	assert.Equal(t, "Missing 4 hours of data (gaps in trajectory)", fs[1].Message)
	assert.Equal(t, 2, fs[1].ObjectID)
}

func TestAnalyze_SingleMissingHour(t *testing.T) {
	tr := fullTrack(3)
	samples := append([]model.Sample{}, tr.Samples[:5]...)
	samples = append(samples, tr.Samples[6:]...)
	tr = model.NewTrack(3, samples)

	fs := NewAnalyzer(DefaultPolicy()).Analyze(&tr)
	require.Len(t, fs, 2)
	assert.Equal(t, "Missing 1 hour of data (gaps in trajectory)", fs[1].Message)
}

func TestAnalyze_UnusualAltitude(t *testing.T) {
	tr := fullTrack(4)
	tr.Samples[7].AltKm = 41.26
	tr.Samples[9].AltKm = 2

	fs := NewAnalyzer(DefaultPolicy()).Analyze(&tr)
	require.Len(t, fs, 1)
	assert.Equal(t, model.FindingUnusualAltitude, fs[0].Kind)
	assert.Equal(t, "Unusual altitude detected: 41.3 km (typical range: 15-30 km)", fs[0].Message)
}

func TestAnalyze_Jumps(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func([]model.Sample)
		wantSev model.Severity
		wantMsg string
		none    bool
	}{
		{
			name:    "warning",
			mutate:  func(s []model.Sample) { s[5].Lat = 40 + 16 },
			wantSev: model.SeverityWarning,
			wantMsg: "Large position jump: moved 16.0° lat, 0.5° lon in 1 hour",
		},
		{
			name:    "error wins when first",
			mutate:  func(s []model.Sample) { s[3].Lat = 40 + 31; s[10].Lat = 40 + 16 },
			wantSev: model.SeverityError,
			wantMsg: "Unrealistic position jump detected (31.0° lat, 0.5° lon in 1 hour)",
		},
		{
			name:    "first occurrence only",
			mutate:  func(s []model.Sample) { s[3].Lat = 40 + 16; s[10].Lat = 40 + 31 },
			wantSev: model.SeverityWarning,
		},
		{
			name: "antimeridian crossing is small",
			mutate: func(s []model.Sample) {
				for h := range s {
					s[h].Lon = -179.5 + float64(h)*0.5
					if s[h].Lon > 180 {
						s[h].Lon -= 360
					}
				}
				s[0].Lon = 179.9
			},
			none: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := fullTrack(5)
			tt.mutate(tr.Samples)
			var jumps []model.Finding
			for _, f := range NewAnalyzer(DefaultPolicy()).Analyze(&tr) {
				if f.Kind == model.FindingPositionJump {
					jumps = append(jumps, f)
				}
			}
			if tt.none {
				assert.Empty(t, jumps)
				return
			}
			require.Len(t, jumps, 1)
			assert.Equal(t, tt.wantSev, jumps[0].Severity)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, jumps[0].Message)
			}
		})
	}
}

func TestAnalyze_JumpIgnoresLongGaps(t *testing.T) {
	tr := model.NewTrack(6, []model.Sample{
		{HourAgo: 0, Lat: 0, Lon: 0, AltKm: 15},
		{HourAgo: 3, Lat: 40, Lon: 0, AltKm: 16},
	})
	for _, f := range NewAnalyzer(DefaultPolicy()).Analyze(&tr) {
		assert.NotEqual(t, model.FindingPositionJump, f.Kind)
	}
}

func TestAnalyze_Stationary(t *testing.T) {
	samples := make([]model.Sample, model.HoursInWindow)
	for h := range samples {
		samples[h] = model.Sample{HourAgo: h, Lat: 12.34561, Lon: 56.78901, AltKm: 10 + float64(h)}
	}
	samples[3].Lat = 12.34564 // same at 4 decimals
	tr := model.NewTrack(7, samples)

	fs := NewAnalyzer(DefaultPolicy()).Analyze(&tr)
	require.Len(t, fs, 1)
	assert.Equal(t, model.FindingStationary, fs[0].Kind)
	assert.Equal(t, model.SeverityError, fs[0].Severity)
	assert.Equal(t, "Stationary balloon: no movement detected across 24 samples", fs[0].Message)

	single := model.NewTrack(8, samples[:1])
	for _, f := range NewAnalyzer(DefaultPolicy()).Analyze(&single) {
		assert.NotEqual(t, model.FindingStationary, f.Kind, "one sample is not stationary")
	}
}

func TestAnalyze_FlatAltitude(t *testing.T) {
	tr := fullTrack(9)
	for h := range tr.Samples {
		tr.Samples[h].AltKm = 18 + float64(h%2)*0.1
	}
	fs := NewAnalyzer(DefaultPolicy()).Analyze(&tr)
	require.Len(t, fs, 1)
	assert.Equal(t, model.FindingFlatAltitude, fs[0].Kind)
	assert.Equal(t, "Very stable altitude: only 0.10 km variation (may indicate sensor issue)", fs[0].Message)

	// Five samples are too few to judge.
	short := model.NewTrack(10, tr.Samples[:5])
	for _, f := range NewAnalyzer(DefaultPolicy()).Analyze(&short) {
		assert.NotEqual(t, model.FindingFlatAltitude, f.Kind)
	}
}

func TestAnalyze_CustomPolicy(t *testing.T) {
	tr := fullTrack(11)
	tr.Samples[5].Lat = 40 + 12

	strict := NewAnalyzer(Policy{JumpWarningDeg: 10, JumpErrorDeg: 11})
	fs := strict.Analyze(&tr)
	require.Len(t, fs, 1)
	assert.Equal(t, model.SeverityError, fs[0].Severity)
	assert.Equal(t, 24, strict.Policy().ExpectedSamples)
}

func TestAnalyzeFleet_Ranking(t *testing.T) {
	warnOnly := fullTrack(1)
	warnOnly.Samples[4].AltKm = 50

	errTrack := fullTrack(5)
	errTrack.Samples[2].Lat = 80

	clean := fullTrack(3)

	partial := fullTrack(2)
	partial = model.NewTrack(2, partial.Samples[:23])

	fs := NewAnalyzer(DefaultPolicy()).AnalyzeFleet([]model.Track{warnOnly, partial, clean, errTrack})

	type row struct {
		ID   int
		Kind model.FindingKind
		Sev  model.Severity
	}
	var got []row
	for _, f := range fs {
		got = append(got, row{f.ObjectID, f.Kind, f.Severity})
	}
	want := []row{
		{5, model.FindingPositionJump, model.SeverityError},
		{1, model.FindingUnusualAltitude, model.SeverityWarning},
		{2, model.FindingIncomplete, model.SeverityWarning},
		{2, model.FindingMissingHours, model.SeverityWarning},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AnalyzeFleet mismatch (-want +got):\n%s", diff)
	}
}

func TestPaginate(t *testing.T) {
	var fs []model.Finding
	for i := 0; i < 45; i++ {
		sev := model.SeverityWarning
		if i%3 == 0 {
			sev = model.SeverityError
		}
		fs = append(fs, model.Finding{ObjectID: i / 2, Severity: sev, Message: fmt.Sprint(i)})
	}

	p := Paginate(fs, "", 0)
	assert.Len(t, p.Findings, PageSize)
	assert.Equal(t, 45, p.Total)
	assert.Equal(t, 25, p.Remaining)
	assert.Equal(t, 40, p.NextLimit)
	assert.Equal(t, 15, p.Errors)
	assert.Equal(t, 30, p.Warnings)

	p = Paginate(fs, "", 40)
	assert.Len(t, p.Findings, 40)
	assert.Equal(t, 45, p.NextLimit)

	p = Paginate(fs, "", 45)
	assert.Len(t, p.Findings, 45)
	assert.Zero(t, p.Remaining)
	assert.Zero(t, p.NextLimit)

	p = Paginate(fs, model.SeverityError, 7)
	assert.Len(t, p.Findings, 15)
	assert.Equal(t, 15, p.Total)
	for _, f := range p.Findings {
		assert.Equal(t, model.SeverityError, f.Severity)
	}
	assert.True(t, strings.HasPrefix(p.Findings[1].Message, "3"))
}
