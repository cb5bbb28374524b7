package kinematics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftwatch/pkg/geo"
	"driftwatch/pkg/model"
)

func TestBetween(t *testing.T) {
	oneDeg := geo.DistanceKm(geo.Point{Lat: 0, Lon: 0}, geo.Point{Lat: 0, Lon: 1})

	tests := []struct {
		name      string
		older     model.Sample
		newer     model.Sample
		wantOK    bool
		wantSpeed float64
		wantBrg   float64
	}{
		{
			name:      "one hour east",
			older:     model.Sample{HourAgo: 1, Lat: 0, Lon: 0},
			newer:     model.Sample{HourAgo: 0, Lat: 0, Lon: 1},
			wantOK:    true,
			wantSpeed: oneDeg,
			wantBrg:   90,
		},
		{
			name:      "missing hour halves the speed",
			older:     model.Sample{HourAgo: 3, Lat: 0, Lon: 0},
			newer:     model.Sample{HourAgo: 1, Lat: 0, Lon: 1},
			wantOK:    true,
			wantSpeed: oneDeg / 2,
			wantBrg:   90,
		},
		{
			name:   "same hour",
			older:  model.Sample{HourAgo: 2, Lat: 0, Lon: 0},
			newer:  model.Sample{HourAgo: 2, Lat: 0, Lon: 0},
			wantOK: false,
		},
		{
			name:   "out of order",
			older:  model.Sample{HourAgo: 1},
			newer:  model.Sample{HourAgo: 4},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := Between(tt.older, tt.newer)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				assert.Zero(t, m)
				return
			}
			assert.InDelta(t, tt.wantSpeed, m.SpeedKmh, 1e-9)
			assert.InDelta(t, tt.wantBrg, m.Bearing, 1e-6)
		})
	}
}

func TestLatest(t *testing.T) {
	tr := model.NewTrack(3, []model.Sample{
		{HourAgo: 0, Lat: 1, Lon: 0},
		{HourAgo: 1, Lat: 0, Lon: 0},
	})
	m, ok := Latest(&tr)
	require.True(t, ok)
	assert.InDelta(t, 0, m.Bearing, 1e-9, "moving due north")

	single := model.NewTrack(4, []model.Sample{{HourAgo: 0}})
	_, ok = Latest(&single)
	assert.False(t, ok)
}

func TestSeries(t *testing.T) {
	samples := []model.Sample{
		{HourAgo: 0, Lat: 0, Lon: 2},
		{HourAgo: 1, Lat: 0, Lon: 1},
		{HourAgo: 1, Lat: 0, Lon: 1}, // duplicate hour is skipped
		{HourAgo: 4, Lat: 0, Lon: 0},
	}
	steps := Series(samples)
	require.Len(t, steps, 2)
	assert.Equal(t, 0, steps[0].HourAgo)
	assert.Equal(t, 1, steps[1].HourAgo)
	assert.Equal(t, 3, steps[1].Hours)
}

func TestFitVelocity(t *testing.T) {
	tests := []struct {
		name    string
		samples []model.Sample
		wantOK  bool
		want    Velocity
	}{
		{
			name: "steady drift",
			samples: []model.Sample{
				{HourAgo: 0, Lat: 2, Lon: 4, AltKm: 12},
				{HourAgo: 1, Lat: 1, Lon: 2, AltKm: 11},
				{HourAgo: 2, Lat: 0, Lon: 0, AltKm: 10},
			},
			wantOK: true,
			want:   Velocity{LatPerHour: 1, LonPerHour: 2, AltPerHour: 1},
		},
		{
			name: "gap uses real hours",
			samples: []model.Sample{
				{HourAgo: 0, Lat: 3, Lon: 0, AltKm: 10},
				{HourAgo: 1, Lat: 2, Lon: 0, AltKm: 10},
				{HourAgo: 4, Lat: -1, Lon: 0, AltKm: 10},
			},
			wantOK: true,
			want:   Velocity{LatPerHour: 1},
		},
		{
			name: "across the antimeridian",
			samples: []model.Sample{
				{HourAgo: 0, Lat: 0, Lon: -179},
				{HourAgo: 1, Lat: 0, Lon: 179},
				{HourAgo: 2, Lat: 0, Lon: 177},
			},
			wantOK: true,
			want:   Velocity{LonPerHour: 2},
		},
		{
			name: "only the newest three count",
			samples: []model.Sample{
				{HourAgo: 0, Lat: 2},
				{HourAgo: 1, Lat: 1},
				{HourAgo: 2, Lat: 0},
				{HourAgo: 3, Lat: 50},
			},
			wantOK: true,
			want:   Velocity{LatPerHour: 1},
		},
		{
			name: "one ordered pair is enough",
			samples: []model.Sample{
				{HourAgo: 0, Lat: 2},
				{HourAgo: 0, Lat: 9},
				{HourAgo: 2, Lat: 5},
			},
			wantOK: true,
			want:   Velocity{LatPerHour: 2},
		},
		{
			name: "no ordered pair",
			samples: []model.Sample{
				{HourAgo: 1}, {HourAgo: 1}, {HourAgo: 1},
			},
			wantOK: false,
		},
		{
			name:    "too few samples",
			samples: []model.Sample{{HourAgo: 0}, {HourAgo: 1}},
			wantOK:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := FitVelocity(tt.samples)
			require.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want.LatPerHour, v.LatPerHour, 1e-9)
			assert.InDelta(t, tt.want.LonPerHour, v.LonPerHour, 1e-9)
			assert.InDelta(t, tt.want.AltPerHour, v.AltPerHour, 1e-9)
		})
	}
}
