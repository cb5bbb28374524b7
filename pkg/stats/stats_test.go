package stats

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftwatch/pkg/geo"
	"driftwatch/pkg/model"
	"driftwatch/pkg/track"
)

func fleet() []model.Track {
	return []model.Track{
		model.NewTrack(0, []model.Sample{
			{HourAgo: 0, Lat: 40, Lon: -100, AltKm: 10},
			{HourAgo: 1, Lat: 40, Lon: -101, AltKm: 10},
		}),
		model.NewTrack(1, []model.Sample{
			{HourAgo: 0, Lat: 50, Lon: 10, AltKm: 20},
			{HourAgo: 2, Lat: 50, Lon: 10, AltKm: 20},
		}),
		model.NewTrack(2, []model.Sample{
			{HourAgo: 0, Lat: -70, Lon: 0, AltKm: 20},
		}),
		model.NewTrack(3, []model.Sample{
			{HourAgo: 0, Lat: 0, Lon: 20, AltKm: 38},
			{HourAgo: 0, Lat: 1, Lon: 20, AltKm: 38},
		}),
	}
}

func TestCompute(t *testing.T) {
	s, err := Compute(fleet())
	require.NoError(t, err)

	assert.Equal(t, 4, s.Balloons)
	assert.InDelta(t, 22, s.AvgAltitudeKm, 1e-9)
	assert.InDelta(t, 85.1798/2, s.AvgSpeedKmh, 1e-3, "zero-hour pair is left out")
	assert.InDelta(t, 85.1798, s.MaxSpeedKmh, 1e-3)
	assert.True(t, s.JetStreamActivity)

	counts := []int{s.AltitudeBins[0].Count, s.AltitudeBins[1].Count, s.AltitudeBins[2].Count}
	assert.Equal(t, []int{1, 2, 0}, counts, "38 km is outside every band")
	assert.Equal(t, "15-25 km", s.DominantAltitudeBin.Range)

	wantRegions := []RegionCount{
		{geo.NorthAmerica, 1},
		{geo.Europe, 1},
		{geo.Africa, 1},
		{geo.Antarctica, 1},
	}
	if diff := cmp.Diff(wantRegions, s.Regions); diff != "" {
		t.Errorf("regions mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, RegionCount{geo.NorthAmerica, 1}, s.MostPopulatedRegion, "ties keep the first region")

	wantCorr := []CorrelationPoint{
		{AltitudeKm: 10, SpeedKmh: 85.2, Name: "Balloon 0", ID: 0},
		{AltitudeKm: 20, SpeedKmh: 0, Name: "Balloon 1", ID: 1},
	}
	if diff := cmp.Diff(wantCorr, s.Correlation); diff != "" {
		t.Errorf("correlation mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_Empty(t *testing.T) {
	_, err := Compute(nil)
	assert.ErrorIs(t, err, track.ErrNoData)
}

func TestCompute_Deterministic(t *testing.T) {
	var tracks []model.Track
	for id := range 250 {
		tracks = append(tracks, model.NewTrack(id, []model.Sample{
			{HourAgo: 0, Lat: float64(id % 80), Lon: float64(id%300 - 150), AltKm: 18},
			{HourAgo: 1, Lat: float64(id % 80), Lon: float64(id%300 - 151), AltKm: 18},
		}))
	}
	a, err := Compute(tracks)
	require.NoError(t, err)
	b, err := Compute(tracks)
	require.NoError(t, err)

	require.Len(t, a.Correlation, CorrelationSampleSize)
	assert.Equal(t, "Balloon 2", a.Correlation[1].Name, "every second balloon")
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("repeated Compute differs:\n%s", diff)
	}
}

func TestJetStream(t *testing.T) {
	tests := []struct {
		name   string
		speeds []float64
		want   bool
	}{
		{"none", nil, false},
		{"slow", []float64{10, 20, 30}, false},
		{"exactly ten percent", []float64{90, 1, 1, 1, 1, 1, 1, 1, 1, 1}, false},
		{"over ten percent", []float64{90, 95, 1, 1, 1, 1, 1, 1, 1, 1}, true},
		{"boundary speed", []float64{80}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, jetStream(tt.speeds))
		})
	}
}
