package model

import "testing"

func TestNewTrack(t *testing.T) {
	samples := []Sample{
		{HourAgo: 0, Lat: 1},
		{HourAgo: 2, Lat: 2},
		{HourAgo: 5, Lat: 3},
	}
	tr := NewTrack(7, samples)
	if tr.Latest != samples[0] {
		t.Errorf("Latest = %+v, want %+v", tr.Latest, samples[0])
	}

	if s, ok := tr.SampleAt(2); !ok || s.Lat != 2 {
		t.Errorf("SampleAt(2) = %+v, %v", s, ok)
	}
	if _, ok := tr.SampleAt(3); ok {
		t.Error("SampleAt(3) should be missing")
	}

	empty := NewTrack(1, nil)
	if empty.Latest != (Sample{}) {
		t.Errorf("empty track Latest = %+v", empty.Latest)
	}
}

func TestBandIndex(t *testing.T) {
	tests := []struct {
		alt  float64
		want int
	}{
		{4.9, -1},
		{5, 0},
		{14.99, 0},
		{15, 1},
		{24.5, 1},
		{25, 2},
		{35, -1},
	}
	for _, tt := range tests {
		if got := BandIndex(tt.alt); got != tt.want {
			t.Errorf("BandIndex(%v) = %d, want %d", tt.alt, got, tt.want)
		}
	}
}
