package geo

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name string
		p1   Point
		p2   Point
		want float64
	}{
		{
			name: "Same Point",
			p1:   Point{Lat: 0, Lon: 0},
			p2:   Point{Lat: 0, Lon: 0},
			want: 0,
		},
		{
			name: "London to Paris",
			p1:   Point{Lat: 51.5074, Lon: -0.1278},
			p2:   Point{Lat: 48.8566, Lon: 2.3522},
			want: 344, // Approx 344km
		},
		{
			name: "Equator 1 degree",
			p1:   Point{Lat: 0, Lon: 0},
			p2:   Point{Lat: 0, Lon: 1},
			want: EarthRadiusKm * math.Pi / 180,
		},
		{
			name: "Across antimeridian",
			p1:   Point{Lat: 0, Lon: 179.5},
			p2:   Point{Lat: 0, Lon: -179.5},
			want: EarthRadiusKm * math.Pi / 180,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.p1, tt.p2)
			margin := tt.want * 0.01
			if tt.want == 0 {
				margin = 1e-9
			}
			if math.Abs(got-tt.want) > margin {
				t.Errorf("DistanceKm() = %v, want %v (+/- %v)", got, tt.want, margin)
			}
		})
	}
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name string
		p1   Point
		p2   Point
		want float64
	}{
		{"North", Point{0, 0}, Point{1, 0}, 0},
		{"East", Point{0, 0}, Point{0, 1}, 90},
		{"South", Point{1, 0}, Point{0, 0}, 180},
		{"West", Point{0, 1}, Point{0, 0}, 270},
		{"East across antimeridian", Point{0, 179.5}, Point{0, -179.5}, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(tt.p1, tt.p2)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Bearing() = %v, want %v", got, tt.want)
			}
			if got < 0 || got >= 360 {
				t.Errorf("Bearing() = %v, out of [0,360)", got)
			}
		})
	}
}

func TestAngularDifference(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{0, 0, 0},
		{10, 350, 20},
		{350, 10, 20},
		{0, 180, 180},
		{90, 270, 180},
		{45, 100, 55},
		{720, 0, 0},
	}
	for _, tt := range tests {
		got := AngularDifference(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("AngularDifference(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestLonSeparation(t *testing.T) {
	if got := LonSeparation(179, -179); math.Abs(got-2) > 1e-9 {
		t.Errorf("LonSeparation(179, -179) = %v, want 2", got)
	}
	if got := LonSeparation(-10, 20); got != 30 {
		t.Errorf("LonSeparation(-10, 20) = %v, want 30", got)
	}
	if got := ShortestLonDelta(179, -179); math.Abs(got-2) > 1e-9 {
		t.Errorf("ShortestLonDelta(179, -179) = %v, want 2", got)
	}
	if got := ShortestLonDelta(-179, 179); math.Abs(got+2) > 1e-9 {
		t.Errorf("ShortestLonDelta(-179, 179) = %v, want -2", got)
	}
}

func TestWrapLongitude(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{180, 180},
		{181, -179},
		{-181, 179},
		{540, 180},
	}
	for _, tt := range tests {
		if got := WrapLongitude(tt.in); got != tt.want {
			t.Errorf("WrapLongitude(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMidpoint(t *testing.T) {
	m := Midpoint(Point{Lat: 10, Lon: 179}, Point{Lat: 20, Lon: -179})
	if m.Lat != 15 {
		t.Errorf("Midpoint lat = %v, want 15", m.Lat)
	}
	if math.Abs(math.Abs(m.Lon)-180) > 1e-9 {
		t.Errorf("Midpoint lon = %v, want +/-180", m.Lon)
	}

	m = Midpoint(Point{Lat: 0, Lon: 10}, Point{Lat: 0, Lon: 20})
	if m.Lon != 15 {
		t.Errorf("Midpoint lon = %v, want 15", m.Lon)
	}
}

func TestUnwrapPath(t *testing.T) {
	in := []Point{{0, 178}, {0, 179.5}, {0, -179}, {0, -177}}
	got := UnwrapPath(in)
	want := []float64{178, 179.5, 181, 183}
	for i := range want {
		if math.Abs(got[i].Lon-want[i]) > 1e-9 {
			t.Errorf("UnwrapPath[%d].Lon = %v, want %v", i, got[i].Lon, want[i])
		}
	}
	if in[2].Lon != -179 {
		t.Error("UnwrapPath modified its input")
	}
	if UnwrapPath(nil) != nil {
		t.Error("UnwrapPath(nil) should be nil")
	}
}

func TestLineString(t *testing.T) {
	ls := LineString([]Point{{Lat: 1, Lon: 179}, {Lat: 2, Lon: -179}})
	if len(ls) != 2 {
		t.Fatalf("len = %d, want 2", len(ls))
	}
	if ls[0][1] != 1 || ls[0][0] != 179 {
		t.Errorf("first point = %v, want [179 1]", ls[0])
	}
	if math.Abs(ls[1][0]-181) > 1e-9 {
		t.Errorf("second lon = %v, want 181", ls[1][0])
	}
}
