package geo

import (
	"math"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Point represents a geographic coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DistanceKm calculates the haversine distance between two points in kilometres.
// Inputs are not validated; out-of-range coordinates may yield NaN.
func DistanceKm(p1, p2 Point) float64 {
	dLat := (p2.Lat - p1.Lat) * (math.Pi / 180.0)
	dLon := (p2.Lon - p1.Lon) * (math.Pi / 180.0)
	lat1 := p1.Lat * (math.Pi / 180.0)
	lat2 := p2.Lat * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Bearing calculates the initial bearing (forward azimuth) from p1 to p2 in degrees, in [0, 360).
func Bearing(p1, p2 Point) float64 {
	lat1 := p1.Lat * (math.Pi / 180.0)
	lat2 := p2.Lat * (math.Pi / 180.0)
	dLon := (p2.Lon - p1.Lon) * (math.Pi / 180.0)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	brng := math.Atan2(y, x)

	b := math.Mod(brng*(180.0/math.Pi)+360.0, 360.0)
	if b >= 360 {
		b = 0
	}
	return b
}

// NormalizeAngle normalizes an angle difference to the range [-180, 180].
func NormalizeAngle(angleDeg float64) float64 {
	angleDeg = math.Mod(angleDeg, 360)
	if angleDeg > 180 {
		angleDeg -= 360
	}
	if angleDeg < -180 {
		angleDeg += 360
	}
	return angleDeg
}

// AngularDifference returns the minimal absolute difference between two bearings, in [0, 180].
func AngularDifference(a, b float64) float64 {
	return math.Abs(NormalizeAngle(a - b))
}

// LonSeparation returns the absolute longitude difference measured across the shorter
// side of the antimeridian: 179 and -179 are 2 degrees apart, not 358.
func LonSeparation(lon1, lon2 float64) float64 {
	d := math.Abs(lon1 - lon2)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// ShortestLonDelta returns the signed longitude change from -> to along the shorter arc.
func ShortestLonDelta(from, to float64) float64 {
	return NormalizeAngle(to - from)
}

// WrapLongitude maps a longitude into [-180, 180].
func WrapLongitude(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Midpoint returns the arithmetic midpoint of two positions, taken across the shorter
// longitude arc so that pairs straddling the antimeridian stay on the correct side.
func Midpoint(p1, p2 Point) Point {
	return Point{
		Lat: (p1.Lat + p2.Lat) / 2,
		Lon: WrapLongitude(p1.Lon + ShortestLonDelta(p1.Lon, p2.Lon)/2),
	}
}

// UnwrapPath shifts longitudes by multiples of 360 so that consecutive points never differ
// by more than 180 degrees. Renderers use it to draw paths across the antimeridian without
// a spurious line around the globe. The input is not modified.
func UnwrapPath(points []Point) []Point {
	if len(points) == 0 {
		return nil
	}
	out := make([]Point, len(points))
	out[0] = points[0]
	for i := 1; i < len(points); i++ {
		prev := out[i-1].Lon
		out[i] = Point{
			Lat: points[i].Lat,
			Lon: prev + ShortestLonDelta(prev, points[i].Lon),
		}
	}
	return out
}
