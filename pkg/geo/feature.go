package geo

import (
	"github.com/paulmach/orb"
)

// LineString converts a path into an orb.LineString, unwrapping longitudes first so that
// the line stays continuous across the antimeridian.
func LineString(points []Point) orb.LineString {
	unwrapped := UnwrapPath(points)
	ls := make(orb.LineString, 0, len(unwrapped))
	for _, p := range unwrapped {
		ls = append(ls, orb.Point{p.Lon, p.Lat})
	}
	return ls
}
