package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Region names used by the fleet statistics.
const (
	NorthAmerica = "North America"
	SouthAmerica = "South America"
	Europe       = "Europe"
	Africa       = "Africa"
	Asia         = "Asia"
	Oceania      = "Oceania"
	Antarctica   = "Antarctica"
)

// Regions lists every region in reporting order.
var Regions = []string{NorthAmerica, SouthAmerica, Europe, Africa, Asia, Oceania, Antarctica}

type regionRule struct {
	name  string
	bound orb.Bound
}

func bound(minLon, minLat, maxLon, maxLat float64) orb.Bound {
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}
}

// below returns the largest float strictly less than v, turning an inclusive bound edge
// into an exclusive one.
func below(v float64) float64 {
	return math.Nextafter(v, math.Inf(-1))
}

// regionRules are evaluated in order; the first bound containing the point wins.
// Bounds are inclusive on every edge.
var regionRules = []regionRule{
	{Antarctica, bound(-180, -90, 180, below(-60))},
	{NorthAmerica, bound(-170, 15, -30, 90)},
	{SouthAmerica, bound(-170, -90, -30, 15)},
	{Europe, bound(-30, 35, 60, 90)},
	{Africa, bound(-30, -90, 60, 35)},
	{Oceania, bound(110, -90, 180, below(-10))},
	{Asia, bound(60, -90, 180, 90)},
	{Asia, bound(-180, -90, -170, 90)},
}

// ClassifyRegion assigns a coarse continental region to a position.
// It returns "" only for coordinates outside the valid range.
func ClassifyRegion(p Point) string {
	pt := orb.Point{p.Lon, p.Lat} // orb uses [lon, lat] order
	for _, r := range regionRules {
		if r.bound.Contains(pt) {
			return r.name
		}
	}
	return ""
}
