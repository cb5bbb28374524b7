package wind

import (
	"math"
)

// PressureLevels are the standard levels, in hPa, the upper-air field is
// published at.
var PressureLevels = []int{
	1000, 975, 950, 925, 900, 875, 850, 825, 800, 775, 750,
	700, 650, 600, 550, 500, 450, 400, 350, 300, 250, 200, 150, 100, 70, 50, 30,
}

// PressureAtAltitude estimates pressure in hPa with the barometric formula.
func PressureAtAltitude(altKm float64) float64 {
	h := altKm * 1000
	return 1013.25 * math.Pow(1-0.0065*h/288.15, 5.255)
}

// NearestPressureLevel returns the standard level closest to the estimated
// pressure at altKm. On a tie the higher-pressure level wins.
//
// Above roughly 44 km the formula has no real solution; those altitudes map
// to the lowest-pressure level.
func NearestPressureLevel(altKm float64) int {
	p := PressureAtAltitude(altKm)
	if math.IsNaN(p) {
		return PressureLevels[len(PressureLevels)-1]
	}
	best := PressureLevels[0]
	for _, l := range PressureLevels[1:] {
		if math.Abs(float64(l)-p) < math.Abs(float64(best)-p) {
			best = l
		}
	}
	return best
}
