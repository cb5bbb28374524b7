package model

// AltitudeBand is a fixed altitude range used for binning and misalignment summaries.
type AltitudeBand struct {
	Range string  `json:"range"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// AltitudeBands are the fleet altitude bands, lower bound inclusive.
var AltitudeBands = []AltitudeBand{
	{Range: "5-15 km", Min: 5, Max: 15},
	{Range: "15-25 km", Min: 15, Max: 25},
	{Range: "25-35 km", Min: 25, Max: 35},
}

// BandIndex returns the index of the band containing altKm, or -1.
func BandIndex(altKm float64) int {
	for i, b := range AltitudeBands {
		if altKm >= b.Min && altKm < b.Max {
			return i
		}
	}
	return -1
}
