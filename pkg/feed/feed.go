// Package feed loads the hourly position snapshots that tracks are assembled from.
//
// Snapshot h holds one [lat, lon, altKm] triple per tracked object, h hours
// before the newest file. The array index is the only link between hours, so
// an entry that fails validation stays in place as nil instead of being removed.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"driftwatch/pkg/model"
)

// Hours is the number of hourly files in one load.
const Hours = model.HoursInWindow

// ErrMalformed is returned when a snapshot body is not a JSON array.
var ErrMalformed = errors.New("malformed snapshot")

// Triple is one raw position: latitude, longitude, altitude in km.
type Triple [3]float64

// Lat returns the latitude.
func (t Triple) Lat() float64 { return t[0] }

// Lon returns the longitude.
func (t Triple) Lon() float64 { return t[1] }

// AltKm returns the altitude.
func (t Triple) AltKm() float64 { return t[2] }

// Valid reports whether all values are finite and in range.
func (t Triple) Valid() bool {
	for _, v := range t {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return t[0] >= -90 && t[0] <= 90 &&
		t[1] >= -180 && t[1] <= 180 &&
		t[2] >= 0
}

// Snapshot is one hour of positions indexed by object id. A nil entry is an
// invalid point at that index.
type Snapshot []*Triple

// Valid counts the entries that are present and in range.
func (s Snapshot) Valid() int {
	n := 0
	for _, p := range s {
		if p.Usable() {
			n++
		}
	}
	return n
}

// Usable reports whether t is present and valid.
func (t *Triple) Usable() bool {
	return t != nil && t.Valid()
}

// ParseSnapshot decodes one hourly file. Entries that are not three in-range
// numbers become nil at their index; only a body that is not an array fails.
func ParseSnapshot(hour int, body []byte) (Snapshot, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: hour %02d: %v", ErrMalformed, hour, err)
	}

	snap := make(Snapshot, len(raw))
	invalid := 0
	for i, entry := range raw {
		t, ok := parseTriple(entry)
		if !ok {
			invalid++
			slog.Warn("Invalid point", "hour", hour, "index", i, "raw", string(entry))
			continue
		}
		snap[i] = t
	}
	if invalid > 0 {
		slog.Debug("Snapshot parsed with invalid points", "hour", hour, "total", len(raw), "invalid", invalid)
	}
	return snap, nil
}

func parseTriple(entry json.RawMessage) (*Triple, bool) {
	var vals []*float64
	if err := json.Unmarshal(entry, &vals); err != nil || len(vals) != 3 {
		return nil, false
	}
	var t Triple
	for i, v := range vals {
		if v == nil {
			return nil, false
		}
		t[i] = *v
	}
	if !t.Valid() {
		return nil, false
	}
	return &t, true
}
