package predict

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"driftwatch/pkg/geo"
	"driftwatch/pkg/model"
)

// Path renders a forecast as one line per source, each starting where the
// previous one ended, plus a point feature per predicted hour.
func Path(id int, anchor model.Sample, preds []model.Prediction) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if len(preds) == 0 {
		return fc
	}

	start := geo.Point{Lat: anchor.Lat, Lon: anchor.Lon}
	run := []geo.Point{start}
	source := preds[0].Source
	flush := func() {
		if len(run) < 2 {
			return
		}
		f := geojson.NewFeature(geo.LineString(run))
		f.Properties["balloon_id"] = id
		f.Properties["prediction_type"] = string(source)
		fc.Append(f)
	}

	for _, p := range preds {
		pt := geo.Point{Lat: p.Lat, Lon: p.Lon}
		if p.Source != source {
			flush()
			run = []geo.Point{run[len(run)-1]}
			source = p.Source
		}
		run = append(run, pt)
	}
	flush()

	for _, p := range preds {
		f := geojson.NewFeature(orb.Point{p.Lon, p.Lat})
		f.Properties["balloon_id"] = id
		f.Properties["hours_ahead"] = p.HoursAhead
		f.Properties["alt_km"] = p.AltKm
		f.Properties["prediction_type"] = string(p.Source)
		fc.Append(f)
	}
	return fc
}
