// Package predict forecasts a balloon's path a few hours ahead: a velocity fit
// for the first hours, then step-wise drift with the modelled wind.
package predict

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"time"

	"driftwatch/pkg/batch"
	"driftwatch/pkg/cache"
	"driftwatch/pkg/geo"
	"driftwatch/pkg/kinematics"
	"driftwatch/pkg/model"
	"driftwatch/pkg/tracker"
	"driftwatch/pkg/wind"
)

// Horizon limits.
const (
	VelocityHours = 3
	TotalHours    = 9
)

// Output bounds.
const (
	MaxLat   = 85.0
	MinAltKm = 5.0
	MaxAltKm = 40.0
)

// metresPerDegree is the flat-earth length of one degree of latitude.
const metresPerDegree = 111000.0

// Config holds pacing and caching.
type Config struct {
	StepDelay time.Duration // between successive wind queries
	CacheTTL  time.Duration
}

type cacheKey struct {
	id       int
	lat, lon float64
	alt      float64
	wind     bool
}

// Predictor produces hybrid forecasts and remembers them for CacheTTL.
type Predictor struct {
	field   wind.Field
	cfg     Config
	cache   *cache.TTL[cacheKey, []model.Prediction]
	sleep   batch.Sleeper
	tracker *tracker.Tracker
}

// New creates a predictor. A nil field disables the wind phase.
func New(field wind.Field, cfg Config, t *tracker.Tracker) *Predictor {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if t == nil {
		t = tracker.New()
	}
	return &Predictor{
		field:   field,
		cfg:     cfg,
		cache:   cache.NewTTL[cacheKey, []model.Prediction](cfg.CacheTTL),
		sleep:   batch.Sleep,
		tracker: t,
	}
}

// SetSleeper replaces the delay between wind queries. Intended for tests.
func (p *Predictor) SetSleeper(s batch.Sleeper) {
	p.sleep = s
}

// SetClock replaces the cache's time source. Intended for tests.
func (p *Predictor) SetClock(now func() time.Time) {
	p.cache.SetClock(now)
}

// Predict forecasts from anchor using the velocity fit of the track's newest
// samples. Hours 1..VelocityHours are velocity extrapolations; when
// includeWind is set, hours up to TotalHours follow the wind field.
//
// Fewer than three usable samples yield no predictions. If ctx is cancelled
// the caller gets ctx.Err(), but the computation runs on and is cached.
func (p *Predictor) Predict(ctx context.Context, t *model.Track, anchor model.Sample, includeWind bool) ([]model.Prediction, error) {
	key := cacheKey{
		id:   t.ID,
		lat:  cache.Round(anchor.Lat, 4),
		lon:  cache.Round(anchor.Lon, 4),
		alt:  cache.Round(anchor.AltKm, 2),
		wind: includeWind,
	}
	if preds, ok := p.cache.Get(key); ok {
		p.tracker.TrackCacheHit("prediction")
		return slices.Clone(preds), nil
	}
	p.tracker.TrackCacheMiss("prediction")

	v, ok := kinematics.FitVelocity(t.Samples)
	if !ok {
		return nil, nil
	}

	if !includeWind || p.field == nil {
		preds := velocityPhase(anchor, v)
		p.cache.Set(key, preds)
		return slices.Clone(preds), nil
	}

	done := make(chan []model.Prediction, 1)
	go func() {
		preds := p.windPhase(context.WithoutCancel(ctx), t.ID, anchor, velocityPhase(anchor, v), v)
		p.cache.Set(key, preds)
		done <- slices.Clone(preds)
	}()

	select {
	case preds := <-done:
		return preds, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func velocityPhase(anchor model.Sample, v kinematics.Velocity) []model.Prediction {
	preds := make([]model.Prediction, 0, TotalHours)
	for h := 1; h <= VelocityHours; h++ {
		fh := float64(h)
		preds = append(preds, bounded(model.Prediction{
			Lat:        anchor.Lat + v.LatPerHour*fh,
			Lon:        anchor.Lon + v.LonPerHour*fh,
			AltKm:      anchor.AltKm + v.AltPerHour*fh,
			HoursAhead: h,
			Source:     model.SourceVelocity,
		}))
	}
	return preds
}

// windPhase extends preds hour by hour from the last point. A step the field
// cannot answer takes the velocity line from anchor at that hour instead.
func (p *Predictor) windPhase(ctx context.Context, id int, anchor model.Sample, preds []model.Prediction, v kinematics.Velocity) []model.Prediction {
	last := preds[len(preds)-1]
	for h := VelocityHours + 1; h <= TotalHours; h++ {
		if h > VelocityHours+1 {
			if err := p.sleep(ctx, p.cfg.StepDelay); err != nil {
				break
			}
		}

		next := model.Prediction{HoursAhead: h, Source: model.SourceWind}
		obs, err := p.field.At(ctx, last.Lat, last.Lon, last.AltKm)
		u, vn, ok := obs.Components()
		switch {
		case err == nil && ok:
			next.Lat = last.Lat + vn*3600/metresPerDegree
			next.Lon = last.Lon + u*3600/(metresPerDegree*cosDeg(last.Lat))
			next.AltKm = last.AltKm
		default:
			if err == nil {
				err = errors.New("no wind speed")
			}
			slog.Warn("Wind step fell back to velocity", "balloon", id, "hours_ahead", h, "error", err)
			fh := float64(h)
			next.Lat = anchor.Lat + v.LatPerHour*fh
			next.Lon = anchor.Lon + v.LonPerHour*fh
			next.AltKm = anchor.AltKm + v.AltPerHour*fh
		}
		last = bounded(next)
		preds = append(preds, last)
	}
	return preds
}

func bounded(p model.Prediction) model.Prediction {
	p.Lat = geo.Clamp(p.Lat, -MaxLat, MaxLat)
	p.Lon = geo.WrapLongitude(p.Lon)
	p.AltKm = geo.Clamp(p.AltKm, MinAltKm, MaxAltKm)
	return p
}

func cosDeg(deg float64) float64 {
	return math.Cos(deg * math.Pi / 180)
}
