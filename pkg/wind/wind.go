// Package wind queries the modelled upper-air wind at a position and altitude.
package wind

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"time"

	"driftwatch/pkg/request"
)

// ErrUnavailable is returned when the field has no usable value for a query.
var ErrUnavailable = errors.New("wind data unavailable")

// Field answers point queries against a wind model.
type Field interface {
	At(ctx context.Context, lat, lon, altKm float64) (Observation, error)
}

// Observation is the modelled wind at one point. Direction is where the wind
// blows from, meteorological convention.
type Observation struct {
	DirectionDeg float64   `json:"direction"`
	SpeedMS      float64   `json:"speed_ms"`
	HasSpeed     bool      `json:"has_speed"`
	LevelHPa     int       `json:"level_hpa"`
	Time         time.Time `json:"time"`
}

// Components returns the eastward (u) and northward (v) components in m/s.
// It reports false when the observation carries no speed.
func (o Observation) Components() (u, v float64, ok bool) {
	if !o.HasSpeed {
		return 0, 0, false
	}
	rad := o.DirectionDeg * math.Pi / 180
	return -o.SpeedMS * math.Sin(rad), -o.SpeedMS * math.Cos(rad), true
}

// Heading returns the direction the air moves towards, in [0, 360).
func (o Observation) Heading() float64 {
	return math.Mod(o.DirectionDeg+180, 360)
}

// Client reads the Open-Meteo pressure-level forecast.
type Client struct {
	rc      *request.Client
	baseURL string
	timeout time.Duration
	now     func() time.Time
}

// NewClient creates a wind client. A zero timeout means 10s.
func NewClient(rc *request.Client, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{rc: rc, baseURL: baseURL, timeout: timeout, now: time.Now}
}

type forecastResponse struct {
	Hourly map[string]json.RawMessage `json:"hourly"`
}

// At implements Field.
func (c *Client) At(ctx context.Context, lat, lon, altKm float64) (Observation, error) {
	level := NearestPressureLevel(altKm)
	lat = math.Round(lat*100) / 100
	lon = math.Round(lon*100) / 100
	now := c.now().UTC()

	speedKey := fmt.Sprintf("wind_speed_%dhPa", level)
	dirKey := fmt.Sprintf("wind_direction_%dhPa", level)

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.2f", lat))
	q.Set("longitude", fmt.Sprintf("%.2f", lon))
	q.Set("hourly", speedKey+","+dirKey)
	q.Set("wind_speed_unit", "ms")
	q.Set("forecast_days", "1")
	q.Set("timezone", "UTC")
	u := c.baseURL + "?" + q.Encode()

	cacheKey := fmt.Sprintf("wind_%.2f_%.2f_%d_%s", lat, lon, level, now.Format("2006010215"))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := c.rc.Get(ctx, u, cacheKey)
	if err != nil {
		slog.Warn("Wind query failed", "lat", lat, "lon", lon, "level", level, "error", err)
		return Observation{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var resp forecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Observation{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}

	var (
		times  []string
		speeds []*float64
		dirs   []*float64
	)
	if err := decodeSeries(resp.Hourly, "time", &times); err != nil {
		return Observation{}, err
	}
	if err := decodeSeries(resp.Hourly, dirKey, &dirs); err != nil {
		return Observation{}, err
	}
	_ = decodeSeries(resp.Hourly, speedKey, &speeds) // direction-only answers are usable

	i, t := nearestHour(times, now)
	if i < 0 || i >= len(dirs) || dirs[i] == nil {
		return Observation{}, fmt.Errorf("%w: no direction at %dhPa", ErrUnavailable, level)
	}

	obs := Observation{DirectionDeg: *dirs[i], LevelHPa: level, Time: t}
	if i < len(speeds) && speeds[i] != nil {
		obs.SpeedMS = *speeds[i]
		obs.HasSpeed = true
	}
	return obs, nil
}

func decodeSeries(hourly map[string]json.RawMessage, key string, dst any) error {
	raw, ok := hourly[key]
	if !ok {
		return fmt.Errorf("%w: missing %s", ErrUnavailable, key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// nearestHour returns the index of the entry closest to now. Entries that do
// not parse are skipped; -1 means none parsed.
func nearestHour(times []string, now time.Time) (int, time.Time) {
	best, bestTime := -1, time.Time{}
	var bestDiff time.Duration
	for i, s := range times {
		t, err := time.Parse("2006-01-02T15:04", s)
		if err != nil {
			continue
		}
		d := now.Sub(t).Abs()
		if best < 0 || d < bestDiff {
			best, bestTime, bestDiff = i, t, d
		}
	}
	return best, bestTime
}
