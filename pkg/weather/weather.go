// Package weather fetches surface conditions around a balloon position.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"time"

	"driftwatch/pkg/cache"
	"driftwatch/pkg/model"
	"driftwatch/pkg/request"
)

// KeyPrecision is the number of decimals positions are rounded to for caching.
// One decimal is roughly 11 km, finer than the model grid.
const KeyPrecision = 1

// ErrUnavailable wraps every failure to produce weather for a position.
var ErrUnavailable = errors.New("weather data unavailable")

type key struct{ lat, lon float64 }

// Client reads hourly surface weather from Open-Meteo.
type Client struct {
	rc      *request.Client
	baseURL string
	timeout time.Duration
	cache   *cache.TTL[key, *model.Weather]
}

// NewClient creates a client. Results are kept for ttl; a zero ttl means one hour.
func NewClient(rc *request.Client, baseURL string, ttl, timeout time.Duration) *Client {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		rc:      rc,
		baseURL: baseURL,
		timeout: timeout,
		cache:   cache.NewTTL[key, *model.Weather](ttl),
	}
}

type forecastResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Hourly    struct {
		Time          []string   `json:"time"`
		Temperature   []*float64 `json:"temperature_2m"`
		WindSpeed     []*float64 `json:"wind_speed_10m"`
		WindDirection []*float64 `json:"wind_direction_10m"`
	} `json:"hourly"`
}

// Fetch returns yesterday's and today's hourly weather at a position. The
// current conditions are the last complete hourly entry; hours with a
// missing value are skipped.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (*model.Weather, error) {
	k := key{cache.Round(lat, KeyPrecision), cache.Round(lon, KeyPrecision)}
	if w, ok := c.cache.Get(k); ok {
		slog.Debug("Using cached weather", "lat", k.lat, "lon", k.lon)
		return w, nil
	}

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.6f", lat))
	q.Set("longitude", fmt.Sprintf("%.6f", lon))
	q.Set("hourly", "temperature_2m,wind_speed_10m,wind_direction_10m")
	q.Set("wind_speed_unit", "kmh")
	q.Set("past_days", "1")
	q.Set("forecast_days", "1")
	q.Set("timezone", "UTC")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// The typed cache below is the only cache; the body is not stored.
	body, err := c.rc.Get(ctx, c.baseURL+"?"+q.Encode(), "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var resp forecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	h := resp.Hourly
	if len(h.Time) == 0 {
		return nil, fmt.Errorf("%w: empty series", ErrUnavailable)
	}

	w := &model.Weather{Lat: resp.Latitude, Lon: resp.Longitude}
	for i, s := range h.Time {
		t, err := time.Parse("2006-01-02T15:04", s)
		if err != nil {
			return nil, fmt.Errorf("%w: time %q: %v", ErrUnavailable, s, err)
		}
		temp, ok1 := at(h.Temperature, i)
		speed, ok2 := at(h.WindSpeed, i)
		dir, ok3 := at(h.WindDirection, i)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		w.Hourly = append(w.Hourly, model.WeatherPoint{
			Time:          t,
			TemperatureC:  temp,
			WindSpeedKmh:  speed,
			WindDirection: dir,
		})
	}
	if len(w.Hourly) == 0 {
		return nil, fmt.Errorf("%w: no complete hour", ErrUnavailable)
	}
	w.Current = w.Hourly[len(w.Hourly)-1]

	c.cache.Set(k, w)
	slog.Debug("Fetched weather", "lat", k.lat, "lon", k.lon, "hours", len(w.Hourly))
	return w, nil
}

func at(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

// Clear drops every cached position.
func (c *Client) Clear() {
	c.cache.Clear()
	slog.Info("Weather cache cleared")
}

var compass = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CardinalDirection names a bearing on the 16-point compass.
func CardinalDirection(deg float64) string {
	i := int(math.Round(deg/22.5)) % 16
	if i < 0 {
		i += 16
	}
	return compass[i]
}
