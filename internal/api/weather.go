package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"driftwatch/pkg/model"
	"driftwatch/pkg/weather"
)

// WeatherFetcher returns surface weather at a position.
type WeatherFetcher interface {
	Fetch(ctx context.Context, lat, lon float64) (*model.Weather, error)
}

type WeatherHandler struct {
	client WeatherFetcher
}

func NewWeatherHandler(c WeatherFetcher) *WeatherHandler {
	return &WeatherHandler{client: c}
}

type WeatherResponse struct {
	*model.Weather
	CurrentCardinal string `json:"current_cardinal"`
}

func (h *WeatherHandler) Handle(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		http.Error(w, "Invalid lat/lon", http.StatusBadRequest)
		return
	}

	wx, err := h.client.Fetch(r.Context(), lat, lon)
	if err != nil {
		slog.Warn("Weather lookup failed", "lat", lat, "lon", lon, "error", err)
		http.Error(w, "failed to load weather", http.StatusBadGateway)
		return
	}
	writeJSON(w, WeatherResponse{
		Weather:         wx,
		CurrentCardinal: weather.CardinalDirection(wx.Current.WindDirection),
	})
}
