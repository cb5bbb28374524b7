package model

import "time"

// WeatherPoint is one hourly surface observation.
type WeatherPoint struct {
	Time          time.Time `json:"time"`
	TemperatureC  float64   `json:"temperature"`
	WindSpeedKmh  float64   `json:"wind_speed"`
	WindDirection float64   `json:"wind_direction"`
}

// Weather is the surface weather around a balloon position.
type Weather struct {
	Lat     float64        `json:"lat"`
	Lon     float64        `json:"lon"`
	Current WeatherPoint   `json:"current"`
	Hourly  []WeatherPoint `json:"hourly"`
}
