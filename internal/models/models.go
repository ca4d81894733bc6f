package models

import (
	"fmt"
	"time"
)

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// Place is the display label for a resolved location. CountryCode is the
// upper-case ISO 3166-1 alpha-2 code, empty when unknown.
type Place struct {
	Label       string `json:"label"`
	CountryCode string `json:"country_code,omitempty"`
}

type Current struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"wind_speed"`
	UVIndex     float64   `json:"uv_index"`
	WeatherCode int       `json:"weather_code"`
	AQI         *int      `json:"us_aqi,omitempty"` // only requested for some countries
}

type HourlyPoint struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	WeatherCode int       `json:"weather_code"`
}

type DailyPoint struct {
	Date        time.Time `json:"date"`
	TempMax     float64   `json:"temp_max"`
	TempMin     float64   `json:"temp_min"`
	WeatherCode int       `json:"weather_code"`
	Sunrise     time.Time `json:"sunrise"`
	Sunset      time.Time `json:"sunset"`
}

// Weather is a complete snapshot from a single forecast fetch.
type Weather struct {
	Coordinate Coordinate     `json:"coordinate"`
	Timezone   string         `json:"timezone"`
	Current    Current        `json:"current"`
	Hourly     []HourlyPoint  `json:"hourly"`
	Daily      []DailyPoint   `json:"daily"`
	FetchedAt  time.Time      `json:"fetched_at"`
	Location   *time.Location `json:"-"`
}

// Loc returns the forecast's local timezone, falling back to UTC.
func (w *Weather) Loc() *time.Location {
	if w == nil || w.Location == nil {
		return time.UTC
	}
	return w.Location
}
