package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lox/vibecast/internal/httputil"
	"github.com/lox/vibecast/internal/models"
)

const (
	DefaultForecastURL  = "https://api.open-meteo.com"
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com"

	baseCurrentFields = "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m,uv_index"
	aqiField          = "us_aqi"
	hourlyFields      = "temperature_2m,weather_code"
	dailyFields       = "weather_code,temperature_2m_max,temperature_2m_min,sunrise,sunset"

	localTimeLayout = "2006-01-02T15:04"
	dateLayout      = "2006-01-02"
)

// ErrForecastFailed wraps every failure to obtain a usable forecast.
var ErrForecastFailed = errors.New("weather fetch failed")

// DefaultAQICountries lists the countries for which us_aqi is requested.
// The field is only reliable for the US, so other countries go without.
var DefaultAQICountries = []string{"US"}

type Client struct {
	forecast     *resty.Client
	geocoding    *resty.Client
	aqiCountries map[string]bool
}

type Options struct {
	ForecastURL  string
	GeocodingURL string
	UserAgent    string
	AQICountries []string
}

func NewClient(opts Options) *Client {
	if opts.ForecastURL == "" {
		opts.ForecastURL = DefaultForecastURL
	}
	if opts.GeocodingURL == "" {
		opts.GeocodingURL = DefaultGeocodingURL
	}
	if opts.AQICountries == nil {
		opts.AQICountries = DefaultAQICountries
	}
	aqi := make(map[string]bool, len(opts.AQICountries))
	for _, cc := range opts.AQICountries {
		aqi[strings.ToUpper(cc)] = true
	}
	return &Client{
		forecast:     httputil.NewClient("open-meteo-forecast", opts.ForecastURL, opts.UserAgent),
		geocoding:    httputil.NewClient("open-meteo-geocoding", opts.GeocodingURL, opts.UserAgent),
		aqiCountries: aqi,
	}
}

// CurrentFields returns the comma separated current-conditions fields to
// request for a country.
func (c *Client) CurrentFields(countryCode string) string {
	if c.aqiCountries[strings.ToUpper(countryCode)] {
		return baseCurrentFields + "," + aqiField
	}
	return baseCurrentFields
}

type ForecastResponse struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Timezone         string  `json:"timezone"`
	TimezoneAbbr     string  `json:"timezone_abbreviation"`
	UTCOffsetSeconds int     `json:"utc_offset_seconds"`
	Current          struct {
		Time             string   `json:"time"`
		Temperature      *float64 `json:"temperature_2m"`
		RelativeHumidity *float64 `json:"relative_humidity_2m"`
		WeatherCode      *int     `json:"weather_code"`
		WindSpeed        *float64 `json:"wind_speed_10m"`
		UVIndex          *float64 `json:"uv_index"`
		USAQI            *float64 `json:"us_aqi"`
	} `json:"current"`
	Hourly struct {
		Time        []string   `json:"time"`
		Temperature []*float64 `json:"temperature_2m"`
		WeatherCode []*int     `json:"weather_code"`
	} `json:"hourly"`
	Daily struct {
		Time        []string   `json:"time"`
		WeatherCode []*int     `json:"weather_code"`
		TempMax     []*float64 `json:"temperature_2m_max"`
		TempMin     []*float64 `json:"temperature_2m_min"`
		Sunrise     []string   `json:"sunrise"`
		Sunset      []string   `json:"sunset"`
	} `json:"daily"`
}

type apiError struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// Forecast fetches current, hourly and daily blocks for a coordinate with
// automatic timezone resolution. Any failure is returned wrapped in
// ErrForecastFailed and no partial result is produced.
func (c *Client) Forecast(ctx context.Context, coord models.Coordinate, countryCode string) (*models.Weather, error) {
	resp, err := c.forecast.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":  strconv.FormatFloat(coord.Latitude, 'f', -1, 64),
			"longitude": strconv.FormatFloat(coord.Longitude, 'f', -1, 64),
			"current":   c.CurrentFields(countryCode),
			"hourly":    hourlyFields,
			"daily":     dailyFields,
			"timezone":  "auto",
		}).
		Get("/v1/forecast")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrForecastFailed, err)
	}
	if resp.IsError() {
		var ae apiError
		if json.Unmarshal(resp.Body(), &ae) == nil && ae.Reason != "" {
			return nil, fmt.Errorf("%w: status %d: %s", ErrForecastFailed, resp.StatusCode(), ae.Reason)
		}
		return nil, fmt.Errorf("%w: status %d", ErrForecastFailed, resp.StatusCode())
	}

	var data ForecastResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %w", ErrForecastFailed, err)
	}

	w, err := normalize(&data, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrForecastFailed, err)
	}
	w.Coordinate = coord
	return w, nil
}

// normalize converts the parallel-array response into a Weather snapshot.
// Series are truncated to the shortest parallel array and entries with
// missing values are dropped.
func normalize(data *ForecastResponse, fetchedAt time.Time) (*models.Weather, error) {
	cur := data.Current
	if cur.Temperature == nil || cur.WeatherCode == nil {
		return nil, errors.New("response missing current conditions")
	}

	loc := resolveLocation(data.Timezone, data.TimezoneAbbr, data.UTCOffsetSeconds)
	w := &models.Weather{
		Timezone:  data.Timezone,
		Location:  loc,
		FetchedAt: fetchedAt,
		Current: models.Current{
			Temperature: *cur.Temperature,
			WeatherCode: *cur.WeatherCode,
			Humidity:    int(deref(cur.RelativeHumidity)),
			WindSpeed:   deref(cur.WindSpeed),
			UVIndex:     deref(cur.UVIndex),
		},
	}
	if t, err := time.ParseInLocation(localTimeLayout, cur.Time, loc); err == nil {
		w.Current.Time = t
	}
	if cur.USAQI != nil {
		aqi := int(*cur.USAQI)
		w.Current.AQI = &aqi
	}

	var skipped int
	h := data.Hourly
	n := min(len(h.Time), len(h.Temperature), len(h.WeatherCode))
	w.Hourly = make([]models.HourlyPoint, 0, n)
	for i := 0; i < n; i++ {
		t, err := time.ParseInLocation(localTimeLayout, h.Time[i], loc)
		if err != nil || h.Temperature[i] == nil || h.WeatherCode[i] == nil {
			skipped++
			continue
		}
		w.Hourly = append(w.Hourly, models.HourlyPoint{
			Time:        t,
			Temperature: *h.Temperature[i],
			WeatherCode: *h.WeatherCode[i],
		})
	}

	d := data.Daily
	n = min(len(d.Time), len(d.WeatherCode), len(d.TempMax), len(d.TempMin), len(d.Sunrise), len(d.Sunset))
	w.Daily = make([]models.DailyPoint, 0, n)
	for i := 0; i < n; i++ {
		date, err := time.ParseInLocation(dateLayout, d.Time[i], loc)
		if err != nil || d.WeatherCode[i] == nil || d.TempMax[i] == nil || d.TempMin[i] == nil {
			skipped++
			continue
		}
		day := models.DailyPoint{
			Date:        date,
			WeatherCode: *d.WeatherCode[i],
			TempMax:     *d.TempMax[i],
			TempMin:     *d.TempMin[i],
		}
		day.Sunrise, _ = time.ParseInLocation(localTimeLayout, d.Sunrise[i], loc)
		day.Sunset, _ = time.ParseInLocation(localTimeLayout, d.Sunset[i], loc)
		w.Daily = append(w.Daily, day)
	}

	if skipped > 0 {
		log.Printf("openmeteo: skipped %d incomplete series entries", skipped)
	}
	return w, nil
}

func resolveLocation(name, abbr string, offset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if abbr == "" {
		abbr = "UTC"
	}
	return time.FixedZone(abbr, offset)
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
