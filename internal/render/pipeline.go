package render

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/lox/vibecast/internal/forecast"
	"github.com/lox/vibecast/internal/models"
)

const (
	NotAvailable   = "N/A"
	NoUpcomingData = "No upcoming data"

	DefaultHourlyLimit  = 24
	DefaultForecastDays = 5

	clockLayout   = "03:04 PM"
	hourLayout    = "3 PM"
	weekdayLayout = "Mon"
)

// Pipeline projects a weather snapshot into the three dashboard views.
// Projections are independent and safe to re-run on the same snapshot.
type Pipeline struct {
	FeelsLike    forecast.FeelsLikeParams
	HourlyLimit  int
	ForecastDays int

	mu        sync.Mutex
	lastVideo string
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		FeelsLike:    forecast.DefaultFeelsLike,
		HourlyLimit:  DefaultHourlyLimit,
		ForecastDays: DefaultForecastDays,
	}
}

// Render runs every projection and hands each view to its port. A failing
// port does not stop the others; all port errors are joined.
func (p *Pipeline) Render(w *models.Weather, place models.Place, now time.Time, ports Ports) error {
	if w == nil {
		return nil
	}
	var errs []error
	if ports.Current != nil {
		if err := ports.Current(p.Current(w, place, now)); err != nil {
			errs = append(errs, fmt.Errorf("current: %w", err))
		}
	}
	if ports.Hourly != nil {
		if err := ports.Hourly(p.Hourly(w, now)); err != nil {
			errs = append(errs, fmt.Errorf("hourly: %w", err))
		}
	}
	if ports.Daily != nil {
		if err := ports.Daily(p.Daily(w)); err != nil {
			errs = append(errs, fmt.Errorf("daily: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) current(w *models.Weather, place models.Place, now time.Time) CurrentView {
	cur := w.Current
	loc := w.Loc()

	v := CurrentView{
		Place:       place.Label,
		Temperature: forecast.Round(cur.Temperature),
		FeelsLike:   forecast.Round(p.FeelsLike.Apply(cur.Temperature, float64(cur.Humidity), cur.WindSpeed)),
		Description: forecast.Describe(cur.WeatherCode),
		Icon:        forecast.Icon(cur.WeatherCode),
		Humidity:    fmt.Sprintf("%d%%", cur.Humidity),
		Wind:        strconv.FormatFloat(cur.WindSpeed, 'f', -1, 64) + " km/h",
		UV:          fmt.Sprintf("%d (%s)", forecast.Round(cur.UVIndex), forecast.UVCategory(cur.UVIndex)),
		AQI:         NotAvailable,
		Video:       forecast.Video(cur.WeatherCode),
		Condition:   forecast.Classify(cur.WeatherCode),
		UpdatedAt:   w.FetchedAt.In(loc).Format(clockLayout),
	}
	if cur.AQI != nil {
		v.AQI = fmt.Sprintf("%d (%s)", *cur.AQI, forecast.AQICategory(*cur.AQI))
	}

	var sunrise, sunset time.Time
	if len(w.Daily) > 0 {
		sunrise, sunset = w.Daily[0].Sunrise, w.Daily[0].Sunset
		v.Sunrise = formatClock(sunrise, loc)
		v.Sunset = formatClock(sunset, loc)
	}
	v.TimeOfDay = forecast.TimeOfDayAt(now.In(loc), sunrise, sunset)
	v.Palette = forecast.GetPalette(v.Condition, v.TimeOfDay)

	return v
}

// Current builds the current view and records its video as the one on
// screen. Use it only for responses that actually write the video.
func (p *Pipeline) Current(w *models.Weather, place models.Place, now time.Time) CurrentView {
	v := p.current(w, place, now)
	p.mu.Lock()
	v.VideoChanged = v.Video != p.lastVideo
	p.lastVideo = v.Video
	p.mu.Unlock()
	return v
}

// Peek builds the current view without recording its video, so a later
// Current still reports the change.
func (p *Pipeline) Peek(w *models.Weather, place models.Place, now time.Time) CurrentView {
	v := p.current(w, place, now)
	p.mu.Lock()
	v.VideoChanged = v.Video != p.lastVideo
	p.mu.Unlock()
	return v
}

// Hourly starts at the first entry at or after now and shows up to
// HourlyLimit entries. With no future entries the view is Empty.
func (p *Pipeline) Hourly(w *models.Weather, now time.Time) HourlyView {
	start := -1
	for i, h := range w.Hourly {
		if !h.Time.Before(now) {
			start = i
			break
		}
	}
	if start < 0 {
		return HourlyView{Empty: true, Message: NoUpcomingData}
	}

	loc := w.Loc()
	end := min(start+p.HourlyLimit, len(w.Hourly))
	entries := make([]HourlyEntry, 0, end-start)
	for _, h := range w.Hourly[start:end] {
		entries = append(entries, HourlyEntry{
			Hour:        h.Time.In(loc).Format(hourLayout),
			Icon:        forecast.Icon(h.WeatherCode),
			Temperature: forecast.Round(h.Temperature),
		})
	}
	return HourlyView{Entries: entries}
}

// Daily skips index 0 (today is covered by current conditions) and shows up
// to ForecastDays following days.
func (p *Pipeline) Daily(w *models.Weather) DailyView {
	end := min(p.ForecastDays+1, len(w.Daily))
	if end <= 1 {
		return DailyView{}
	}
	loc := w.Loc()
	days := make([]DayEntry, 0, end-1)
	for _, d := range w.Daily[1:end] {
		date := d.Date.In(loc)
		days = append(days, DayEntry{
			Weekday:     date.Format(weekdayLayout),
			Date:        date.Format("Jan 2"),
			Icon:        forecast.Icon(d.WeatherCode),
			Description: forecast.Describe(d.WeatherCode),
			High:        forecast.Round(d.TempMax),
			Low:         forecast.Round(d.TempMin),
		})
	}
	return DailyView{Days: days}
}

func formatClock(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(clockLayout)
}
