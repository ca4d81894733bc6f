package render

import "github.com/lox/vibecast/internal/forecast"

// CurrentView contains everything the current-conditions panel shows.
type CurrentView struct {
	Place       string
	Temperature int
	FeelsLike   int
	Description string
	Icon        string
	Humidity    string // e.g. "68%"
	Wind        string // e.g. "12.5 km/h"
	Sunrise     string // e.g. "06:31 AM", empty when unknown
	Sunset      string
	UV          string // e.g. "6 (High)"
	AQI         string // e.g. "42 (Good)" or NotAvailable
	Video       string
	// VideoChanged is set only when Video differs from the last one rendered,
	// so the page can avoid restarting a video that is already playing.
	VideoChanged bool
	Condition    forecast.WeatherCondition
	TimeOfDay    forecast.TimeOfDay
	Palette      forecast.Palette
	UpdatedAt    string
}

type HourlyEntry struct {
	Hour        string // e.g. "3 PM"
	Icon        string
	Temperature int
}

type HourlyView struct {
	Entries []HourlyEntry
	Empty   bool
	Message string
}

type DayEntry struct {
	Weekday     string // e.g. "Mon"
	Date        string
	Icon        string
	Description string
	High        int
	Low         int
}

type DailyView struct {
	Days []DayEntry
}

// Ports are the output targets of the pipeline. Each receives a finished
// view; nil ports are skipped.
type Ports struct {
	Current func(CurrentView) error
	Hourly  func(HourlyView) error
	Daily   func(DailyView) error
}
