package forecast

import "time"

// Palette defines the tint applied over the background video for a
// weather condition and time of day.
type Palette struct {
	// Overlay is laid over the video so text stays readable
	Overlay   string
	Card      string
	Text      string
	TextMuted string
	Accent    string
}

// DefaultPalette is the fallback dark theme.
var DefaultPalette = Palette{
	Overlay:   "rgba(15, 15, 26, 0.55)",
	Card:      "rgba(255, 255, 255, 0.10)",
	Text:      "#eeeeee",
	TextMuted: "#9a9aaa",
	Accent:    "#c4b5fd",
}

// TimeOfDay represents the lighting period.
type TimeOfDay string

const (
	TimeDay   TimeOfDay = "day"
	TimeDusk  TimeOfDay = "dusk"
	TimeNight TimeOfDay = "night"
	TimeDawn  TimeOfDay = "dawn"
)

// GetTimeOfDay returns a time-of-day category from the local clock alone.
func GetTimeOfDay(t time.Time) TimeOfDay {
	hour := t.Hour()
	switch {
	case hour >= 5 && hour < 7:
		return TimeDawn
	case hour >= 7 && hour < 17:
		return TimeDay
	case hour >= 17 && hour < 20:
		return TimeDusk
	default:
		return TimeNight
	}
}

const twilight = 45 * time.Minute

// TimeOfDayAt uses the day's sunrise and sunset when known, which matters
// for locations far from the equator. Zero times fall back to GetTimeOfDay.
func TimeOfDayAt(t, sunrise, sunset time.Time) TimeOfDay {
	if sunrise.IsZero() || sunset.IsZero() {
		return GetTimeOfDay(t)
	}
	switch {
	case absDuration(t.Sub(sunrise)) <= twilight:
		return TimeDawn
	case absDuration(t.Sub(sunset)) <= twilight:
		return TimeDusk
	case t.After(sunrise) && t.Before(sunset):
		return TimeDay
	default:
		return TimeNight
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// palettes are keyed by condition and day/night. Dawn and dusk borrow the
// night tint with a warmer accent.
var palettes = map[string]Palette{
	"clear_day":   {Overlay: "rgba(20, 40, 80, 0.25)", Card: "rgba(255, 255, 255, 0.14)", Text: "#ffffff", TextMuted: "#dbe6f5", Accent: "#fde68a"},
	"clear_night": {Overlay: "rgba(6, 8, 16, 0.60)", Card: "rgba(255, 255, 255, 0.08)", Text: "#d0d8e8", TextMuted: "#8090b0", Accent: "#93c5fd"},

	"cloudy_day":   {Overlay: "rgba(40, 48, 60, 0.35)", Card: "rgba(255, 255, 255, 0.12)", Text: "#f5f7fa", TextMuted: "#c8d0da", Accent: "#bae6fd"},
	"cloudy_night": {Overlay: "rgba(8, 8, 16, 0.62)", Card: "rgba(255, 255, 255, 0.07)", Text: "#d8dce6", TextMuted: "#7a8090", Accent: "#a5b4fc"},

	"fog_day":   {Overlay: "rgba(90, 96, 104, 0.40)", Card: "rgba(255, 255, 255, 0.16)", Text: "#ffffff", TextMuted: "#e2e6ea", Accent: "#e9d5ff"},
	"fog_night": {Overlay: "rgba(16, 18, 22, 0.65)", Card: "rgba(255, 255, 255, 0.08)", Text: "#d6d8dc", TextMuted: "#80868e", Accent: "#c4b5fd"},

	"rain_day":   {Overlay: "rgba(20, 32, 48, 0.45)", Card: "rgba(255, 255, 255, 0.10)", Text: "#eef4fa", TextMuted: "#a8b8c8", Accent: "#7dd3fc"},
	"rain_night": {Overlay: "rgba(4, 8, 16, 0.68)", Card: "rgba(255, 255, 255, 0.06)", Text: "#cdd6e2", TextMuted: "#6a7890", Accent: "#60a5fa"},

	"snow_day":   {Overlay: "rgba(60, 80, 110, 0.30)", Card: "rgba(255, 255, 255, 0.18)", Text: "#ffffff", TextMuted: "#e0eaf5", Accent: "#bfdbfe"},
	"snow_night": {Overlay: "rgba(10, 14, 26, 0.60)", Card: "rgba(255, 255, 255, 0.09)", Text: "#e0e6f0", TextMuted: "#8a96ac", Accent: "#a5f3fc"},

	"storm_day":   {Overlay: "rgba(16, 16, 28, 0.55)", Card: "rgba(255, 255, 255, 0.09)", Text: "#f0f0f8", TextMuted: "#a0a0b8", Accent: "#fcd34d"},
	"storm_night": {Overlay: "rgba(2, 2, 8, 0.72)", Card: "rgba(255, 255, 255, 0.06)", Text: "#d0d0e0", TextMuted: "#60607a", Accent: "#facc15"},
}

// GetPalette returns the palette for a weather condition and time of day.
func GetPalette(condition WeatherCondition, tod TimeOfDay) Palette {
	half := "day"
	if tod != TimeDay {
		half = "night"
	}
	p, ok := palettes[string(condition)+"_"+half]
	if !ok {
		return DefaultPalette
	}
	if tod == TimeDawn || tod == TimeDusk {
		p.Accent = "#fdba74"
	}
	return p
}
