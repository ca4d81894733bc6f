package api

import (
	"html/template"
	"log"

	"github.com/lox/vibecast/internal/dashboard"
	"github.com/lox/vibecast/internal/forecast"
	"github.com/lox/vibecast/internal/location"
	"github.com/lox/vibecast/internal/models"
	"github.com/lox/vibecast/internal/render"
)

// PageData contains everything the dashboard templates render.
type PageData struct {
	Place   string
	View    string
	Loading bool
	Notice  string
	Current *render.CurrentView
	Hourly  *render.HourlyView
	Daily   *render.DailyView
	Palette forecast.Palette
	Vibe    *VibeData
	// VibeLoading is set when another request is still generating the vibe.
	VibeLoading bool
	// NeedsLocation asks the page to run browser geolocation.
	NeedsLocation bool
	// FullPage is set for the initial page load, where the background video
	// is always written.
	FullPage bool
	// OOB marks fragments swapped out-of-band alongside another response.
	OOB bool
}

type VibeData struct {
	HTML       template.HTML
	Diagnostic string
}

// WeatherResponse is the JSON form of a visitor's dashboard.
type WeatherResponse struct {
	Place   models.Place    `json:"place"`
	Source  location.Source `json:"source,omitempty"`
	View    string          `json:"view"`
	Notice  string          `json:"notice,omitempty"`
	Weather *models.Weather `json:"weather"`
	Vibe    string          `json:"vibe,omitempty"`

	VibeLoading bool `json:"vibe_loading"`
}

type HealthStatus struct {
	Status   string   `json:"status"`
	Sessions int      `json:"sessions"`
	Errors   []string `json:"errors,omitempty"`
}

// page builds the template data for v. Only responses that write the
// background video pass writesVideo; the rest peek so a pending video change
// survives until the dashboard itself is swapped.
func (s *Server) page(v *visitor, fullPage, writesVideo bool) PageData {
	snap := v.ctrl.Snapshot()
	data := PageData{
		Place:         snap.Place.Label,
		View:          snap.View.String(),
		Loading:       snap.View == dashboard.Loading,
		Palette:       forecast.DefaultPalette,
		NeedsLocation: snap.Weather == nil && snap.View == dashboard.Loading,
		FullPage:      fullPage,
		VibeLoading:   snap.VibeLoading,
	}
	if snap.Notice != nil {
		data.Notice = snap.Notice.Message
	}
	if snap.Vibe != nil {
		data.Vibe = &VibeData{HTML: snap.Vibe.HTML, Diagnostic: snap.Vibe.Diagnostic()}
	}
	if snap.Weather == nil {
		return data
	}

	now := s.now()
	ports := render.Ports{
		Hourly: func(hv render.HourlyView) error {
			data.Hourly = &hv
			return nil
		},
		Daily: func(dv render.DailyView) error {
			data.Daily = &dv
			return nil
		},
	}
	if writesVideo {
		ports.Current = func(cv render.CurrentView) error {
			data.Current = &cv
			data.Palette = cv.Palette
			return nil
		}
	} else {
		cv := v.pipeline.Peek(snap.Weather, snap.Place, now)
		data.Current = &cv
		data.Palette = cv.Palette
	}
	if err := v.pipeline.Render(snap.Weather, snap.Place, now, ports); err != nil {
		log.Printf("api: render dashboard: %v", err)
	}
	return data
}

func weatherResponse(snap dashboard.State) WeatherResponse {
	resp := WeatherResponse{
		Place:   snap.Place,
		Source:  snap.Source,
		View:    snap.View.String(),
		Weather: snap.Weather,

		VibeLoading: snap.VibeLoading,
	}
	if snap.Notice != nil {
		resp.Notice = snap.Notice.Message
	}
	if snap.Vibe != nil && !snap.Vibe.Failed() {
		resp.Vibe = snap.Vibe.Markdown
	}
	return resp
}
