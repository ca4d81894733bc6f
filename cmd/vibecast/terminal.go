package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/lox/vibecast/internal/render"
)

const terminalHours = 12

// terminalPorts write the dashboard views as plain text.
func terminalPorts(w io.Writer) render.Ports {
	return render.Ports{
		Current: func(v render.CurrentView) error {
			_, err := fmt.Fprintf(w, "%s\n%s, %d°C (feels like %d°C)\n"+
				"Humidity %s · Wind %s · UV %s · AQI %s\n"+
				"Sunrise %s · Sunset %s\n\n",
				v.Place, v.Description, v.Temperature, v.FeelsLike,
				v.Humidity, v.Wind, v.UV, v.AQI,
				orNA(v.Sunrise), orNA(v.Sunset))
			return err
		},
		Hourly: func(v render.HourlyView) error {
			if v.Empty {
				_, err := fmt.Fprintf(w, "%s\n\n", v.Message)
				return err
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			for i, e := range v.Entries {
				if i == terminalHours {
					break
				}
				fmt.Fprintf(tw, "%s\t%d°\n", e.Hour, e.Temperature)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			_, err := fmt.Fprintln(w)
			return err
		},
		Daily: func(v render.DailyView) error {
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			for _, d := range v.Days {
				fmt.Fprintf(tw, "%s\t%s\t%d° / %d°\n", d.Weekday, d.Description, d.High, d.Low)
			}
			return tw.Flush()
		},
	}
}

func orNA(s string) string {
	if s == "" {
		return render.NotAvailable
	}
	return s
}
