package vibe

import (
	"bytes"
	"text/template"

	"github.com/lox/vibecast/internal/forecast"
	"github.com/lox/vibecast/internal/models"
)

var promptTemplate = template.Must(template.New("prompt").Parse(`Generate a concise, trendy lifestyle guide based on the weather in {{.Place}}.

Weather Details:
• Condition: {{.Condition}}
• Temperature: {{.Temperature}}°C
• Feels Like: {{.FeelsLike}}°C

Act like a modern lifestyle assistant and provide the following sections:

### 1. Vibe of the Day (one-line, fun, emoji-rich)
### 2. Weather Alerts / News (2 short bullet points)
### 3. Outfit Guide
   - Men
   - Women
### 4. Food Corner
   - Local, National & International food suggestions
   - Include 1–2 nearby restaurant names for each category
### 5. Playlist Suggestions
   - Marathi
   - Hindi
   - English
### 6. Activities
   - 1 Indoor activity
   - 1 Outdoor activity
### 7. Nearby Places to Visit (3–5 suggestions)

Format strictly in **clean Markdown**, using headings, tables, bullets & emojis. Keep tone engaging, crisp, and relatable.
`))

type promptData struct {
	Place       string
	Condition   string
	Temperature int
	FeelsLike   int
}

// BuildPrompt renders the lifestyle prompt for the current conditions at place.
// feels should match the parameters the dashboard displays with.
func BuildPrompt(place models.Place, w *models.Weather, feels forecast.FeelsLikeParams) string {
	cur := w.Current
	data := promptData{
		Place:       place.Label,
		Condition:   forecast.Describe(cur.WeatherCode),
		Temperature: forecast.Round(cur.Temperature),
		FeelsLike:   forecast.Round(feels.Apply(cur.Temperature, float64(cur.Humidity), cur.WindSpeed)),
	}
	var buf bytes.Buffer
	// the template is static and the data has no methods, so Execute cannot fail
	_ = promptTemplate.Execute(&buf, data)
	return buf.String()
}
