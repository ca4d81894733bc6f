package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lox/vibecast/internal/models"
)

type GeocodeResult struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	CountryCode string  `json:"country_code"`
	Country     string  `json:"country"`
	Admin1      string  `json:"admin1"`
	Timezone    string  `json:"timezone"`
}

func (r GeocodeResult) Coordinate() models.Coordinate {
	return models.Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
}

// Place returns the display label used across the dashboard, e.g. "Pune, IN".
func (r GeocodeResult) Place() models.Place {
	cc := strings.ToUpper(r.CountryCode)
	label := r.Name
	if cc != "" {
		label = fmt.Sprintf("%s, %s", r.Name, cc)
	}
	return models.Place{Label: label, CountryCode: cc}
}

type GeocodeResponse struct {
	Results []GeocodeResult `json:"results"`
}

// Search looks up places by name, best match first. An empty slice means
// nothing matched.
func (c *Client) Search(ctx context.Context, name string, count int) ([]GeocodeResult, error) {
	if count <= 0 {
		count = 1
	}
	resp, err := c.geocoding.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"name":     name,
			"count":    fmt.Sprint(count),
			"language": "en",
			"format":   "json",
		}).
		Get("/v1/search")
	if err != nil {
		return nil, fmt.Errorf("geocode search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("geocode search: status %d", resp.StatusCode())
	}

	var data GeocodeResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("geocode search: unmarshal: %w", err)
	}
	return data.Results, nil
}
