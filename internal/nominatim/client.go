package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/lox/vibecast/internal/httputil"
	"github.com/lox/vibecast/internal/models"
)

const (
	DefaultURL = "https://nominatim.openstreetmap.org"

	// UnknownLabel is used when the address has no settlement name.
	UnknownLabel = "Current Location"
)

// Client reverse geocodes coordinates via OpenStreetMap Nominatim.
// Requests are throttled to respect the public instance's usage policy
// of at most one request per second.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

type Options struct {
	BaseURL   string
	UserAgent string
	// RequestsPerSecond defaults to 1.
	RequestsPerSecond float64
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultURL
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}
	return &Client{
		http:    httputil.NewClient("nominatim", opts.BaseURL, opts.UserAgent),
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
}

type ReverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// Place picks the most specific settlement name. The country code is upper-cased.
func (r *ReverseResponse) Place() models.Place {
	name := UnknownLabel
	for _, candidate := range []string{r.Address.City, r.Address.Town, r.Address.Village} {
		if candidate != "" {
			name = candidate
			break
		}
	}
	cc := strings.ToUpper(r.Address.CountryCode)
	if cc == "" {
		return models.Place{Label: name}
	}
	return models.Place{Label: fmt.Sprintf("%s, %s", name, cc), CountryCode: cc}
}

// Reverse resolves a coordinate to a place label.
func (c *Client) Reverse(ctx context.Context, coord models.Coordinate) (models.Place, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.Place{}, fmt.Errorf("reverse geocode: rate limit wait: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"format": "json",
			"lat":    strconv.FormatFloat(coord.Latitude, 'f', 6, 64),
			"lon":    strconv.FormatFloat(coord.Longitude, 'f', 6, 64),
		}).
		Get("/reverse")
	if err != nil {
		return models.Place{}, fmt.Errorf("reverse geocode: %w", err)
	}
	if resp.IsError() {
		return models.Place{}, fmt.Errorf("reverse geocode: status %d", resp.StatusCode())
	}

	var data ReverseResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return models.Place{}, fmt.Errorf("reverse geocode: unmarshal: %w", err)
	}
	if data.Error != "" {
		return models.Place{}, fmt.Errorf("reverse geocode: %s", data.Error)
	}
	return data.Place(), nil
}
