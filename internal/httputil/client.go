package httputil

import (
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lox/vibecast/internal/metrics"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "vibecast/1.0 (+https://github.com/lox/vibecast)"
)

// NewClient returns a resty client with standard timeout configuration.
// Every response is recorded in the upstream metrics under the service label.
func NewClient(service, baseURL, userAgent string) *resty.Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(DefaultTimeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	c.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		metrics.UpstreamCallsTotal.WithLabelValues(service, strconv.Itoa(resp.StatusCode())).Inc()
		metrics.UpstreamLatency.WithLabelValues(service).Observe(resp.Time().Seconds())
		return nil
	})
	c.OnError(func(_ *resty.Request, _ error) {
		metrics.UpstreamCallsTotal.WithLabelValues(service, "error").Inc()
	})
	return c
}
