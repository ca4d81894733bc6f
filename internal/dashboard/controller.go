package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/lox/vibecast/internal/location"
	"github.com/lox/vibecast/internal/models"
	"github.com/lox/vibecast/internal/vibe"
)

const (
	DefaultFetchTimeout = 15 * time.Second
	NoticeTTL           = 5 * time.Second
)

var (
	ErrFetchFailed = errors.New("could not fetch weather data")
	// ErrSuperseded is returned by an operation whose result was discarded
	// because a newer request was issued while it was running.
	ErrSuperseded = errors.New("superseded by a newer request")
)

type ViewState int

const (
	Loading ViewState = iota
	Loaded
	Error
)

func (v ViewState) String() string {
	switch v {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "error"
	}
}

// Notice is a transient message for the visitor.
type Notice struct {
	Message string
	Expires time.Time
}

// State is the dashboard as the visitor currently sees it. Weather and
// Place always come from the same successful fetch.
type State struct {
	Weather     *models.Weather
	Place       models.Place
	Source      location.Source
	View        ViewState
	Notice      *Notice
	Vibe        *vibe.Result
	// VibeLoading is set while a vibe check is in flight.
	VibeLoading bool
}

type Resolver interface {
	Locate(ctx context.Context, loc location.Locator) location.Resolution
	Search(ctx context.Context, query string) (location.Resolution, error)
}

type Fetcher interface {
	Forecast(ctx context.Context, coord models.Coordinate, countryCode string) (*models.Weather, error)
}

type Advisor interface {
	Check(ctx context.Context, w *models.Weather, place models.Place) vibe.Result
}

// Controller owns the dashboard state for one visitor. Fetches are bounded
// by FetchTimeout and a new fetch cancels the one in flight; only the most
// recently issued request may commit.
type Controller struct {
	resolver Resolver
	fetcher  Fetcher
	advisor  Advisor

	FetchTimeout time.Duration
	now          func() time.Time

	mu     sync.Mutex
	state  State
	seq    uint64
	cancel context.CancelFunc
}

func NewController(resolver Resolver, fetcher Fetcher, advisor Advisor) *Controller {
	return &Controller{
		resolver:     resolver,
		fetcher:      fetcher,
		advisor:      advisor,
		FetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
		state:        State{View: Loading},
	}
}

// Start resolves the device position (falling back to Mumbai) and loads its weather.
func (c *Controller) Start(ctx context.Context, loc location.Locator) error {
	ctx, seq, cancel := c.begin(ctx)
	defer cancel()

	res := c.resolver.Locate(ctx, loc)
	if res.Source == location.SourceFallback {
		log.Printf("dashboard: geolocation unavailable: %v", res.Warning)
	}
	err := c.load(ctx, seq, res)
	// a failed fetch keeps its own notice
	if err == nil && res.Source == location.SourceFallback {
		c.notify(seq, geolocationMessage(res.Warning))
	}
	return err
}

// Search resolves a free-text place name and loads its weather. A blank
// query is ignored. On failure the current weather and place are kept.
func (c *Controller) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	ctx, seq, cancel := c.begin(ctx)
	defer cancel()

	res, err := c.resolver.Search(ctx, query)
	if err != nil {
		if !c.current(seq) {
			return ErrSuperseded
		}
		log.Printf("dashboard: search %q: %v", query, err)
		c.fail(seq, searchMessage(query, err))
		return err
	}
	return c.load(ctx, seq, res)
}

// Load fetches the forecast for a known coordinate and label.
func (c *Controller) Load(ctx context.Context, coord models.Coordinate, place models.Place) error {
	ctx, seq, cancel := c.begin(ctx)
	defer cancel()

	return c.load(ctx, seq, location.Resolution{Coordinate: coord, Place: place, Source: location.SourceSearch})
}

// Vibe runs a vibe check on the current weather and stores the result.
func (c *Controller) Vibe(ctx context.Context) vibe.Result {
	c.mu.Lock()
	w, place := c.state.Weather, c.state.Place
	if w == nil {
		c.setNoticeLocked("Weather data not loaded yet.")
		c.mu.Unlock()
		return vibe.Result{Err: vibe.ErrNotLoaded}
	}
	c.state.VibeLoading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state.VibeLoading = false
		c.mu.Unlock()
	}()

	res := c.advisor.Check(ctx, w, place)

	c.mu.Lock()
	// discard the result if a different snapshot was committed meanwhile
	if c.state.Weather == w {
		c.state.Vibe = &res
	}
	c.mu.Unlock()
	return res
}

// Snapshot returns a copy of the current state with expired notices removed.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Notice != nil && !c.now().Before(c.state.Notice.Expires) {
		c.state.Notice = nil
	}
	s := c.state
	if s.Notice != nil {
		n := *s.Notice
		s.Notice = &n
	}
	return s
}

// Close cancels any fetch in flight.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.seq++
}

// begin starts a new request, cancelling the previous one.
func (c *Controller) begin(parent context.Context) (context.Context, uint64, context.CancelFunc) {
	timeout := c.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(parent, timeout)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	c.cancel = cancel
	c.state.View = Loading
	c.state.Notice = nil
	return ctx, c.seq, cancel
}

func (c *Controller) load(ctx context.Context, seq uint64, res location.Resolution) error {
	w, err := c.fetcher.Forecast(ctx, res.Coordinate, res.Place.CountryCode)
	if err != nil {
		if !c.current(seq) {
			return ErrSuperseded
		}
		log.Printf("dashboard: forecast for %s: %v", res.Coordinate, err)
		c.fail(seq, "Could not fetch weather data.")
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return ErrSuperseded
	}
	c.state = State{
		Weather: w,
		Place:   res.Place,
		Source:  res.Source,
		View:    Loaded,
	}
	return nil
}

func (c *Controller) current(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return seq == c.seq
}

// fail records a failed request without touching the weather or place.
func (c *Controller) fail(seq uint64, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return
	}
	if c.state.Weather != nil {
		c.state.View = Loaded
	} else {
		c.state.View = Error
	}
	c.setNoticeLocked(message)
}

func (c *Controller) notify(seq uint64, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq == c.seq {
		c.setNoticeLocked(message)
	}
}

func (c *Controller) setNoticeLocked(message string) {
	c.state.Notice = &Notice{Message: message, Expires: c.now().Add(NoticeTTL)}
}

func geolocationMessage(err error) string {
	if errors.Is(err, location.ErrGeolocationUnsupported) {
		return "Geolocation not supported. Showing weather for Mumbai."
	}
	return "Could not get location. Showing Mumbai."
}

func searchMessage(query string, err error) string {
	if errors.Is(err, location.ErrLocationNotFound) {
		return fmt.Sprintf("Could not find location: %q", query)
	}
	return "Search failed. Check spelling."
}
