package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lox/vibecast/internal/location"
	"github.com/lox/vibecast/internal/models"
	"github.com/lox/vibecast/internal/vibe"
)

var (
	puneCoord = models.Coordinate{Latitude: 18.52, Longitude: 73.86}
	pune      = models.Place{Label: "Pune, IN", CountryCode: "IN"}
	london    = models.Place{Label: "London, GB", CountryCode: "GB"}
)

// fakeResolver searches from a fixed table. With block set, Search waits
// for its context to end and fails the way the real resolver does.
type fakeResolver struct {
	located location.Resolution
	search  map[string]location.Resolution
	err     error
	block   bool
	started chan string
}

func (f *fakeResolver) Locate(ctx context.Context, loc location.Locator) location.Resolution {
	if loc == nil {
		res := location.Fallback
		res.Warning = location.ErrGeolocationUnsupported
		return res
	}
	if _, err := loc.Locate(ctx); err != nil {
		res := location.Fallback
		res.Warning = err
		return res
	}
	return f.located
}

func (f *fakeResolver) Search(ctx context.Context, query string) (location.Resolution, error) {
	if f.block {
		f.started <- query
		<-ctx.Done()
		return location.Resolution{}, fmt.Errorf("%w: %w", location.ErrSearchFailed, ctx.Err())
	}
	if f.err != nil {
		return location.Resolution{}, f.err
	}
	res, ok := f.search[query]
	if !ok {
		return location.Resolution{}, location.ErrLocationNotFound
	}
	return res, nil
}

// fakeFetcher returns a snapshot tagged with the requested coordinate.
// Calls for coordinates in block wait until release is closed or the
// context ends.
type fakeFetcher struct {
	mu      sync.Mutex
	err     error
	calls   int
	block   map[models.Coordinate]chan struct{}
	started chan models.Coordinate
}

func (f *fakeFetcher) Forecast(ctx context.Context, coord models.Coordinate, cc string) (*models.Weather, error) {
	f.mu.Lock()
	f.calls++
	err := f.err
	release := f.block[coord]
	f.mu.Unlock()

	if f.started != nil {
		f.started <- coord
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &models.Weather{Coordinate: coord, Current: models.Current{Temperature: 20, WeatherCode: 1}}, nil
}

type fakeAdvisor struct {
	result vibe.Result
	calls  int
}

func (f *fakeAdvisor) Check(ctx context.Context, w *models.Weather, place models.Place) vibe.Result {
	f.calls++
	return f.result
}

func newTestController(res *fakeResolver, fetch *fakeFetcher, adv *fakeAdvisor) *Controller {
	if adv == nil {
		adv = &fakeAdvisor{}
	}
	return NewController(res, fetch, adv)
}

func TestStart_Device(t *testing.T) {
	res := &fakeResolver{located: location.Resolution{Coordinate: puneCoord, Place: pune, Source: location.SourceDevice}}
	c := newTestController(res, &fakeFetcher{}, nil)

	if err := c.Start(context.Background(), location.Fixed(puneCoord)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s := c.Snapshot()
	if s.View != Loaded || s.Place != pune || s.Weather.Coordinate != puneCoord {
		t.Errorf("unexpected state %+v", s)
	}
	if s.Notice != nil {
		t.Errorf("unexpected notice %q", s.Notice.Message)
	}
}

func TestStart_Fallback(t *testing.T) {
	tests := []struct {
		name    string
		locator location.Locator
		want    string
	}{
		{"unsupported", nil, "Geolocation not supported. Showing weather for Mumbai."},
		{"denied", location.Unavailable(location.ErrGeolocationDenied), "Could not get location. Showing Mumbai."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(&fakeResolver{}, &fakeFetcher{}, nil)
			if err := c.Start(context.Background(), tt.locator); err != nil {
				t.Fatalf("Start: %v", err)
			}
			s := c.Snapshot()
			if s.Place.Label != "Mumbai, IN" || s.Source != location.SourceFallback {
				t.Errorf("expected Mumbai fallback, got %+v", s.Place)
			}
			if s.Notice == nil || s.Notice.Message != tt.want {
				t.Errorf("notice = %+v, want %q", s.Notice, tt.want)
			}
		})
	}
}

func TestLoad_FailureLeavesStateUnchanged(t *testing.T) {
	fetch := &fakeFetcher{}
	c := newTestController(&fakeResolver{}, fetch, nil)
	ctx := context.Background()

	if err := c.Load(ctx, puneCoord, pune); err != nil {
		t.Fatal(err)
	}
	before := c.Snapshot()

	fetch.err = errors.New("status 500")
	err := c.Load(ctx, models.Coordinate{Latitude: 51.5, Longitude: -0.12}, london)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}

	after := c.Snapshot()
	if after.Weather != before.Weather || after.Place != before.Place {
		t.Error("failed fetch should not replace the snapshot")
	}
	if after.View != Loaded {
		t.Errorf("view = %s, want loaded", after.View)
	}
	if after.Notice == nil || after.Notice.Message != "Could not fetch weather data." {
		t.Errorf("notice = %+v", after.Notice)
	}
}

func TestLoad_FailureWithoutWeatherIsError(t *testing.T) {
	c := newTestController(&fakeResolver{}, &fakeFetcher{err: errors.New("boom")}, nil)

	_ = c.Load(context.Background(), puneCoord, pune)
	if s := c.Snapshot(); s.View != Error || s.Weather != nil {
		t.Errorf("unexpected state %+v", s)
	}
}

func TestSearch(t *testing.T) {
	londonCoord := models.Coordinate{Latitude: 51.5, Longitude: -0.12}
	res := &fakeResolver{search: map[string]location.Resolution{
		"London": {Coordinate: londonCoord, Place: london, Source: location.SourceSearch},
	}}
	fetch := &fakeFetcher{}
	c := newTestController(res, fetch, nil)
	ctx := context.Background()

	if err := c.Load(ctx, puneCoord, pune); err != nil {
		t.Fatal(err)
	}

	if err := c.Search(ctx, "Atlantis"); !errors.Is(err, location.ErrLocationNotFound) {
		t.Fatalf("err = %v", err)
	}
	s := c.Snapshot()
	if s.Place != pune || s.Weather.Coordinate != puneCoord {
		t.Error("not-found search should keep the previous weather")
	}
	if s.Notice == nil || s.Notice.Message != `Could not find location: "Atlantis"` {
		t.Errorf("notice = %+v", s.Notice)
	}

	if err := c.Search(ctx, "  London "); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if s := c.Snapshot(); s.Place != london || s.Weather.Coordinate != londonCoord {
		t.Errorf("expected London, got %+v", s.Place)
	}

	calls := fetch.calls
	if err := c.Search(ctx, "   "); err != nil {
		t.Errorf("blank search: %v", err)
	}
	if fetch.calls != calls {
		t.Error("blank search should not fetch")
	}
}

func TestSearch_UpstreamFailure(t *testing.T) {
	c := newTestController(&fakeResolver{err: location.ErrSearchFailed}, &fakeFetcher{}, nil)

	_ = c.Search(context.Background(), "Pune")
	if s := c.Snapshot(); s.Notice == nil || s.Notice.Message != "Search failed. Check spelling." {
		t.Errorf("notice = %+v", s.Notice)
	}
}

func TestNotice_Expires(t *testing.T) {
	c := newTestController(&fakeResolver{}, &fakeFetcher{err: errors.New("boom")}, nil)
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Load(context.Background(), puneCoord, pune)
	if c.Snapshot().Notice == nil {
		t.Fatal("expected notice")
	}

	now = now.Add(4 * time.Second)
	if c.Snapshot().Notice == nil {
		t.Error("notice should still show before the TTL")
	}
	now = now.Add(time.Second)
	if c.Snapshot().Notice != nil {
		t.Error("notice should expire after the TTL")
	}
}

func TestLoad_LastRequestWins(t *testing.T) {
	slow := models.Coordinate{Latitude: 1, Longitude: 1}
	release := make(chan struct{})
	fetch := &fakeFetcher{
		block:   map[models.Coordinate]chan struct{}{slow: release},
		started: make(chan models.Coordinate, 2),
	}
	c := newTestController(&fakeResolver{}, fetch, nil)
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() { errc <- c.Load(ctx, slow, models.Place{Label: "Slow"}) }()
	<-fetch.started

	if err := c.Load(ctx, puneCoord, pune); err != nil {
		t.Fatalf("second load: %v", err)
	}
	<-fetch.started
	close(release)

	if err := <-errc; !errors.Is(err, ErrSuperseded) {
		t.Errorf("first load err = %v, want ErrSuperseded", err)
	}
	if s := c.Snapshot(); s.Place != pune {
		t.Errorf("place = %+v, want the later request", s.Place)
	}
}

func TestSearch_SupersededByLoad(t *testing.T) {
	res := &fakeResolver{block: true, started: make(chan string, 1)}
	c := newTestController(res, &fakeFetcher{}, nil)
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() { errc <- c.Search(ctx, "Atlantis") }()
	<-res.started

	if err := c.Load(ctx, puneCoord, pune); err != nil {
		t.Fatalf("load: %v", err)
	}
	err := <-errc
	if !errors.Is(err, ErrSuperseded) {
		t.Errorf("search err = %v, want ErrSuperseded", err)
	}
	if errors.Is(err, location.ErrSearchFailed) {
		t.Error("a superseded search should not report a search failure")
	}
	s := c.Snapshot()
	if s.Place != pune || s.View != Loaded {
		t.Errorf("state = %+v, want the later load", s)
	}
	if s.Notice != nil {
		t.Errorf("notice = %q, want none", s.Notice.Message)
	}
}

func TestLoad_Timeout(t *testing.T) {
	fetch := &fakeFetcher{block: map[models.Coordinate]chan struct{}{puneCoord: make(chan struct{})}}
	c := newTestController(&fakeResolver{}, fetch, nil)
	c.FetchTimeout = 20 * time.Millisecond

	err := c.Load(context.Background(), puneCoord, pune)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if s := c.Snapshot(); s.View != Error {
		t.Errorf("view = %s, want error", s.View)
	}
}

func TestVibe(t *testing.T) {
	adv := &fakeAdvisor{result: vibe.Result{HTML: "<h2>ok</h2>"}}
	c := newTestController(&fakeResolver{}, &fakeFetcher{}, adv)
	ctx := context.Background()

	res := c.Vibe(ctx)
	if !errors.Is(res.Err, vibe.ErrNotLoaded) {
		t.Errorf("err = %v, want ErrNotLoaded", res.Err)
	}
	if s := c.Snapshot(); s.Notice == nil || s.Notice.Message != "Weather data not loaded yet." {
		t.Errorf("notice = %+v", s.Notice)
	}
	if adv.calls != 0 {
		t.Error("advisor should not be called without weather")
	}

	if err := c.Load(ctx, puneCoord, pune); err != nil {
		t.Fatal(err)
	}
	res = c.Vibe(ctx)
	if res.HTML != "<h2>ok</h2>" {
		t.Errorf("html = %q", res.HTML)
	}
	s := c.Snapshot()
	if s.VibeLoading {
		t.Error("loading flag should be cleared")
	}
	if s.Vibe == nil || s.Vibe.HTML != "<h2>ok</h2>" {
		t.Errorf("vibe not stored: %+v", s.Vibe)
	}
}

func TestVibe_FailureClearsLoading(t *testing.T) {
	adv := &fakeAdvisor{result: vibe.Result{Err: vibe.ErrGenerationFailed}}
	c := newTestController(&fakeResolver{}, &fakeFetcher{}, adv)
	ctx := context.Background()
	if err := c.Load(ctx, puneCoord, pune); err != nil {
		t.Fatal(err)
	}

	res := c.Vibe(ctx)
	if !res.Failed() {
		t.Error("expected failed result")
	}
	if s := c.Snapshot(); s.VibeLoading || s.Weather == nil {
		t.Errorf("unexpected state %+v", s)
	}
}
