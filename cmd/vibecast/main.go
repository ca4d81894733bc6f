package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/lox/vibecast/internal/api"
	"github.com/lox/vibecast/internal/dashboard"
	"github.com/lox/vibecast/internal/htmlutil"
	"github.com/lox/vibecast/internal/location"
	"github.com/lox/vibecast/internal/models"
	"github.com/lox/vibecast/internal/nominatim"
	"github.com/lox/vibecast/internal/openmeteo"
	"github.com/lox/vibecast/internal/render"
	"github.com/lox/vibecast/internal/store"
	"github.com/lox/vibecast/internal/vibe"
)

type CLI struct {
	EnvFile kongdotenv.ENVFileConfig `kong:"optional,name=env-file,default='.env',help='Path to .env file'"`

	Globals

	Serve ServeCmd `cmd:"" default:"1" help:"Run the dashboard web server."`
	Now   NowCmd   `cmd:"" help:"Print the current weather for a place."`
	Vibe  VibeCmd  `cmd:"" help:"Print a lifestyle vibe for a place."`
}

type Globals struct {
	FetchTimeout  time.Duration `default:"15s" env:"FETCH_TIMEOUT" help:"Upper bound for one forecast fetch."`
	UserAgent     string        `env:"USER_AGENT" help:"User-Agent sent to upstream APIs."`
	ForecastURL   string        `default:"https://api.open-meteo.com" env:"FORECAST_URL" help:"Open-Meteo forecast base URL."`
	GeocodingURL  string        `default:"https://geocoding-api.open-meteo.com" env:"GEOCODING_URL" help:"Open-Meteo geocoding base URL."`
	NominatimURL  string        `default:"https://nominatim.openstreetmap.org" env:"NOMINATIM_URL" help:"Nominatim base URL."`
	NominatimRate float64       `default:"1" env:"NOMINATIM_RATE" help:"Reverse geocoding requests per second."`
	AQICountries  []string      `default:"US" env:"AQI_COUNTRIES" help:"Country codes for which air quality is requested."`
	CacheDSN      string        `default:":memory:" env:"CACHE_DSN" help:"SQLite DSN for the geocode cache."`
	CacheTTL      time.Duration `default:"24h" env:"CACHE_TTL" help:"How long geocode lookups are cached."`

	VibeAPIKey  string        `env:"VIBE_API_KEY" help:"API key for the vibe generator."`
	VibeBaseURL string        `default:"https://generativelanguage.googleapis.com/v1beta/openai/" env:"VIBE_BASE_URL" help:"OpenAI-compatible endpoint for the vibe generator."`
	VibeModel   string        `default:"gemini-2.5-flash" env:"VIBE_MODEL" help:"Model used for vibe generation."`
	VibeTimeout time.Duration `default:"60s" env:"VIBE_TIMEOUT" help:"Upper bound for one vibe generation."`
}

// deps are the long-lived clients shared by every dashboard.
type deps struct {
	cache    *store.Store
	weather  *openmeteo.Client
	resolver *location.Resolver
	advisor  *vibe.Advisor
	timeout  time.Duration
}

func (g *Globals) open() (*deps, error) {
	cache, err := store.Open(g.CacheDSN)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	weather := openmeteo.NewClient(openmeteo.Options{
		ForecastURL:  g.ForecastURL,
		GeocodingURL: g.GeocodingURL,
		UserAgent:    g.UserAgent,
		AQICountries: g.AQICountries,
	})
	reverse := nominatim.NewClient(nominatim.Options{
		BaseURL:           g.NominatimURL,
		UserAgent:         g.UserAgent,
		RequestsPerSecond: g.NominatimRate,
	})

	var gen vibe.Generator
	if g.VibeAPIKey == "" {
		log.Println("vibe generation disabled: VIBE_API_KEY not set")
		gen = vibe.GeneratorFunc(func(context.Context, string) (string, error) {
			return "", errors.New("vibe generator not configured")
		})
	} else {
		gen, err = vibe.NewOpenAIGenerator(vibe.GeneratorOptions{
			APIKey:  g.VibeAPIKey,
			BaseURL: g.VibeBaseURL,
			Model:   g.VibeModel,
		})
		if err != nil {
			cache.Close()
			return nil, err
		}
	}

	return &deps{
		cache:    cache,
		weather:  weather,
		resolver: location.NewResolver(weather, reverse).WithCache(cache, g.CacheTTL),
		advisor:  vibe.NewAdvisor(gen, g.VibeTimeout),
		timeout:  g.FetchTimeout,
	}, nil
}

func (d *deps) newController() *dashboard.Controller {
	c := dashboard.NewController(d.resolver, d.weather, d.advisor)
	c.FetchTimeout = d.timeout
	return c
}

type ServeCmd struct {
	Listen        string        `default:":8080" env:"LISTEN_ADDR" help:"Address to listen on."`
	SessionSecret string        `env:"SESSION_SECRET" help:"Key used to sign session cookies (random when empty)."`
	SessionTTL    time.Duration `default:"30m" env:"SESSION_TTL" help:"Idle time before a visitor's dashboard is dropped."`
}

func (c *ServeCmd) Run(g *Globals) error {
	d, err := g.open()
	if err != nil {
		return err
	}
	defer d.cache.Close()

	secret := []byte(c.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("generate session secret: %w", err)
		}
		log.Println("SESSION_SECRET not set, sessions will not survive a restart")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go purgeCache(ctx, d.cache, g.CacheTTL)

	server := api.NewServer(api.Config{
		Addr:          c.Listen,
		SessionSecret: secret,
		SessionTTL:    c.SessionTTL,
		NewController: d.newController,
		Cache:         d.cache,
	})
	return server.Run(ctx)
}

// purgeCache drops stale geocode entries every hour.
func purgeCache(ctx context.Context, cache *store.Store, ttl time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := cache.PurgeGeocode(ttl)
			if err != nil {
				log.Printf("cache: purge: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("cache: purged %d stale geocode entries", n)
			}
		}
	}
}

// PlaceFlags select the place for one-shot commands. With neither a query
// nor coordinates the Mumbai fallback is used.
type PlaceFlags struct {
	Query string   `short:"q" help:"Place name to search for."`
	Lat   *float64 `help:"Latitude." and:"coord"`
	Lon   *float64 `help:"Longitude." and:"coord"`
}

// load runs the dashboard once for the selected place.
func (p PlaceFlags) load(ctx context.Context, ctrl *dashboard.Controller) (dashboard.State, error) {
	var err error
	switch {
	case p.Query != "":
		err = ctrl.Search(ctx, p.Query)
	case p.Lat != nil && p.Lon != nil:
		err = ctrl.Start(ctx, location.Fixed(models.Coordinate{Latitude: *p.Lat, Longitude: *p.Lon}))
	default:
		err = ctrl.Start(ctx, nil)
	}
	snap := ctrl.Snapshot()
	if err != nil {
		if snap.Notice != nil {
			return snap, errors.New(snap.Notice.Message)
		}
		return snap, err
	}
	if snap.Notice != nil {
		fmt.Fprintln(os.Stderr, snap.Notice.Message)
	}
	return snap, nil
}

type NowCmd struct {
	PlaceFlags
}

func (c *NowCmd) Run(g *Globals) error {
	d, err := g.open()
	if err != nil {
		return err
	}
	defer d.cache.Close()

	snap, err := c.load(context.Background(), d.newController())
	if err != nil {
		return err
	}
	return render.NewPipeline().Render(snap.Weather, snap.Place, time.Now(), terminalPorts(os.Stdout))
}

type VibeCmd struct {
	PlaceFlags
}

func (c *VibeCmd) Run(g *Globals) error {
	d, err := g.open()
	if err != nil {
		return err
	}
	defer d.cache.Close()

	ctx := context.Background()
	ctrl := d.newController()
	if _, err := c.load(ctx, ctrl); err != nil {
		return err
	}
	res := ctrl.Vibe(ctx)
	if res.Failed() {
		return errors.New(res.Diagnostic())
	}
	fmt.Println(htmlutil.ToText(string(res.HTML)))
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("vibecast"),
		kong.Description("Weather dashboard with an AI lifestyle vibe."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}
