package api

import (
	"context"
	"errors"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/vibecast/internal/dashboard"
	"github.com/lox/vibecast/internal/imagegen"
)

const (
	DefaultSessionTTL = 30 * time.Minute
	sweepInterval     = time.Minute
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping() error
}

type Config struct {
	Addr          string
	SessionSecret []byte
	SessionTTL    time.Duration
	// NewController builds the dashboard for a new visitor.
	NewController func() *dashboard.Controller
	// Cache is checked by /health when set.
	Cache Pinger
}

type Server struct {
	addr     string
	tmpl     *template.Template
	cookies  *sessions.CookieStore
	visitors *visitorRegistry
	cards    *imagegen.CardCache
	cache    Pinger
	now      func() time.Time
}

func NewServer(cfg Config) *Server {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	cookies := sessions.NewCookieStore(cfg.SessionSecret)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Server{
		addr:     cfg.Addr,
		tmpl:     newTemplates(),
		cookies:  cookies,
		visitors: newVisitorRegistry(cfg.NewController, ttl),
		cards:    imagegen.NewCardCache(5*time.Minute, 256),
		cache:    cfg.Cache,
		now:      time.Now,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/locate", s.handleLocate)
	r.Post("/search", s.handleSearch)
	r.Post("/vibe", s.handleVibe)
	r.Get("/partials/{name}", s.handlePartial)
	r.Get("/api/weather", s.handleAPIWeather)
	r.Get("/share.png", s.handleShareCard)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	go s.sweep(ctx)

	log.Printf("api: listening on %s", s.addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// sweep evicts idle visitors until ctx is done.
func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.visitors.closeAll()
			return
		case <-ticker.C:
			if n := s.visitors.evictIdle(s.now()); n > 0 {
				log.Printf("api: evicted %d idle sessions", n)
			}
		}
	}
}
