package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lox/vibecast/internal/dashboard"
	"github.com/lox/vibecast/internal/metrics"
	"github.com/lox/vibecast/internal/render"
)

const (
	sessionName  = "vibecast"
	sessionIDKey = "id"
)

// visitor is the in-memory dashboard of one browser session.
type visitor struct {
	id       string
	ctrl     *dashboard.Controller
	pipeline *render.Pipeline
	lastSeen time.Time
}

type visitorRegistry struct {
	mu            sync.Mutex
	visitors      map[string]*visitor
	newController func() *dashboard.Controller
	idleTTL       time.Duration
}

func newVisitorRegistry(newController func() *dashboard.Controller, idleTTL time.Duration) *visitorRegistry {
	return &visitorRegistry{
		visitors:      make(map[string]*visitor),
		newController: newController,
		idleTTL:       idleTTL,
	}
}

func (r *visitorRegistry) get(id string, now time.Time) *visitor {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.visitors[id]
	if !ok {
		v = &visitor{id: id, ctrl: r.newController(), pipeline: render.NewPipeline()}
		r.visitors[id] = v
		metrics.ActiveSessions.Set(float64(len(r.visitors)))
	}
	v.lastSeen = now
	return v
}

func (r *visitorRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}

func (r *visitorRegistry) evictIdle(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, v := range r.visitors {
		if now.Sub(v.lastSeen) > r.idleTTL {
			v.ctrl.Close()
			delete(r.visitors, id)
			evicted++
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.visitors)))
	return evicted
}

func (r *visitorRegistry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, v := range r.visitors {
		v.ctrl.Close()
		delete(r.visitors, id)
	}
	metrics.ActiveSessions.Set(0)
}

// visitor returns the dashboard for the request's session, issuing a new
// session cookie when there is none. It must run before the body is written.
func (s *Server) visitor(w http.ResponseWriter, r *http.Request) (*visitor, error) {
	// a cookie that fails to decode still yields a fresh session
	sess, _ := s.cookies.Get(r, sessionName)
	id, _ := sess.Values[sessionIDKey].(string)
	if id == "" {
		id = uuid.NewString()
		sess.Values[sessionIDKey] = id
		if err := sess.Save(r, w); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}
	return s.visitors.get(id, s.now()), nil
}
