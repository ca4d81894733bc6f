package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lox/vibecast/internal/location"
	"github.com/lox/vibecast/internal/models"
)

var errBadCoordinate = errors.New("invalid coordinate")

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	v, err := s.visitor(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.execute(w, "index.html", s.page(v, true, true))
}

// handleLocate receives the browser's geolocation result: either lat and
// lon, or error=denied|unsupported.
func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	v, err := s.visitor(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	loc, err := locatorFromForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	_ = v.ctrl.Start(r.Context(), loc)
	s.respondDashboard(w, r, v)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	v, err := s.visitor(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = v.ctrl.Search(r.Context(), r.FormValue("q"))
	s.respondDashboard(w, r, v)
}

func (s *Server) handleVibe(w http.ResponseWriter, r *http.Request) {
	v, err := s.visitor(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	v.ctrl.Vibe(r.Context())

	if !isHTMX(r) {
		http.Redirect(w, r, "/#vibe", http.StatusSeeOther)
		return
	}
	data := s.page(v, false, false)
	data.OOB = true
	s.execute(w, "vibe.html", data)
}

func (s *Server) handlePartial(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	switch name {
	case "current", "hourly", "daily", "notice":
	default:
		http.NotFound(w, r)
		return
	}
	v, err := s.visitor(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.execute(w, name+".html", s.page(v, false, false))
}

// respondDashboard answers htmx requests with the dashboard fragment and
// plain form posts with a redirect to the page.
func (s *Server) respondDashboard(w http.ResponseWriter, r *http.Request, v *visitor) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.execute(w, "dashboard.html", s.page(v, false, true))
}

func (s *Server) execute(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("api: template %s: %v", name, err)
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func locatorFromForm(r *http.Request) (location.Locator, error) {
	switch r.PostFormValue("error") {
	case "":
	case "unsupported":
		return nil, nil
	default:
		return location.Unavailable(location.ErrGeolocationDenied), nil
	}

	lat, err := strconv.ParseFloat(r.PostFormValue("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("%w: lat %q", errBadCoordinate, r.PostFormValue("lat"))
	}
	lon, err := strconv.ParseFloat(r.PostFormValue("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: lon %q", errBadCoordinate, r.PostFormValue("lon"))
	}
	return location.Fixed(models.Coordinate{Latitude: lat, Longitude: lon}), nil
}
