package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/lox/vibecast/internal/imagegen"
)

func (s *Server) handleAPIWeather(w http.ResponseWriter, r *http.Request) {
	v, err := s.visitor(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(weatherResponse(v.ctrl.Snapshot()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{Status: "ok", Sessions: s.visitors.count()}
	if s.cache != nil {
		if err := s.cache.Ping(); err != nil {
			health.Status = "degraded"
			health.Errors = append(health.Errors, "cache: "+err.Error())
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if health.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}

// handleShareCard serves a PNG summary of the visitor's current conditions.
func (s *Server) handleShareCard(w http.ResponseWriter, r *http.Request) {
	v, err := s.visitor(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	snap := v.ctrl.Snapshot()
	if snap.Weather == nil {
		http.Error(w, "Weather data not loaded yet.", http.StatusNotFound)
		return
	}

	cv := v.pipeline.Peek(snap.Weather, snap.Place, s.now())
	data, err := s.cards.Render(imagegen.ShareCard{
		Place:       cv.Place,
		Temperature: cv.Temperature,
		FeelsLike:   cv.FeelsLike,
		Description: cv.Description,
		Condition:   cv.Condition,
		Palette:     cv.Palette,
	})
	if err != nil {
		log.Printf("api: share card: %v", err)
		http.Error(w, "Failed to generate share card", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(data)
}
