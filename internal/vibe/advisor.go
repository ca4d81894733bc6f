package vibe

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/lox/vibecast/internal/forecast"
	"github.com/lox/vibecast/internal/metrics"
	"github.com/lox/vibecast/internal/models"
)

const (
	DefaultTimeout  = 60 * time.Second
	DiagnosticTitle = "AI Connection Failed"
)

var (
	ErrNotLoaded        = errors.New("weather data not loaded")
	ErrGenerationFailed = errors.New("vibe generation failed")
)

// Result is the outcome of a vibe check. On failure HTML is empty and Err
// describes the problem; callers show it inline instead of failing the page.
type Result struct {
	HTML     template.HTML
	Markdown string
	Err      error

	cause error
}

func (r Result) Failed() bool {
	return r.Err != nil
}

// Diagnostic is the message shown in place of the vibe when generation failed.
func (r Result) Diagnostic() string {
	switch {
	case r.Err == nil:
		return ""
	case r.cause != nil:
		return fmt.Sprintf("%s: %v", DiagnosticTitle, r.cause)
	default:
		return fmt.Sprintf("%s: %v", DiagnosticTitle, r.Err)
	}
}

type Advisor struct {
	// FeelsLike must match the render pipeline's so the prompt agrees with
	// the panel.
	FeelsLike forecast.FeelsLikeParams

	gen     Generator
	md      goldmark.Markdown
	timeout time.Duration
}

func NewAdvisor(gen Generator, timeout time.Duration) *Advisor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Advisor{FeelsLike: forecast.DefaultFeelsLike, gen: gen, md: newMarkdown(), timeout: timeout}
}

// Check asks the generator for a lifestyle summary of w at place.
func (a *Advisor) Check(ctx context.Context, w *models.Weather, place models.Place) Result {
	if w == nil {
		return Result{Err: ErrNotLoaded}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	markdown, err := a.gen.Generate(ctx, BuildPrompt(place, w, a.FeelsLike))
	if err == nil && strings.TrimSpace(markdown) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		log.Printf("vibe: generate for %s: %v", place.Label, err)
		metrics.VibeGenerations.WithLabelValues("failed").Inc()
		return Result{Err: fmt.Errorf("%w: %w", ErrGenerationFailed, err), cause: err}
	}

	html, err := RenderMarkdown(a.md, markdown)
	if err != nil {
		metrics.VibeGenerations.WithLabelValues("failed").Inc()
		return Result{Err: fmt.Errorf("%w: %w", ErrGenerationFailed, err), cause: err}
	}

	metrics.VibeGenerations.WithLabelValues("ok").Inc()
	return Result{HTML: html, Markdown: markdown}
}
