package vibe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lox/vibecast/internal/forecast"
	"github.com/lox/vibecast/internal/models"
	"github.com/lox/vibecast/internal/render"
)

var pune = models.Place{Label: "Pune, IN", CountryCode: "IN"}

func testWeather() *models.Weather {
	return &models.Weather{
		Current: models.Current{
			Temperature: 28.6,
			Humidity:    70,
			WindSpeed:   8,
			WeatherCode: 61,
		},
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(pune, testWeather(), forecast.DefaultFeelsLike)

	for _, want := range []string{
		"weather in Pune, IN.",
		"• Condition: Slight Rain",
		"• Temperature: 29°C",
		"• Feels Like: 32°C",
		"### 1. Vibe of the Day",
		"### 7. Nearby Places to Visit (3–5 suggestions)",
		"**clean Markdown**",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestRenderMarkdown_Styles(t *testing.T) {
	src := strings.Join([]string{
		"# Title",
		"## Section",
		"### Sub",
		"#### Deep",
		"",
		"- one",
		"- **bold** and *soft*",
		"",
		"1. first",
		"",
		"| Dish | Place |",
		"| --- | --- |",
		"| Misal | Katakirr |",
		"",
		"line one",
		"line two",
		"",
		"<script>alert(1)</script>",
	}, "\n")

	html, err := RenderMarkdown(newMarkdown(), src)
	if err != nil {
		t.Fatal(err)
	}
	out := string(html)

	for _, want := range []string{
		`<h1 class="` + classH1 + `"`,
		`<h2 class="` + classH2 + `"`,
		`<h3 class="` + classH3 + `"`,
		`<h4>Deep</h4>`,
		`<ul class="` + classUL + `"`,
		`<ol class="` + classOL + `"`,
		`<strong class="` + classStrong + `">bold</strong>`,
		`<em class="` + classEm + `">soft</em>`,
		`<table class="` + classTable + `"`,
		`<th class="` + classTH + `"`,
		`<td class="` + classTD + `"`,
		"line one<br>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "<script>") {
		t.Error("raw HTML should not be rendered")
	}
}

func TestAdvisor_NotLoaded(t *testing.T) {
	called := false
	a := NewAdvisor(GeneratorFunc(func(context.Context, string) (string, error) {
		called = true
		return "", nil
	}), time.Second)

	res := a.Check(context.Background(), nil, pune)
	if !errors.Is(res.Err, ErrNotLoaded) {
		t.Errorf("err = %v, want ErrNotLoaded", res.Err)
	}
	if called {
		t.Error("generator should not be called without weather")
	}
}

func TestAdvisor_Check(t *testing.T) {
	var gotPrompt string
	a := NewAdvisor(GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "## Rainy chai day ☔", nil
	}), time.Second)

	res := a.Check(context.Background(), testWeather(), pune)
	if res.Failed() {
		t.Fatalf("unexpected failure: %v", res.Err)
	}
	if !strings.Contains(gotPrompt, "Pune, IN") {
		t.Error("prompt should name the place")
	}
	if !strings.Contains(string(res.HTML), "Rainy chai day") || !strings.Contains(string(res.HTML), "<h2 class=") {
		t.Errorf("html = %s", res.HTML)
	}
	if res.Diagnostic() != "" {
		t.Errorf("diagnostic = %q, want empty", res.Diagnostic())
	}
}

func TestAdvisor_Failure(t *testing.T) {
	a := NewAdvisor(GeneratorFunc(func(context.Context, string) (string, error) {
		return "", errors.New("API Error: quota exceeded")
	}), time.Second)

	res := a.Check(context.Background(), testWeather(), pune)
	if !errors.Is(res.Err, ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", res.Err)
	}
	if res.HTML != "" {
		t.Error("failed result should carry no HTML")
	}
	if got := res.Diagnostic(); got != "AI Connection Failed: API Error: quota exceeded" {
		t.Errorf("diagnostic = %q", got)
	}
}

func TestAdvisor_EmptyReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"empty", ""},
		{"whitespace", "  \n\t\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdvisor(GeneratorFunc(func(context.Context, string) (string, error) {
				return tt.reply, nil
			}), time.Second)

			res := a.Check(context.Background(), testWeather(), pune)
			if !errors.Is(res.Err, ErrEmptyResponse) {
				t.Fatalf("err = %v, want ErrEmptyResponse", res.Err)
			}
			if res.HTML != "" {
				t.Error("empty reply should carry no HTML")
			}
			if got := res.Diagnostic(); got != "AI Connection Failed: no response content" {
				t.Errorf("diagnostic = %q", got)
			}
		})
	}
}

func TestAdvisor_FeelsLikeMatchesPanel(t *testing.T) {
	params := forecast.DefaultFeelsLike
	params.HumidityDivisor = 5

	pipeline := render.NewPipeline()
	pipeline.FeelsLike = params
	panel := pipeline.Current(testWeather(), pune, time.Now())

	var gotPrompt string
	a := NewAdvisor(GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "ok", nil
	}), time.Second)
	a.FeelsLike = params
	a.Check(context.Background(), testWeather(), pune)

	want := fmt.Sprintf("• Feels Like: %d°C", panel.FeelsLike)
	if panel.FeelsLike != 35 {
		t.Fatalf("panel feels like = %d, want 35", panel.FeelsLike)
	}
	if !strings.Contains(gotPrompt, want) {
		t.Errorf("prompt missing %q:\n%s", want, gotPrompt)
	}
}

func TestAdvisor_Timeout(t *testing.T) {
	a := NewAdvisor(GeneratorFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), 20*time.Millisecond)

	res := a.Check(context.Background(), testWeather(), pune)
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", res.Err)
	}
}

func newCompletionServer(t *testing.T, status int, body string, gotReq *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization = %q", auth)
		}
		if gotReq != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, gotReq)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGenerator(t *testing.T) {
	var req map[string]any
	srv := newCompletionServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1760600000,
		"model": "gemini-2.5-flash",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "  ### Vibe\nCosy  "}}]
	}`, &req)

	g, err := NewOpenAIGenerator(GeneratorOptions{APIKey: "test-key", BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatal(err)
	}
	text, err := g.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "### Vibe\nCosy" {
		t.Errorf("text = %q", text)
	}
	if req["model"] != DefaultModel {
		t.Errorf("model = %v, want %s", req["model"], DefaultModel)
	}
}

func TestOpenAIGenerator_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error": {"message": "backend unavailable", "type": "server_error"}}`},
		{"no choices", http.StatusOK, `{"id": "x", "object": "chat.completion", "choices": []}`},
		{"empty content", http.StatusOK, `{"id": "x", "object": "chat.completion", "choices": [{"index": 0, "message": {"role": "assistant", "content": "   "}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newCompletionServer(t, tt.status, tt.body, nil)
			g, err := NewOpenAIGenerator(GeneratorOptions{APIKey: "test-key", BaseURL: srv.URL + "/"})
			if err != nil {
				t.Fatal(err)
			}
			if _, err := g.Generate(context.Background(), "hello"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewOpenAIGenerator_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIGenerator(GeneratorOptions{}); err == nil {
		t.Error("expected error without API key")
	}
}
