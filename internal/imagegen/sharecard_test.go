package imagegen

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/lox/vibecast/internal/forecast"
)

func testCard() ShareCard {
	return ShareCard{
		Place:       "Pune, IN",
		Temperature: 29,
		FeelsLike:   32,
		Description: "Slight Rain",
		Condition:   forecast.ConditionRain,
		Palette:     forecast.GetPalette(forecast.ConditionRain, forecast.TimeDay),
	}
}

func TestRenderShareCard(t *testing.T) {
	data, err := RenderShareCard(testCard())
	if err != nil {
		t.Fatalf("RenderShareCard: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != CardWidth || b.Dy() != CardHeight {
		t.Errorf("size = %dx%d", b.Dx(), b.Dy())
	}
}

func TestHexColor(t *testing.T) {
	def := color.RGBA{1, 2, 3, 255}
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#fdba74", color.RGBA{0xfd, 0xba, 0x74, 255}},
		{"ffffff", color.RGBA{255, 255, 255, 255}},
		{"rgba(0, 0, 0, 0.5)", def},
		{"#fff", def},
		{"#zzzzzz", def},
	}
	for _, tt := range tests {
		if got := hexColor(tt.in, def); got != tt.want {
			t.Errorf("hexColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCardCache(t *testing.T) {
	c := NewCardCache(time.Minute, 2)
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	card := testCard()
	first, err := c.Render(card)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(card.Key()); !ok {
		t.Fatal("expected cached card")
	}
	second, _ := c.Render(card)
	if &first[0] != &second[0] {
		t.Error("expected cached bytes to be reused")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get(card.Key()); ok {
		t.Error("expected entry to expire")
	}

	c.Set("a", []byte("a"))
	c.Set("b", []byte("b"))
	c.Set("c", []byte("c"))
	if n := len(c.entries); n > 2 {
		t.Errorf("cache holds %d entries, max 2", n)
	}
}
