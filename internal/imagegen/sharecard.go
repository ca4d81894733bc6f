package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/lox/vibecast/internal/forecast"
)

var (
	fontLarge   font.Face
	fontRegular font.Face
	fontOnce    sync.Once
	fontErr     error
)

func loadFonts() {
	fontOnce.Do(func() {
		regular, err := opentype.Parse(goregular.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse goregular: %w", err)
			return
		}
		fontRegular, err = opentype.NewFace(regular, &opentype.FaceOptions{
			Size:    36,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			fontErr = fmt.Errorf("create regular face: %w", err)
			return
		}

		medium, err := opentype.Parse(gomedium.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse gomedium: %w", err)
			return
		}
		fontLarge, err = opentype.NewFace(medium, &opentype.FaceOptions{
			Size:    120,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			fontErr = fmt.Errorf("create large face: %w", err)
		}
	})
}

// Card dimensions match the Open Graph recommendation.
const (
	CardWidth  = 1200
	CardHeight = 630
)

// ShareCard is the data drawn onto a share image.
type ShareCard struct {
	Place       string
	Temperature int
	FeelsLike   int
	Description string
	Condition   forecast.WeatherCondition
	Palette     forecast.Palette
}

// Key identifies the rendered image so equal cards can share a cache entry.
func (c ShareCard) Key() string {
	return fmt.Sprintf("%s|%d|%d|%s|%s|%s", c.Place, c.Temperature, c.FeelsLike, c.Description, c.Condition, c.Palette.Accent)
}

// backgrounds are top and bottom gradient stops per condition.
var backgrounds = map[forecast.WeatherCondition][2]color.RGBA{
	forecast.ConditionClear:  {{40, 110, 190, 255}, {12, 40, 90, 255}},
	forecast.ConditionCloudy: {{90, 100, 115, 255}, {32, 38, 48, 255}},
	forecast.ConditionFog:    {{130, 136, 144, 255}, {50, 54, 60, 255}},
	forecast.ConditionRain:   {{40, 60, 85, 255}, {10, 18, 30, 255}},
	forecast.ConditionSnow:   {{150, 175, 205, 255}, {50, 70, 100, 255}},
	forecast.ConditionStorm:  {{40, 36, 60, 255}, {6, 6, 14, 255}},
}

// RenderShareCard draws the card as a PNG.
func RenderShareCard(card ShareCard) ([]byte, error) {
	loadFonts()
	if fontErr != nil {
		return nil, fmt.Errorf("load fonts: %w", fontErr)
	}

	img := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))

	stops, ok := backgrounds[card.Condition]
	if !ok {
		stops = [2]color.RGBA{{20, 20, 40, 255}, {30, 35, 60, 255}}
	}
	drawGradient(img, stops[0], stops[1])

	white := color.RGBA{255, 255, 255, 255}
	muted := hexColor(card.Palette.TextMuted, color.RGBA{200, 200, 200, 255})
	accent := hexColor(card.Palette.Accent, white)

	drawText(img, card.Place, 60, 100, accent, fontRegular)
	drawText(img, fmt.Sprintf("%d°C", card.Temperature), 60, CardHeight-220, white, fontLarge)
	if card.Description != "" {
		drawText(img, card.Description, 60, CardHeight-130, white, fontRegular)
	}
	drawText(img, fmt.Sprintf("Feels like %d°C", card.FeelsLike), 60, CardHeight-80, muted, fontRegular)
	drawText(img, "vibecast", CardWidth-220, CardHeight-40, muted, fontRegular)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode share card: %w", err)
	}
	return buf.Bytes(), nil
}

func drawGradient(img *image.RGBA, top, bottom color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		progress := float64(y-b.Min.Y) / float64(b.Dy())
		c := color.RGBA{
			R: lerp(top.R, bottom.R, progress),
			G: lerp(top.G, bottom.G, progress),
			B: lerp(top.B, bottom.B, progress),
			A: 255,
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// hexColor parses "#rrggbb", returning def for anything else.
func hexColor(s string, def color.RGBA) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return def
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return def
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// CardCache keeps recently rendered cards for a short period.
type CardCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]cardEntry
	now     func() time.Time
}

type cardEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewCardCache(ttl time.Duration, max int) *CardCache {
	return &CardCache{ttl: ttl, max: max, entries: make(map[string]cardEntry), now: time.Now}
}

func (c *CardCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.data, true
}

func (c *CardCache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.entries) >= c.max {
		for k, e := range c.entries {
			if !now.Before(e.expiresAt) {
				delete(c.entries, k)
			}
		}
	}
	// still full: drop an arbitrary entry
	if len(c.entries) >= c.max {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[key] = cardEntry{data: data, expiresAt: now.Add(c.ttl)}
}

// Render returns the cached PNG for card, rendering it on a miss.
func (c *CardCache) Render(card ShareCard) ([]byte, error) {
	key := card.Key()
	if data, ok := c.Get(key); ok {
		return data, nil
	}
	data, err := RenderShareCard(card)
	if err != nil {
		return nil, err
	}
	c.Set(key, data)
	return data, nil
}
