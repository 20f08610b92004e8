// Package mapgen builds the destructible battlefields matches are fought
// on. Generation is deterministic: one theme, size, and seed always
// produce a byte-identical blob, so a stored seed is enough to rebuild a
// map exactly on any client.
package mapgen

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"wormfall/server/protocol"
)

// The engine places the water line this far above the bottom edge.
// Surfaces are clamped clear of it so every theme has walkable ground.
const waterMargin = 8

// Canvas size limits.
const (
	MinWidth  = 320
	MaxWidth  = 2048
	MinHeight = 200
	MaxHeight = 1024
)

// Theme is one terrain recipe. Base and Amplitude are fractions of the
// canvas height.
type Theme struct {
	Name      string
	Width     int // default canvas size; a match config may override
	Height    int
	Base      float64 // surface center line
	Amplitude float64 // first midpoint displacement
	Roughness float64 // displacement carried into each halving
	Caverns   int     // interior air pockets to carve
	Taper     bool    // sink both edges under the water line
}

var themes = map[string]Theme{
	"grass":  {Name: "grass", Width: 960, Height: 600, Base: 0.62, Amplitude: 0.18, Roughness: 0.55},
	"cavern": {Name: "cavern", Width: 880, Height: 600, Base: 0.52, Amplitude: 0.12, Roughness: 0.50, Caverns: 10},
	"island": {Name: "island", Width: 1040, Height: 560, Base: 0.58, Amplitude: 0.20, Roughness: 0.60, Taper: true},
}

// Themes lists the available theme names in a stable order.
func Themes() []string {
	out := make([]string, 0, len(themes))
	for name := range themes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// HasTheme reports whether name is a known theme.
func HasTheme(name string) bool {
	_, ok := themes[name]
	return ok
}

// Generate builds a packed terrain blob. Zero width or height take the
// theme's defaults; a zero seed rolls a fresh one, recorded in the blob so
// the result stays reproducible.
func Generate(theme string, width, height int, seed int64) (*protocol.TerrainBlob, error) {
	t, ok := themes[theme]
	if !ok {
		return nil, fmt.Errorf("mapgen: unknown theme %q", theme)
	}
	if width <= 0 {
		width = t.Width
	}
	if height <= 0 {
		height = t.Height
	}
	if width < MinWidth || width > MaxWidth || height < MinHeight || height > MaxHeight {
		return nil, fmt.Errorf("mapgen: size %dx%d out of range %dx%d..%dx%d",
			width, height, MinWidth, MinHeight, MaxWidth, MaxHeight)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	surface := displace(rng, width, float64(height), t)
	smooth(surface)
	if t.Taper {
		taperEdges(surface, float64(height)-waterMargin)
	}

	c := newCanvas(width, height)
	for x := 0; x < width; x++ {
		for y := int(surface[x]); y < height; y++ {
			c.set(x, y)
		}
	}
	carveCaverns(rng, c, surface, t.Caverns)

	return &protocol.TerrainBlob{
		Width:     width,
		Height:    height,
		Bitmap:    c.bits,
		Heightmap: c.surfaceScan(),
		Seed:      seed,
		Theme:     t.Name,
	}, nil
}

// displace runs midpoint displacement over a power-of-two span, crops it
// to the canvas width, and clamps the result to a band between open sky
// and the water line.
func displace(rng *rand.Rand, width int, height float64, t Theme) []float64 {
	span := 1
	for span+1 < width {
		span *= 2
	}
	hs := make([]float64, span+1)
	base := t.Base * height
	amp := t.Amplitude * height
	hs[0] = base + (rng.Float64()*2-1)*amp
	hs[span] = base + (rng.Float64()*2-1)*amp
	disp := amp
	for step := span; step > 1; step /= 2 {
		half := step / 2
		for i := half; i < span; i += step {
			mid := (hs[i-half] + hs[i+half]) / 2
			hs[i] = mid + (rng.Float64()*2-1)*disp
		}
		disp *= t.Roughness
	}

	lo := 0.10 * height
	hi := height - waterMargin - 14
	out := hs[:width]
	for i, v := range out {
		out[i] = math.Min(math.Max(v, lo), hi)
	}
	return out
}

// smooth runs one binomial pass to knock single-column jaggies off the
// surface.
func smooth(hs []float64) {
	if len(hs) < 3 {
		return
	}
	prev := hs[0]
	for i := 1; i < len(hs)-1; i++ {
		cur := hs[i]
		hs[i] = (prev + 2*cur + hs[i+1]) / 4
		prev = cur
	}
}

// taperEdges sinks both ends of an island below the water line with a
// cosine blend, leaving open sea at the map edges.
func taperEdges(hs []float64, waterY float64) {
	w := len(hs)
	taper := w / 6
	if taper < 24 {
		taper = 24
	}
	deep := waterY + 6
	for i := 0; i < taper && i < w; i++ {
		f := 0.5 - 0.5*math.Cos(math.Pi*float64(i)/float64(taper)) // 0 at the edge, 1 inland
		hs[i] = deep + (hs[i]-deep)*f
		j := w - 1 - i
		hs[j] = deep + (hs[j]-deep)*f
	}
}

// carveCaverns pops n air pockets into the rock. Each pocket is centered
// at least its own radius under the surface of its home column, so caverns
// read as interiors rather than extra craters.
func carveCaverns(rng *rand.Rand, c *canvas, surface []float64, n int) {
	for i := 0; i < n; i++ {
		x := 20 + rng.Intn(c.w-40)
		r := 10 + rng.Float64()*16
		top := surface[x] + r + 8
		bottom := float64(c.h) - r - 6
		if top >= bottom {
			continue
		}
		y := top + rng.Float64()*(bottom-top)
		c.clearCircle(float64(x), y, r)
	}
}
