package mapgen

import "math"

// canvas is a 1-bit scratch surface in the wire layout documented on
// protocol.TerrainBlob: row-major from the top-left, MSB first within a
// byte, rows padded to whole bytes.
type canvas struct {
	w, h   int
	stride int
	bits   []byte
}

func newCanvas(w, h int) *canvas {
	stride := (w + 7) / 8
	return &canvas{w: w, h: h, stride: stride, bits: make([]byte, stride*h)}
}

// set marks (x, y) solid. Callers keep coordinates in bounds.
func (c *canvas) set(x, y int) {
	c.bits[y*c.stride+x>>3] |= 0x80 >> uint(x&7)
}

func (c *canvas) solid(x, y int) bool {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return false
	}
	return c.bits[y*c.stride+x>>3]&(0x80>>uint(x&7)) != 0
}

// clearCircle opens every pixel within r of (cx, cy), clamped at the
// canvas edges.
func (c *canvas) clearCircle(cx, cy, r float64) {
	minX := int(math.Floor(cx - r))
	maxX := int(math.Ceil(cx + r))
	minY := int(math.Floor(cy - r))
	maxY := int(math.Ceil(cy + r))
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX >= c.w {
		maxX = c.w - 1
	}
	if maxY >= c.h {
		maxY = c.h - 1
	}
	r2 := r * r
	for y := minY; y <= maxY; y++ {
		dy := float64(y) - cy
		for x := minX; x <= maxX; x++ {
			dx := float64(x) - cx
			if dx*dx+dy*dy > r2 {
				continue
			}
			c.bits[y*c.stride+x>>3] &^= 0x80 >> uint(x&7)
		}
	}
}

// surfaceScan returns per column the topmost solid y, or the canvas
// height for all-air columns. Matches the heightmap contract the engine's
// spawn picker consumes.
func (c *canvas) surfaceScan() []int {
	out := make([]int, c.w)
	for x := 0; x < c.w; x++ {
		out[x] = c.h
		for y := 0; y < c.h; y++ {
			if c.solid(x, y) {
				out[x] = y
				break
			}
		}
	}
	return out
}
