package game

import (
	"fmt"
	"math"

	"wormfall/server/protocol"
)

// TerrainField is the destructible battlefield: a 1-bit occupancy grid,
// row-major from the top-left, 8 pixels per byte MSB-first, one row every
// stride bytes. The packing is a wire contract shared with the generator
// and the clients (see protocol.TerrainBlob); gameplay only ever removes
// pixels, via EraseCircle.
type TerrainField struct {
	W, H   int
	stride int
	bits   []byte
}

// NewTerrainField returns an empty (all open) field.
func NewTerrainField(w, h int) *TerrainField {
	stride := (w + 7) / 8
	return &TerrainField{W: w, H: h, stride: stride, bits: make([]byte, stride*h)}
}

// DecodeTerrain wraps a generator blob, keeping its packed layout.
func DecodeTerrain(blob *protocol.TerrainBlob) (*TerrainField, error) {
	if blob.Width <= 0 || blob.Height <= 0 {
		return nil, fmt.Errorf("terrain: bad dimensions %dx%d", blob.Width, blob.Height)
	}
	stride := blob.Stride()
	if len(blob.Bitmap) != stride*blob.Height {
		return nil, fmt.Errorf("terrain: bitmap is %d bytes, want %d", len(blob.Bitmap), stride*blob.Height)
	}
	bits := make([]byte, len(blob.Bitmap))
	copy(bits, blob.Bitmap)
	return &TerrainField{W: blob.Width, H: blob.Height, stride: stride, bits: bits}, nil
}

// Get reports whether (x, y) is solid. Out-of-bounds reads open air.
func (t *TerrainField) Get(x, y int) bool {
	if x < 0 || x >= t.W || y < 0 || y >= t.H {
		return false
	}
	return t.bits[y*t.stride+x>>3]&(0x80>>uint(x&7)) != 0
}

// Set writes one pixel. No-op outside bounds.
func (t *TerrainField) Set(x, y int, solid bool) {
	if x < 0 || x >= t.W || y < 0 || y >= t.H {
		return
	}
	mask := byte(0x80 >> uint(x&7))
	if solid {
		t.bits[y*t.stride+x>>3] |= mask
	} else {
		t.bits[y*t.stride+x>>3] &^= mask
	}
}

// SolidAt is Get at rounded float coordinates.
func (t *TerrainField) SolidAt(x, y float64) bool {
	return t.Get(int(math.Round(x)), int(math.Round(y)))
}

// EraseCircle clears every solid pixel within r of (cx, cy) and returns how
// many were cleared. Erasing already-open ground returns 0.
func (t *TerrainField) EraseCircle(cx, cy, r float64) int {
	if r <= 0 {
		return 0
	}
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
	if maxX >= t.W {
		maxX = t.W - 1
	}
	if maxY >= t.H {
		maxY = t.H - 1
	}
	r2 := r * r
	erased := 0
	for y := minY; y <= maxY; y++ {
		dy := float64(y) - cy
		for x := minX; x <= maxX; x++ {
			dx := float64(x) - cx
			if dx*dx+dy*dy > r2 {
				continue
			}
			idx := y*t.stride + x>>3
			mask := byte(0x80 >> uint(x&7))
			if t.bits[idx]&mask != 0 {
				t.bits[idx] &^= mask
				erased++
			}
		}
	}
	return erased
}

// Encode returns a copy of the packed bitmap in wire layout.
func (t *TerrainField) Encode() []byte {
	out := make([]byte, len(t.bits))
	copy(out, t.bits)
	return out
}

// SurfaceScan returns, per column, the topmost solid y, or the field
// height when the column is all air.
func (t *TerrainField) SurfaceScan() []int {
	out := make([]int, t.W)
	for x := 0; x < t.W; x++ {
		out[x] = t.H
		for y := 0; y < t.H; y++ {
			if t.Get(x, y) {
				out[x] = y
				break
			}
		}
	}
	return out
}
