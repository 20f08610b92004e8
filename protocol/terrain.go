package protocol

// TerrainBlob carries the generated battlefield to clients.
//
// Bitmap is a 1-bit occupancy grid: row-major from the top-left, one row
// every Stride() bytes, most significant bit first within a byte, so pixel
// (x, y) lives at byte y*Stride()+x/8, bit 7-x%8. A set bit is solid
// terrain. Rows are padded to a whole byte; pad bits are zero. The []byte
// rides base64 inside JSON.
type TerrainBlob struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bitmap    []byte `json:"bitmap"`
	Heightmap []int  `json:"heightmap"` // per column, first solid y with open air above
	Seed      int64  `json:"seed"`
	Theme     string `json:"theme"`
}

// Stride is the byte width of one bitmap row.
func (t *TerrainBlob) Stride() int {
	return (t.Width + 7) / 8
}
