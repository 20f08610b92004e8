package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"wormfall/server/protocol"
)

// flatField builds a field that is open air down to groundY and solid from
// there to the bottom.
func flatField(w, h, groundY int) *TerrainField {
	f := NewTerrainField(w, h)
	for y := groundY; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Set(x, y, true)
		}
	}
	return f
}

// carveGap opens a vertical shaft from the surface to the bottom between
// x0 and x1, leaving water as the only thing to land in.
func carveGap(f *TerrainField, x0, x1 int) {
	for y := 0; y < f.H; y++ {
		for x := x0; x <= x1; x++ {
			f.Set(x, y, false)
		}
	}
}

func blobFrom(f *TerrainField, seed int64) *protocol.TerrainBlob {
	return &protocol.TerrainBlob{
		Width:     f.W,
		Height:    f.H,
		Bitmap:    f.Encode(),
		Heightmap: f.SurfaceScan(),
		Seed:      seed,
		Theme:     "grass",
	}
}

func flatBlob(w, h, groundY int, seed int64) *protocol.TerrainBlob {
	return blobFrom(flatField(w, h, groundY), seed)
}

var testColors = []string{"red", "blue", "green", "yellow"}

// newTestSession builds a session on a 320x200 flat field with ground at
// y=150 and water at y=192.
func newTestSession(t *testing.T, players, unitsPer int) *Session {
	t.Helper()
	return newTestSessionOn(t, flatBlob(320, 200, 150, 7), players, unitsPer)
}

func newTestSessionOn(t *testing.T, blob *protocol.TerrainBlob, players, unitsPer int) *Session {
	t.Helper()
	setups := make([]PlayerSetup, players)
	for i := range setups {
		setups[i] = PlayerSetup{ID: int64(i + 1), Name: fmt.Sprintf("p%d", i+1), Color: testColors[i]}
	}
	s, err := NewSession(setups, protocol.MatchConfig{
		UnitsPerTeam: unitsPer,
		UnitHP:       100,
		TurnSeconds:  30,
		Theme:        "grass",
		Width:        blob.Width,
		Height:       blob.Height,
	}, blob)
	require.NoError(t, err)
	return s
}

// park places a unit at rest at (x, y). Tests use it to set up exact
// geometry instead of relying on shuffled spawns.
func park(u *Unit, x, y float64) {
	u.X, u.Y = x, y
	u.VX, u.VY = 0, 0
	u.Walking = false
	u.WalkDir = 0
	u.pendingJump = nil
	u.pendingKnockback = nil
}

// restY is where a unit's center sits when standing on ground whose
// surface row is groundY.
func restY(groundY int) float64 {
	return float64(groundY) - UnitHalfH
}

// tickUntil runs the session at the fixed tick rate until pred holds or
// maxTicks pass, collecting every event on the way.
func tickUntil(s *Session, maxTicks int, pred func() bool) []protocol.Event {
	var events []protocol.Event
	for i := 0; i < maxTicks; i++ {
		events = append(events, s.Tick(TickDt)...)
		if pred() {
			break
		}
	}
	return events
}

func eventsOfType(events []protocol.Event, typ string) []protocol.Event {
	var out []protocol.Event
	for _, e := range events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
