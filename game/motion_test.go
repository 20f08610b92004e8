package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepField builds flat ground at leftY for x < splitX and rightY from
// splitX on.
func stepField(w, h, splitX, leftY, rightY int) *TerrainField {
	f := NewTerrainField(w, h)
	for x := 0; x < w; x++ {
		top := leftY
		if x >= splitX {
			top = rightY
		}
		for y := top; y < h; y++ {
			f.Set(x, y, true)
		}
	}
	return f
}

func restingUnit(x, y float64) *Unit {
	return &Unit{ID: 1, X: x, Y: y, Facing: 1, Health: 100, MaxHealth: 100, Alive: true}
}

func TestStepUnitRestingStaysPut(t *testing.T) {
	f := flatField(320, 200, 150)
	u := restingUnit(100, restY(150))

	res := StepUnit(u, TickDt, f, 192, false, 0)
	assert.Equal(t, 100.0, u.X)
	assert.Equal(t, restY(150), u.Y)
	assert.Equal(t, 0.0, u.VX)
	assert.Equal(t, 0.0, u.VY)
	assert.False(t, res.Landed)
	assert.False(t, res.InWater)
}

func TestStepUnitWalksOnFlatGround(t *testing.T) {
	f := flatField(320, 200, 150)
	u := restingUnit(100, restY(150))

	for i := 0; i < 10; i++ {
		StepUnit(u, TickDt, f, 192, true, 1)
	}
	assert.InDelta(t, 100+10*WalkSpeed*TickDt, u.X, 1e-9)
	assert.Equal(t, restY(150), u.Y, "stays snapped to the surface")
	assert.Equal(t, 1, u.Facing)
}

func TestStepUnitClimbsSmallStep(t *testing.T) {
	f := stepField(320, 200, 100, 150, 146) // 4px rise, within climb tolerance
	u := restingUnit(90, restY(150))

	for i := 0; i < 120 && u.X < 110; i++ {
		StepUnit(u, TickDt, f, 192, true, 1)
	}
	assert.GreaterOrEqual(t, u.X, 110.0)
	assert.Equal(t, restY(146), u.Y, "snapped onto the higher ledge")
}

func TestStepUnitBlockedByWall(t *testing.T) {
	f := flatField(320, 200, 150)
	for y := 100; y < 150; y++ { // wall from the ground up at x 108..112
		for x := 108; x <= 112; x++ {
			f.Set(x, y, true)
		}
	}
	u := restingUnit(95, restY(150))

	for i := 0; i < 120; i++ {
		StepUnit(u, TickDt, f, 192, true, 1)
	}
	assert.Less(t, u.X, 108.0-UnitHalfW+2, "wall stops the walk")
	assert.Equal(t, restY(150), u.Y, "never climbs the wall")
}

func TestStepUnitDropsSmallLedge(t *testing.T) {
	f := stepField(320, 200, 100, 150, 160) // 10px drop, within lookahead
	u := restingUnit(90, restY(150))

	for i := 0; i < 60 && u.VY == 0; i++ { // walk until the ledge tips it over
		StepUnit(u, TickDt, f, 192, true, 1)
	}
	require.Greater(t, u.VY, 0.0)
	for i := 0; i < 100 && u.VY != 0; i++ { // gravity finishes the drop
		StepUnit(u, TickDt, f, 192, false, 0)
	}
	assert.Greater(t, u.X, 100.0)
	assert.Equal(t, restY(160), u.Y, "settled on the lower ledge")
}

func TestStepUnitCarriedOffCliff(t *testing.T) {
	f := stepField(320, 200, 100, 150, 180) // 30px cliff, past the lookahead
	u := restingUnit(90, restY(150))

	for i := 0; i < 60 && u.VY == 0; i++ {
		StepUnit(u, TickDt, f, 192, true, 1)
	}
	require.Greater(t, u.VY, 0.0, "walked off the edge")
	assert.Equal(t, float64(WalkSpeed), u.VX, "momentum carried into the fall")

	var landed MoveResult
	for i := 0; i < 200 && !landed.Landed; i++ {
		landed = StepUnit(u, TickDt, f, 192, false, 0)
	}
	require.True(t, landed.Landed)
	assert.Equal(t, restY(180), u.Y)
	assert.Equal(t, 0.0, u.VX)
}

func TestStepUnitLandingReportsImpactSpeed(t *testing.T) {
	f := flatField(320, 200, 150)
	u := restingUnit(100, 50) // 92px above the surface
	u.VY = 1 // past the resting check, let gravity do the rest

	var res MoveResult
	for i := 0; i < 200 && !res.Landed; i++ {
		res = StepUnit(u, TickDt, f, 192, false, 0)
	}
	require.True(t, res.Landed)
	assert.Greater(t, res.LandingVY, 200.0, "a 90px fall lands hard")
	assert.Equal(t, restY(150), u.Y)
	assert.Equal(t, 0.0, u.VY)
}

func TestStepUnitSideCollisionBouncesBack(t *testing.T) {
	f := flatField(320, 400, 350)
	for y := 0; y < 350; y++ { // tall wall at x 200..210
		for x := 200; x <= 210; x++ {
			f.Set(x, y, true)
		}
	}
	u := restingUnit(170, 100)
	u.VX, u.VY = 120, 1 // flying right at the wall

	for i := 0; i < 10 && u.VX > 0; i++ {
		StepUnit(u, TickDt, f, 392, false, 0)
	}
	assert.Negative(t, u.VX, "horizontal motion reflected")
	assert.InDelta(t, -120*SideBounce, u.VX, 25, "only a fraction of the speed survives")
	assert.Less(t, u.X, 200.0-UnitHalfW+1)
}

func TestStepUnitCeilingCancelsRise(t *testing.T) {
	f := NewTerrainField(320, 200)
	for y := 80; y <= 90; y++ {
		for x := 0; x < 320; x++ {
			f.Set(x, y, true)
		}
	}
	u := restingUnit(100, 110)
	u.VY = -150

	for i := 0; i < 10 && u.VY < 0; i++ {
		StepUnit(u, TickDt, f, 192, false, 0)
	}
	assert.Equal(t, float64(CeilingSeed), u.VY, "head bump starts a gentle fall")
}

func TestStepUnitFallsIntoWater(t *testing.T) {
	f := NewTerrainField(320, 200)
	u := restingUnit(100, 170)
	u.VY = 60

	var res MoveResult
	for i := 0; i < 50 && !res.InWater; i++ {
		res = StepUnit(u, TickDt, f, 192, false, 0)
	}
	require.True(t, res.InWater)
	assert.Equal(t, 192.0, u.Y, "clamped to the water surface")
	assert.Equal(t, 0.0, u.VX)
	assert.Equal(t, 0.0, u.VY)
}

func TestStepUnitPopsOutAfterTerrainLoss(t *testing.T) {
	f := flatField(320, 200, 150)
	u := restingUnit(100, restY(150))

	// ground collapses into the unit's body
	for y := 140; y < 150; y++ {
		for x := 0; x < 320; x++ {
			f.Set(x, y, true)
		}
	}
	StepUnit(u, TickDt, f, 192, false, 0)
	assert.False(t, embedded(f, u), "pushed clear of the new ground")
	assert.Less(t, u.Y, restY(150))
}
