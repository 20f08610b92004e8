package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateStraightDownHitsSurface(t *testing.T) {
	terrain := flatField(320, 200, 150)
	shot := Simulate(ShotParams{
		X: 160, Y: 100, Angle: math.Pi / 2, Power: 1, Speed: 500,
	}, terrain, 192, nil)

	assert.Equal(t, HitTerrain, shot.Kind)
	require.NotEmpty(t, shot.Trajectory)
	last := shot.Trajectory[len(shot.Trajectory)-1]
	assert.Equal(t, shot.ImpactX, last.X, "impact is the final trajectory sample")
	assert.Equal(t, shot.ImpactY, last.Y)
	assert.InDelta(t, 150, shot.ImpactY, 4, "impact sits on the surface")
	assert.InDelta(t, 160, shot.ImpactX, 1e-9, "no horizontal drift without wind")
}

func TestSimulateTrajectoryStartsAtOrigin(t *testing.T) {
	terrain := flatField(320, 200, 150)
	shot := Simulate(ShotParams{X: 50, Y: 80, Angle: 0, Power: 0.5, Speed: 400}, terrain, 192, nil)
	require.NotEmpty(t, shot.Trajectory)
	first := shot.Trajectory[0]
	assert.Equal(t, 50.0, first.X)
	assert.Equal(t, 80.0, first.Y)
	assert.Equal(t, 0, first.TMs)
}

func TestSimulateFuseFiresAtExactSample(t *testing.T) {
	terrain := NewTerrainField(320, 2000) // all air
	shot := Simulate(ShotParams{
		X: 160, Y: 1000, Angle: -math.Pi / 4, Power: 1, Speed: 300,
		FuseMs: 1000, Elasticity: 0.5,
	}, terrain, 1992, nil)

	assert.Equal(t, HitFuse, shot.Kind)
	assert.Equal(t, 1000, shot.ImpactTimeMs)
	last := shot.Trajectory[len(shot.Trajectory)-1]
	assert.Equal(t, 1000, last.TMs)
	assert.Equal(t, last.X, shot.ImpactX)
	assert.Equal(t, last.Y, shot.ImpactY)
}

func TestSimulateWaterClampsImpact(t *testing.T) {
	terrain := NewTerrainField(320, 200) // no ground at all
	shot := Simulate(ShotParams{
		X: 160, Y: 100, Angle: math.Pi / 2, Power: 1, Speed: 200,
	}, terrain, 192, nil)

	assert.Equal(t, HitWater, shot.Kind)
	assert.Equal(t, 192.0, shot.ImpactY, "impact clamped to the water line")
}

func TestSimulateOutOfBounds(t *testing.T) {
	terrain := flatField(320, 200, 150)
	shot := Simulate(ShotParams{
		X: 160, Y: 100, Angle: -math.Pi / 2, Power: 1, Speed: 900,
	}, terrain, 192, nil)
	assert.Equal(t, HitGone, shot.Kind, "fired straight up, leaves through the top")
}

func TestSimulateWindOnlyWhenAffected(t *testing.T) {
	terrain := flatField(2000, 400, 350)
	params := ShotParams{X: 1000, Y: 100, Angle: -math.Pi / 3, Power: 1, Speed: 300, Wind: 60}

	params.WindAffected = false
	still := Simulate(params, terrain, 392, nil)
	params.WindAffected = true
	blown := Simulate(params, terrain, 392, nil)

	require.Equal(t, HitTerrain, still.Kind)
	require.Equal(t, HitTerrain, blown.Kind)
	assert.Greater(t, blown.ImpactX, still.ImpactX, "tailwind carries the shot further right")
}

func TestSimulateHitsUnitAfterGraceWindow(t *testing.T) {
	terrain := NewTerrainField(600, 400)
	// twelfth step of a flat-ish shot from (50,100): x=350, y has sagged to ~178
	target := Hitbox{ID: 7, X: 350, Y: 178, HalfW: UnitHalfW, HalfH: UnitHalfH}

	shot := Simulate(ShotParams{
		X: 50, Y: 100, Angle: 0, Power: 1, Speed: 500, ExcludeID: 1,
	}, terrain, 392, []Hitbox{target})

	assert.Equal(t, HitUnit, shot.Kind)
	assert.Equal(t, int64(7), shot.UnitID)
}

func TestSimulateNeverHitsFirer(t *testing.T) {
	terrain := flatField(320, 200, 150)
	firer := Hitbox{ID: 1, X: 160, Y: 142, HalfW: UnitHalfW, HalfH: UnitHalfH}

	// fired from inside the firer's own box, straight down
	shot := Simulate(ShotParams{
		X: 160, Y: 142, Angle: math.Pi / 2, Power: 0.2, Speed: 200, ExcludeID: 1,
	}, terrain, 192, []Hitbox{firer})

	assert.Equal(t, HitTerrain, shot.Kind, "shot resolves against the ground, not the shooter")
	assert.Equal(t, int64(0), shot.UnitID)
}

func TestSimulateBouncesOffUnitWithoutExploding(t *testing.T) {
	terrain := NewTerrainField(600, 400)
	target := Hitbox{ID: 7, X: 350, Y: 178, HalfW: UnitHalfW, HalfH: UnitHalfH}

	shot := Simulate(ShotParams{
		X: 50, Y: 100, Angle: 0, Power: 1, Speed: 500,
		FuseMs: 1000, Elasticity: 0.5, ExcludeID: 1,
	}, terrain, 392, []Hitbox{target})

	assert.Equal(t, HitFuse, shot.Kind, "bouncy shot never resolves as a unit hit")
	assert.Equal(t, int64(0), shot.UnitID)
}

func TestSimulateGrenadeBouncesThenStops(t *testing.T) {
	terrain := flatField(320, 200, 150)
	shot := Simulate(ShotParams{
		X: 160, Y: 120, Angle: math.Pi / 2, Power: 0, Speed: 440,
		FuseMs: 3000, Elasticity: 0.45,
	}, terrain, 192, nil)

	require.Equal(t, HitTerrain, shot.Kind, "bounces decay below the dead-speed cutoff before the fuse")
	assert.InDelta(t, 150, shot.ImpactY, 6)

	rose := false
	for i := 1; i < len(shot.Trajectory); i++ {
		if shot.Trajectory[i].Y < shot.Trajectory[i-1].Y-1 {
			rose = true
			break
		}
	}
	assert.True(t, rose, "trajectory should climb again after the first bounce")
}

func TestSimulateStepBudgetResolvesGone(t *testing.T) {
	// sealed chamber with lossless bounces: the shot can never slow down
	// below the dead-speed cutoff, so only the step budget ends it
	terrain := flatField(400, 400, 0)
	for y := 100; y < 300; y++ {
		for x := 100; x < 300; x++ {
			terrain.Set(x, y, false)
		}
	}

	shot := Simulate(ShotParams{
		X: 200, Y: 200, Angle: 0.3, Power: 1, Speed: 200, Elasticity: 1,
	}, terrain, 1000, nil)

	assert.Equal(t, HitGone, shot.Kind)
	assert.Len(t, shot.Trajectory, StepBudget+1, "start sample plus one per step")
}

func TestEstimateNormalOnFlatGround(t *testing.T) {
	terrain := flatField(64, 64, 32)
	nx, ny, ok := estimateNormal(terrain, 32, 32)
	require.True(t, ok)
	assert.InDelta(t, 0, nx, 0.05, "flat ground pushes straight up")
	assert.Negative(t, ny)

	_, _, ok = estimateNormal(terrain, 32, 5)
	assert.False(t, ok, "open air has no normal")
}
