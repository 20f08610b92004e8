package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wallField is open air with a solid block from x0 to the right edge.
func wallField(w, h, x0 int) *TerrainField {
	f := NewTerrainField(w, h)
	for y := 0; y < h; y++ {
		for x := x0; x < w; x++ {
			f.Set(x, y, true)
		}
	}
	return f
}

func TestRaycastStopsAtTerrain(t *testing.T) {
	f := wallField(320, 200, 200)
	hit := Raycast(50, 100, 0, f, nil, 900, 192, 0)

	assert.Equal(t, HitTerrain, hit.Kind)
	assert.InDelta(t, 200, hit.X, HitscanStep, "stops at the wall face")
	assert.Equal(t, 100.0, hit.Y)
}

func TestRaycastHitsUnitInFrontOfWall(t *testing.T) {
	f := wallField(320, 200, 200)
	units := []Hitbox{{ID: 5, X: 150, Y: 100, HalfW: UnitHalfW, HalfH: UnitHalfH}}

	hit := Raycast(50, 100, 0, f, units, 900, 192, 0)
	require.Equal(t, HitUnit, hit.Kind)
	assert.Equal(t, int64(5), hit.UnitID)
	assert.Less(t, hit.Distance, 150.0, "stopped at the unit, short of the wall")
}

func TestRaycastSkipsExcludedUnit(t *testing.T) {
	f := wallField(320, 200, 200)
	units := []Hitbox{{ID: 5, X: 150, Y: 100, HalfW: UnitHalfW, HalfH: UnitHalfH}}

	hit := Raycast(50, 100, 0, f, units, 900, 192, 5)
	assert.Equal(t, HitTerrain, hit.Kind, "excluded unit is transparent")
}

func TestRaycastEndsInWater(t *testing.T) {
	f := NewTerrainField(320, 200)
	hit := Raycast(100, 100, math.Pi/2, f, nil, 900, 192, 0)

	assert.Equal(t, HitNone, hit.Kind)
	assert.GreaterOrEqual(t, hit.Y, 192.0)
}

func TestRaycastEndsAtWorldEdge(t *testing.T) {
	f := NewTerrainField(320, 200)
	hit := Raycast(300, 100, 0, f, nil, 900, 192, 0)

	assert.Equal(t, HitNone, hit.Kind)
	assert.Greater(t, hit.X, 320.0)
	assert.Less(t, hit.Distance, 900.0)
}

func TestRaycastRunsOutOfRange(t *testing.T) {
	f := NewTerrainField(320, 200)
	hit := Raycast(50, 100, 0, f, nil, 60, 192, 0)

	assert.Equal(t, HitNone, hit.Kind)
	assert.Equal(t, 60.0, hit.Distance)
	assert.InDelta(t, 110, hit.X, 1e-9)
}
