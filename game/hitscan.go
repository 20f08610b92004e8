package game

import "math"

// RayHit is where a hitscan shot stopped. Kind is HitUnit, HitTerrain, or
// HitNone (range, water, or the edge of the world).
type RayHit struct {
	X, Y     float64
	Distance float64
	Kind     HitKind
	UnitID   int64
}

// Raycast marches from (x, y) along angle in small fixed steps, testing
// unit boxes before terrain at every sample so a unit standing against a
// wall is hit, not the wall. It stops at the first hit, at the water line,
// or at maxDist. Pellet counting is the caller's problem.
func Raycast(x, y, angle float64, terrain *TerrainField, units []Hitbox, maxDist float64, waterY float64, excludeID int64) RayHit {
	dx := math.Cos(angle)
	dy := math.Sin(angle)
	for d := HitscanStep; d <= maxDist; d += HitscanStep {
		sx := x + dx*d
		sy := y + dy*d
		for _, h := range units {
			if h.ID == excludeID {
				continue
			}
			if h.contains(sx, sy) {
				return RayHit{X: sx, Y: sy, Distance: d, Kind: HitUnit, UnitID: h.ID}
			}
		}
		if terrain.SolidAt(sx, sy) {
			return RayHit{X: sx, Y: sy, Distance: d, Kind: HitTerrain}
		}
		if sy >= waterY || sx < 0 || sx > float64(terrain.W) {
			return RayHit{X: sx, Y: sy, Distance: d, Kind: HitNone}
		}
	}
	return RayHit{X: x + dx*maxDist, Y: y + dy*maxDist, Distance: maxDist, Kind: HitNone}
}
