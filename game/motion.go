package game

import "math"

// MoveResult reports what StepUnit did beyond mutating the unit.
type MoveResult struct {
	Landed    bool
	LandingVY float64 // vertical speed at the moment of a full landing
	InWater   bool
}

// spanSolid probes across the unit's width at height y.
func spanSolid(t *TerrainField, x, y float64) bool {
	return t.SolidAt(x-UnitHalfW+1, y) || t.SolidAt(x, y) || t.SolidAt(x+UnitHalfW-1, y)
}

// columnSolid probes down a vertical edge of the unit's box at x.
func columnSolid(t *TerrainField, x, y float64) bool {
	return t.SolidAt(x, y-UnitHalfH+2) || t.SolidAt(x, y) || t.SolidAt(x, y+UnitHalfH-2)
}

func supported(t *TerrainField, u *Unit) bool {
	return spanSolid(t, u.X, u.Y+UnitHalfH)
}

func embedded(t *TerrainField, u *Unit) bool {
	return t.SolidAt(u.X, u.Y) || t.SolidAt(u.X, u.Y+UnitHalfH-2)
}

// popOut nudges an embedded unit upward to the first position its body is
// clear, bounded so a fully buried unit cannot loop.
func popOut(t *TerrainField, u *Unit) {
	for up := 0; up < 60 && embedded(t, u); up++ {
		u.Y--
	}
}

// surfaceWithin looks for a standable surface near foot height at column
// x: the topmost solid row with open air above it, between foot-up and
// foot+down.
func surfaceWithin(t *TerrainField, x, foot float64, up, down int) (float64, bool) {
	base := int(math.Round(foot))
	for yy := base - up; yy <= base+down; yy++ {
		if spanSolid(t, x, float64(yy)) && !spanSolid(t, x, float64(yy-1)) {
			return float64(yy), true
		}
	}
	return 0, false
}

// surfaceUp walks a collided foot position up to the exact surface row.
func surfaceUp(t *TerrainField, x, foot float64) float64 {
	yy := int(math.Round(foot))
	for i := 0; i < 24 && spanSolid(t, x, float64(yy-1)); i++ {
		yy--
	}
	return float64(yy)
}

func headClear(t *TerrainField, x, foot float64) bool {
	return !t.SolidAt(x, foot-UnitHalfH) && !t.SolidAt(x, foot-2*UnitHalfH+2)
}

// StepUnit advances one unit one tick. A resting unit walks (snapping up
// and down gentle slopes, dropping small ledges) or just gets embedding
// fixed after nearby terrain loss; an airborne unit integrates gravity and
// resolves side, bottom, and ceiling contact. Crossing the water line
// stops everything and reports InWater. Blocking against other units is
// the caller's job.
func StepUnit(u *Unit, dt float64, t *TerrainField, waterY float64, walking bool, walkDir int) MoveResult {
	var res MoveResult

	resting := math.Abs(u.VX) < RestSpeed && u.VY >= 0 && supported(t, u)
	if resting {
		u.VX, u.VY = 0, 0
		if !walking || walkDir == 0 {
			if embedded(t, u) {
				popOut(t, u)
			}
			return res
		}

		nx := u.X + float64(walkDir)*WalkSpeed*dt
		foot := u.Y + UnitHalfH
		if sy, ok := surfaceWithin(t, nx, foot, ClimbTolerance, StepDown); ok {
			if headClear(t, nx, sy) {
				u.X = nx
				u.Y = sy - UnitHalfH
				u.Facing = walkDir
			}
			// solid overhead: stay put
			return res
		}
		if columnSolid(t, nx+float64(walkDir)*UnitHalfW, u.Y) {
			// wall ahead
			return res
		}
		u.X = nx
		u.Facing = walkDir
		if _, drop := surfaceWithin(t, nx, foot, 0, DropLookahead); drop {
			u.VY = FallSeed // small drop, gravity finishes it
		} else {
			u.VY = FallSeed
			u.VX = float64(walkDir) * WalkSpeed // carried off the edge
		}
		return res
	}

	// airborne
	u.VY += Gravity * dt
	if u.VY > TerminalSpeed {
		u.VY = TerminalSpeed
	}
	nx := u.X + u.VX*dt
	ny := u.Y + u.VY*dt

	if ny >= waterY {
		u.X = nx
		u.Y = waterY
		u.VX, u.VY = 0, 0
		res.InWater = true
		return res
	}

	if u.VX != 0 {
		lead := nx + math.Copysign(UnitHalfW, u.VX)
		if columnSolid(t, lead, ny) {
			nx = u.X
			u.VX = -u.VX * SideBounce
			if math.Abs(u.VX) < RestSpeed {
				u.VX = 0
			}
		}
	}

	if u.VY > 0 {
		foot := ny + UnitHalfH
		if spanSolid(t, nx, foot) {
			sy := surfaceUp(t, nx, foot)
			ny = sy - UnitHalfH
			impact := u.VY
			u.VX *= GroundFriction
			if math.Abs(u.VX) > SlideSpeed {
				u.VY = -impact * LandBounce // skid on, with a slight hop
			} else {
				u.VX, u.VY = 0, 0
				res.Landed = true
				res.LandingVY = impact
			}
		}
	} else if u.VY < 0 {
		head := ny - UnitHalfH
		if spanSolid(t, nx, head) {
			ny = u.Y
			u.VY = CeilingSeed
		}
	}

	u.X = nx
	u.Y = ny
	if embedded(t, u) {
		popOut(t, u)
	}
	return res
}
