package game

import (
	"math"

	"wormfall/server/protocol"
)

type HitKind string

const (
	HitTerrain HitKind = "terrain"
	HitUnit    HitKind = "unit"
	HitWater   HitKind = "water"
	HitFuse    HitKind = "fuse"
	HitGone    HitKind = "out-of-bounds"
	HitNone    HitKind = "none"
)

// Hitbox is a unit's collision box seen by projectiles and rays.
type Hitbox struct {
	ID           int64
	X, Y         float64
	HalfW, HalfH float64
}

func (h Hitbox) contains(x, y float64) bool {
	return math.Abs(x-h.X) <= h.HalfW && math.Abs(y-h.Y) <= h.HalfH
}

// ShotParams describes one projectile launch.
type ShotParams struct {
	X, Y         float64
	Angle        float64 // radians, 0 = right, negative = up
	Power        float64 // 0..1
	Speed        float64 // launch speed at full power
	Wind         float64
	FuseMs       int
	Elasticity   float64
	WindAffected bool
	ExcludeID    int64 // the firer, never hit directly
}

type ShotResult struct {
	Trajectory   []protocol.TrajPoint
	ImpactX      float64
	ImpactY      float64
	ImpactTimeMs int
	Kind         HitKind
	UnitID       int64
}

var probeOffsets = buildProbeOffsets()

func buildProbeOffsets() [][2]float64 {
	offs := [][2]float64{{0, 0}}
	for i := 0; i < 8; i++ {
		a := float64(i) * math.Pi / 4
		offs = append(offs, [2]float64{ProbeRadius * math.Cos(a), ProbeRadius * math.Sin(a)})
	}
	return offs
}

func solidProbe(t *TerrainField, x, y float64) bool {
	for _, o := range probeOffsets {
		if t.SolidAt(x+o[0], y+o[1]) {
			return true
		}
	}
	return false
}

// estimateNormal sums push-away vectors from every solid pixel in a box
// around the probe. Reports ok=false when no direction emerges (fully
// enclosed, or a lone pixel exactly at the probe center).
func estimateNormal(t *TerrainField, x, y float64) (float64, float64, bool) {
	px := int(math.Round(x))
	py := int(math.Round(y))
	var sx, sy float64
	for dy := -NormalWindow; dy <= NormalWindow; dy++ {
		for dx := -NormalWindow; dx <= NormalWindow; dx++ {
			if t.Get(px+dx, py+dy) {
				sx -= float64(dx)
				sy -= float64(dy)
			}
		}
	}
	n := math.Hypot(sx, sy)
	if n < 1e-9 {
		return 0, 0, false
	}
	return sx / n, sy / n, true
}

// Simulate integrates a projectile to resolution. Per step it applies
// gravity (and wind when the shot cares), advances, records a trajectory
// sample, then checks fuse, water, bounds, units, and terrain in that
// order. Bouncy shots reflect off terrain and units until too slow; the
// step budget turns a runaway shot into an out-of-bounds loss. The full
// trajectory comes back so clients can animate without re-simulating.
func Simulate(p ShotParams, terrain *TerrainField, waterY float64, units []Hitbox) ShotResult {
	stepMs := int(TickDt * 1000)
	speed := p.Speed * clamp01(p.Power)
	vx := math.Cos(p.Angle) * speed
	vy := math.Sin(p.Angle) * speed
	x, y := p.X, p.Y

	res := ShotResult{Trajectory: []protocol.TrajPoint{{X: x, Y: y, TMs: 0}}}
	finish := func(kind HitKind, ix, iy float64, tMs int) ShotResult {
		res.Kind = kind
		res.ImpactX, res.ImpactY = ix, iy
		res.ImpactTimeMs = tMs
		return res
	}

	for step := 1; step <= StepBudget; step++ {
		elapsedMs := step * stepMs
		vy += Gravity * TickDt
		if p.WindAffected {
			vx += p.Wind * TickDt
		}
		prevX, prevY := x, y
		x += vx * TickDt
		y += vy * TickDt
		res.Trajectory = append(res.Trajectory, protocol.TrajPoint{X: x, Y: y, TMs: elapsedMs})

		if p.FuseMs > 0 && elapsedMs >= p.FuseMs {
			return finish(HitFuse, x, y, elapsedMs)
		}
		if y >= waterY {
			return finish(HitWater, x, waterY, elapsedMs)
		}
		if x < -OOBMarginX || x > float64(terrain.W)+OOBMarginX || y < -OOBMarginTop {
			return finish(HitGone, x, y, elapsedMs)
		}
		if step > SelfHitGraceSteps {
			hit := false
			for _, h := range units {
				if h.ID == p.ExcludeID || !h.contains(x, y) {
					continue
				}
				if p.Elasticity > 0 {
					vx = -vx * p.Elasticity
					vy = -vy * p.Elasticity
					x, y = prevX, prevY
					hit = true
					break
				}
				res.UnitID = h.ID
				return finish(HitUnit, x, y, elapsedMs)
			}
			if hit {
				continue
			}
		}
		if solidProbe(terrain, x, y) {
			if p.Elasticity <= 0 {
				return finish(HitTerrain, x, y, elapsedMs)
			}
			nx, ny, ok := estimateNormal(terrain, x, y)
			if ok {
				dot := vx*nx + vy*ny
				vx = (vx - 2*dot*nx) * p.Elasticity
				vy = (vy - 2*dot*ny) * p.Elasticity
			} else {
				vx = -vx * p.Elasticity
				vy = -vy * p.Elasticity
			}
			if math.Hypot(vx, vy) < BounceDeadSpeed {
				return finish(HitTerrain, x, y, elapsedMs)
			}
			x, y = prevX, prevY
		}
	}
	last := res.Trajectory[len(res.Trajectory)-1]
	return finish(HitGone, last.X, last.Y, last.TMs)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
