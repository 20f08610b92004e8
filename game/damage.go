package game

import (
	"math"

	"wormfall/server/protocol"
)

// ComputeKnockback returns the damage and impulse an explosion at (cx, cy)
// deals to a unit at (ux, uy). Falloff is quadratic in distance; anything
// at or past the radius is untouched, anything inside takes at least 1.
// A hit exactly at the center pushes straight up.
func ComputeKnockback(ux, uy, cx, cy, radius float64, baseDamage int, kbMult float64) (damage int, kvx, kvy float64) {
	dx := ux - cx
	dy := uy - cy
	dist := math.Hypot(dx, dy)
	if radius <= 0 || dist >= radius {
		return 0, 0, 0
	}
	t := dist / radius
	falloff := 1 - t*t
	damage = int(math.Round(float64(baseDamage) * falloff))
	if damage < 1 {
		damage = 1
	}
	var nx, ny float64
	if dist < 1e-9 {
		nx, ny = 0, -1
	} else {
		nx, ny = dx/dist, dy/dist
	}
	mag := KnockbackScale * falloff * kbMult
	return damage, nx * mag, ny * mag
}

// FallDamage converts a landing speed to hit points. The speed maps to an
// equivalent fall height; the first FallThreshold pixels are free.
func FallDamage(impactSpeed float64) int {
	dist := impactSpeed * impactSpeed / (2 * Gravity)
	if dist <= FallThreshold {
		return 0
	}
	return int(math.Round((dist - FallThreshold) * FallRate))
}

// meleeReaches reports whether a strike in dir from the attacker connects
// with the target: it must stand on the struck side, within reach.
func meleeReaches(attacker, target *Unit, dir int) bool {
	dx := target.X - attacker.X
	if dir > 0 && dx < 0 || dir < 0 && dx > 0 {
		return false
	}
	return math.Abs(dx) <= MeleeRange && math.Abs(target.Y-attacker.Y) <= MeleeVRange
}

// stageKnockback queues an impulse on the unit, merging with anything
// already staged so the unit reacts once per chain. Knockback supersedes a
// wound-up jump.
func stageKnockback(u *Unit, vx, vy float64, damage, delayMs int) {
	u.pendingJump = nil
	if p := u.pendingKnockback; p != nil {
		p.VX += vx
		p.VY += vy
		p.Damage += damage
		if delayMs > p.DelayMs {
			p.DelayMs = delayMs
		}
		return
	}
	u.pendingKnockback = &PendingKnockback{VX: vx, VY: vy, Damage: damage, DelayMs: delayMs}
}

// applyExplosion erases terrain and hands out damage and staged impulses
// around (cx, cy). Health changes land immediately; units knocked to zero
// are killed on the spot and returned so the caller can chain their death
// explosions. delayMs is how long survivors hold their impulse.
func (s *Session) applyExplosion(cx, cy, radius float64, baseDamage int, kbMult float64, delayMs int) (protocol.ExplosionReport, []int64) {
	s.Terrain.EraseCircle(cx, cy, radius)
	rep := protocol.ExplosionReport{
		X: cx, Y: cy, Radius: radius,
		Terrain: []protocol.EraseCircle{{X: cx, Y: cy, R: radius}},
	}
	var deaths []int64
	for _, p := range s.Players {
		for _, u := range p.Units {
			if !u.Alive {
				continue
			}
			dmg, kvx, kvy := ComputeKnockback(u.X, u.Y, cx, cy, radius, baseDamage, kbMult)
			if dmg == 0 {
				continue
			}
			u.Health -= dmg
			if u.Health < 0 {
				u.Health = 0
			}
			died := u.Health == 0
			rep.Damages = append(rep.Damages, protocol.UnitDamage{
				UnitID: u.ID, Damage: dmg, HP: u.Health, Died: died,
			})
			if died {
				s.killUnit(u)
				deaths = append(deaths, u.ID)
			} else {
				stageKnockback(u, kvx, kvy, dmg, delayMs)
			}
		}
	}
	return rep, deaths
}

// resolveDeaths drains the died-unit queue, firing each unit's death
// explosion at most once. Chained kills join the back of the queue.
func (s *Session) resolveDeaths(queue []int64, delayMs int, events []protocol.Event) []protocol.Event {
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		u := s.units[id]
		if u == nil || u.exploded {
			continue
		}
		u.exploded = true
		events = append(events, protocol.Event{Type: "UnitDied", Data: protocol.UnitDied{UnitID: id}})
		rep, more := s.applyExplosion(u.X, u.Y, DeathExplosionRadius, DeathExplosionDamage, 1.0, delayMs)
		events = append(events, protocol.Event{Type: "DeathExplosion", Data: protocol.DeathExplosion{
			UnitID: id, Explosion: rep,
		}})
		queue = append(queue, more...)
	}
	return events
}
