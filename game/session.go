package game

import (
	"math"

	"wormfall/server/protocol"
)

// Tick advances the session by dt seconds and returns every event the
// tick produced, in order. The room calls this at a fixed rate and owns
// the locking; nothing here is safe to call concurrently with an action
// handler.
func (s *Session) Tick(dt float64) []protocol.Event {
	if s.Phase == PhaseFinished {
		return nil
	}
	if dt > MaxDt {
		dt = MaxDt
	}

	var events []protocol.Event
	s.tickPendings(dt)
	events = s.tickMotion(dt, events)
	s.tickClock(dt)
	return s.tickTransitions(events)
}

// tickPendings counts down staged jumps and knockbacks and applies the
// ones that come due. A jump sets velocity outright; knockback adds onto
// whatever motion the unit already has.
func (s *Session) tickPendings(dt float64) {
	ms := int(math.Round(dt * 1000))
	for _, p := range s.Players {
		for _, u := range p.Units {
			if !u.Alive {
				continue
			}
			if j := u.pendingJump; j != nil {
				j.DelayMs -= ms
				if j.DelayMs <= 0 {
					u.pendingJump = nil
					u.VX = j.VX
					u.VY = j.VY
					u.Walking = false
				}
			}
			if k := u.pendingKnockback; k != nil {
				k.DelayMs -= ms
				if k.DelayMs <= 0 {
					s.applyKnockbackNow(u)
				}
			}
		}
	}
}

// walkBlocked reports whether a walk step would push u into another live
// unit. The stepper only knows terrain; this check lives here.
func (s *Session) walkBlocked(u *Unit, dir int, dt float64) bool {
	nx := u.X + float64(dir)*WalkSpeed*dt
	for _, p := range s.Players {
		for _, v := range p.Units {
			if !v.Alive || v.ID == u.ID {
				continue
			}
			if math.Abs(nx-v.X) < 2*UnitHalfW && math.Abs(u.Y-v.Y) < 2*UnitHalfH {
				return true
			}
		}
	}
	return false
}

// tickMotion steps every live unit, batches whatever moved into one
// PhysicsUpdate, then reports landings, fall damage, and drownings.
// Deaths found here cascade like any other.
func (s *Session) tickMotion(dt float64, events []protocol.Event) []protocol.Event {
	type landing struct {
		u   *Unit
		res MoveResult
	}
	var moved []protocol.UnitMotion
	var landed []landing
	var drowned []*Unit

	for _, p := range s.Players {
		for _, u := range p.Units {
			if !u.Alive {
				continue
			}
			walking, dir := false, 0
			if u.ID == s.ActiveUnitID && u.Walking {
				walking, dir = true, u.WalkDir
				if s.walkBlocked(u, dir, dt) {
					walking, dir = false, 0
				}
			}
			px, py, pvx, pvy := u.X, u.Y, u.VX, u.VY
			res := StepUnit(u, dt, s.Terrain, s.WaterY, walking, dir)
			if u.X != px || u.Y != py || u.VX != pvx || u.VY != pvy {
				moved = append(moved, protocol.UnitMotion{
					ID: u.ID, X: u.X, Y: u.Y, VX: u.VX, VY: u.VY, Facing: u.Facing,
				})
			}
			if res.InWater {
				drowned = append(drowned, u)
			} else if res.Landed {
				landed = append(landed, landing{u, res})
			}
		}
	}

	if len(moved) > 0 {
		events = append(events, protocol.Event{Type: "PhysicsUpdate", Data: protocol.PhysicsUpdate{Units: moved}})
	}

	var deaths []int64
	for _, l := range landed {
		dmg := FallDamage(l.res.LandingVY)
		if dmg > 0 {
			l.u.Health -= dmg
			if l.u.Health < 0 {
				l.u.Health = 0
			}
		}
		events = append(events, protocol.Event{Type: "UnitLanded", Data: protocol.UnitLanded{
			UnitID: l.u.ID, Damage: dmg, HP: l.u.Health,
		}})
		if l.u.Health == 0 {
			s.killUnit(l.u)
			deaths = append(deaths, l.u.ID)
		}
	}
	for _, u := range drowned {
		events = append(events, protocol.Event{Type: "UnitFellInWater", Data: protocol.UnitFellInWater{UnitID: u.ID}})
		s.killUnit(u)
		deaths = append(deaths, u.ID)
	}
	return s.resolveDeaths(deaths, 0, events)
}

func (s *Session) tickClock(dt float64) {
	switch s.Phase {
	case PhasePlaying:
		if s.clockPaused {
			return
		}
		s.turnRemaining -= dt
		if s.turnRemaining <= 0 {
			s.turnRemaining = 0
			s.timeExpired = true
		}
	case PhaseRetreat:
		s.retreatRemaining -= dt
	}
}

// settled reports whether the world has come to rest: every live unit
// near-zero speed with nothing staged. Turn transitions and the game-over
// check wait for this, so chains of falls and knockbacks always finish
// first.
func (s *Session) settled() bool {
	for _, p := range s.Players {
		for _, u := range p.Units {
			if !u.Alive {
				continue
			}
			if math.Hypot(u.VX, u.VY) >= SettleSpeed {
				return false
			}
			if u.pendingJump != nil || u.pendingKnockback != nil {
				return false
			}
		}
	}
	return true
}

// tickTransitions runs the phase machine once the settle barrier clears.
// Game over wins over everything; an acted turn goes through retreat; a
// turn that ran out the clock hands off directly.
func (s *Session) tickTransitions(events []protocol.Event) []protocol.Event {
	if s.Phase != PhasePlaying && s.Phase != PhaseRetreat {
		return events
	}
	if !s.settled() {
		return events
	}
	if over := s.checkGameOver(); over != nil {
		return append(events, over...)
	}

	switch s.Phase {
	case PhasePlaying:
		if s.turnActionDone {
			return append(events, s.enterRetreat()...)
		}
		if s.timeExpired {
			events = append(events, protocol.Event{Type: "TurnEnd", Data: protocol.TurnEnd{
				TurnNumber: s.TurnNumber, Reason: "timeout",
			}})
			return append(events, s.advanceTurn()...)
		}
	case PhaseRetreat:
		if s.retreatRemaining <= 0 {
			return append(events, s.advanceTurn()...)
		}
	}
	return events
}
