package game

import (
	"math"

	"wormfall/server/protocol"
)

// Action handlers. Every handler validates turn ownership, phase, ammo,
// and weapon kind itself and answers an invalid call with no events and no
// state change, so stale or duplicated client messages can never corrupt a
// session.

// actingUnit resolves the caller to the active unit, or nil when the
// action is not theirs to take. Movement stays allowed through retreat;
// everything else needs the playing phase.
func (s *Session) actingUnit(playerID int64, movement bool) *Unit {
	switch s.Phase {
	case PhasePlaying:
	case PhaseRetreat:
		if !movement {
			return nil
		}
	default:
		return nil
	}
	if playerID != s.ActivePlayerID {
		return nil
	}
	u := s.units[s.ActiveUnitID]
	if u == nil || !u.Alive {
		return nil
	}
	return u
}

// armedWeapon resolves which weapon a fire action uses: the turn's locked
// weapon once one shot is out, otherwise the player's selection. Wrong
// kind or an empty clip disarms the action.
func (s *Session) armedWeapon(p *Player, kind WeaponKind) *WeaponDef {
	id := p.Selected
	if s.lockedWeapon != "" {
		id = s.lockedWeapon
	}
	w := s.Weapons[id]
	if w == nil || w.Kind != kind || p.Ammo[w.ID] == 0 {
		return nil
	}
	return w
}

func consumeAmmo(p *Player, w *WeaponDef) {
	if p.Ammo[w.ID] > 0 {
		p.Ammo[w.ID]--
	}
}

// noteShot locks the weapon for the rest of the turn and burns one of its
// per-turn shots; the last shot marks the turn's action done. Returns the
// shots still available this turn.
func (s *Session) noteShot(w *WeaponDef) int {
	if s.lockedWeapon == "" {
		s.lockedWeapon = w.ID
		s.shotsLeft = w.ShotsPerTurn
		if s.shotsLeft < 1 {
			s.shotsLeft = 1
		}
	}
	s.shotsLeft--
	s.clockPaused = false
	if s.shotsLeft <= 0 {
		s.turnActionDone = true
		s.endReason = "acted"
	}
	return s.shotsLeft
}

func facingFor(angle float64) int {
	if math.Cos(angle) < 0 {
		return -1
	}
	return 1
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// HandleSelectWeapon switches the acting player's armed weapon. Once a
// multi-shot weapon has fired, the selection is locked until the turn
// ends.
func (s *Session) HandleSelectWeapon(playerID int64, weaponID string) []protocol.Event {
	u := s.actingUnit(playerID, false)
	if u == nil || s.turnActionDone {
		return nil
	}
	if s.lockedWeapon != "" && weaponID != s.lockedWeapon {
		return nil
	}
	w := s.Weapons[weaponID]
	p := s.player(playerID)
	if w == nil || p.Ammo[w.ID] == 0 {
		return nil
	}
	p.Selected = weaponID
	return []protocol.Event{{Type: "WeaponSelected", Data: protocol.WeaponSelected{
		PlayerID: playerID, Weapon: weaponID, AmmoLeft: p.Ammo[weaponID],
	}}}
}

// HandleAim turns the acting unit toward an angle so spectators see the
// barrel move.
func (s *Session) HandleAim(playerID int64, angle float64) []protocol.Event {
	u := s.actingUnit(playerID, false)
	if u == nil {
		return nil
	}
	u.AimAngle = angle
	u.Facing = facingFor(angle)
	return []protocol.Event{{Type: "UnitAimed", Data: protocol.UnitAimed{UnitID: u.ID, Angle: angle}}}
}

// HandleMove starts or stops the acting unit's walk. Motion itself runs in
// the tick loop.
func (s *Session) HandleMove(playerID int64, dir int, start bool) []protocol.Event {
	u := s.actingUnit(playerID, true)
	if u == nil {
		return nil
	}
	if start && (dir == -1 || dir == 1) {
		u.Walking = true
		u.WalkDir = dir
	} else {
		u.Walking = false
		u.WalkDir = 0
	}
	return nil
}

// HandleJump winds up a jump in the unit's facing direction. Refused
// mid-air, mid-wind-up, or while knockback is staged; staged knockback
// must not be overwritten.
func (s *Session) HandleJump(playerID int64) []protocol.Event {
	u := s.actingUnit(playerID, true)
	if u == nil || u.pendingJump != nil || u.pendingKnockback != nil {
		return nil
	}
	if !(math.Abs(u.VX) < RestSpeed && u.VY >= 0 && supported(s.Terrain, u)) {
		return nil
	}
	u.Walking = false
	u.pendingJump = &PendingJump{VX: float64(u.Facing) * JumpVX, VY: JumpVY, DelayMs: JumpDelayMs}
	return []protocol.Event{{Type: "UnitJumped", Data: protocol.UnitJumped{UnitID: u.ID}}}
}

// HandleFire launches the selected projectile weapon, resolves its whole
// flight synchronously, applies the explosion, and reports everything a
// client needs to replay it.
func (s *Session) HandleFire(playerID int64, angle, power float64, fuseMs int) []protocol.Event {
	u := s.actingUnit(playerID, false)
	if u == nil || s.turnActionDone {
		return nil
	}
	p := s.player(playerID)
	w := s.armedWeapon(p, WeaponProjectile)
	if w == nil {
		return nil
	}
	consumeAmmo(p, w)
	u.AimAngle = angle
	u.Facing = facingFor(angle)
	fuse := w.FuseMs
	if w.FuseMs > 0 && fuseMs > 0 {
		fuse = clampInt(fuseMs, MinFuseMs, MaxFuseMs)
	}

	shot := Simulate(ShotParams{
		X: u.X, Y: u.Y, Angle: angle, Power: power, Speed: w.Speed,
		Wind: s.Wind, FuseMs: fuse, Elasticity: w.Elasticity,
		WindAffected: w.WindAffected, ExcludeID: u.ID,
	}, s.Terrain, s.WaterY, s.liveHitboxes())
	s.noteShot(w)

	fr := protocol.FireResult{
		UnitID: u.ID, Weapon: w.ID,
		Trajectory: shot.Trajectory, AmmoLeft: p.Ammo[w.ID],
	}
	var deaths []int64
	delay := 0
	switch shot.Kind {
	case HitFuse, HitTerrain, HitUnit:
		fr.Outcome = "exploded"
		delay = shot.ImpactTimeMs + KnockGraceMs
		if delay > KnockMaxDelayMs {
			delay = KnockMaxDelayMs
		}
		rep, d := s.applyExplosion(shot.ImpactX, shot.ImpactY, w.Radius, w.Damage, w.KnockbackMult, delay)
		fr.Explosion = &rep
		deaths = d
	case HitWater:
		fr.Outcome = "water"
	default:
		fr.Outcome = "gone"
	}
	events := []protocol.Event{{Type: "FireResult", Data: fr}}
	return s.resolveDeaths(deaths, delay, events)
}

// HandleFireHitscan resolves one instant pellet. Multi-pellet weapons call
// this once per trigger pull; the turn ends when the last pellet is out.
func (s *Session) HandleFireHitscan(playerID int64, angle float64) []protocol.Event {
	u := s.actingUnit(playerID, false)
	if u == nil || s.turnActionDone {
		return nil
	}
	p := s.player(playerID)
	w := s.armedWeapon(p, WeaponHitscan)
	if w == nil {
		return nil
	}
	consumeAmmo(p, w)
	u.AimAngle = angle
	u.Facing = facingFor(angle)

	ray := Raycast(u.X, u.Y, angle, s.Terrain, s.liveHitboxes(), w.Range, s.WaterY, u.ID)
	shotsLeft := s.noteShot(w)

	hr := protocol.HitscanResult{
		UnitID: u.ID, Weapon: w.ID,
		FromX: u.X, FromY: u.Y, ToX: ray.X, ToY: ray.Y,
		ShotsLeft: shotsLeft,
	}
	var deaths []int64
	switch ray.Kind {
	case HitUnit, HitTerrain:
		hr.Hit = string(ray.Kind)
		rep, d := s.applyExplosion(ray.X, ray.Y, w.Radius, w.Damage, w.KnockbackMult, KnockInstantMs)
		hr.Explosion = &rep
		deaths = d
	default:
		hr.Hit = "none"
		if ray.Y >= s.WaterY {
			hr.Hit = "water"
		}
	}
	events := []protocol.Event{{Type: "HitscanResult", Data: hr}}
	return s.resolveDeaths(deaths, KnockInstantMs, events)
}

// HandleFireMelee swings at everything in reach on the struck side. Flat
// damage, fixed up-and-away knockback.
func (s *Session) HandleFireMelee(playerID int64, dir int) []protocol.Event {
	u := s.actingUnit(playerID, false)
	if u == nil || s.turnActionDone {
		return nil
	}
	p := s.player(playerID)
	w := s.armedWeapon(p, WeaponMelee)
	if w == nil {
		return nil
	}
	if dir >= 0 {
		dir = 1
	} else {
		dir = -1
	}
	consumeAmmo(p, w)
	u.Facing = dir

	mr := protocol.MeleeResult{UnitID: u.ID, Dir: dir}
	var deaths []int64
	for _, pl := range s.Players {
		for _, v := range pl.Units {
			if !v.Alive || v.ID == u.ID || !meleeReaches(u, v, dir) {
				continue
			}
			v.Health -= w.Damage
			if v.Health < 0 {
				v.Health = 0
			}
			died := v.Health == 0
			mr.Hits = append(mr.Hits, protocol.UnitDamage{
				UnitID: v.ID, Damage: w.Damage, HP: v.Health, Died: died,
			})
			if died {
				s.killUnit(v)
				deaths = append(deaths, v.ID)
			} else {
				stageKnockback(v, float64(dir)*MeleeKnockX*w.KnockbackMult, -MeleeKnockY*w.KnockbackMult, w.Damage, 0)
			}
		}
	}
	s.noteShot(w)
	events := []protocol.Event{{Type: "MeleeResult", Data: mr}}
	return s.resolveDeaths(deaths, 0, events)
}

// HandleTeleport relocates the acting unit to a clear spot. A target
// inside terrain, outside the world, or under the water line is refused.
func (s *Session) HandleTeleport(playerID int64, x, y float64) []protocol.Event {
	u := s.actingUnit(playerID, false)
	if u == nil || s.turnActionDone {
		return nil
	}
	p := s.player(playerID)
	w := s.armedWeapon(p, WeaponUtility)
	if w == nil {
		return nil
	}
	if x < UnitHalfW || x > float64(s.Terrain.W)-UnitHalfW {
		return nil
	}
	if y < UnitHalfH || y+UnitHalfH >= s.WaterY {
		return nil
	}
	if s.Terrain.SolidAt(x, y) || s.Terrain.SolidAt(x, y-UnitHalfH+1) || s.Terrain.SolidAt(x, y+UnitHalfH-1) {
		return nil
	}
	consumeAmmo(p, w)
	u.X, u.Y = x, y
	u.VX, u.VY = 0, 0
	u.Walking = false
	s.noteShot(w)
	return []protocol.Event{{Type: "TeleportResult", Data: protocol.TeleportResult{
		UnitID: u.ID, X: x, Y: y,
	}}}
}

// HandleSkipTurn forfeits the rest of the turn.
func (s *Session) HandleSkipTurn(playerID int64) []protocol.Event {
	u := s.actingUnit(playerID, false)
	if u == nil || s.turnActionDone {
		return nil
	}
	s.turnActionDone = true
	s.endReason = "skip"
	s.clockPaused = false
	return nil
}

// HandlePauseTimer freezes or resumes the turn clock while the acting
// player charges a throw.
func (s *Session) HandlePauseTimer(playerID int64, paused bool) []protocol.Event {
	if s.actingUnit(playerID, false) == nil {
		return nil
	}
	s.clockPaused = paused
	return nil
}

// HandleApplyKnockback flushes every staged knockback now; the acting
// client sends it when its explosion animation finishes. Without it the
// per-unit delay countdown applies the impulse anyway.
func (s *Session) HandleApplyKnockback(playerID int64) []protocol.Event {
	if s.Phase != PhasePlaying || playerID != s.ActivePlayerID {
		return nil
	}
	for _, p := range s.Players {
		for _, u := range p.Units {
			if u.pendingKnockback != nil {
				s.applyKnockbackNow(u)
			}
		}
	}
	return nil
}

func (s *Session) applyKnockbackNow(u *Unit) {
	k := u.pendingKnockback
	if k == nil {
		return
	}
	u.pendingKnockback = nil
	u.VX += k.VX
	u.VY += k.VY
	u.Walking = false
}
