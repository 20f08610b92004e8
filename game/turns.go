package game

import "wormfall/server/protocol"

// Turn flow. A turn runs playing -> retreat -> next TurnStart; a timeout
// jumps straight from playing to the next turn. Transitions fire from the
// tick loop once the world has settled, never from inside an action
// handler, so knockback and chained deaths always land before the hand
// moves on.

// nextLivingUnit rotates this player's unit cursor to the next unit still
// alive. Every call advances the cursor, so consecutive turns walk the
// roster in order even as units die in between.
func (p *Player) nextLivingUnit() *Unit {
	n := len(p.Units)
	for i := 1; i <= n; i++ {
		idx := (p.lastUnitIndex + i) % n
		if p.Units[idx].Alive {
			p.lastUnitIndex = idx
			return p.Units[idx]
		}
	}
	return nil
}

// checkGameOver finishes the match once at most one player has units
// left. A draw leaves WinnerID at zero.
func (s *Session) checkGameOver() []protocol.Event {
	if s.Phase != PhasePlaying && s.Phase != PhaseRetreat {
		return nil
	}
	var last *Player
	standing := 0
	for _, p := range s.Players {
		if p.LivingUnits() > 0 {
			standing++
			last = p
		}
	}
	if standing > 1 {
		return nil
	}
	s.Phase = PhaseFinished
	if u := s.activeUnit(); u != nil {
		u.Active = false
		u.Walking = false
	}
	if standing == 1 {
		s.winnerID = last.ID
		s.overReason = "last-team-standing"
	} else {
		s.winnerID = 0
		s.overReason = "draw"
	}
	return []protocol.Event{{Type: "GameOver", Data: protocol.GameOver{
		WinnerID: s.winnerID, Reason: s.overReason,
	}}}
}

// enterRetreat closes the acting half of the turn and opens the window in
// which the shooter may still reposition but not fire.
func (s *Session) enterRetreat() []protocol.Event {
	s.Phase = PhaseRetreat
	s.retreatRemaining = RetreatSeconds
	reason := s.endReason
	if reason == "" {
		reason = "acted"
	}
	return []protocol.Event{
		{Type: "TurnEnd", Data: protocol.TurnEnd{TurnNumber: s.TurnNumber, Reason: reason}},
		{Type: "RetreatStart", Data: protocol.RetreatStart{Seconds: RetreatSeconds}},
	}
}

// advanceTurn hands control to the next player in join order who still
// has units, preferring connected players. A disconnected player only
// gets the turn when nobody connected can take it, which keeps the clock
// draining matches that everyone abandoned.
func (s *Session) advanceTurn() []protocol.Event {
	if u := s.activeUnit(); u != nil {
		u.Active = false
		u.Walking = false
	}

	n := len(s.Players)
	next := -1
	for i := 1; i <= n; i++ {
		idx := (s.activePlayerIdx + i) % n
		p := s.Players[idx]
		if p.LivingUnits() > 0 && p.Connected {
			next = idx
			break
		}
	}
	if next == -1 {
		for i := 1; i <= n; i++ {
			idx := (s.activePlayerIdx + i) % n
			if s.Players[idx].LivingUnits() > 0 {
				next = idx
				break
			}
		}
	}
	if next == -1 {
		return s.checkGameOver()
	}

	p := s.Players[next]
	u := p.nextLivingUnit()
	s.activePlayerIdx = next
	s.ActivePlayerID = p.ID
	s.ActiveUnitID = u.ID
	u.Active = true

	s.Phase = PhasePlaying
	s.TurnNumber++
	s.turnRemaining = float64(s.Config.TurnSeconds)
	s.retreatRemaining = 0
	s.clockPaused = false
	s.timeExpired = false
	s.turnActionDone = false
	s.endReason = ""
	s.lockedWeapon = ""
	s.shotsLeft = 0
	s.rollWind()

	return []protocol.Event{{Type: "TurnStart", Data: protocol.TurnStart{
		TurnNumber:  s.TurnNumber,
		PlayerID:    s.ActivePlayerID,
		UnitID:      s.ActiveUnitID,
		Wind:        s.Wind,
		TurnSeconds: s.Config.TurnSeconds,
	}}}
}

// SetConnected flips a player's link state. A disconnected player's units
// stay on the field as targets; the turn rotation routes around them.
func (s *Session) SetConnected(playerID int64, connected bool) {
	if p := s.player(playerID); p != nil {
		p.Connected = connected
		if !connected {
			for _, u := range p.Units {
				u.Walking = false
				u.WalkDir = 0
			}
		}
	}
}

// Winner reports the finished match's result. Valid only once Phase is
// PhaseFinished; a zero winner with reason "draw" means mutual wipeout.
func (s *Session) Winner() (int64, string) {
	return s.winnerID, s.overReason
}

// TurnRemaining is the acting player's clock in seconds, for HUD resync.
func (s *Session) TurnRemaining() float64 {
	if s.Phase == PhaseRetreat {
		return s.retreatRemaining
	}
	return s.turnRemaining
}
