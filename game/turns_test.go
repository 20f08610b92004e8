package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wormfall/server/protocol"
)

func TestNextLivingUnitVisitsEachOnce(t *testing.T) {
	s := newTestSession(t, 2, 4)
	p := s.Players[1] // cursor untouched by session setup

	var first []int64
	for i := 0; i < 4; i++ {
		first = append(first, p.nextLivingUnit().ID)
	}
	seen := map[int64]bool{}
	for _, id := range first {
		assert.False(t, seen[id], "unit %d selected twice in one cycle", id)
		seen[id] = true
	}
	assert.Len(t, seen, 4, "every living unit selected once per cycle")

	for i := 0; i < 4; i++ {
		assert.Equal(t, first[i], p.nextLivingUnit().ID, "second cycle repeats the order")
	}
}

func TestNextLivingUnitSkipsDead(t *testing.T) {
	s := newTestSession(t, 2, 4)
	p := s.Players[1]
	s.killUnit(p.Units[1])
	s.killUnit(p.Units[2])

	for i := 0; i < 10; i++ {
		u := p.nextLivingUnit()
		require.NotNil(t, u)
		assert.True(t, u.Alive)
	}
}

func TestNextLivingUnitAllDead(t *testing.T) {
	s := newTestSession(t, 2, 2)
	p := s.Players[1]
	for _, u := range p.Units {
		s.killUnit(u)
	}
	assert.Nil(t, p.nextLivingUnit())
}

func TestAdvanceTurnRoundRobin(t *testing.T) {
	s := newTestSession(t, 3, 1)
	require.Equal(t, int64(1), s.ActivePlayerID)

	var order []int64
	for i := 0; i < 6; i++ {
		events := s.advanceTurn()
		require.Len(t, eventsOfType(events, "TurnStart"), 1)
		order = append(order, s.ActivePlayerID)
	}
	assert.Equal(t, []int64{2, 3, 1, 2, 3, 1}, order)
}

func TestAdvanceTurnSkipsWipedPlayers(t *testing.T) {
	s := newTestSession(t, 3, 2)
	for _, u := range s.Players[1].Units {
		s.killUnit(u)
	}

	for i := 0; i < 8; i++ {
		s.advanceTurn()
		assert.NotEqual(t, int64(2), s.ActivePlayerID, "wiped player must never act")
		au := s.activeUnit()
		require.NotNil(t, au)
		assert.True(t, au.Alive, "active unit must be alive")
		assert.True(t, au.Active)
	}
}

func TestAdvanceTurnPrefersConnected(t *testing.T) {
	s := newTestSession(t, 3, 1)
	s.SetConnected(2, false)

	s.advanceTurn()
	assert.Equal(t, int64(3), s.ActivePlayerID, "disconnected player skipped")
	s.advanceTurn()
	assert.Equal(t, int64(1), s.ActivePlayerID)

	// with every other player gone, the absent one still gets the turn so
	// the clock can drain the match
	s.SetConnected(3, false)
	for _, u := range s.Players[0].Units {
		s.killUnit(u)
	}
	s.advanceTurn()
	assert.Equal(t, int64(2), s.ActivePlayerID)
}

func TestAdvanceTurnResetsTurnState(t *testing.T) {
	s := newTestSession(t, 2, 1)
	s.lockedWeapon = "shotgun"
	s.shotsLeft = 1
	s.turnActionDone = true
	s.timeExpired = true
	s.clockPaused = true
	s.Phase = PhaseRetreat

	events := s.advanceTurn()
	require.Len(t, events, 1)
	ts := events[0].Data.(protocol.TurnStart)
	assert.Equal(t, 2, ts.TurnNumber)
	assert.Equal(t, s.ActivePlayerID, ts.PlayerID)
	assert.Equal(t, s.ActiveUnitID, ts.UnitID)
	assert.Equal(t, 30, ts.TurnSeconds)

	assert.Equal(t, PhasePlaying, s.Phase)
	assert.Equal(t, "", s.lockedWeapon)
	assert.False(t, s.turnActionDone)
	assert.False(t, s.timeExpired)
	assert.False(t, s.clockPaused)
	assert.Equal(t, 30.0, s.turnRemaining)
}

func TestAdvanceTurnRollsWindInRange(t *testing.T) {
	s := newTestSession(t, 2, 1)
	changed := false
	prev := s.Wind
	for i := 0; i < 50; i++ {
		s.advanceTurn()
		if s.Wind < -MaxWind || s.Wind > MaxWind {
			t.Fatalf("wind %.2f outside [%.0f, %.0f]", s.Wind, -MaxWind, MaxWind)
		}
		if s.Wind != prev {
			changed = true
		}
		prev = s.Wind
	}
	assert.True(t, changed, "wind re-rolls across turns")
}

func TestCheckGameOverWinner(t *testing.T) {
	s := newTestSession(t, 2, 2)
	require.Nil(t, s.checkGameOver(), "both players still standing")

	for _, u := range s.Players[1].Units {
		s.killUnit(u)
	}
	events := s.checkGameOver()
	require.Len(t, events, 1)
	over := events[0].Data.(protocol.GameOver)
	assert.Equal(t, int64(1), over.WinnerID)
	assert.Equal(t, PhaseFinished, s.Phase)

	winner, reason := s.Winner()
	assert.Equal(t, int64(1), winner)
	assert.Equal(t, "last-team-standing", reason)
}

func TestCheckGameOverDraw(t *testing.T) {
	s := newTestSession(t, 2, 1)
	for _, p := range s.Players {
		for _, u := range p.Units {
			s.killUnit(u)
		}
	}
	events := s.checkGameOver()
	require.Len(t, events, 1)
	over := events[0].Data.(protocol.GameOver)
	assert.Equal(t, int64(0), over.WinnerID, "mutual wipeout is a draw")
	assert.Equal(t, "draw", over.Reason)
}
