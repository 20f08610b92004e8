package game

import (
	"fmt"
	"math/rand"

	"wormfall/server/protocol"
)

type Phase string

const (
	PhasePlaying  Phase = "playing"
	PhaseRetreat  Phase = "retreat"
	PhaseFinished Phase = "finished"

	// Legacy phase labels still understood by older clients. No transition
	// enters them.
	PhaseWaiting   Phase = "waiting"
	PhaseResolving Phase = "resolving"
)

// PendingJump is a jump whose velocity lands after the wind-up delay.
type PendingJump struct {
	VX, VY  float64
	DelayMs int
}

// PendingKnockback holds a staged explosion impulse. Damage is already on
// the unit's health; the field carries what the reaction should display.
// More knockback arriving before this applies merges into it, so a unit
// reacts exactly once per blast chain.
type PendingKnockback struct {
	VX, VY  float64
	Damage  int
	DelayMs int
}

type Unit struct {
	ID        int64
	PlayerID  int64
	Name      string
	X, Y      float64
	VX, VY    float64
	Facing    int // -1 left, 1 right
	Health    int
	MaxHealth int
	Alive     bool
	Active    bool

	AimAngle float64
	Walking  bool
	WalkDir  int

	pendingJump      *PendingJump
	pendingKnockback *PendingKnockback
	exploded         bool // death explosion already fired
}

type Player struct {
	ID        int64
	Name      string
	Color     string
	Connected bool
	Units     []*Unit
	Ammo      map[string]int // weapon id -> shots left, -1 infinite
	Selected  string

	lastUnitIndex int
}

// LivingUnits counts this player's units still in play.
func (p *Player) LivingUnits() int {
	n := 0
	for _, u := range p.Units {
		if u.Alive {
			n++
		}
	}
	return n
}

// PlayerSetup is one entry of the session init payload.
type PlayerSetup struct {
	ID        int64
	Name      string
	Color     string
	UnitNames []string
}

// Session is the whole mutable state of one match. It is not safe for
// concurrent use; the owning room serializes ticks and player actions.
type Session struct {
	Players []*Player
	Terrain *TerrainField
	Weapons WeaponTable
	Config  protocol.MatchConfig

	Phase          Phase
	Wind           float64
	TurnNumber     int
	ActivePlayerID int64
	ActiveUnitID   int64
	WaterY         float64
	Seed           int64

	turnRemaining    float64
	retreatRemaining float64
	clockPaused      bool
	timeExpired      bool
	turnActionDone   bool
	endReason        string
	lockedWeapon     string
	shotsLeft        int
	activePlayerIdx  int
	winnerID         int64
	overReason       string

	units map[int64]*Unit
	rng   *rand.Rand
}

var defaultUnitNames = []string{
	"Boggy", "Clyde", "Herbert", "Mildred", "Nugget", "Pickle",
	"Ramona", "Squirt", "Tully", "Vern", "Wanda", "Ziggy",
}

// NewSession validates the init payload and builds the starting state. On
// any validation failure nothing is created and the error describes why.
func NewSession(setups []PlayerSetup, cfg protocol.MatchConfig, blob *protocol.TerrainBlob) (*Session, error) {
	if len(setups) < protocol.MinPlayers || len(setups) > protocol.MaxPlayers {
		return nil, fmt.Errorf("session: need %d-%d players, got %d", protocol.MinPlayers, protocol.MaxPlayers, len(setups))
	}
	ids := make(map[int64]bool, len(setups))
	for _, st := range setups {
		if st.ID == 0 || st.Name == "" {
			return nil, fmt.Errorf("session: player entry missing id or name")
		}
		if ids[st.ID] {
			return nil, fmt.Errorf("session: duplicate player id %d", st.ID)
		}
		ids[st.ID] = true
	}
	if cfg.UnitsPerTeam < 1 || cfg.UnitsPerTeam > 8 {
		return nil, fmt.Errorf("session: unitsPerTeam %d out of range", cfg.UnitsPerTeam)
	}
	if cfg.UnitHP < 1 || cfg.UnitHP > 250 {
		return nil, fmt.Errorf("session: unitHp %d out of range", cfg.UnitHP)
	}
	if cfg.TurnSeconds < 5 || cfg.TurnSeconds > 180 {
		return nil, fmt.Errorf("session: turnSeconds %d out of range", cfg.TurnSeconds)
	}
	terrain, err := DecodeTerrain(blob)
	if err != nil {
		return nil, err
	}
	if len(blob.Heightmap) != blob.Width {
		return nil, fmt.Errorf("session: heightmap has %d columns, want %d", len(blob.Heightmap), blob.Width)
	}

	seed := blob.Seed
	if seed == 0 {
		seed = cfg.Seed
	}
	if seed == 0 {
		seed = 1
	}
	s := &Session{
		Weapons: DefaultWeapons(),
		Terrain: terrain,
		Config:  cfg,
		Phase:   PhasePlaying,
		WaterY:  float64(blob.Height) - WaterMargin,
		Seed:    seed,
		units:   make(map[int64]*Unit),
		rng:     rand.New(rand.NewSource(seed)),
	}

	spawns, err := s.pickSpawns(blob, len(setups)*cfg.UnitsPerTeam)
	if err != nil {
		return nil, err
	}

	next := 0
	for _, st := range setups {
		p := &Player{
			ID: st.ID, Name: st.Name, Color: st.Color,
			Connected:     true,
			Ammo:          make(map[string]int, len(s.Weapons)),
			Selected:      "bazooka",
			lastUnitIndex: -1,
		}
		for id, w := range s.Weapons {
			p.Ammo[id] = w.Ammo
		}
		for i := 0; i < cfg.UnitsPerTeam; i++ {
			name := defaultUnitNames[(next)%len(defaultUnitNames)]
			if i < len(st.UnitNames) && st.UnitNames[i] != "" {
				name = st.UnitNames[i]
			}
			u := &Unit{
				ID: protocol.NewID(), PlayerID: st.ID, Name: name,
				X: spawns[next][0], Y: spawns[next][1],
				Facing: 1, Health: cfg.UnitHP, MaxHealth: cfg.UnitHP,
				Alive: true,
			}
			next++
			p.Units = append(p.Units, u)
			s.units[u.ID] = u
		}
		s.Players = append(s.Players, p)
	}

	first := s.Players[0]
	s.activePlayerIdx = 0
	s.ActivePlayerID = first.ID
	au := first.nextLivingUnit()
	au.Active = true
	s.ActiveUnitID = au.ID
	s.TurnNumber = 1
	s.turnRemaining = float64(cfg.TurnSeconds)
	s.rollWind()
	return s, nil
}

// pickSpawns shuffles usable surface columns and picks n of them, keeping
// units spread out where the terrain allows it.
func (s *Session) pickSpawns(blob *protocol.TerrainBlob, n int) ([][2]float64, error) {
	type cand struct{ x, y float64 }
	var cands []cand
	for x := 8; x < blob.Width-8; x += 6 {
		h := blob.Heightmap[x]
		if h <= 20 || float64(h) >= s.WaterY-4 {
			continue
		}
		cands = append(cands, cand{float64(x), float64(h) - UnitHalfH})
	}
	if len(cands) < n {
		return nil, fmt.Errorf("session: terrain has %d usable spawn columns, need %d", len(cands), n)
	}
	s.rng.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })

	const gap = 36.0
	var picked [][2]float64
	for pass := 0; pass < 2 && len(picked) < n; pass++ {
		for _, c := range cands {
			if len(picked) == n {
				break
			}
			if pass == 0 {
				tooClose := false
				for _, q := range picked {
					dx := q[0] - c.x
					if dx < gap && dx > -gap {
						tooClose = true
						break
					}
				}
				if tooClose {
					continue
				}
			}
			picked = append(picked, [2]float64{c.x, c.y})
		}
	}
	return picked, nil
}

func (s *Session) rollWind() {
	s.Wind = (s.rng.Float64()*2 - 1) * MaxWind
}

// UseWeapons swaps in a different weapon table and redeals starting ammo.
// Only valid before Start; a mid-match swap would invalidate the turn's
// weapon lock and ammo counts.
func (s *Session) UseWeapons(t WeaponTable) {
	s.Weapons = t
	for _, p := range s.Players {
		p.Ammo = make(map[string]int, len(t))
		for id, w := range t {
			p.Ammo[id] = w.Ammo
		}
		if t[p.Selected] == nil {
			for _, info := range t.Infos() {
				p.Selected = info.ID
				break
			}
		}
	}
}

func (s *Session) unit(id int64) *Unit {
	return s.units[id]
}

func (s *Session) player(id int64) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Session) activeUnit() *Unit {
	return s.units[s.ActiveUnitID]
}

// liveHitboxes collects collision boxes for every living unit, in roster
// order so collision resolution is deterministic.
func (s *Session) liveHitboxes() []Hitbox {
	var out []Hitbox
	for _, p := range s.Players {
		for _, u := range p.Units {
			if !u.Alive {
				continue
			}
			out = append(out, Hitbox{ID: u.ID, X: u.X, Y: u.Y, HalfW: UnitHalfW, HalfH: UnitHalfH})
		}
	}
	return out
}

func (s *Session) killUnit(u *Unit) {
	u.Alive = false
	u.Health = 0
	u.VX, u.VY = 0, 0
	u.Walking = false
	u.pendingJump = nil
	u.pendingKnockback = nil
}

// PlayersState snapshots the roster for init payloads and reconnects.
func (s *Session) PlayersState() []protocol.PlayerState {
	out := make([]protocol.PlayerState, 0, len(s.Players))
	for _, p := range s.Players {
		ammo := make(map[string]int, len(p.Ammo))
		for k, v := range p.Ammo {
			ammo[k] = v
		}
		out = append(out, protocol.PlayerState{
			ID: p.ID, Name: p.Name, Color: p.Color,
			Connected: p.Connected, Ammo: ammo,
		})
	}
	return out
}

// UnitsState snapshots every unit, dead ones included so late joiners can
// render graves.
func (s *Session) UnitsState() []protocol.UnitState {
	var out []protocol.UnitState
	for _, p := range s.Players {
		for _, u := range p.Units {
			out = append(out, protocol.UnitState{
				ID: u.ID, PlayerID: u.PlayerID, Name: u.Name,
				X: u.X, Y: u.Y, HP: u.Health, MaxHP: u.MaxHealth,
				Facing: u.Facing, Alive: u.Alive,
			})
		}
	}
	return out
}

// TerrainBlob re-encodes the current battlefield, heightmap included, for
// clients joining mid-match.
func (s *Session) TerrainBlob() protocol.TerrainBlob {
	return protocol.TerrainBlob{
		Width:     s.Terrain.W,
		Height:    s.Terrain.H,
		Bitmap:    s.Terrain.Encode(),
		Heightmap: s.Terrain.SurfaceScan(),
		Seed:      s.Seed,
		Theme:     s.Config.Theme,
	}
}

// Start emits the opening turn event. Call once, after init payloads have
// been delivered.
func (s *Session) Start() []protocol.Event {
	return []protocol.Event{{Type: "TurnStart", Data: protocol.TurnStart{
		TurnNumber:  s.TurnNumber,
		PlayerID:    s.ActivePlayerID,
		UnitID:      s.ActiveUnitID,
		Wind:        s.Wind,
		TurnSeconds: s.Config.TurnSeconds,
	}}}
}
