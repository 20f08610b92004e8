package protocol

import "encoding/json"

// Envelope
type MsgEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Event is one ordered effect produced by the engine. The room broadcasts
// events in exactly the order the engine returns them; clients replay them
// in that order to stay in sync.
type Event struct {
	Type string
	Data interface{}
}

// ================= C -> S =================

type Login struct {
	Name  string `json:"name"`
	Token string `json:"token,omitempty"` // reclaim a seat after reconnect
}

// Lobby
type CreateGame struct {
	Config   MatchConfig `json:"config"`
	Passcode string      `json:"passcode,omitempty"` // private lobby
}
type JoinGame struct {
	Code     string `json:"code"`
	Passcode string `json:"passcode,omitempty"`
}
type LeaveGame struct{}
type StartGame struct{}

type ChatSend struct {
	Text string `json:"text"`
}

// Gameplay. All of these are valid only from the acting player during the
// playing phase (movement also during retreat); anything else is dropped.
type SelectWeapon struct {
	Weapon string `json:"weapon"`
}
type Aim struct {
	Angle float64 `json:"angle"` // radians, 0 = right, negative = up
}
type MoveStart struct {
	Dir int `json:"dir"` // -1 left, 1 right
}
type MoveStop struct{}
type Jump struct{}

type Fire struct {
	Angle  float64 `json:"angle"`
	Power  float64 `json:"power"`            // 0..1 of the weapon's launch speed
	FuseMs int     `json:"fuseMs,omitempty"` // timed weapons only; 0 = weapon default
}
type FireHitscan struct {
	Angle float64 `json:"angle"`
}
type FireMelee struct {
	Dir int `json:"dir"` // -1 left, 1 right
}
type UseTeleport struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
type SkipTurn struct{}

// PauseTimer freezes the turn clock while the acting player charges a
// throw, so aim time is not penalized.
type PauseTimer struct {
	Paused bool `json:"paused"`
}

// ApplyKnockback is the acting client telling the server its explosion
// animation finished, flushing staged knockback early. The per-unit delay
// countdown applies it anyway if this never arrives.
type ApplyKnockback struct{}

// ================= S -> C =================

type LoginOK struct {
	PlayerID int64  `json:"playerId"`
	Name     string `json:"name"`
	Token    string `json:"token"`
}

type GameCreated struct {
	Code string `json:"code"`
}

type LobbyPlayer struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Connected bool   `json:"connected"`
}
type LobbyState struct {
	Code    string        `json:"code"`
	HostID  int64         `json:"hostId"`
	Players []LobbyPlayer `json:"players"`
}

type MatchConfig struct {
	UnitsPerTeam int    `json:"unitsPerTeam"`
	UnitHP       int    `json:"unitHp"`
	TurnSeconds  int    `json:"turnSeconds"`
	Theme        string `json:"theme"`
	Width        int    `json:"width,omitempty"`  // 0 = theme default
	Height       int    `json:"height,omitempty"` // 0 = theme default
	Seed         int64  `json:"seed,omitempty"`   // 0 = random
}

type PlayerState struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Color     string         `json:"color"`
	Connected bool           `json:"connected"`
	Ammo      map[string]int `json:"ammo,omitempty"` // weapon id -> shots left, -1 infinite
}

type UnitState struct {
	ID       int64   `json:"id"`
	PlayerID int64   `json:"playerId"`
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	HP       int     `json:"hp"`
	MaxHP    int     `json:"maxHp"`
	Facing   int     `json:"facing"` // -1 left, 1 right
	Alive    bool    `json:"alive"`
}

type WeaponInfo struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Kind         string  `json:"kind"` // projectile, hitscan, melee, utility
	Damage       int     `json:"damage"`
	Radius       float64 `json:"radius"`
	Ammo         int     `json:"ammo"` // starting shots, -1 infinite
	ShotsPerTurn int     `json:"shotsPerTurn"`
	FuseMs       int     `json:"fuseMs,omitempty"`
}

type GameInit struct {
	YourPlayerID int64         `json:"yourPlayerId"`
	Players      []PlayerState `json:"players"`
	Units        []UnitState   `json:"units"`
	Terrain      TerrainBlob   `json:"terrain"`
	Weapons      []WeaponInfo  `json:"weapons"`
	Config       MatchConfig   `json:"config"`
	WaterY       float64       `json:"waterY"`
}

// Turn / phase events

type TurnStart struct {
	TurnNumber  int     `json:"turnNumber"`
	PlayerID    int64   `json:"playerId"`
	UnitID      int64   `json:"unitId"`
	Wind        float64 `json:"wind"`
	TurnSeconds int     `json:"turnSeconds"`
}
type TurnEnd struct {
	TurnNumber int    `json:"turnNumber"`
	Reason     string `json:"reason"` // acted, timeout, skip
}
type RetreatStart struct {
	Seconds float64 `json:"seconds"`
}

type WeaponSelected struct {
	PlayerID int64  `json:"playerId"`
	Weapon   string `json:"weapon"`
	AmmoLeft int    `json:"ammoLeft"`
}
type UnitAimed struct {
	UnitID int64   `json:"unitId"`
	Angle  float64 `json:"angle"`
}

// Motion events

type UnitMotion struct {
	ID     int64   `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Facing int     `json:"facing"`
}

// PhysicsUpdate batches every unit that moved this tick.
type PhysicsUpdate struct {
	Units []UnitMotion `json:"units"`
}

type UnitJumped struct {
	UnitID int64 `json:"unitId"`
}
type UnitLanded struct {
	UnitID int64 `json:"unitId"`
	Damage int   `json:"damage"` // 0 for a soft landing
	HP     int   `json:"hp"`
}
type UnitFellInWater struct {
	UnitID int64 `json:"unitId"`
}
type UnitDied struct {
	UnitID int64 `json:"unitId"`
}

// Combat events

type TrajPoint struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	TMs int     `json:"tMs"` // elapsed flight time at this sample
}

type UnitDamage struct {
	UnitID int64 `json:"unitId"`
	Damage int   `json:"damage"`
	HP     int   `json:"hp"` // health after the damage
	Died   bool  `json:"died"`
}

// EraseCircle is one terrain deletion clients apply locally.
type EraseCircle struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r"`
}

type ExplosionReport struct {
	X       float64       `json:"x"`
	Y       float64       `json:"y"`
	Radius  float64       `json:"radius"`
	Damages []UnitDamage  `json:"damages,omitempty"`
	Terrain []EraseCircle `json:"terrain,omitempty"`
}

type FireResult struct {
	UnitID     int64            `json:"unitId"`
	Weapon     string           `json:"weapon"`
	Trajectory []TrajPoint      `json:"trajectory"`
	Outcome    string           `json:"outcome"` // exploded, water, gone
	Explosion  *ExplosionReport `json:"explosion,omitempty"`
	AmmoLeft   int              `json:"ammoLeft"`
}

type HitscanResult struct {
	UnitID    int64            `json:"unitId"`
	Weapon    string           `json:"weapon"`
	FromX     float64          `json:"fromX"`
	FromY     float64          `json:"fromY"`
	ToX       float64          `json:"toX"`
	ToY       float64          `json:"toY"`
	Hit       string           `json:"hit"` // unit, terrain, water, none
	Explosion *ExplosionReport `json:"explosion,omitempty"`
	ShotsLeft int              `json:"shotsLeft"` // remaining shots this turn
}

type MeleeResult struct {
	UnitID int64        `json:"unitId"`
	Dir    int          `json:"dir"`
	Hits   []UnitDamage `json:"hits,omitempty"`
}

type TeleportResult struct {
	UnitID int64   `json:"unitId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type DeathExplosion struct {
	UnitID    int64           `json:"unitId"`
	Explosion ExplosionReport `json:"explosion"`
}

type GameOver struct {
	WinnerID int64  `json:"winnerId"` // 0 on a draw
	Reason   string `json:"reason,omitempty"`
}

type PlayerJoined struct {
	PlayerID int64  `json:"playerId"`
	Name     string `json:"name"`
}
type PlayerLeft struct {
	PlayerID int64 `json:"playerId"`
}

type Chat struct {
	From string `json:"from"`
	Text string `json:"text"`
}

type ErrorMsg struct {
	Message string `json:"message"`
}
