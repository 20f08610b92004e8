package srv

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wormfall/server/auth"
	"wormfall/server/game"
	"wormfall/server/mapgen"
	"wormfall/server/protocol"
)

// how long a finished match lingers before the hub reclaims the room
const finishedTTL = 30 * time.Second

var seatColors = []string{"red", "blue", "green", "yellow"}

// seat is one player's place in a room. It outlives the connection so a
// dropped player can reclaim it mid-match.
type seat struct {
	id    int64
	name  string
	color string
	c     *client // nil while disconnected
}

// Room owns one lobby and, once started, exactly one session. Every
// mutation of the session, whether by tick or by player action, happens
// under the room lock.
type Room struct {
	code string
	log  zerolog.Logger

	mu       sync.Mutex
	hostID   int64
	cfg      protocol.MatchConfig
	passHash []byte
	weapons  game.WeaponTable
	seats    []*seat
	sess     *game.Session
	started  bool
	doneAt   time.Time // when the match finished; zero while running
}

func newRoom(code string, hostID int64, cfg protocol.MatchConfig, passHash []byte, weapons game.WeaponTable, log zerolog.Logger) *Room {
	return &Room{
		code:     code,
		log:      log.With().Str("room", code).Logger(),
		hostID:   hostID,
		cfg:      cfg,
		passHash: passHash,
		weapons:  weapons,
	}
}

// Join seats the creator; admission checks already happened.
func (r *Room) Join(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seatLocked(c)
}

// Admit seats a newcomer if the lobby is still open, the passcode
// matches, and a seat is free.
func (r *Room) Admit(c *client, passcode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return errors.New("match already running")
	}
	if len(r.seats) >= protocol.MaxPlayers {
		return errors.New("game is full")
	}
	if !auth.CheckPasscode(r.passHash, passcode) {
		return errors.New("wrong passcode")
	}
	r.seatLocked(c)
	return nil
}

func (r *Room) seatLocked(c *client) {
	c.room = r
	s := &seat{id: c.id, name: c.name, color: r.freeColor(), c: c}
	r.seats = append(r.seats, s)
	r.broadcast("PlayerJoined", protocol.PlayerJoined{PlayerID: s.id, Name: s.name})
	r.lobbyStateLocked()
	r.log.Info().Str("player", s.name).Int("seats", len(r.seats)).Msg("player seated")
}

func (r *Room) freeColor() string {
	used := make(map[string]bool, len(r.seats))
	for _, s := range r.seats {
		used[s.color] = true
	}
	for _, col := range seatColors {
		if !used[col] {
			return col
		}
	}
	return seatColors[0]
}

func (r *Room) lobbyStateLocked() {
	st := protocol.LobbyState{Code: r.code, HostID: r.hostID}
	for _, s := range r.seats {
		st.Players = append(st.Players, protocol.LobbyPlayer{
			ID: s.id, Name: s.name, Color: s.color, Connected: s.c != nil,
		})
	}
	r.broadcast("LobbyState", st)
}

// Drop detaches a client. In the lobby the seat is freed; in a running
// match the seat is kept so the player can reclaim it, and the engine
// skips their turns until they do.
func (r *Room) Drop(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.seats {
		if s.c != c {
			continue
		}
		s.c = nil
		if r.started {
			r.sess.SetConnected(s.id, false)
		} else {
			r.seats = append(r.seats[:i], r.seats[i+1:]...)
			if s.id == r.hostID && len(r.seats) > 0 {
				r.hostID = r.seats[0].id
			}
		}
		r.broadcast("PlayerLeft", protocol.PlayerLeft{PlayerID: s.id})
		if !r.started {
			r.lobbyStateLocked()
		}
		r.log.Info().Str("player", s.name).Bool("started", r.started).Msg("player dropped")
		return
	}
}

// Reconnect rebinds a returning player to their seat and replays enough
// state to resume mid-match.
func (r *Room) Reconnect(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.seats {
		if s.id != c.id {
			continue
		}
		if s.c != nil && s.c != c {
			s.c.shutdown() // zombie connection still bound to the seat
		}
		s.c = c
		c.room = r
		c.name = s.name
		if r.started {
			r.sess.SetConnected(s.id, true)
			sendJSON(c, "GameInit", r.initLocked(s.id))
		}
		r.broadcast("PlayerJoined", protocol.PlayerJoined{PlayerID: s.id, Name: s.name})
		if !r.started {
			r.lobbyStateLocked()
		}
		r.log.Info().Str("player", s.name).Msg("seat reclaimed")
		return
	}
}

// Start builds the terrain and the session and opens the match. Host
// only, two seats minimum.
func (r *Room) Start(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	if c.id != r.hostID {
		sendError(c, "only the host can start")
		return
	}
	if len(r.seats) < protocol.MinPlayers {
		sendError(c, "need at least 2 players")
		return
	}

	blob, err := mapgen.Generate(r.cfg.Theme, r.cfg.Width, r.cfg.Height, r.cfg.Seed)
	if err != nil {
		r.log.Error().Err(err).Msg("terrain generation failed")
		sendError(c, "terrain generation failed")
		return
	}
	setups := make([]game.PlayerSetup, len(r.seats))
	for i, s := range r.seats {
		setups[i] = game.PlayerSetup{ID: s.id, Name: s.name, Color: s.color}
	}
	sess, err := game.NewSession(setups, r.cfg, blob)
	if err != nil {
		r.log.Error().Err(err).Msg("session init rejected")
		sendError(c, err.Error())
		return
	}
	sess.UseWeapons(r.weapons)
	for _, s := range r.seats {
		sess.SetConnected(s.id, s.c != nil)
	}

	// clients get the resolved values, not the request
	r.cfg.Width = blob.Width
	r.cfg.Height = blob.Height
	r.cfg.Seed = blob.Seed
	r.sess = sess
	r.started = true

	for _, s := range r.seats {
		if s.c != nil {
			sendJSON(s.c, "GameInit", r.initLocked(s.id))
		}
	}
	r.events(sess.Start())
	r.log.Info().Int("players", len(r.seats)).Str("theme", blob.Theme).Int64("seed", blob.Seed).Msg("match started")
}

func (r *Room) initLocked(playerID int64) protocol.GameInit {
	return protocol.GameInit{
		YourPlayerID: playerID,
		Players:      r.sess.PlayersState(),
		Units:        r.sess.UnitsState(),
		Terrain:      r.sess.TerrainBlob(),
		Weapons:      r.sess.Weapons.Infos(),
		Config:       r.cfg,
		WaterY:       r.sess.WaterY,
	}
}

// apply runs one player action against the session and broadcasts
// whatever it produced. Before the match starts there is no session and
// every action is a no-op.
func (r *Room) apply(fn func(s *game.Session) []protocol.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sess == nil {
		return
	}
	r.events(fn(r.sess))
}

// Tick advances the match one fixed step; the hub calls this at the
// tick rate for every room it holds.
func (r *Room) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sess == nil {
		return
	}
	r.events(r.sess.Tick(game.TickDt))
}

// events fans engine events out in order. Caller holds the room lock.
func (r *Room) events(evs []protocol.Event) {
	for _, e := range evs {
		r.broadcast(e.Type, e.Data)
	}
	if r.sess != nil && r.sess.Phase == game.PhaseFinished && r.doneAt.IsZero() {
		r.doneAt = time.Now()
		winner, reason := r.sess.Winner()
		r.log.Info().Int64("winner", winner).Str("reason", reason).Msg("match over")
	}
}

func (r *Room) broadcast(typ string, v interface{}) {
	for _, s := range r.seats {
		if s.c != nil {
			sendJSON(s.c, typ, v)
		}
	}
}

// Chat relays a line to the whole room, clamped to the protocol limit.
func (r *Room) Chat(c *client, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if len(text) > protocol.MaxChatLen {
		text = text[:protocol.MaxChatLen]
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcast("Chat", protocol.Chat{From: c.name, Text: text})
}

func (r *Room) HasSeat(playerID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.seats {
		if s.id == playerID {
			return true
		}
	}
	return false
}

// Expired reports whether the hub should reclaim this room: nobody
// seated, everybody disconnected mid-match, or the match has been over
// long enough.
func (r *Room) Expired() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seats) == 0 {
		return true
	}
	connected := 0
	for _, s := range r.seats {
		if s.c != nil {
			connected++
		}
	}
	if connected == 0 && r.started {
		return true
	}
	return !r.doneAt.IsZero() && time.Since(r.doneAt) > finishedTTL
}
