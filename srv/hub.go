// Package srv is the network edge: websocket clients, the lobby
// registry, and the rooms that drive live matches. The engine under
// game/ is synchronous and silent; everything socket-shaped lives here.
package srv

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"wormfall/server/auth"
	"wormfall/server/game"
	"wormfall/server/mapgen"
	"wormfall/server/protocol"
)

type client struct {
	conn *websocket.Conn
	id   int64
	name string
	room *Room

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// enqueue hands a frame to the writer without blocking the caller. A
// slow consumer loses frames; delivery is fire-and-forget by contract.
func (c *client) enqueue(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

// shutdown closes the send channel exactly once so the writer drains
// and exits, then tears the socket down.
func (c *client) shutdown() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
	}
}

func (c *client) writer() {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func sendJSON(c *client, typ string, v interface{}) {
	b, _ := json.Marshal(v)
	out, _ := json.Marshal(protocol.MsgEnvelope{Type: typ, Data: b})
	c.enqueue(out)
}

func sendError(c *client, msg string) {
	sendJSON(c, "ErrorMsg", protocol.ErrorMsg{Message: msg})
}

// Hub owns every connected client and every room. One mutex guards the
// registries; rooms carry their own lock for match state.
type Hub struct {
	log     zerolog.Logger
	auth    *auth.Auth
	match   protocol.MatchConfig
	weapons game.WeaponTable

	mu      sync.Mutex
	clients map[*client]struct{}
	rooms   map[string]*Room
}

func NewHub(a *auth.Auth, match protocol.MatchConfig, log zerolog.Logger) *Hub {
	weapons, path := game.LoadWeaponTable()
	if path != "" {
		log.Info().Str("path", path).Msg("weapon table override loaded")
	}
	return &Hub{
		log:     log,
		auth:    a,
		match:   match,
		weapons: weapons,
		clients: make(map[*client]struct{}),
		rooms:   make(map[string]*Room),
	}
}

// Run drives every room at the fixed tick rate until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / protocol.TickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// snapshot
		h.mu.Lock()
		rooms := make([]*Room, 0, len(h.rooms))
		for _, r := range h.rooms {
			rooms = append(rooms, r)
		}
		h.mu.Unlock()

		// tick
		for _, r := range rooms {
			r.Tick()
		}

		// prune dead rooms
		h.mu.Lock()
		for code, r := range h.rooms {
			if r.Expired() {
				delete(h.rooms, code)
				h.log.Info().Str("room", code).Msg("room pruned")
			}
		}
		h.mu.Unlock()
	}
}

// HandleWS owns a freshly upgraded connection for its lifetime.
func (h *Hub) HandleWS(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, 64), name: "guest"}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writer()
	c.reader(h)
}

// CloseAll tears down every live connection; called on shutdown after
// the listener stops accepting.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		c.shutdown()
	}
}

func (c *client) reader(h *Hub) {
	defer func() {
		h.dropClient(c)
		c.shutdown()
	}()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env protocol.MsgEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.log.Debug().Str("player", c.name).Msg("dropping malformed frame")
			continue
		}
		h.dispatch(c, env)
	}
}

// dropClient unregisters a client and detaches it from its room.
func (h *Hub) dropClient(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	if r := c.room; r != nil {
		r.Drop(c)
		c.room = nil
	}
}

// dispatch routes one decoded envelope. Gameplay messages only make
// sense inside a started room; everything else is lobby traffic.
func (h *Hub) dispatch(c *client, env protocol.MsgEnvelope) {
	switch env.Type {

	// ---------- identity / lobby ----------
	case "Login":
		var msg protocol.Login
		_ = json.Unmarshal(env.Data, &msg)
		h.login(c, msg)
	case "CreateGame":
		var msg protocol.CreateGame
		_ = json.Unmarshal(env.Data, &msg)
		h.createGame(c, msg)
	case "JoinGame":
		var msg protocol.JoinGame
		_ = json.Unmarshal(env.Data, &msg)
		h.joinGame(c, msg)
	case "LeaveGame":
		if r := c.room; r != nil {
			r.Drop(c)
			c.room = nil
		}
	case "StartGame":
		if r := c.room; r != nil {
			r.Start(c)
		}
	case "ChatSend":
		var msg protocol.ChatSend
		_ = json.Unmarshal(env.Data, &msg)
		if r := c.room; r != nil {
			r.Chat(c, msg.Text)
		}

	// ---------- gameplay ----------
	case "SelectWeapon":
		var msg protocol.SelectWeapon
		_ = json.Unmarshal(env.Data, &msg)
		if r := c.room; r != nil {
			r.apply(func(s *game.Session) []protocol.Event {
				return s.HandleSelectWeapon(c.id, msg.Weapon)
			})
		}
	case "Aim":
		var msg protocol.Aim
		_ = json.Unmarshal(env.Data, &msg)
		if r := c.room; r != nil {
			r.apply(func(s *game.Session) []protocol.Event {
				return s.HandleAim(c.id, msg.Angle)
			})
		}
	case "MoveStart":
		var msg protocol.MoveStart
		_ = json.Unmarshal(env.Data, &msg)
		if r := c.room; r != nil {
			r.apply(func(s *game.Session) []protocol.Event {
				return s.HandleMove(c.id, msg.Dir, true)
			})
		}
	case "MoveStop":
		if r := c.room; r != nil {
			r.apply(func(s *game.Session) []protocol.Event {
				return s.HandleMove(c.id, 0, false)
			})
		}
	case "Jump":
		if r := c.room; r != nil {
			r.apply(func(s *game.Session) []protocol.Event {
				return s.HandleJump(c.id)
			})
		}
	case "Fire":
		var msg protocol.Fire
		_ = json.Unmarshal(env.Data, &msg)
		if r := c.room; r != nil {
			r.apply(func(s *game.Session) []protocol.Event {
				return s.HandleFire(c.id, msg.Angle, msg.Power, msg.FuseMs)
			})
		}
	case "FireHitscan":
		var msg protocol.FireHitscan
		_ = json.Unmarshal(env.Data, &msg)
		if r := c.room; r != nil {
			r.apply(func(s *game.Session) []protocol.Event {
				return s.HandleFireHitscan(c.id, msg.Angle)
			})
		}
	case "FireMelee":
		var msg protocol.FireMelee
		_ = json.Unmarshal(env.Data, &msg)
		if r := c.room; r != nil {
			r.apply(func(s *game.Session) []protocol.Event {
				return s.HandleFireMelee(c.id, msg.Dir)
			})
		}
	case "UseTeleport":
		var msg protocol.UseTeleport
		_ = json.Unmarshal(env.Data, &msg)
		if r := c.room; r != nil {
			r.apply(func(s *game.Session) []protocol.Event {
				return s.HandleTeleport(c.id, msg.X, msg.Y)
			})
		}
	case "SkipTurn":
		if r := c.room; r != nil {
			r.apply(func(s *game.Session) []protocol.Event {
				return s.HandleSkipTurn(c.id)
			})
		}
	case "PauseTimer":
		var msg protocol.PauseTimer
		_ = json.Unmarshal(env.Data, &msg)
		if r := c.room; r != nil {
			r.apply(func(s *game.Session) []protocol.Event {
				return s.HandlePauseTimer(c.id, msg.Paused)
			})
		}
	case "ApplyKnockback":
		if r := c.room; r != nil {
			r.apply(func(s *game.Session) []protocol.Event {
				return s.HandleApplyKnockback(c.id)
			})
		}

	default:
		h.log.Debug().Str("type", env.Type).Msg("unknown message type")
	}
}

// login issues a fresh identity, or rebinds an old one when the client
// presents a still-valid token from a previous connection.
func (h *Hub) login(c *client, msg protocol.Login) {
	if c.room != nil {
		sendError(c, "already in a game")
		return
	}

	if msg.Token != "" {
		if id, name, err := h.auth.Parse(msg.Token); err == nil {
			c.id = id
			if name != "" {
				c.name = name
			}
			sendJSON(c, "LoginOK", protocol.LoginOK{PlayerID: c.id, Name: c.name, Token: msg.Token})
			if r := h.roomOf(c.id); r != nil {
				r.Reconnect(c)
			}
			h.log.Info().Int64("player", c.id).Str("name", c.name).Msg("token login")
			return
		}
		sendError(c, "stale session token")
		// fall through to a fresh identity under the supplied name
	}

	name := strings.TrimSpace(msg.Name)
	if name == "" {
		name = "guest"
	}
	c.id = protocol.NewID()
	c.name = name
	token, err := h.auth.Mint(c.id, c.name)
	if err != nil {
		h.log.Error().Err(err).Msg("token mint failed")
	}
	sendJSON(c, "LoginOK", protocol.LoginOK{PlayerID: c.id, Name: c.name, Token: token})
	h.log.Info().Int64("player", c.id).Str("name", c.name).Msg("new login")
}

func (h *Hub) createGame(c *client, msg protocol.CreateGame) {
	if c.id == 0 {
		sendError(c, "log in first")
		return
	}
	if c.room != nil {
		sendError(c, "already in a game")
		return
	}
	cfg := overlayConfig(h.match, msg.Config)
	if !mapgen.HasTheme(cfg.Theme) {
		sendError(c, "unknown theme "+cfg.Theme)
		return
	}
	passHash, err := auth.HashPasscode(msg.Passcode)
	if err != nil {
		sendError(c, "bad passcode")
		return
	}

	h.mu.Lock()
	code := h.newCode()
	r := newRoom(code, c.id, cfg, passHash, h.weapons, h.log)
	h.rooms[code] = r
	h.mu.Unlock()

	sendJSON(c, "GameCreated", protocol.GameCreated{Code: code})
	r.Join(c)
	h.log.Info().Str("room", code).Str("host", c.name).Msg("lobby created")
}

func (h *Hub) joinGame(c *client, msg protocol.JoinGame) {
	if c.id == 0 {
		sendError(c, "log in first")
		return
	}
	if c.room != nil {
		sendError(c, "already in a game")
		return
	}
	h.mu.Lock()
	r := h.rooms[strings.ToUpper(strings.TrimSpace(msg.Code))]
	h.mu.Unlock()
	if r == nil {
		sendError(c, "no such game")
		return
	}
	if err := r.Admit(c, msg.Passcode); err != nil {
		sendError(c, err.Error())
	}
}

// roomOf finds the room holding a seat for the given player, if any.
func (h *Hub) roomOf(playerID int64) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.rooms {
		if r.HasSeat(playerID) {
			return r
		}
	}
	return nil
}

// newCode returns a short join code unique among live rooms. Caller
// holds the hub lock.
func (h *Hub) newCode() string {
	for {
		code := strings.ToUpper(uuid.NewString()[:6])
		if _, taken := h.rooms[code]; !taken {
			return code
		}
	}
}

// overlayConfig fills the zero fields of a requested config from the
// server defaults.
func overlayConfig(base, req protocol.MatchConfig) protocol.MatchConfig {
	cfg := base
	if req.UnitsPerTeam > 0 {
		cfg.UnitsPerTeam = req.UnitsPerTeam
	}
	if req.UnitHP > 0 {
		cfg.UnitHP = req.UnitHP
	}
	if req.TurnSeconds > 0 {
		cfg.TurnSeconds = req.TurnSeconds
	}
	if req.Theme != "" {
		cfg.Theme = req.Theme
	}
	if req.Width > 0 {
		cfg.Width = req.Width
	}
	if req.Height > 0 {
		cfg.Height = req.Height
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	return cfg
}
