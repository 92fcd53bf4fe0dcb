package server

import (
	"encoding/json"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/Anshuman71/salute/internal/game"
	"github.com/Anshuman71/salute/internal/ratelimit"
	"github.com/Anshuman71/salute/internal/roomcode"
	"github.com/Anshuman71/salute/internal/store"
)

// maxCodeAttempts bounds room code generation retries on collision.
const maxCodeAttempts = 10

// Client is the transport-side view of a connection that the room service
// needs: identity context plus a message sink. *Connection implements it;
// tests substitute an in-process fake.
type Client interface {
	SessionID() string
	IP() string
	PlayerID() string
	SetPlayerID(string)
	RoomCode() string
	SetRoomCode(string)
	Send(msg *Message) error
}

// room pairs one GameState with the live connections subscribed to it. The
// mutex serializes every operation on the room, so each inbound message is
// validated, applied and broadcast to completion before the next one runs.
// Different rooms interleave freely.
type room struct {
	mu    sync.Mutex
	state *game.State
	conns map[string]Client // playerID -> connection, rebuilt on connect
}

// RoomService owns all room state and the connection registry, and is the
// dispatch target for every inbound message. Persistence is write-behind:
// snapshots are saved after successful mutations and failures are logged,
// never surfaced to players.
type RoomService struct {
	logger    *log.Logger
	store     store.Store
	limiter   *ratelimit.Limiter
	clock     quartz.Clock
	codes     *roomcode.Generator
	tieBreak  game.TieBreak
	defaults  game.RoomSettings
	retention time.Duration

	// rng is shared across rooms; game operations run under the room lock
	// but different rooms shuffle concurrently, so it gets its own mutex.
	rngMu sync.Mutex
	rng   *rand.Rand

	mu     sync.RWMutex
	rooms  map[string]*room
	routes map[MessageType]func(Client, json.RawMessage)
}

// RoomServiceOptions configures a RoomService.
type RoomServiceOptions struct {
	Store     store.Store
	Limiter   *ratelimit.Limiter
	Clock     quartz.Clock
	Codes     *roomcode.Generator
	TieBreak  game.TieBreak
	Defaults  game.RoomSettings
	Retention time.Duration
}

// NewRoomService creates a room service. Nil options fall back to sane
// defaults (no-op store, real clock, default limits, 24h retention).
func NewRoomService(logger *log.Logger, rng *rand.Rand, opts RoomServiceOptions) *RoomService {
	if opts.Store == nil {
		opts.Store = store.NopStore{}
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.New(opts.Clock, nil)
	}
	if opts.Codes == nil {
		opts.Codes = roomcode.NewGenerator(nil)
	}
	if opts.TieBreak == "" {
		opts.TieBreak = game.TieBreakOpponent
	}
	if opts.Defaults == (game.RoomSettings{}) {
		opts.Defaults = game.DefaultSettings()
	}
	if opts.Retention <= 0 {
		opts.Retention = 24 * time.Hour
	}

	s := &RoomService{
		logger:    logger.WithPrefix("rooms"),
		store:     opts.Store,
		limiter:   opts.Limiter,
		clock:     opts.Clock,
		codes:     opts.Codes,
		tieBreak:  opts.TieBreak,
		defaults:  opts.Defaults,
		retention: opts.Retention,
		rng:       rng,
		rooms:     make(map[string]*room),
	}

	s.routes = map[MessageType]func(Client, json.RawMessage){
		MessageTypeCreateRoom:     s.handleCreateRoom,
		MessageTypeJoinRoom:       s.handleJoinRoom,
		MessageTypeStartGame:      s.handleStartGame,
		MessageTypePlayCards:      s.handlePlayCards,
		MessageTypeDrawCard:       s.handleDrawCard,
		MessageTypeCallWin:        s.handleCallWin,
		MessageTypeUpdateSettings: s.handleUpdateSettings,
		MessageTypeNextRound:      s.handleNextRound,
		MessageTypeLeaveRoom:      s.handleLeaveRoom,
	}

	return s
}

// HandleMessage routes one inbound message to its handler. Unknown types
// get an error back; nothing here is fatal to the connection.
func (s *RoomService) HandleMessage(c Client, msg *Message) {
	handler, ok := s.routes[msg.Type]
	if !ok {
		s.sendError(c, "unknown_message_type", "Unknown message type: "+msg.Type.String())
		return
	}
	handler(c, msg.Data)
}

// HandleDisconnect is called when a connection drops. The seat is kept (the
// player may rejoin with the same ID); only the live connection handle and
// connected flag go away.
func (s *RoomService) HandleDisconnect(c Client) {
	code := c.RoomCode()
	playerID := c.PlayerID()
	if code == "" || playerID == "" {
		return
	}

	r := s.lookup(code)
	if r == nil {
		return
	}

	r.mu.Lock()
	r.state.MarkDisconnected(playerID)
	if r.conns[playerID] == c {
		delete(r.conns, playerID)
	}
	s.saveLocked(r)
	s.broadcastExcept(r, playerID, mustMessage(MessageTypePlayerLeft, PlayerLeftData{PlayerID: playerID}))
	s.broadcastStateLocked(r)
	r.mu.Unlock()

	s.logger.Info("Player disconnected", "room", code, "player", playerID)
}

func (s *RoomService) handleCreateRoom(c Client, data json.RawMessage) {
	var req CreateRoomData
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendError(c, "invalid_message", "Failed to parse create room data")
		return
	}

	if res := s.limiter.Check(c.IP(), ratelimit.ActionCreateRoom); !res.Allowed {
		s.sendRateLimited(c, res.RetryAfter)
		return
	}

	if req.PlayerID == "" {
		s.sendError(c, "invalid_player", "Player ID required")
		return
	}
	playerName := req.PlayerName
	if playerName == "" {
		playerName = "Host"
	}
	settings := s.defaults
	if req.Settings != nil {
		settings = *req.Settings
	}
	if err := settings.Validate(); err != nil {
		s.sendError(c, "invalid_settings", err.Error())
		return
	}

	code, err := s.newRoomCode()
	if err != nil {
		s.sendError(c, "room_create_failed", "Could not allocate a room code")
		return
	}

	state := game.NewState(code, playerName, req.PlayerID, settings, s.clock.Now())
	r := &room{state: state, conns: map[string]Client{req.PlayerID: c}}

	s.mu.Lock()
	s.rooms[code] = r
	s.mu.Unlock()

	c.SetPlayerID(req.PlayerID)
	c.SetRoomCode(code)

	r.mu.Lock()
	s.saveLocked(r)
	s.sendLocked(c, mustMessage(MessageTypeRoomCreated, RoomCreatedData{
		RoomCode: code,
		PlayerID: req.PlayerID,
		Players:  rosterFromState(state),
	}))
	s.broadcastStateLocked(r)
	r.mu.Unlock()

	s.logger.Info("Room created", "room", code, "host", playerName, "player", req.PlayerID)
}

func (s *RoomService) handleJoinRoom(c Client, data json.RawMessage) {
	var req JoinRoomData
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendError(c, "invalid_message", "Failed to parse join room data")
		return
	}

	if res := s.limiter.Check(c.IP(), ratelimit.ActionJoinRoom); !res.Allowed {
		s.sendRateLimited(c, res.RetryAfter)
		return
	}

	if req.PlayerID == "" || req.Code == "" {
		s.sendError(c, "invalid_message", "Room code and player ID required")
		return
	}

	code := strings.ToUpper(req.Code)
	r := s.lookup(code)
	if r == nil {
		s.sendError(c, "room_not_found", "Room not found")
		return
	}

	r.mu.Lock()
	player, rejoined, err := r.state.Join(req.PlayerName, req.PlayerID)
	if err != nil {
		r.mu.Unlock()
		s.sendGameError(c, err)
		return
	}

	r.conns[req.PlayerID] = c
	c.SetPlayerID(req.PlayerID)
	c.SetRoomCode(code)

	s.saveLocked(r)
	s.sendLocked(c, mustMessage(MessageTypeRoomJoined, RoomJoinedData{
		RoomCode: code,
		PlayerID: req.PlayerID,
		Players:  rosterFromState(r.state),
		Settings: r.state.Settings,
	}))
	if !rejoined {
		s.broadcastExcept(r, req.PlayerID, mustMessage(MessageTypePlayerJoined, PlayerJoinedData{
			Player: PlayerInfo{ID: player.ID, Name: player.Name, IsHost: player.ID == r.state.HostPlayerID},
		}))
	}
	s.broadcastStateLocked(r)
	r.mu.Unlock()

	s.logger.Info("Player joined room", "room", code, "player", req.PlayerID, "rejoined", rejoined)
}

func (s *RoomService) handleStartGame(c Client, _ json.RawMessage) {
	s.withRoom(c, func(r *room, playerID string) error {
		s.rngMu.Lock()
		defer s.rngMu.Unlock()
		return r.state.Start(playerID, s.rng)
	}, nil)
}

func (s *RoomService) handlePlayCards(c Client, data json.RawMessage) {
	var req PlayCardsData
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendError(c, "invalid_message", "Failed to parse play cards data")
		return
	}
	s.withRoom(c, func(r *room, playerID string) error {
		return r.state.PlayCards(playerID, req.CardIDs)
	}, nil)
}

func (s *RoomService) handleDrawCard(c Client, data json.RawMessage) {
	var req DrawCardData
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendError(c, "invalid_message", "Failed to parse draw card data")
		return
	}
	s.withRoom(c, func(r *room, playerID string) error {
		return r.state.Draw(playerID, req.Source)
	}, nil)
}

func (s *RoomService) handleCallWin(c Client, _ json.RawMessage) {
	s.withRoom(c, func(r *room, playerID string) error {
		return r.state.CallWin(playerID, s.tieBreak)
	}, nil)
}

func (s *RoomService) handleUpdateSettings(c Client, data json.RawMessage) {
	var req UpdateSettingsData
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendError(c, "invalid_message", "Failed to parse settings data")
		return
	}
	s.withRoom(c, func(r *room, playerID string) error {
		return r.state.UpdateSettings(playerID, req.Settings)
	}, func(r *room) {
		s.broadcastLocked(r, mustMessage(MessageTypeRoomUpdated, RoomUpdatedData{Settings: r.state.Settings}))
	})
}

func (s *RoomService) handleNextRound(c Client, _ json.RawMessage) {
	s.withRoom(c, func(r *room, _ string) error {
		s.rngMu.Lock()
		defer s.rngMu.Unlock()
		return r.state.NextRound(s.rng)
	}, nil)
}

func (s *RoomService) handleLeaveRoom(c Client, _ json.RawMessage) {
	code := c.RoomCode()
	playerID := c.PlayerID()
	if code == "" || playerID == "" {
		s.sendError(c, "not_in_room", "Not in a room")
		return
	}

	if r := s.lookup(code); r != nil {
		r.mu.Lock()
		r.state.MarkDisconnected(playerID)
		delete(r.conns, playerID)
		s.saveLocked(r)
		s.broadcastExcept(r, playerID, mustMessage(MessageTypePlayerLeft, PlayerLeftData{PlayerID: playerID}))
		s.broadcastStateLocked(r)
		r.mu.Unlock()
	}

	c.SetRoomCode("")
	c.SetPlayerID("")
	s.logger.Info("Player left room", "room", code, "player", playerID)
}

// withRoom runs a game mutation for the connection's current room under the
// room lock. On success the room is snapshotted, the optional extra
// broadcast runs, and the sanitized state fans out; on failure only the
// caller hears about it.
func (s *RoomService) withRoom(c Client, op func(r *room, playerID string) error, after func(r *room)) {
	code := c.RoomCode()
	playerID := c.PlayerID()
	if code == "" || playerID == "" {
		s.sendError(c, "not_in_room", "Not in a room")
		return
	}

	r := s.lookup(code)
	if r == nil {
		s.sendError(c, "room_not_found", "Room not found")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := op(r, playerID); err != nil {
		s.sendGameError(c, err)
		return
	}

	s.saveLocked(r)
	if after != nil {
		after(r)
	}
	s.broadcastStateLocked(r)
}

// lookup finds a live room, hydrating from the store when the room is not
// in memory (process restart, or another room map sweep took it).
func (s *RoomService) lookup(code string) *room {
	s.mu.RLock()
	r, ok := s.rooms[code]
	s.mu.RUnlock()
	if ok {
		return r
	}

	state, err := s.store.LoadRoom(code)
	if err != nil {
		s.logger.Error("Failed to hydrate room", "room", code, "error", err)
		return nil
	}
	if state == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.rooms[code]; ok {
		return existing
	}
	r = &room{state: state, conns: make(map[string]Client)}
	s.rooms[code] = r
	s.logger.Info("Hydrated room from store", "room", code)
	return r
}

// newRoomCode draws codes until one is unused. Collisions are vanishingly
// rare at realistic room counts but the retry loop is bounded anyway.
func (s *RoomService) newRoomCode() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := s.codes.Generate()
		if s.lookup(code) == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("exhausted %d room code attempts", maxCodeAttempts)
}

// RoomCount returns the number of rooms currently held in memory.
func (s *RoomService) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Sweep drops rooms older than the retention window from memory and the
// store, and prunes stale rate-limit windows. Connection status is
// irrelevant: retention is measured from room creation.
func (s *RoomService) Sweep() {
	cutoff := s.clock.Now().Add(-s.retention)

	s.mu.Lock()
	for code, r := range s.rooms {
		r.mu.Lock()
		expired := r.state.CreatedAt.Before(cutoff)
		r.mu.Unlock()
		if expired {
			delete(s.rooms, code)
			s.logger.Info("Expired room removed", "room", code)
		}
	}
	s.mu.Unlock()

	if err := s.store.DeleteExpiredRooms(cutoff); err != nil {
		s.logger.Error("Store expiry sweep failed", "error", err)
	}
	s.limiter.Prune()
}

// saveLocked snapshots the room state. Persistence is best effort; in-memory
// state stays authoritative and failures never reach players.
func (s *RoomService) saveLocked(r *room) {
	if err := s.store.SaveRoom(r.state); err != nil {
		s.logger.Error("Failed to save room snapshot", "room", r.state.RoomCode, "error", err)
	}
}

// broadcastStateLocked fans the per-recipient sanitized state out to every
// live connection in the room. Caller holds the room lock.
func (s *RoomService) broadcastStateLocked(r *room) {
	for playerID, conn := range r.conns {
		sanitized := r.state.SanitizedFor(playerID)
		msg, err := NewMessage(MessageTypeGameState, GameStateData{State: sanitized})
		if err != nil {
			s.logger.Error("Failed to encode game state", "room", r.state.RoomCode, "error", err)
			return
		}
		s.sendLocked(conn, msg)
	}
}

func (s *RoomService) broadcastLocked(r *room, msg *Message) {
	for _, conn := range r.conns {
		s.sendLocked(conn, msg)
	}
}

func (s *RoomService) broadcastExcept(r *room, excludePlayerID string, msg *Message) {
	for playerID, conn := range r.conns {
		if playerID == excludePlayerID {
			continue
		}
		s.sendLocked(conn, msg)
	}
}

func (s *RoomService) sendLocked(c Client, msg *Message) {
	if err := c.Send(msg); err != nil {
		s.logger.Error("Failed to send message", "type", msg.Type, "player", c.PlayerID(), "error", err)
	}
}

func (s *RoomService) sendError(c Client, code, message string) {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: message})
	if err != nil {
		s.logger.Error("Failed to create error message", "error", err)
		return
	}
	_ = c.Send(msg)
}

func (s *RoomService) sendRateLimited(c Client, retryAfter time.Duration) {
	secs := int(retryAfter.Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	s.sendError(c, "rate_limited", fmt.Sprintf("Rate limited. Try again in %d seconds.", secs))
}

// sendGameError maps coordinator validation failures onto wire error codes.
func (s *RoomService) sendGameError(c Client, err error) {
	code := "invalid_action"
	switch {
	case errors.Is(err, game.ErrPlayerNotFound):
		code = "player_not_found"
	case errors.Is(err, game.ErrNotHost):
		code = "not_host"
	case errors.Is(err, game.ErrAlreadyStarted):
		code = "already_started"
	case errors.Is(err, game.ErrRoomFull):
		code = "room_full"
	case errors.Is(err, game.ErrNotYourTurn):
		code = "not_your_turn"
	case errors.Is(err, game.ErrInvalidSettings):
		code = "invalid_settings"
	}
	s.sendError(c, code, err.Error())
}

// mustMessage wraps NewMessage for payloads that cannot fail to marshal.
func mustMessage(messageType MessageType, data interface{}) *Message {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		panic("failed to marshal message: " + err.Error())
	}
	return msg
}
