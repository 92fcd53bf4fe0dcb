package server

import (
	"encoding/json"
	"time"

	"github.com/Anshuman71/salute/internal/game"
)

// Message is the base WebSocket envelope. Payloads are kept raw until the
// dispatch table knows which typed struct to decode into.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

// CreateRoomData opens a new room. PlayerID is the client's stable identity
// and persists across reconnects.
type CreateRoomData struct {
	PlayerID   string             `json:"playerId"`
	PlayerName string             `json:"playerName"`
	Settings   *game.RoomSettings `json:"settings,omitempty"`
}

type JoinRoomData struct {
	Code       string `json:"code"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type PlayCardsData struct {
	CardIDs []string `json:"cardIds"`
}

type DrawCardData struct {
	Source game.DrawSource `json:"source"`
}

type UpdateSettingsData struct {
	Settings game.RoomSettings `json:"settings"`
}

// Server → Client Messages

// PlayerInfo is the lightweight roster entry used outside full game states.
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
}

type RoomCreatedData struct {
	RoomCode string       `json:"roomCode"`
	PlayerID string       `json:"playerId"`
	Players  []PlayerInfo `json:"players"`
}

type RoomJoinedData struct {
	RoomCode string            `json:"roomCode"`
	PlayerID string            `json:"playerId"`
	Players  []PlayerInfo      `json:"players"`
	Settings game.RoomSettings `json:"settings"`
}

type PlayerJoinedData struct {
	Player PlayerInfo `json:"player"`
}

type PlayerLeftData struct {
	PlayerID string `json:"playerId"`
}

type GameStateData struct {
	State *game.State `json:"state"`
}

type RoomUpdatedData struct {
	Settings game.RoomSettings `json:"settings"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// rosterFromState converts the seat list into roster entries.
func rosterFromState(state *game.State) []PlayerInfo {
	players := make([]PlayerInfo, 0, len(state.Players))
	for _, p := range state.Players {
		players = append(players, PlayerInfo{
			ID:     p.ID,
			Name:   p.Name,
			IsHost: p.ID == state.HostPlayerID,
		})
	}
	return players
}
