// Package game implements the authoritative state machine for a single
// Salute room: the round/turn phase machines, every player operation, and
// the per-player sanitized projection that goes out on the wire.
//
// A State is not safe for concurrent use; the server serializes access per
// room so each operation runs validate-then-mutate to completion.
package game

import (
	"time"

	"github.com/Anshuman71/salute/internal/deck"
)

// RoundPhase is the room-level phase machine:
// waiting -> playing -> scoring <-> playing -> finished.
type RoundPhase string

const (
	PhaseWaiting  RoundPhase = "waiting"
	PhaseDealing  RoundPhase = "dealing"
	PhasePlaying  RoundPhase = "playing"
	PhaseScoring  RoundPhase = "scoring"
	PhaseFinished RoundPhase = "finished"
)

// TurnPhase is the nested per-turn machine: each turn is a play followed by
// a draw, after which the turn passes to the next player.
type TurnPhase string

const (
	TurnPlay TurnPhase = "play"
	TurnDraw TurnPhase = "draw"
)

// DrawSource selects where the current player draws from.
type DrawSource string

const (
	DrawDeck    DrawSource = "deck"
	DrawDiscard DrawSource = "discard"
)

// TieBreak selects who wins a round when the lowest score is shared.
type TieBreak string

const (
	// TieBreakOpponent awards a tied round to a non-caller, discouraging
	// frivolous win calls. This is the default.
	TieBreakOpponent TieBreak = "opponent"
	// TieBreakCaller awards a tied round to the caller.
	TieBreakCaller TieBreak = "caller"
)

const (
	MinTotalRounds = 3
	MaxTotalRounds = 12
	MaxPlayers     = 6
	MinPlayers     = 2
)

// RoomSettings are host-tunable options, frozen once the game starts.
type RoomSettings struct {
	TotalRounds int `json:"totalRounds"`
	MaxPlayers  int `json:"maxPlayers"`
}

// DefaultSettings returns the settings used when create_room omits them.
func DefaultSettings() RoomSettings {
	return RoomSettings{TotalRounds: 5, MaxPlayers: MaxPlayers}
}

// Player is a seat in a room. Seats are never removed while the room lives;
// disconnects only flip IsConnected so the player can rejoin by ID.
type Player struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Hand        []deck.Card `json:"hand"`
	RoundsWon   int         `json:"roundsWon"`
	IsConnected bool        `json:"isConnected"`
}

// State is the authoritative game state of one room. Index 0 of Players is
// the host; join order is fixed for the lifetime of the room.
type State struct {
	RoomCode             string        `json:"roomCode"`
	Players              []*Player     `json:"players"`
	Deck                 []deck.Card   `json:"deck"`
	DiscardPile          []deck.Card   `json:"discardPile"`
	CurrentPlayerIndex   int           `json:"currentPlayerIndex"`
	CurrentRound         int           `json:"currentRound"`
	TotalRounds          int           `json:"totalRounds"`
	CardsPerRound        int           `json:"cardsPerRound"`
	RoundPhase           RoundPhase    `json:"roundPhase"`
	TurnPhase            TurnPhase     `json:"turnPhase"`
	LastPlayedCards      []deck.Card   `json:"lastPlayedCards"`
	TurnsPlayedThisRound int           `json:"turnsPlayedThisRound"`
	LastPlayerWhoPlayed  string        `json:"lastPlayerWhoPlayed,omitempty"`
	GameWinner           *Player       `json:"gameWinner"`
	Settings             RoomSettings  `json:"settings"`
	HostPlayerID         string        `json:"hostPlayerId"`
	CreatedAt            time.Time     `json:"createdAt"`
}

// NewState creates a room in the waiting phase with the host seated.
func NewState(roomCode, hostName, hostID string, settings RoomSettings, now time.Time) *State {
	return &State{
		RoomCode: roomCode,
		Players: []*Player{{
			ID:          hostID,
			Name:        hostName,
			Hand:        []deck.Card{},
			IsConnected: true,
		}},
		Deck:            []deck.Card{},
		DiscardPile:     []deck.Card{},
		TotalRounds:     settings.TotalRounds,
		CardsPerRound:   settings.TotalRounds,
		RoundPhase:      PhaseWaiting,
		TurnPhase:       TurnPlay,
		LastPlayedCards: []deck.Card{},
		Settings:        settings,
		HostPlayerID:    hostID,
		CreatedAt:       now,
	}
}

// FindPlayer returns the seated player with the given ID, or nil.
func (s *State) FindPlayer(playerID string) *Player {
	for _, p := range s.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// CurrentPlayer returns the player whose turn it is.
func (s *State) CurrentPlayer() *Player {
	return s.Players[s.CurrentPlayerIndex]
}

// Validate checks settings bounds before they are applied.
func (rs RoomSettings) Validate() error {
	if rs.TotalRounds < MinTotalRounds || rs.TotalRounds > MaxTotalRounds {
		return ErrInvalidSettings
	}
	if rs.MaxPlayers < MinPlayers || rs.MaxPlayers > MaxPlayers {
		return ErrInvalidSettings
	}
	return nil
}
