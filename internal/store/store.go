// Package store provides optional room persistence. The in-memory game
// state is always authoritative; stores are write-behind snapshots used to
// survive process restarts. A failing or disabled store must never affect
// gameplay, so every caller treats store errors as log-and-continue.
package store

import (
	"time"

	"github.com/Anshuman71/salute/internal/game"
)

// Store persists room snapshots keyed by room code.
type Store interface {
	// LoadRoom returns the stored state for code, or (nil, nil) when the
	// room is not present.
	LoadRoom(code string) (*game.State, error)
	// SaveRoom snapshots the full state of a room.
	SaveRoom(state *game.State) error
	// DeleteExpiredRooms removes every room created before cutoff.
	DeleteExpiredRooms(cutoff time.Time) error
}

// NopStore is the disabled-persistence store. All operations succeed and
// load nothing.
type NopStore struct{}

func (NopStore) LoadRoom(string) (*game.State, error) { return nil, nil }
func (NopStore) SaveRoom(*game.State) error           { return nil }
func (NopStore) DeleteExpiredRooms(time.Time) error   { return nil }
