package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Anshuman71/salute/internal/fileutil"
	"github.com/Anshuman71/salute/internal/game"
	"github.com/Anshuman71/salute/internal/roomcode"
)

// FileStore keeps one JSON snapshot per room under a base directory.
// Snapshots are written atomically so a crash mid-save never leaves a
// corrupt file behind.
type FileStore struct {
	dir    string
	logger *log.Logger
}

// NewFileStore creates the base directory if needed.
func NewFileStore(dir string, logger *log.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger.WithPrefix("store")}, nil
}

func (fs *FileStore) path(code string) string {
	return filepath.Join(fs.dir, code+".json")
}

// LoadRoom reads a snapshot back. Unknown codes return (nil, nil).
func (fs *FileStore) LoadRoom(code string) (*game.State, error) {
	if err := roomcode.Validate(code); err != nil {
		return nil, nil
	}

	data, err := os.ReadFile(fs.path(code))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read room snapshot: %w", err)
	}

	var state game.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode room snapshot %s: %w", code, err)
	}
	return &state, nil
}

// SaveRoom snapshots the room as pretty-printed JSON.
func (fs *FileStore) SaveRoom(state *game.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode room %s: %w", state.RoomCode, err)
	}
	return fileutil.WriteFileAtomic(fs.path(state.RoomCode), data, 0o644)
}

// DeleteExpiredRooms removes snapshots of rooms created before cutoff.
// Unreadable snapshots are removed too; a file we cannot decode is of no
// use for hydration.
func (fs *FileStore) DeleteExpiredRooms(cutoff time.Time) error {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return fmt.Errorf("failed to list store directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		code := strings.TrimSuffix(entry.Name(), ".json")

		state, err := fs.LoadRoom(code)
		if err != nil || state == nil {
			fs.logger.Warn("Removing unreadable room snapshot", "file", entry.Name(), "error", err)
			_ = os.Remove(fs.path(code))
			continue
		}
		if state.CreatedAt.Before(cutoff) {
			fs.logger.Info("Removing expired room snapshot", "room", code, "createdAt", state.CreatedAt)
			if err := os.Remove(fs.path(code)); err != nil {
				fs.logger.Error("Failed to remove expired snapshot", "room", code, "error", err)
			}
		}
	}
	return nil
}
