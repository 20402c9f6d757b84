// Package store persists session identity so a restarted client can
// rejoin its game. Data lives in ~/.local/state/quiznova/session.json
// (respecting XDG_STATE_HOME) and has no expiry: stale identity persists
// until overwritten or cleared.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/quiznova/tui/internal/session"
)

const (
	sessionFileName = "session.json"
	appDirName      = "quiznova"
)

// record is the on-disk shape. isHost is a string for compatibility with
// the browser client's storage format.
type record struct {
	PlayerName string `json:"playerName"`
	IsHost     string `json:"isHost"`
	GamePin    string `json:"gamePin"`
}

// Store reads and writes session identity in a directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. Pass an empty string to use the
// default XDG state path. The directory is created on the first Save.
func New(dir string) *Store {
	if dir == "" {
		dir = defaultStateDir()
	}
	return &Store{dir: dir}
}

// Path returns the full path to the session file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, sessionFileName)
}

// Load reads the stored identity. The second return is false when no
// identity has been saved, or the file is unreadable or malformed.
func (s *Store) Load() (session.Identity, bool, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return session.Identity{}, false, nil
		}
		return session.Identity{}, false, fmt.Errorf("reading session: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return session.Identity{}, false, fmt.Errorf("parsing session: %w", err)
	}
	if rec.GamePin == "" || rec.PlayerName == "" {
		return session.Identity{}, false, nil
	}
	isHost, _ := strconv.ParseBool(rec.IsHost)
	return session.Identity{
		PlayerName: rec.PlayerName,
		IsHost:     isHost,
		GamePin:    rec.GamePin,
	}, true, nil
}

// Save writes the identity using an atomic temp-file-then-rename pattern.
func (s *Store) Save(ident session.Identity) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	data, err := json.MarshalIndent(record{
		PlayerName: ident.PlayerName,
		IsHost:     strconv.FormatBool(ident.IsHost),
		GamePin:    ident.GamePin,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return fmt.Errorf("renaming session file: %w", err)
	}
	committed = true

	return nil
}

// Clear removes the stored identity. Removing a missing file is not an
// error.
func (s *Store) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// defaultStateDir returns ~/.local/state/quiznova, respecting
// XDG_STATE_HOME if set.
func defaultStateDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}
