// internal/client/session.go
//
// Local session identity, persisted to a JSON file so a restart does not
// force a re-register.

package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Session is the locally cached identity of the registered player.
type Session struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

// sessionPath returns the on-disk location of the session file.
func sessionPath(dataDir string) string {
	return filepath.Join(dataDir, "session.json")
}

// loadSession reads the persisted session. A missing file is not an error;
// it simply means no one has registered from this machine yet.
func loadSession(dataDir string) (Session, error) {
	var s Session
	b, err := os.ReadFile(sessionPath(dataDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, err
	}
	if err := json.Unmarshal(b, &s); err != nil {
		// Corrupt session file: treat as absent rather than failing bootstrap.
		return Session{}, nil
	}
	return s, nil
}

// saveSession writes the session file, creating the data dir if needed.
func saveSession(dataDir string, s Session) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(sessionPath(dataDir), b, 0o644)
}
