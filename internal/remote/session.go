package remote

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Session is the persisted sign-in state. The identity selects the user
// namespace; the token authenticates against the document store. An empty
// identity means signed out (guest).
type Session struct {
	Identity string `json:"identity"`
	Token    string `json:"token,omitempty"`
}

// SignedIn reports whether an identity is active.
func (s Session) SignedIn() bool {
	return s.Identity != ""
}

func sessionPath(baseDir string) string {
	return filepath.Join(baseDir, "session.json")
}

// LoadSession reads the session from baseDir/session.json. A missing or
// unreadable file is a signed-out session, never an error worth failing on.
func LoadSession(baseDir string) Session {
	data, err := os.ReadFile(sessionPath(baseDir))
	if err != nil {
		return Session{}
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}
	}
	s.Identity = strings.TrimSpace(s.Identity)
	return s
}

// SaveSession persists the session with owner-only permissions (it carries
// the token).
func SaveSession(baseDir string, s Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(sessionPath(baseDir), data, 0600)
}

// ClearSession signs out by removing the session file.
func ClearSession(baseDir string) error {
	err := os.Remove(sessionPath(baseDir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
