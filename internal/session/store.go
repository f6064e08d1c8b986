// Package session holds the authenticated identity shared by every command
// and dashboard tab. A session is created on login, validated on start and
// torn down on logout.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the session file inside the config directory.
const FileName = "session.yaml"

// ErrNoSession is returned by Load when no session has been saved.
var ErrNoSession = errors.New("no saved session")

// Session is the persisted login state.
type Session struct {
	Token     string    `yaml:"token"`
	UserID    string    `yaml:"user_id"`
	Email     string    `yaml:"email,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Valid reports whether both the token and user id are present.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.UserID != ""
}

// Store reads and writes the session file.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir, usually config.Dir().
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the session file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Load reads the saved session.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var sess Session
	if err := yaml.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return &sess, nil
}

// Save writes sess, creating the directory if needed. The file is only
// readable by the owner since it holds a bearer token.
func (s *Store) Save(sess *Session) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := yaml.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(s.Path(), data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Clear removes the session file. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
