package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/logging"
)

// ErrNotAuthenticated means there is no usable session: none was saved, or
// the backend rejected it.
var ErrNotAuthenticated = errors.New("not authenticated")

// Client is the subset of *api.Client the Manager needs.
type Client interface {
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	Logout(ctx context.Context) (*api.MessageResponse, error)
	Profile(ctx context.Context, userID string) (*api.Profile, error)
	SetToken(token string)
}

// Manager applies the session lifecycle rules against a Store and the
// backend.
type Manager struct {
	store  *Store
	client Client
	logger *logging.Logger
	now    func() time.Time
}

// NewManager creates a Manager.
func NewManager(store *Store, client Client) *Manager {
	return &Manager{
		store:  store,
		client: client,
		logger: logging.With("component", "session"),
		now:    time.Now,
	}
}

// Login authenticates and persists the token and user id.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := m.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		Token:     resp.AccessToken,
		UserID:    resp.UserID,
		Email:     api.NormalizeEmail(email),
		CreatedAt: m.now().UTC(),
	}
	if err := m.store.Save(sess); err != nil {
		return nil, err
	}

	m.logger.Info("logged in", "user_id", sess.UserID)
	return sess, nil
}

// Resume loads the saved session, installs its token on the client and
// validates it with a profile fetch. The saved file is left in place when
// validation fails so a transient outage does not force a new login.
func (m *Manager) Resume(ctx context.Context) (*Session, *api.Profile, error) {
	sess, err := m.store.Load()
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil, ErrNotAuthenticated
		}
		return nil, nil, err
	}
	if !sess.Valid() {
		return nil, nil, ErrNotAuthenticated
	}

	m.client.SetToken(sess.Token)

	profile, err := m.client.Profile(ctx, sess.UserID)
	if err != nil {
		m.client.SetToken("")
		m.logger.Warn("session validation failed", "user_id", sess.UserID, "error", err)
		return nil, nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	if profile.ID == "" {
		m.client.SetToken("")
		return nil, nil, fmt.Errorf("%w: profile has no id", ErrNotAuthenticated)
	}

	return sess, profile, nil
}

// Logout invalidates the token on the backend, then removes every
// persisted key. When the backend call fails the session is kept.
func (m *Manager) Logout(ctx context.Context) error {
	sess, err := m.store.Load()
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return ErrNotAuthenticated
		}
		return err
	}

	m.client.SetToken(sess.Token)
	if _, err := m.client.Logout(ctx); err != nil {
		return err
	}

	m.client.SetToken("")
	if err := m.store.Clear(); err != nil {
		return err
	}

	m.logger.Info("logged out", "user_id", sess.UserID)
	return nil
}
