// Package session keeps the signed-in user's token and profile behind a
// small key/value capability, so views receive an explicit Session instead
// of reading shared global state.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	TokenKey = "auth_token"
	UserKey  = "user"
)

var (
	ErrNotFound              = errors.New("session: key not found")
	ErrAuthenticationMissing = errors.New("not signed in")
)

// Store is the persistence capability behind a Manager. Get returns
// ErrNotFound for missing keys; Clear of a missing key succeeds.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Clear(key string) error
}

type User struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Session struct {
	Token string
	User  User
}

// DisplayName is the user's name, falling back to "User".
func (s Session) DisplayName() string {
	if name := strings.TrimSpace(s.User.Name); name != "" {
		return name
	}
	return "User"
}

type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Current loads the session. A missing token, a missing profile or an
// unreadable profile all yield ErrAuthenticationMissing; partial state is
// cleared on the way out.
func (m *Manager) Current() (Session, error) {
	token, err := m.store.Get(TokenKey)
	if errors.Is(err, ErrNotFound) || (err == nil && strings.TrimSpace(token) == "") {
		return Session{}, ErrAuthenticationMissing
	}
	if err != nil {
		return Session{}, fmt.Errorf("read token: %w", err)
	}

	raw, err := m.store.Get(UserKey)
	if errors.Is(err, ErrNotFound) {
		if err := m.store.Clear(TokenKey); err != nil {
			return Session{}, fmt.Errorf("clear token: %w", err)
		}
		return Session{}, ErrAuthenticationMissing
	}
	if err != nil {
		return Session{}, fmt.Errorf("read user: %w", err)
	}

	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		if err := m.Clear(); err != nil {
			return Session{}, err
		}
		return Session{}, ErrAuthenticationMissing
	}
	return Session{Token: token, User: user}, nil
}

func (m *Manager) Save(s Session) error {
	if strings.TrimSpace(s.Token) == "" {
		return errors.New("session token is empty")
	}
	data, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := m.store.Set(TokenKey, s.Token); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := m.store.Set(UserKey, string(data)); err != nil {
		return fmt.Errorf("write user: %w", err)
	}
	return nil
}

// Clear signs the user out.
func (m *Manager) Clear() error {
	if err := m.store.Clear(TokenKey); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	if err := m.store.Clear(UserKey); err != nil {
		return fmt.Errorf("clear user: %w", err)
	}
	return nil
}

// Token returns the bearer token of the current session.
func (m *Manager) Token() (string, error) {
	s, err := m.Current()
	if err != nil {
		return "", err
	}
	return s.Token, nil
}
