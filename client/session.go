package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

const (
	RoleStudent    = "student"
	RoleSubAdmin   = "sub_admin"
	RoleSuperAdmin = "super_admin"
)

// ErrInvalidSession is returned when a login payload fails schema
// validation; nothing is persisted in that case.
var ErrInvalidSession = errors.New("invalid session payload")

type User struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	IsSetupComplete bool   `json:"isSetupComplete"`
	IsSubAdmin      bool   `json:"isSubAdmin"`
}

type Session struct {
	AccessToken  string
	RefreshToken string
	User         User
}

// SessionStore owns the persisted session. It is handed to consumers
// explicitly; there is no package-level instance.
type SessionStore struct {
	mu      sync.RWMutex
	storage Storage
	current *Session
}

// NewSessionStore hydrates from storage. A corrupt or partial persisted
// session is treated as logged out and the stale keys are removed.
func NewSessionStore(storage Storage) *SessionStore {
	s := &SessionStore{storage: storage}

	access, okAccess := storage.Get(KeyAccessToken)
	refresh, okRefresh := storage.Get(KeyRefreshToken)
	rawUser, okUser := storage.Get(KeyUser)
	if !okAccess && !okRefresh && !okUser {
		return s
	}

	var user User
	if !okAccess || !okRefresh || !okUser || json.Unmarshal([]byte(rawUser), &user) != nil || validateSession(access, refresh, user) != nil {
		s.Logout()
		return s
	}

	s.current = &Session{AccessToken: access, RefreshToken: refresh, User: user}
	return s
}

// Login validates the payload before anything touches storage, so a
// malformed server response can never produce a half-written session.
func (s *SessionStore) Login(accessToken, refreshToken string, user User) error {
	if err := validateSession(accessToken, refreshToken, user); err != nil {
		return err
	}

	rawUser, err := json.Marshal(user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Set(KeyAccessToken, accessToken); err != nil {
		return err
	}
	if err := s.storage.Set(KeyRefreshToken, refreshToken); err != nil {
		return err
	}
	if err := s.storage.Set(KeyUser, string(rawUser)); err != nil {
		return err
	}
	s.current = &Session{AccessToken: accessToken, RefreshToken: refreshToken, User: user}
	return nil
}

// Logout clears the session. Calling it while logged out is a no-op.
func (s *SessionStore) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.storage.Delete(KeyAccessToken)
	_ = s.storage.Delete(KeyRefreshToken)
	_ = s.storage.Delete(KeyUser)
	s.current = nil
}

// Session returns a copy of the current session; ok is false when logged
// out.
func (s *SessionStore) Session() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// SetTokens swaps the token pair after a refresh, leaving the user intact.
func (s *SessionStore) SetTokens(accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrInvalidSession
	}
	if accessToken == "" || refreshToken == "" {
		return ErrInvalidSession
	}
	if err := s.storage.Set(KeyAccessToken, accessToken); err != nil {
		return err
	}
	if err := s.storage.Set(KeyRefreshToken, refreshToken); err != nil {
		return err
	}
	s.current.AccessToken = accessToken
	s.current.RefreshToken = refreshToken
	return nil
}

func (s *SessionStore) IsAuthenticated() bool {
	_, ok := s.Session()
	return ok
}

func (s *SessionStore) Role() string {
	sess, ok := s.Session()
	if !ok {
		return ""
	}
	return sess.User.Role
}

func (s *SessionStore) IsAdmin() bool {
	role := s.Role()
	return role == RoleSubAdmin || role == RoleSuperAdmin
}

func (s *SessionStore) IsSuperAdmin() bool {
	return s.Role() == RoleSuperAdmin
}

func validateSession(accessToken, refreshToken string, user User) error {
	if accessToken == "" {
		return fmt.Errorf("%w: missing access token", ErrInvalidSession)
	}
	if refreshToken == "" {
		return fmt.Errorf("%w: missing refresh token", ErrInvalidSession)
	}
	if user.ID == "" || user.Email == "" {
		return fmt.Errorf("%w: incomplete user", ErrInvalidSession)
	}
	switch user.Role {
	case RoleStudent, RoleSubAdmin, RoleSuperAdmin:
		return nil
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidSession, user.Role)
	}
}
