// Package session holds the authenticated identity of the running
// application. A Store is created once per process and passed explicitly to
// whatever needs to gate on identity or role.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pipeline-entry/internal/models"
	"github.com/pipeline-entry/internal/service"
	"github.com/rs/zerolog"
)

// Observer is notified after every login and logout. It receives nil on logout.
type Observer func(*models.Session)

// Store holds at most one session
type Store struct {
	auth service.Authenticator
	log  zerolog.Logger

	mu        sync.RWMutex
	current   *models.Session
	observers []Observer
}

// Verify interface compliance
var _ service.TokenSource = (*Store)(nil)

// NewStore creates an unauthenticated store
func NewStore(auth service.Authenticator, log zerolog.Logger) *Store {
	return &Store{
		auth: auth,
		log:  log.With().Str("component", "session").Logger(),
	}
}

// Login exchanges credentials with the remote API. It reports success as a
// boolean and never returns an error; on failure the store is left
// unauthenticated.
func (s *Store) Login(ctx context.Context, username, password string) bool {
	resp, err := s.auth.Authenticate(ctx, username, password)
	if err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("Login failed")
		return false
	}
	if resp == nil {
		s.log.Warn().Str("username", username).Msg("Login returned no body")
		return false
	}

	id := resp.ID.String()
	if id == "" {
		id = resp.UserID.String()
	}
	if id == "" {
		id = uuid.New().String()
	}

	sess := &models.Session{
		ID:          id,
		Username:    username,
		Role:        models.RoleFromLogin(resp.Role),
		AccessToken: resp.AccessToken,
	}

	s.mu.Lock()
	s.current = sess
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	s.log.Info().
		Str("username", username).
		Str("role", string(sess.Role)).
		Str("returned_role", resp.Role).
		Msg("User logged in")

	notify(observers, sess)
	return true
}

// Logout clears the session. Calling it when nobody is logged in is a no-op
// apart from notifying observers.
func (s *Store) Logout() {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	if prev != nil {
		s.log.Info().Str("username", prev.Username).Msg("User logged out")
	}
	notify(observers, nil)
}

// IsAuthenticated reports whether a session is set
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// Current returns a copy of the current session
func (s *Store) Current() (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.Session{}, false
	}
	return *s.current, true
}

// Role returns the current role, or the empty role when unauthenticated
func (s *Store) Role() models.Role {
	sess, ok := s.Current()
	if !ok {
		return ""
	}
	return sess.Role
}

// Token returns the bearer token of the current session, if any
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.AccessToken
}

// Subscribe registers an observer for login and logout
func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func notify(observers []Observer, sess *models.Session) {
	for _, o := range observers {
		if sess == nil {
			o(nil)
			continue
		}
		cp := *sess
		o(&cp)
	}
}
