package fleetapi

import (
	"fmt"
	"sync"
	"time"

	"github.com/erazemk/fleetdesk/internal/auth"
)

// Session carries the bearer token for one signed-in user. It is passed to
// the Client explicitly and may be shared between clients.
type Session struct {
	mu      sync.RWMutex
	token   string
	expires time.Time
}

// NewSession wraps an existing token. An empty token gives a signed-out
// session.
func NewSession(token string) (*Session, error) {
	s := &Session{}
	if token == "" {
		return s, nil
	}
	if err := s.Set(token); err != nil {
		return nil, err
	}
	return s, nil
}

// Set replaces the token.
func (s *Session) Set(token string) error {
	exp, err := auth.PeekExpiry(token)
	if err != nil {
		return fmt.Errorf("reading session token: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.expires = exp
	s.mu.Unlock()
	return nil
}

// Clear signs the session out.
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	s.expires = time.Time{}
	s.mu.Unlock()
}

// Token returns the current token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Expires returns the token expiry. Zero means none was given.
func (s *Session) Expires() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expires
}

// bearer returns the token to send at now.
func (s *Session) bearer(now time.Time) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrUnauthorized
	}
	if !s.expires.IsZero() && !now.Before(s.expires) {
		return "", ErrSessionExpired
	}
	return s.token, nil
}
