package session

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"smartfind/internal/domain"
	"smartfind/internal/eventbus"
)

// ErrEmptyToken is returned when Start is given a blank credential
var ErrEmptyToken = errors.New("empty session token")

// Claims are the fields the server puts in its access tokens
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Session holds the bearer credential shared by every request of the process.
// It is safe for concurrent use: commands read it off the UI goroutine.
type Session struct {
	mu        sync.RWMutex
	token     string
	subject   string
	role      string
	expiresAt time.Time
	bus       eventbus.EventBus
	now       func() time.Time
}

// New creates an empty session. bus may be nil.
func New(bus eventbus.EventBus) *Session {
	return &Session{bus: bus, now: time.Now}
}

// Start installs a credential. The token is decoded without verifying its
// signature; the server remains the authority. Opaque tokens are accepted
// and never expire client-side.
func (s *Session) Start(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}

	var claims Claims
	subject, role := "", ""
	var expiresAt time.Time
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil {
		subject = claims.Subject
		role = claims.Role
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
	} else {
		log.Printf("session: token is not a JWT, using it as opaque: %v", err)
	}

	s.mu.Lock()
	s.token = token
	s.subject = subject
	s.role = role
	s.expiresAt = expiresAt
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(domain.SessionStartedEvent{Subject: subject})
	}
	return nil
}

// Clear drops the credential and announces why
func (s *Session) Clear(reason domain.SessionEndReason) {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	s.subject = ""
	s.role = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	if had && s.bus != nil {
		s.bus.Publish(domain.SessionEndedEvent{Reason: reason})
	}
}

// Expire is called when the server rejects the credential
func (s *Session) Expire() {
	s.Clear(domain.SessionExpired)
}

// Token returns the bearer credential, or "" when there is no live session
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expiredLocked() {
		return ""
	}
	return s.token
}

// Active reports whether a non-expired credential is installed
func (s *Session) Active() bool {
	return s.Token() != ""
}

func (s *Session) Subject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subject
}

func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// ExpiresAt is zero for opaque tokens
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

func (s *Session) expiredLocked() bool {
	return !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt)
}

// LoadToken reads a credential from a file, ignoring surrounding whitespace
func LoadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
