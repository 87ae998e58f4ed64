package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"drivesearch/internal/domain"
)

// Session holds a signed-in user's identity and the Google access token
// used as the pipeline credential. It lives for at most the store TTL;
// token refresh is the identity provider's concern, not ours.
type Session struct {
	ID          string
	Email       string
	Name        string
	AccessToken domain.Credential
	ExpiresAt   time.Time
}

// SessionStore is an in-memory session registry keyed by random ids.
type SessionStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]*Session
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session and returns it.
func (s *SessionStore) Create(email, name string, token domain.Credential) *Session {
	sess := &Session{
		ID:          uuid.NewString(),
		Email:       email,
		Name:        name,
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.ttl),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session for id, or domain.ErrNotFound if it is unknown
// or expired. Expired sessions are dropped on lookup.
func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	if time.Now().After(sess.ExpiresAt) {
		s.Delete(id)
		return nil, domain.ErrNotFound
	}
	return sess, nil
}

// Delete removes a session if present.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
