// internal/session/memory.go
package session

import (
	"context"
	"sync"
	"time"

	apperrors "scribe-api/internal/common/errors"
	"scribe-api/internal/common/metrics"
)

// MemoryStore keeps sessions in process memory. It backs development
// setups without Redis; state is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	maxAge   time.Duration
	now      func() time.Time
}

// NewMemoryStore returns a store with the given idle lifetime. Zero or
// negative lifetimes fall back to the default.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &MemoryStore{
		sessions: make(map[string]*Session),
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Save stores the session and takes the opportunity to drop idle ones,
// so abandoned logins do not pile up for the life of the process.
func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked()

	stored := *sess
	stored.LastSeenAt = s.now().UTC()
	s.sessions[sess.ID] = &stored

	metrics.SessionStoreOps.WithLabelValues("save", "ok").Inc()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[id]
	if !ok {
		metrics.SessionStoreOps.WithLabelValues("get", "miss").Inc()
		return nil, apperrors.NewAuthenticationError("session not found")
	}
	if s.expired(stored) {
		delete(s.sessions, id)
		metrics.SessionStoreOps.WithLabelValues("get", "expired").Inc()
		return nil, apperrors.NewAuthenticationError("session expired")
	}

	metrics.SessionStoreOps.WithLabelValues("get", "ok").Inc()
	result := *stored
	return &result, nil
}

func (s *MemoryStore) Touch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[id]
	if !ok || s.expired(stored) {
		metrics.SessionStoreOps.WithLabelValues("touch", "miss").Inc()
		return apperrors.NewAuthenticationError("session not found")
	}
	stored.LastSeenAt = s.now().UTC()

	metrics.SessionStoreOps.WithLabelValues("touch", "ok").Inc()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	metrics.SessionStoreOps.WithLabelValues("delete", "ok").Inc()
	return nil
}

// PurgeExpired drops idle sessions and returns how many were removed.
func (s *MemoryStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purgeLocked()
}

func (s *MemoryStore) purgeLocked() int {
	removed := 0
	for id, stored := range s.sessions {
		if s.expired(stored) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) expired(stored *Session) bool {
	return s.now().UTC().Sub(stored.LastSeenAt) > s.maxAge
}
