package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/repodeck/workflow"
)

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// Session is one user's generation session. Background work started for
// the session runs under Context, which ends when the session is deleted.
type Session struct {
	ID       string
	Created  time.Time
	Analyzer *workflow.Analyzer

	ctx    context.Context
	cancel context.CancelFunc
}

// Context returns the session's lifetime context.
func (s *Session) Context() context.Context {
	return s.ctx
}

// AnalyzerFactory builds the analyzer for a new session.
type AnalyzerFactory func(sessionID string) *workflow.Analyzer

// Sessions is the registry of live sessions.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  AnalyzerFactory
	base     context.Context
}

// NewSessions creates an empty registry. Session contexts derive from base.
func NewSessions(base context.Context, factory AnalyzerFactory) *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
		factory:  factory,
		base:     base,
	}
}

// Create registers a session with a fresh id.
func (s *Sessions) Create() *Session {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(s.base)
	sess := &Session{
		ID:       id,
		Created:  time.Now(),
		Analyzer: s.factory(id),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session with id.
func (s *Sessions) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes the session and disposes of its deck.
func (s *Sessions) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	sess.cancel()
	if pres := sess.Analyzer.Presentation(); pres != nil {
		pres.Close()
	}
	return nil
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
