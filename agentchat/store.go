package agentchat

import (
	"errors"
	"sync"
)

// DefaultSessionID is used when a turn request names no session.
const DefaultSessionID = "default"

var (
	// ErrSessionBusy is returned when a session already has a turn in
	// flight. Concurrent turns for the same session are rejected rather
	// than queued, so two turns can never interleave their appends.
	ErrSessionBusy = errors.New("session has a turn in flight")
)

// Store is an in-memory, per-session ordered message log. Appends to
// distinct sessions may run concurrently; appends to one session are
// serialized by the turn lease. Sessions live for the process lifetime.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
}

type sessionState struct {
	messages []Message
	busy     bool
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*sessionState),
	}
}

// Acquire leases a session for one turn, creating the session on first
// use. It fails with ErrSessionBusy when another turn holds the lease.
// The lease must be released on every exit path.
func (s *Store) Acquire(sessionID string) (*SessionLease, error) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		state = &sessionState{}
		s.sessions[sessionID] = state
	}
	if state.busy {
		return nil, ErrSessionBusy
	}
	state.busy = true

	return &SessionLease{store: s, sessionID: sessionID}, nil
}

// History returns a copy of a session's message log. The second return
// value reports whether the session exists.
func (s *Store) History(sessionID string) ([]Message, bool) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	history := make([]Message, len(state.messages))
	copy(history, state.messages)
	return history, true
}

// SessionIDs returns the identifiers of all known sessions.
func (s *Store) SessionIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// SessionLease grants one turn exclusive append access to a session.
type SessionLease struct {
	store     *Store
	sessionID string
	released  bool
	mu        sync.Mutex
}

// SessionID returns the leased session's identifier.
func (l *SessionLease) SessionID() string {
	return l.sessionID
}

// History returns a copy of the session's log as of the call.
func (l *SessionLease) History() []Message {
	history, _ := l.store.History(l.sessionID)
	return history
}

// Append commits messages to the session log in order.
func (l *SessionLease) Append(messages ...Message) {
	l.mu.Lock()
	released := l.released
	l.mu.Unlock()
	if released {
		return
	}

	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	state := l.store.sessions[l.sessionID]
	state.messages = append(state.messages, messages...)
}

// Release returns the session to the store. Idempotent.
func (l *SessionLease) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return
	}
	l.released = true

	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	l.store.sessions[l.sessionID].busy = false
}
