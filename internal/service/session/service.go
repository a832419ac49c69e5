package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	model "messenger-forecast-bot/internal/model/session"
)

// ErrSessionNotFound reports a lookup with an id this store never issued.
// Since ids only come from FindOrCreate, hitting it is a programming error.
var ErrSessionNotFound = errors.New("session not found")

// Store is the conversation-state surface the event pipeline and the NLU
// actions share. Implementations must keep at most one session per external
// user id.
type Store interface {
	FindOrCreate(externalUserID string) (sessionID string, created bool)
	Get(sessionID string) (model.Session, error)
	Context(sessionID string) (model.Context, error)
	SetContext(sessionID string, ctx model.Context) error
}

// MemoryStore keeps sessions for the lifetime of the process. An external
// user id index replaces the reference implementation's linear scan and is
// what enforces the one-session-per-user invariant.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
	byUser   map[string]string
}

// NewMemoryStore bootstraps an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]model.Session),
		byUser:   make(map[string]string),
	}
}

// FindOrCreate returns the existing session id for the user, or provisions a
// fresh session with an empty context. The second result reports whether a
// session was created.
func (s *MemoryStore) FindOrCreate(externalUserID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byUser[externalUserID]; ok {
		return id, false
	}

	sess := model.Session{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Context:        model.Context{},
	}
	s.sessions[sess.ID] = sess
	s.byUser[externalUserID] = sess.ID
	return sess.ID, true
}

// Get retrieves a session by identifier. The context comes back as a copy,
// same as Context, so callers never hold the stored map.
func (s *MemoryStore) Get(sessionID string) (model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return model.Session{}, ErrSessionNotFound
	}
	sess.Context = sess.Context.Clone()
	return sess, nil
}

// Context returns a copy of the session's context, safe to hand to an NLU
// turn for mutation.
func (s *MemoryStore) Context(sessionID string) (model.Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.Context.Clone(), nil
}

// SetContext replaces the session's stored context. Concurrent turns for the
// same session are last-write-wins, matching the single-threaded reference.
func (s *MemoryStore) SetContext(sessionID string, ctx model.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	sess.Context = ctx
	s.sessions[sessionID] = sess
	return nil
}
