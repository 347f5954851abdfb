package filecrate

import (
	"fmt"
	"sync"
)

// SessionRegistry tracks in-flight upload sessions keyed by upload id, so the
// client-driven protocol can submit parts and complete in requests separate
// from initiation. Sessions live for the process lifetime only: a restart
// loses them and the remote multipart upload stays orphaned until the
// bucket's expiry policy reclaims it.
//
// Sessions are independent; the registry holds no cross-session locks.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*UploadSession
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*UploadSession),
	}
}

// Create registers a session under its upload id and returns the id.
func (r *SessionRegistry) Create(session *UploadSession) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.UploadID] = session
	return session.UploadID
}

// Get returns the session for an upload id, or ErrUnknownSession.
func (r *SessionRegistry) Get(uploadID string) (*UploadSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[uploadID]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", uploadID, ErrUnknownSession)
	}
	return session, nil
}

// Remove drops a session. Removing an unknown id is a no-op.
func (r *SessionRegistry) Remove(uploadID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, uploadID)
}

// Len returns the number of tracked sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
