package client

import (
	"sync"

	"github.com/google/uuid"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/models"
)

// SessionStore holds the ordered list of known sessions, newest first.
// The client never re-sorts it; order is established by prepend-on-create.
type SessionStore struct {
	mu       sync.RWMutex
	sessions []models.ChatSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) List() []models.ChatSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ChatSession, len(s.sessions))
	copy(out, s.sessions)
	return out
}

func (s *SessionStore) Get(id uuid.UUID) (models.ChatSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess, true
		}
	}
	return models.ChatSession{}, false
}

func (s *SessionStore) SetAll(sessions []models.ChatSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make([]models.ChatSession, len(sessions))
	copy(s.sessions, sessions)
}

func (s *SessionStore) Prepend(sess models.ChatSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]models.ChatSession{sess}, s.sessions...)
}

func (s *SessionStore) Remove(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sess := range s.sessions {
		if sess.ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			return true
		}
	}
	return false
}

// SetTitle patches a session title in place. Absent id is a no-op.
func (s *SessionStore) SetTitle(id uuid.UUID, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions[i].Title = title
			return true
		}
	}
	return false
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Transcript holds the messages of the currently active session.
// Its contents are only meaningful together with the bound session id;
// Reset swaps both atomically.
type Transcript struct {
	mu        sync.RWMutex
	sessionID uuid.UUID
	messages  []models.Message
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) SessionID() uuid.UUID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sessionID
}

func (t *Transcript) Messages() []models.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Reset binds the transcript to a session and clears its contents.
func (t *Transcript) Reset(sessionID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionID = sessionID
	t.messages = nil
}

func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionID = uuid.Nil
	t.messages = nil
}

func (t *Transcript) Append(m models.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, m)
}

func (t *Transcript) RemoveByID(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, m := range t.messages {
		if m.ID == id {
			t.messages = append(t.messages[:i], t.messages[i+1:]...)
			return true
		}
	}
	return false
}

// ReplaceByID removes the message with the given id and appends the
// replacements. When the id is absent nothing happens — this tolerates
// a rollback racing an already-applied reconciliation.
func (t *Transcript) ReplaceByID(id uuid.UUID, with ...models.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, m := range t.messages {
		if m.ID == id {
			t.messages = append(t.messages[:i], t.messages[i+1:]...)
			t.messages = append(t.messages, with...)
			return true
		}
	}
	return false
}

// SetAll replaces the contents wholesale, but only while the transcript
// is still bound to the given session — a fetch that resolves after the
// user switched away is discarded.
func (t *Transcript) SetAll(sessionID uuid.UUID, messages []models.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sessionID != sessionID {
		return false
	}
	t.messages = make([]models.Message, len(messages))
	copy(t.messages, messages)
	return true
}
