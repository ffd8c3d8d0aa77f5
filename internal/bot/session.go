package bot

import "sync"

// State is the conversation step a chat is currently in.
type State int

const (
	StateMenu State = iota
	StateChoosingDate
	StateChoosingTime
	StateConfirmCancel
)

// Session binds a Telegram user to a verified phone number and carries
// the short-lived flow data between callback taps. Sessions live in
// memory only; after a restart users re-authenticate via /start.
type Session struct {
	Phone           string
	State           State
	SelectedDate    string
	PendingCancelID string
}

// Store is a concurrency-safe map of Telegram user id to session.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]Session)}
}

// Bind registers an authenticated user, resetting any previous flow state.
func (s *Store) Bind(userID int64, phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = Session{Phone: phone, State: StateMenu}
}

// Get returns a copy of the session, if the user is authenticated.
func (s *Store) Get(userID int64) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// Set replaces the flow state for an already-bound user. A no-op for
// unknown users, so handlers cannot accidentally create anonymous sessions.
func (s *Store) Set(userID int64, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[userID]; !ok {
		return
	}
	s.sessions[userID] = sess
}

// ToMenu clears flow data and returns the user to the main menu state.
func (s *Store) ToMenu(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return
	}
	s.sessions[userID] = Session{Phone: sess.Phone, State: StateMenu}
}

// Drop removes the session entirely.
func (s *Store) Drop(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
