package conversation

import (
	"context"
	"sync"
)

// State identifies where in the registration dialogue a user currently is.
type State string

const (
	StateStart             State = "start"
	StateConfirmStore      State = "confirm_store"
	StateAskSeats          State = "ask_seats"
	StateConfirmSeats      State = "confirm_seats"
	StateWaitTemplateImage State = "wait_template_img"
	StateConfirmTimes      State = "confirm_times"
	StateWaitFilledImage   State = "wait_filled_img"
	StateDone              State = "done"
)

// States lists every defined dialogue state.
var States = []State{
	StateStart,
	StateConfirmStore,
	StateAskSeats,
	StateConfirmSeats,
	StateWaitTemplateImage,
	StateConfirmTimes,
	StateWaitFilledImage,
	StateDone,
}

// Valid reports whether s is one of the defined dialogue states.
func (s State) Valid() bool {
	switch s {
	case StateStart, StateConfirmStore, StateAskSeats, StateConfirmSeats,
		StateWaitTemplateImage, StateConfirmTimes, StateWaitFilledImage, StateDone:
		return true
	}
	return false
}

// Session is the per-user conversational state record.
type Session struct {
	UserID    string   `json:"user_id"`
	State     State    `json:"state"`
	StoreName string   `json:"store_name,omitempty"`
	StoreID   int      `json:"store_id,omitempty"`
	SeatInfo  string   `json:"seat_info,omitempty"`
	TimeSlots []string `json:"time_slots,omitempty"`
	SheetURL  string   `json:"sheet_url,omitempty"`
}

// NewSession creates a session in the initial state.
func NewSession(userID string) *Session {
	return &Session{UserID: userID, State: StateStart}
}

// SessionStore persists sessions keyed by user id.
type SessionStore interface {
	// Get returns the session for userID, or nil when none exists.
	Get(ctx context.Context, userID string) (*Session, error)
	// Put stores the session under its user id.
	Put(ctx context.Context, sess *Session) error
}

// MemorySessionStore keeps sessions in a process-local map. Conversations do
// not survive a restart with this backend.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]Session)}
}

// Get returns a copy of the stored session, or nil when absent.
func (s *MemorySessionStore) Get(_ context.Context, userID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	out := sess
	out.TimeSlots = append([]string(nil), sess.TimeSlots...)
	return &out, nil
}

// Put stores a copy of sess.
func (s *MemorySessionStore) Put(_ context.Context, sess *Session) error {
	if sess == nil || sess.UserID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *sess
	stored.TimeSlots = append([]string(nil), sess.TimeSlots...)
	s.sessions[sess.UserID] = stored
	return nil
}

// userLocks serializes event handling per user so a slow extraction and a
// fast follow-up message cannot interleave session updates.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *userLocks) lock(userID string) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
