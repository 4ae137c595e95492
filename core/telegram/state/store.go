package state

import "sync"

// Store maps Telegram user IDs to session values of type T.
type Store[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]T

	locksMu sync.Mutex
	locks   map[int64]*userLock
}

type userLock struct {
	mu sync.Mutex
	// refs counts holders plus waiters; the entry is dropped at zero.
	refs int
}

// NewStore constructs an empty in-memory Store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{sessions: make(map[int64]T), locks: make(map[int64]*userLock)}
}

// Get returns the session for userID and whether one exists.
func (s *Store[T]) Get(userID int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.sessions[userID]
	return v, ok
}

// Set stores (or replaces) the session for userID.
func (s *Store[T]) Set(userID int64, v T) {
	s.mu.Lock()
	s.sessions[userID] = v
	s.mu.Unlock()
}

// Remove deletes the session for userID. Removing a missing session is a no-op.
func (s *Store[T]) Remove(userID int64) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// Has reports whether userID has an active session.
func (s *Store[T]) Has(userID int64) bool {
	_, ok := s.Get(userID)
	return ok
}

// Len returns the number of active sessions.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Lock acquires the per-user mutex and returns its release function.
// Events for the same user are processed one at a time while holding it.
// A user's mutex lives only while someone holds or waits for it.
func (s *Store[T]) Lock(userID int64) (unlock func()) {
	s.locksMu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			s.locksMu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(s.locks, userID)
			}
			s.locksMu.Unlock()
		})
	}
}

func (s *Store[T]) lockEntries() int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}
