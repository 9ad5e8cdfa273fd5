package services

import "sync"

// SessionLocks serializes turns that share a session id within this process.
// Entries are reference counted and dropped once nobody holds or waits on them.
type SessionLocks struct {
	mu sync.Mutex
	m  map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewSessionLocks returns an empty lock table.
func NewSessionLocks() *SessionLocks {
	return &SessionLocks{m: make(map[string]*sessionLock)}
}

// Lock blocks until the caller owns id and returns the matching unlock.
func (l *SessionLocks) Lock(id string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.m[id]
	if !ok {
		e = &sessionLock{}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}

// size reports how many ids currently have holders or waiters.
func (l *SessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
