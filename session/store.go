package session

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotFound  = errors.New("session not found")
	ErrStoreFull = errors.New("too many sessions")
)

type entry struct {
	session  *Session
	lastUsed time.Time
}

// Store keeps sessions by ID. Safe for concurrent use. Sessions not used for
// the idle timeout are dropped, and at most max sessions are kept.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	create   func() *Session
	idle     time.Duration
	max      int
	now      func() time.Time
}

type StoreOption func(*Store)

// WithIdleTimeout drops sessions unused for d. Zero keeps them forever.
func WithIdleTimeout(d time.Duration) StoreOption {
	return func(st *Store) {
		st.idle = d
	}
}

// WithMaxSessions caps the number of live sessions. Zero means no cap.
func WithMaxSessions(n int) StoreOption {
	return func(st *Store) {
		st.max = n
	}
}

func NewStore(create func() *Session, opts ...StoreOption) *Store {
	st := &Store{
		sessions: make(map[string]*entry),
		create:   create,
		now:      time.Now,
	}
	for _, o := range opts {
		o(st)
	}
	return st
}

func (st *Store) New() (*Session, error) {
	st.mu.Lock()
	stopped := st.expireLocked()
	if st.max > 0 && len(st.sessions) >= st.max {
		st.mu.Unlock()
		stopAll(stopped)
		return nil, errors.Wrapf(ErrStoreFull, "limit %d", st.max)
	}
	s := st.create()
	st.sessions[s.ID] = &entry{session: s, lastUsed: st.now()}
	st.mu.Unlock()

	stopAll(stopped)
	return s, nil
}

// Get returns a session and marks it used.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.sessions[id]
	if !ok || st.expired(e) {
		return nil, errors.Wrapf(ErrNotFound, "%q", id)
	}
	e.lastUsed = st.now()
	return e.session, nil
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	e := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if e != nil {
		e.session.Stop()
	}
}

// Expire drops every idle session and returns how many went.
func (st *Store) Expire() int {
	st.mu.Lock()
	stopped := st.expireLocked()
	st.mu.Unlock()
	stopAll(stopped)
	return len(stopped)
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) expired(e *entry) bool {
	return st.idle > 0 && st.now().Sub(e.lastUsed) >= st.idle
}

func (st *Store) expireLocked() []*Session {
	var res []*Session
	for id, e := range st.sessions {
		if st.expired(e) {
			delete(st.sessions, id)
			res = append(res, e.session)
		}
	}
	return res
}

func stopAll(sessions []*Session) {
	for _, s := range sessions {
		s.Stop()
	}
}
