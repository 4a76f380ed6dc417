// Package keylock provides context-aware mutual exclusion keyed by string.
//
// Each key gets its own lock on first use; the lock is dropped again once no
// goroutine holds or waits for it, so a Set tracks only keys in active use.
// Holders of different keys never contend with each other.
package keylock

import (
	"context"
	"sync"
)

// Set is a collection of per-key locks. The zero value is not usable; call New.
type Set struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

// New creates an empty Set.
func New() *Set {
	return &Set{locks: make(map[string]*entry)}
}

// Lock blocks until the lock for key is held or ctx is done. On success the
// returned function releases the lock and must be called exactly once.
func (s *Set) Lock(ctx context.Context, key string) (func(), error) {
	s.mu.Lock()
	e, ok := s.locks[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		s.locks[key] = e
	}
	e.refs++
	s.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.sem
				s.release(key, e)
			})
		}, nil
	case <-ctx.Done():
		s.release(key, e)
		return nil, ctx.Err()
	}
}

// Len reports how many keys currently have holders or waiters.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

func (s *Set) release(key string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(s.locks, key)
	}
}
