package service

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// SessionLock allows at most one sync per session at a time
type SessionLock struct {
	sem *semaphore.Weighted
}

// NewSessionLock creates a new SessionLock
func NewSessionLock() *SessionLock {
	return &SessionLock{sem: semaphore.NewWeighted(1)}
}

// TryLock takes the lock if it is free and reports whether it did
func (l *SessionLock) TryLock() bool {
	return l.sem.TryAcquire(1)
}

// Lock waits for the lock until ctx is done
func (l *SessionLock) Lock(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

// Unlock releases the lock. Unlocking a free lock panics.
func (l *SessionLock) Unlock() {
	l.sem.Release(1)
}

// userLocks hands out one mutex per user and drops it once nobody holds or waits for it
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

// lock blocks until the user's mutex is held and returns its release func
func (u *userLocks) lock(userID string) func() {
	u.mu.Lock()
	l, ok := u.locks[userID]
	if !ok {
		l = &userLock{}
		u.locks[userID] = l
	}
	l.refs++
	u.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		u.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(u.locks, userID)
		}
		u.mu.Unlock()
	}
}

func (u *userLocks) len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.locks)
}
