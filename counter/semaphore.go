package counter

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// A Semaphore is a counting semaphore with a single permit.
// With one permit it behaves as a mutex: Lock acquires the permit,
// blocking until it is free, and Unlock gives it back.
//
// The zero value is not usable; call NewSemaphore.
type Semaphore struct {
	w *semaphore.Weighted
}

var _ sync.Locker = (*Semaphore)(nil)

// NewSemaphore returns a semaphore whose permit is free.
func NewSemaphore() *Semaphore {
	return &Semaphore{w: semaphore.NewWeighted(1)}
}

// Lock blocks until the permit is free, then takes it.
func (s *Semaphore) Lock() {
	// Acquire only fails when its context is done, and Background never is.
	_ = s.w.Acquire(context.Background(), 1)
}

// TryLock takes the permit if it is free and reports whether it did.
func (s *Semaphore) TryLock() bool {
	return s.w.TryAcquire(1)
}

// Unlock returns the permit. It panics if the permit is not held.
func (s *Semaphore) Unlock() {
	s.w.Release(1)
}

// nopLocker never blocks. A Counter using it is not synchronized at all.
type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// Unsynchronized returns a locker that does nothing.
// It exists to demonstrate lost updates; never use it for real work.
func Unsynchronized() sync.Locker {
	return nopLocker{}
}
