// Package counter provides a shared integer that can only be changed
// under a lock.
package counter

import "sync"

// A Counter is an int that is incremented and decremented under a lock.
// It is safe for concurrent use unless it was built with
// WithLocker(Unsynchronized()).
type Counter struct {
	mu       sync.Locker
	value    int
	observer func(prev, next int)
}

// An Option configures a Counter.
type Option func(*Counter)

// WithLocker replaces the default semaphore with l.
// A *sync.Mutex works just as well.
func WithLocker(l sync.Locker) Option {
	return func(c *Counter) {
		c.mu = l
	}
}

// WithObserver registers f to be called after every mutation with the
// value before and after it. f runs inside the critical section, so it
// must not call back into the Counter.
func WithObserver(f func(prev, next int)) Option {
	return func(c *Counter) {
		c.observer = f
	}
}

// New returns a Counter at zero, guarded by a fresh Semaphore unless an
// option says otherwise.
func New(opts ...Option) *Counter {
	c := &Counter{}
	for _, opt := range opts {
		opt(c)
	}
	if c.mu == nil {
		c.mu = NewSemaphore()
	}
	return c
}

// Increment adds one and returns the new value.
func (c *Counter) Increment() int {
	return c.add(1)
}

// Decrement subtracts one and returns the new value.
func (c *Counter) Decrement() int {
	return c.add(-1)
}

func (c *Counter) add(delta int) int {
	c.mu.Lock()
	prev := c.value
	c.value = prev + delta
	next := c.value
	if c.observer != nil {
		c.observer(prev, next)
	}
	c.mu.Unlock()
	return next
}

// Value returns the current value.
func (c *Counter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}
