package counter

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jba/magicnumber/internal/racecheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probe wraps a locker and counts how many goroutines are inside it.
type probe struct {
	l        sync.Locker
	inside   atomic.Int32
	overlaps atomic.Int32
	acquired atomic.Int64
}

func (p *probe) Lock() {
	p.l.Lock()
	if p.inside.Add(1) != 1 {
		p.overlaps.Add(1)
	}
	p.acquired.Add(1)
}

func (p *probe) Unlock() {
	p.inside.Add(-1)
	p.l.Unlock()
}

func TestCounter_Sequential(t *testing.T) {
	assert := assert.New(t)
	c := New()

	assert.Equal(0, c.Value())
	assert.Equal(1, c.Increment())
	assert.Equal(2, c.Increment())
	assert.Equal(1, c.Decrement())
	assert.Equal(0, c.Decrement())
	assert.Equal(-1, c.Decrement())
	assert.Equal(-1, c.Value())
}

func TestCounter_Lockers(t *testing.T) {
	tests := []struct {
		name string
		l    sync.Locker
	}{
		{"semaphore", NewSemaphore()},
		{"mutex", &sync.Mutex{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const n = 50_000
			p := &probe{l: tt.l}
			c := New(WithLocker(p))

			var wg sync.WaitGroup
			wg.Go(func() {
				for range n {
					c.Increment()
				}
			})
			wg.Go(func() {
				for range n + 1 {
					c.Decrement()
				}
			})
			wg.Wait()

			assert.Equal(t, -1, c.Value())
			assert.Zero(t, p.overlaps.Load(), "two goroutines held the lock at once")
			// Every mutation plus the final Value call.
			assert.Equal(t, int64(2*n+1+1), p.acquired.Load())
		})
	}
}

func TestCounter_Observer(t *testing.T) {
	const n = 20_000
	var (
		mutations int
		bad       int
		seq       []int
	)
	c := New(WithObserver(func(prev, next int) {
		mutations++
		if d := next - prev; d != 1 && d != -1 {
			bad++
		}
		seq = append(seq, next)
	}))

	var wg sync.WaitGroup
	wg.Go(func() {
		for range n {
			c.Increment()
		}
	})
	wg.Go(func() {
		for range n + 1 {
			c.Decrement()
		}
	})
	wg.Wait()

	assert.Equal(t, 2*n+1, mutations)
	assert.Zero(t, bad)
	require.Len(t, seq, 2*n+1)
	assert.Equal(t, -1, seq[len(seq)-1])
	for i := 1; i < len(seq); i++ {
		if d := seq[i] - seq[i-1]; d != 1 && d != -1 {
			t.Fatalf("value jumped from %d to %d at mutation %d", seq[i-1], seq[i], i)
		}
	}
}

func TestCounter_Unsynchronized(t *testing.T) {
	if racecheck.Enabled {
		t.Skip("deliberately racy; the race detector would fail it")
	}
	if runtime.NumCPU() < 2 {
		t.Skip("needs more than one CPU to interleave")
	}

	const (
		n      = 1_000_000
		trials = 20
	)
	seen := map[int]bool{}
	for range trials {
		c := New(WithLocker(Unsynchronized()))
		var wg sync.WaitGroup
		wg.Go(func() {
			for range n {
				c.Increment()
			}
		})
		wg.Go(func() {
			for range n + 1 {
				c.Decrement()
			}
		})
		wg.Wait()
		seen[c.Value()] = true
	}
	delete(seen, -1)
	assert.NotEmpty(t, seen, "every unsynchronized run gave -1; expected lost updates")
}

func TestSemaphore_Blocks(t *testing.T) {
	s := NewSemaphore()
	s.Lock()

	acquired := make(chan struct{})
	go func() {
		s.Lock()
		close(acquired)
		s.Unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock returned while the permit was held")
	case <-time.After(50 * time.Millisecond):
	}

	s.Unlock()
	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("second Lock did not return after Unlock")
	}
}

func TestSemaphore_TryLock(t *testing.T) {
	assert := assert.New(t)
	s := NewSemaphore()

	assert.True(s.TryLock())
	assert.False(s.TryLock())
	s.Unlock()
	assert.True(s.TryLock())
	s.Unlock()
}

func TestSemaphore_UnlockUnheld(t *testing.T) {
	s := NewSemaphore()
	assert.Panics(t, s.Unlock)
}

func TestSemaphore_OneOfManyProceeds(t *testing.T) {
	const waiters = 8
	s := NewSemaphore()
	s.Lock()

	var inside atomic.Int32
	var maxInside atomic.Int32
	var wg sync.WaitGroup
	for range waiters {
		wg.Go(func() {
			s.Lock()
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			s.Unlock()
		})
	}
	s.Unlock()
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
}
