// Package worker defines the two loops that race on a shared counter.
package worker

import (
	"fmt"

	"github.com/jba/magicnumber/counter"
)

// A Role says which way a Worker moves the counter.
type Role int

const (
	Incrementer Role = iota
	Decrementer
)

func (r Role) String() string {
	switch r {
	case Incrementer:
		return "incrementer"
	case Decrementer:
		return "decrementer"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// A Worker mutates a counter a fixed number of times.
type Worker struct {
	Role       Role
	Iterations int
}

// Pair returns the two workers of the exercise: one that increments n
// times and one that decrements n+1 times. With correct locking they
// always leave the counter at -1.
func Pair(n int) (inc, dec Worker) {
	return Worker{Role: Incrementer, Iterations: n},
		Worker{Role: Decrementer, Iterations: n + 1}
}

// Run performs all of w's iterations on c. It cannot be stopped early.
// The error is non-nil only if w itself is malformed.
func (w Worker) Run(c *counter.Counter) error {
	var step func() int
	switch w.Role {
	case Incrementer:
		step = c.Increment
	case Decrementer:
		step = c.Decrement
	default:
		return fmt.Errorf("worker: unknown role %v", w.Role)
	}
	if w.Iterations < 0 {
		return fmt.Errorf("worker: %s has negative iteration count %d", w.Role, w.Iterations)
	}
	for range w.Iterations {
		step()
	}
	return nil
}

func (w Worker) String() string {
	return fmt.Sprintf("%s(%d)", w.Role, w.Iterations)
}
