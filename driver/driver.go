// Package driver runs the magic-number exercise: it builds the shared
// counter, starts an incrementer and a decrementer, joins both and
// reports the final value.
package driver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jba/magicnumber/counter"
	"github.com/jba/magicnumber/worker"
	"golang.org/x/sync/errgroup"
)

// DefaultN is the number of increments in the classic exercise.
// The decrementer runs one more time than this.
const DefaultN = 1_000_000

var ErrNegativeN = errors.New("iteration count must not be negative")

// Config describes one run.
type Config struct {
	N int // increments; the decrementer does N+1

	// Unsynchronized bypasses the lock entirely. The result is then
	// whatever the interleaving produced. For demonstration only.
	Unsynchronized bool

	CounterOptions []counter.Option // applied after the locker choice
	Logger         *slog.Logger     // nil discards
}

// Validate checks that the configuration can be run.
func (c *Config) Validate() error {
	if c.N < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeN, c.N)
	}
	return nil
}

// State is where a Driver is in its single pass.
type State int

const (
	StateInit State = iota
	StateLockReady
	StateWorkersRunning
	StateBothJoined
	StateReported
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateLockReady:
		return "LockReady"
	case StateWorkersRunning:
		return "WorkersRunning"
	case StateBothJoined:
		return "BothJoined"
	case StateReported:
		return "Reported"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Result is what a completed run observed.
type Result struct {
	N          int
	Increments int
	Decrements int
	Value      int
	Elapsed    time.Duration
}

// A Driver owns the counter and its lock for the length of one run.
type Driver struct {
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// New validates cfg and returns a Driver in StateInit.
func New(cfg *Config) (*Driver, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{cfg: *cfg, logger: logger}, nil
}

// State returns the driver's current state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Driver) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
	d.logger.Debug("driver state", "state", s)
}

// Run performs the exercise once and writes the report line to w.
// A Driver can only be run once.
func (d *Driver) Run(w io.Writer) (Result, error) {
	if s := d.State(); s != StateInit {
		return Result{}, fmt.Errorf("driver already run (state %s)", s)
	}

	var opts []counter.Option
	if d.cfg.Unsynchronized {
		d.logger.Warn("running without a lock; the result is not meaningful")
		opts = append(opts, counter.WithLocker(counter.Unsynchronized()))
	}
	opts = append(opts, d.cfg.CounterOptions...)
	c := counter.New(opts...)
	d.setState(StateLockReady)

	inc, dec := worker.Pair(d.cfg.N)
	start := time.Now()
	var g errgroup.Group
	for _, wk := range []worker.Worker{inc, dec} {
		g.Go(func() error {
			d.logger.Debug("worker started", "worker", wk.Role, "iterations", wk.Iterations)
			if err := wk.Run(c); err != nil {
				return fmt.Errorf("%s: %w", wk.Role, err)
			}
			d.logger.Debug("worker done", "worker", wk.Role)
			return nil
		})
	}
	d.setState(StateWorkersRunning)

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	d.setState(StateBothJoined)

	res := Result{
		N:          d.cfg.N,
		Increments: inc.Iterations,
		Decrements: dec.Iterations,
		Value:      c.Value(),
		Elapsed:    time.Since(start),
	}
	d.logger.Debug("joined", "value", res.Value, "elapsed", res.Elapsed)

	if err := Report(w, res); err != nil {
		return res, fmt.Errorf("writing report: %w", err)
	}
	d.setState(StateReported)
	return res, nil
}

// Report writes the one-line result.
func Report(w io.Writer, res Result) error {
	_, err := fmt.Fprintf(w, "The magic number is: %d\n", res.Value)
	return err
}

// Run is a convenience for New followed by Driver.Run.
func Run(w io.Writer, cfg *Config) (Result, error) {
	d, err := New(cfg)
	if err != nil {
		return Result{}, err
	}
	return d.Run(w)
}
