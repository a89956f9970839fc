// Package report runs the exercise repeatedly, with and without the lock,
// and writes a handout comparing the results.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"strings"

	"github.com/jba/magicnumber/driver"
	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Config says how many runs of each kind to perform.
type Config struct {
	N             int // increments per run
	Trials        int // synchronized runs
	ControlTrials int // unsynchronized runs
	Logger        *slog.Logger
}

func (c *Config) Validate() error {
	if c.N < 0 {
		return fmt.Errorf("%w: %d", driver.ErrNegativeN, c.N)
	}
	if c.Trials < 0 || c.ControlTrials < 0 {
		return errors.New("trial counts must not be negative")
	}
	if c.Trials+c.ControlTrials == 0 {
		return errors.New("need at least one trial")
	}
	return nil
}

// Host describes the machine the trials ran on. Lost updates need
// more than one core to show up.
type Host struct {
	CPUModel string
	Cores    int
}

// A Report holds the final value of every run.
type Report struct {
	N       int
	Host    Host
	Synced  []int
	Control []int
}

// Collect performs the runs described by cfg.
func Collect(ctx context.Context, cfg *Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report config: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := &Report{N: cfg.N, Host: host(ctx, logger)}
	for i := range cfg.Trials {
		v, err := trial(cfg, false, logger)
		if err != nil {
			return nil, fmt.Errorf("synchronized trial %d: %w", i+1, err)
		}
		r.Synced = append(r.Synced, v)
	}
	for i := range cfg.ControlTrials {
		v, err := trial(cfg, true, logger)
		if err != nil {
			return nil, fmt.Errorf("unsynchronized trial %d: %w", i+1, err)
		}
		r.Control = append(r.Control, v)
	}
	return r, nil
}

func trial(cfg *Config, unsync bool, logger *slog.Logger) (int, error) {
	res, err := driver.Run(io.Discard, &driver.Config{
		N:              cfg.N,
		Unsynchronized: unsync,
		Logger:         logger,
	})
	if err != nil {
		return 0, err
	}
	logger.Info("trial", "unsynchronized", unsync, "value", res.Value, "elapsed", res.Elapsed)
	return res.Value, nil
}

func host(ctx context.Context, logger *slog.Logger) Host {
	h := Host{CPUModel: "unknown"}
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil || cores <= 0 {
		logger.Debug("cpu count unavailable, using runtime", "error", err)
		cores = runtime.NumCPU()
	}
	h.Cores = cores
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 && infos[0].ModelName != "" {
		h.CPUModel = infos[0].ModelName
	} else if err != nil {
		logger.Debug("cpu info unavailable", "error", err)
	}
	return h
}

// Misses returns how many values in vs are not -1.
func Misses(vs []int) int {
	n := 0
	for _, v := range vs {
		if v != -1 {
			n++
		}
	}
	return n
}

// Distinct returns the sorted distinct values in vs.
func Distinct(vs []int) []int {
	d := slices.Clone(vs)
	slices.Sort(d)
	return slices.Compact(d)
}

// Markdown returns the handout as Markdown.
func (r *Report) Markdown() string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	fmt.Fprintln(&b, "# The magic number")
	fmt.Fprintln(&b)
	p.Fprintf(&b, "One goroutine increments a shared counter %d times; another decrements it %d times.\n", r.N, r.N+1)
	fmt.Fprintln(&b, "With mutual exclusion the result is always -1.")
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "- CPU: %s\n", r.Host.CPUModel)
	fmt.Fprintf(&b, "- Logical cores: %d\n", r.Host.Cores)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "| Trial | With lock | Without lock |")
	fmt.Fprintln(&b, "| ----: | --------: | -----------: |")
	for i := range max(len(r.Synced), len(r.Control)) {
		p.Fprintf(&b, "| %d | %s | %s |\n", i+1, cell(p, r.Synced, i), cell(p, r.Control, i))
	}
	fmt.Fprintln(&b)

	if len(r.Synced) > 0 {
		p.Fprintf(&b, "With the lock, %d of %d runs gave -1.\n", len(r.Synced)-Misses(r.Synced), len(r.Synced))
		fmt.Fprintln(&b)
	}
	if len(r.Control) > 0 {
		p.Fprintf(&b, "Without it, %d of %d runs missed -1, with %d distinct results.\n",
			Misses(r.Control), len(r.Control), len(Distinct(r.Control)))
		if r.Host.Cores < 2 {
			fmt.Fprintln(&b)
			fmt.Fprintln(&b, "_Only one core was available, so the goroutines rarely interleaved._")
		}
	}
	return b.String()
}

func cell(p *message.Printer, vs []int, i int) string {
	if i >= len(vs) {
		return ""
	}
	return p.Sprintf("%d", vs[i])
}
