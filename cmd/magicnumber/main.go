// Command magicnumber increments a shared counter N times in one goroutine
// and decrements it N+1 times in another, then prints the result.
// With the counter properly locked, the magic number is always -1.
//
// With -report, it instead runs several trials with and without the lock
// and writes an HTML handout comparing them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jba/magicnumber/driver"
	"github.com/jba/magicnumber/internal/report"
)

func main() {
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

type options struct {
	n          int
	unsync     bool
	verbose    bool
	reportFile string
	trials     int
	control    int
}

func parseFlags(stderr io.Writer, args []string) (*options, error) {
	fs := flag.NewFlagSet("magicnumber", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var o options
	fs.IntVar(&o.n, "n", driver.DefaultN, "number of increments; the decrementer runs one more time")
	fs.BoolVar(&o.unsync, "unsync", false, "skip the lock entirely, to show lost updates")
	fs.BoolVar(&o.verbose, "v", false, "log progress to stderr")
	fs.StringVar(&o.reportFile, "report", "", "run trials and write an HTML handout to this file")
	fs.IntVar(&o.trials, "trials", 5, "synchronized trials for -report")
	fs.IntVar(&o.control, "control", 5, "unsynchronized trials for -report")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected arguments: %q", fs.Args())
	}
	return &o, nil
}

func run(stdout, stderr io.Writer, args []string) error {
	o, err := parseFlags(stderr, args)
	if err != nil {
		return err
	}

	logger := slog.New(slog.DiscardHandler)
	if o.verbose {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	if o.reportFile != "" {
		return writeReport(o, logger)
	}

	_, err = driver.Run(stdout, &driver.Config{
		N:              o.n,
		Unsynchronized: o.unsync,
		Logger:         logger,
	})
	return err
}

func writeReport(o *options, logger *slog.Logger) (err error) {
	r, err := report.Collect(context.Background(), &report.Config{
		N:             o.n,
		Trials:        o.trials,
		ControlTrials: o.control,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	outFile, err := os.Create(o.reportFile)
	if err != nil {
		return fmt.Errorf("error creating report file: %w", err)
	}
	defer func() { err = errors.Join(err, outFile.Close()) }()

	if err := r.WriteHTML(outFile); err != nil {
		return fmt.Errorf("error writing %s: %w", o.reportFile, err)
	}
	logger.Info("wrote report", "file", o.reportFile)
	return nil
}
