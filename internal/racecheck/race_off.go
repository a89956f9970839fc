//go:build !race

// Package racecheck reports whether the race detector is compiled in.
// Tests that deliberately race (the unsynchronized control) skip themselves
// when it is, since the detector would fail them on purpose.
package racecheck

const Enabled = false
