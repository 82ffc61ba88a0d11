//go:build !windows

package pacing

// DefaultClock returns the process-epoch clock.
func DefaultClock() Clock { return NewEpochClock() }
