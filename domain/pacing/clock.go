package pacing

import "time"

// EpochClock measures nanoseconds since it was created using the runtime's
// monotonic clock.
type EpochClock struct {
	epoch time.Time
}

// NewEpochClock starts a clock at zero.
func NewEpochClock() *EpochClock { return &EpochClock{epoch: time.Now()} }

func (c *EpochClock) NowNs() uint64 {
	return uint64(time.Since(c.epoch).Nanoseconds())
}
