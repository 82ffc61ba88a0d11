package marker

import "sync/atomic"

// Counters holds per-marker and per-dialect statistics for one channel.
// All methods are safe for concurrent use and never block; the values are
// statistics only and carry no cross-thread ordering.
type Counters struct {
	markers    [Count]atomic.Uint64
	dialects   [DialectSlots]atomic.Uint64
	outOfRange atomic.Uint64
	// lastMarker stores Type+1 so that zero means "nothing observed".
	lastMarker atomic.Uint32
	lastFrame  atomic.Uint64
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	Markers     [Count]uint64
	Dialects    [DialectSlots]uint64
	OutOfRange  uint64
	LastMarker  Type
	HasLast     bool
	LastFrameID uint64
}

// RecordDialect counts one classified event of dialect d.
func (c *Counters) RecordDialect(d Dialect) {
	if d < DialectSlots {
		c.dialects[d].Add(1)
	}
}

// RecordMarker counts t and reports whether it was in range.
func (c *Counters) RecordMarker(t Type) bool {
	if !t.Valid() {
		c.outOfRange.Add(1)
		return false
	}
	c.markers[t].Add(1)
	return true
}

// RecordOutOfRange counts a native marker value with no shared index.
func (c *Counters) RecordOutOfRange() { c.outOfRange.Add(1) }

// Observe counts ev and remembers it as the last observed marker.
func (c *Counters) Observe(ev Event) bool {
	if !c.RecordMarker(ev.Type) {
		return false
	}
	c.lastMarker.Store(uint32(ev.Type) + 1)
	if ev.HasFrameID {
		c.lastFrame.Store(ev.FrameID)
	}
	return true
}

// Marker returns the counter for a single marker type.
func (c *Counters) Marker(t Type) uint64 {
	if !t.Valid() {
		return 0
	}
	return c.markers[t].Load()
}

// Snapshot copies the current values.
func (c *Counters) Snapshot() Snapshot {
	var s Snapshot
	for i := range c.markers {
		s.Markers[i] = c.markers[i].Load()
	}
	for i := range c.dialects {
		s.Dialects[i] = c.dialects[i].Load()
	}
	s.OutOfRange = c.outOfRange.Load()
	if v := c.lastMarker.Load(); v != 0 {
		s.LastMarker = Type(v - 1)
		s.HasLast = true
	}
	s.LastFrameID = c.lastFrame.Load()
	return s
}

// Reset zeroes every counter and forgets the last observed marker.
func (c *Counters) Reset() {
	for i := range c.markers {
		c.markers[i].Store(0)
	}
	for i := range c.dialects {
		c.dialects[i].Store(0)
	}
	c.outOfRange.Store(0)
	c.lastMarker.Store(0)
	c.lastFrame.Store(0)
}

// Total sums all in-range marker counters.
func (s Snapshot) Total() uint64 {
	var n uint64
	for _, v := range s.Markers {
		n += v
	}
	return n
}
