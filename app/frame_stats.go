package app

import (
	"sync/atomic"

	"github.com/influxdata/tdigest"

	"github.com/soocke/marker-pacer-go/domain/pacing"
)

// frameWindow is the number of recent native frame intervals kept.
const frameWindow = 1024

// FrameSummary reports marker-driven frame statistics.
type FrameSummary struct {
	Begins  uint64
	Ends    uint64
	Samples uint64
	P50Ms   float64
	P95Ms   float64
	P99Ms   float64
	FPS     float64
}

// FrameStats is the present-pacing sink of the diagnostics harness. It
// counts notifications, records the interval between native frame samples
// and forwards everything to an optional downstream sink. The notification
// path is lock-free; quantiles are computed on demand.
type FrameStats struct {
	clock pacing.Clock
	next  pacing.Sink

	begins     atomic.Uint64
	ends       atomic.Uint64
	samples    atomic.Uint64
	lastSample atomic.Uint64

	intervals [frameWindow]atomic.Uint64
	cursor    atomic.Uint64
}

// NewFrameStats returns a sink timed by clock that forwards to next.
func NewFrameStats(clock pacing.Clock, next pacing.Sink) *FrameStats {
	if clock == nil {
		clock = pacing.DefaultClock()
	}
	return &FrameStats{clock: clock, next: next}
}

func (s *FrameStats) OnFrameBeginMarker(markerDriven bool) {
	s.begins.Add(1)
	if s.next != nil {
		s.next.OnFrameBeginMarker(markerDriven)
	}
}

func (s *FrameStats) OnFrameEndMarker(markerDriven bool) {
	s.ends.Add(1)
	if s.next != nil {
		s.next.OnFrameEndMarker(markerDriven)
	}
}

func (s *FrameStats) RecordNativeFrameSample() {
	s.samples.Add(1)
	now := s.clock.NowNs()
	if prev := s.lastSample.Swap(now); prev != 0 && now > prev {
		i := s.cursor.Add(1) - 1
		s.intervals[i%frameWindow].Store(now - prev)
	}
	if s.next != nil {
		s.next.RecordNativeFrameSample()
	}
}

// Summary folds the recent intervals into a t-digest and reports quantiles.
func (s *FrameStats) Summary() FrameSummary {
	out := FrameSummary{Begins: s.begins.Load(), Ends: s.ends.Load(), Samples: s.samples.Load()}
	n := s.cursor.Load()
	if n > frameWindow {
		n = frameWindow
	}
	if n == 0 {
		return out
	}
	td := tdigest.NewWithCompression(100)
	added := 0
	for i := uint64(0); i < n; i++ {
		if v := s.intervals[i].Load(); v != 0 {
			td.Add(float64(v)/1e6, 1)
			added++
		}
	}
	if added == 0 {
		return out
	}
	out.P50Ms = td.Quantile(0.50)
	out.P95Ms = td.Quantile(0.95)
	out.P99Ms = td.Quantile(0.99)
	if out.P50Ms > 0 {
		out.FPS = 1000 / out.P50Ms
	}
	return out
}

// Reset zeroes counters and forgets recorded intervals.
func (s *FrameStats) Reset() {
	s.begins.Store(0)
	s.ends.Store(0)
	s.samples.Store(0)
	s.lastSample.Store(0)
	s.cursor.Store(0)
	for i := range s.intervals {
		s.intervals[i].Store(0)
	}
}

var _ pacing.Sink = (*FrameStats)(nil)
