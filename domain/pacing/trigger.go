package pacing

import (
	"log/slog"
	"sync/atomic"

	"github.com/soocke/marker-pacer-go/domain/marker"
)

// Policy is the limiter-selection policy. The trigger feeds it begin-marker
// timestamps and asks it whether a channel currently drives pacing.
type Policy interface {
	ChooseLimiter(nowNs uint64, site marker.ChannelID)
	IsAuthoritative(site marker.ChannelID) bool
}

// Sink receives frame boundary notifications. It owns debouncing: the
// trigger may deliver duplicates when two channels are active at once.
type Sink interface {
	OnFrameBeginMarker(markerDriven bool)
	OnFrameEndMarker(markerDriven bool)
	RecordNativeFrameSample()
}

// Clock returns monotonic nanoseconds.
type Clock interface {
	NowNs() uint64
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() uint64

func (f ClockFunc) NowNs() uint64 { return f() }

// Role is what a marker means for pacing under the active mode.
type Role uint8

const (
	RoleIgnore Role = iota
	RoleBegin
	RoleEnd
	// RoleBeginEnd arms and immediately releases (simulation-start-only mode).
	RoleBeginEnd
)

func (r Role) String() string {
	switch r {
	case RoleBegin:
		return "begin"
	case RoleEnd:
		return "end"
	case RoleBeginEnd:
		return "begin+end"
	default:
		return "ignore"
	}
}

func (r Role) begins() bool { return r == RoleBegin || r == RoleBeginEnd }
func (r Role) ends() bool   { return r == RoleEnd || r == RoleBeginEnd }

// State of the trigger.
type State int32

const (
	StateIdle State = iota
	StateArmed
)

func (s State) String() string {
	if s == StateArmed {
		return "armed"
	}
	return "idle"
}

// Stats counts trigger outcomes.
type Stats struct {
	Begins     uint64
	Ends       uint64
	Suppressed uint64
}

// Trigger maps classified markers to frame begin/end notifications. It is
// shared by every channel and is safe for concurrent use; it never blocks.
type Trigger struct {
	policy Policy
	sink   Sink
	clock  Clock
	logger *slog.Logger

	simStartOnly atomic.Bool
	state        atomic.Int32

	begins     atomic.Uint64
	ends       atomic.Uint64
	suppressed atomic.Uint64
}

// NewTrigger returns an idle trigger in normal mode.
func NewTrigger(policy Policy, sink Sink, clock Clock, logger *slog.Logger) *Trigger {
	if clock == nil {
		clock = DefaultClock()
	}
	return &Trigger{policy: policy, sink: sink, clock: clock, logger: logger}
}

// SetSimulationStartOnly switches between restricted mode (marker 0 alone
// drives pacing) and normal mode (present start/end).
func (t *Trigger) SetSimulationStartOnly(on bool) {
	if t == nil {
		return
	}
	if t.simStartOnly.Swap(on) != on && t.logger != nil {
		t.logger.Info("pacing mode changed", "simulation_start_only", on)
	}
}

func (t *Trigger) SimulationStartOnly() bool { return t != nil && t.simStartOnly.Load() }

// RoleOf classifies m under the current mode.
func (t *Trigger) RoleOf(m marker.Type) Role {
	if t != nil && t.simStartOnly.Load() {
		if m == marker.SimulationStart {
			return RoleBeginEnd
		}
		return RoleIgnore
	}
	switch m {
	case marker.PresentStart:
		return RoleBegin
	case marker.PresentEnd:
		return RoleEnd
	default:
		return RoleIgnore
	}
}

// IsBegin reports whether m starts a frame under the current mode.
func (t *Trigger) IsBegin(m marker.Type) bool { return t.RoleOf(m).begins() }

// Now reads the trigger's clock. Adapters stamp events with it right after
// classification.
func (t *Trigger) Now() uint64 {
	if t == nil || t.clock == nil {
		return 0
	}
	return t.clock.NowNs()
}

// Handle runs the pacing action for ev arriving on site and returns the role
// that was acted on. RoleIgnore is returned when the marker is not
// significant, came from this module, or site is not authoritative.
func (t *Trigger) Handle(ev marker.Event, site marker.ChannelID) Role {
	if t == nil || ev.Origin == marker.SelfModule {
		return RoleIgnore
	}
	role := t.RoleOf(ev.Type)
	if role == RoleIgnore {
		return RoleIgnore
	}
	if role.begins() && t.policy != nil {
		now := ev.TimestampNs
		if now == 0 {
			now = t.clock.NowNs()
		}
		t.policy.ChooseLimiter(now, site)
	}
	if t.policy == nil || !t.policy.IsAuthoritative(site) {
		t.suppressed.Add(1)
		return RoleIgnore
	}
	if role.begins() {
		t.state.Store(int32(StateArmed))
		t.begins.Add(1)
		if t.sink != nil {
			t.sink.RecordNativeFrameSample()
			t.sink.OnFrameBeginMarker(true)
		}
	}
	if role.ends() {
		t.ends.Add(1)
		if t.sink != nil {
			t.sink.OnFrameEndMarker(true)
		}
		t.state.Store(int32(StateIdle))
	}
	return role
}

// State returns the current trigger state.
func (t *Trigger) State() State {
	if t == nil {
		return StateIdle
	}
	return State(t.state.Load())
}

// Stats returns trigger counters.
func (t *Trigger) Stats() Stats {
	if t == nil {
		return Stats{}
	}
	return Stats{Begins: t.begins.Load(), Ends: t.ends.Load(), Suppressed: t.suppressed.Load()}
}

// ResetStats zeroes trigger counters without touching state or mode.
func (t *Trigger) ResetStats() {
	if t == nil {
		return
	}
	t.begins.Store(0)
	t.ends.Store(0)
	t.suppressed.Store(0)
}
