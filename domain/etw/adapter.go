package etw

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/soocke/marker-pacer-go/domain/intercept"
	"github.com/soocke/marker-pacer-go/domain/marker"
	"github.com/soocke/marker-pacer-go/domain/pacing"
)

// Entry points hooked by the trace-event channel.
const (
	Module               = "advapi32.dll"
	FnEventRegister      = "EventRegister"
	FnEventUnregister    = "EventUnregister"
	FnEventWriteTransfer = "EventWriteTransfer"
)

// Options configures an Adapter. Hooks overrides the platform replacement
// callbacks, which tests use to install against an in-memory fabric.
type Options struct {
	Fabric   intercept.Fabric
	Resolver intercept.Resolver
	Memory   Memory
	Trigger  *pacing.Trigger
	Logger   *slog.Logger
	Hooks    func(*Adapter) []intercept.Hook
}

// Stats holds trace-channel specific diagnostics.
type Stats struct {
	Registrations  uint64
	TrackedHandle  uint64
	Writes         uint64
	SelfWrites     uint64
	UnreadableDesc uint64
}

// Adapter observes the latency provider's trace writes.
type Adapter struct {
	set     *intercept.Set
	mem     Memory
	trigger *pacing.Trigger
	logger  *slog.Logger
	hooks   func(*Adapter) []intercept.Hook

	installed  atomic.Bool
	installing atomic.Bool
	counters   marker.Counters

	tracked       atomic.Uint64
	registrations atomic.Uint64
	writes        atomic.Uint64
	selfWrites    atomic.Uint64
	unreadable    atomic.Uint64

	origRegister   atomic.Uintptr
	origUnregister atomic.Uintptr
	origWrite      atomic.Uintptr
}

// New builds an uninstalled adapter.
func New(opts Options) *Adapter {
	a := &Adapter{
		set:     intercept.NewSet(opts.Fabric, opts.Resolver, opts.Logger),
		mem:     opts.Memory,
		trigger: opts.Trigger,
		logger:  opts.Logger,
		hooks:   opts.Hooks,
	}
	if a.mem == nil {
		a.mem = DefaultMemory()
	}
	if a.hooks == nil {
		a.hooks = platformHooks
	}
	return a
}

func (a *Adapter) ID() marker.ChannelID { return marker.ChannelETW }

// Install hooks registration, unregistration and transfer writes.
func (a *Adapter) Install() error {
	if a.installed.Load() {
		return nil
	}
	a.installing.Store(true)
	defer a.installing.Store(false)
	hooks := a.hooks(a)
	if len(hooks) == 0 {
		return fmt.Errorf("etw: %w", intercept.ErrUnsupported)
	}
	originals, err := a.set.Install(hooks)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("etw channel inactive", "error", err)
		}
		return fmt.Errorf("etw: %w", err)
	}
	a.origRegister.Store(originals[FnEventRegister])
	a.origUnregister.Store(originals[FnEventUnregister])
	a.origWrite.Store(originals[FnEventWriteTransfer])
	a.installed.Store(true)
	if a.logger != nil {
		a.logger.Info("etw channel installed", "provider", ProviderGUID.String())
	}
	return nil
}

// Uninstall removes the hooks and forgets the tracked registration. It is
// safe during process teardown and when never installed.
func (a *Adapter) Uninstall() {
	if !a.installed.Swap(false) {
		return
	}
	a.set.Uninstall()
	a.origRegister.Store(0)
	a.origUnregister.Store(0)
	a.origWrite.Store(0)
	a.tracked.Store(0)
	if a.logger != nil {
		a.logger.Info("etw channel uninstalled")
	}
}

func (a *Adapter) Installed() bool          { return a.installed.Load() }
func (a *Adapter) Counters() marker.Snapshot { return a.counters.Snapshot() }

// ResetCounters zeroes marker, dialect and write counters. The tracked
// registration and install state are kept.
func (a *Adapter) ResetCounters() {
	a.counters.Reset()
	a.registrations.Store(0)
	a.writes.Store(0)
	a.selfWrites.Store(0)
	a.unreadable.Store(0)
}

// Stats returns trace-channel diagnostics.
func (a *Adapter) Stats() Stats {
	return Stats{
		Registrations:  a.registrations.Load(),
		TrackedHandle:  a.tracked.Load(),
		Writes:         a.writes.Load(),
		SelfWrites:     a.selfWrites.Load(),
		UnreadableDesc: a.unreadable.Load(),
	}
}

// OnRegister is called after a successful EventRegister. The first external
// registration of the latency provider becomes the tracked handle; later
// ones are ignored until it is unregistered.
func (a *Adapter) OnRegister(provider GUID, handle uint64, origin marker.Origin) bool {
	if provider != ProviderGUID || handle == 0 {
		return false
	}
	if origin == marker.SelfModule {
		return false
	}
	a.registrations.Add(1)
	if !a.tracked.CompareAndSwap(0, handle) {
		return false
	}
	if a.logger != nil {
		a.logger.Info("latency provider registration tracked", "handle", handle)
	}
	return true
}

// OnUnregister releases the tracked handle when the provider unregisters it.
func (a *Adapter) OnUnregister(handle uint64) {
	if handle != 0 && a.tracked.CompareAndSwap(handle, 0) && a.logger != nil {
		a.logger.Info("latency provider registration released", "handle", handle)
	}
}

// OnWrite classifies one write against handle. The caller forwards the
// write to the original implementation whatever this returns.
func (a *Adapter) OnWrite(handle uint64, descs []DataDescriptor, origin marker.Origin) (marker.Event, bool) {
	if handle == 0 || handle != a.tracked.Load() {
		return marker.Event{}, false
	}
	if origin == marker.SelfModule {
		a.selfWrites.Add(1)
		return marker.Event{}, false
	}
	a.writes.Add(1)
	res := Classify(descs, a.mem)
	if res.Skipped > 0 {
		a.unreadable.Add(uint64(res.Skipped))
	}
	if res.Dialect == marker.DialectNone {
		return marker.Event{}, false
	}
	ev := marker.Event{
		Type:       res.Marker,
		Dialect:    res.Dialect,
		FrameID:    res.FrameID,
		HasFrameID: res.HasFrameID,
		Origin:     origin,
	}
	ev.TimestampNs = a.trigger.Now()
	a.counters.RecordDialect(res.Dialect)
	if !res.Found {
		return ev, false
	}
	a.counters.Observe(ev)
	a.trigger.Handle(ev, marker.ChannelETW)
	return ev, true
}

// OnWriteAt reads the descriptor array from provider memory and classifies
// it. Unreadable arrays are dropped.
func (a *Adapter) OnWriteAt(handle uint64, userData uint64, count uint32, origin marker.Origin) (marker.Event, bool) {
	if handle == 0 || handle != a.tracked.Load() {
		return marker.Event{}, false
	}
	descs, err := ReadDescriptors(a.mem, userData, count)
	if err != nil {
		a.unreadable.Add(1)
		return marker.Event{}, false
	}
	return a.OnWrite(handle, descs, origin)
}

var _ marker.Channel = (*Adapter)(nil)
