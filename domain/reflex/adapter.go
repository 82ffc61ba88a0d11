package reflex

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/soocke/marker-pacer-go/domain/fallback"
	"github.com/soocke/marker-pacer-go/domain/intercept"
	"github.com/soocke/marker-pacer-go/domain/marker"
	"github.com/soocke/marker-pacer-go/domain/pacing"
)

// Driver library and its single export.
const (
	Module           = "nvapi64.dll"
	FnQueryInterface = "nvapi_QueryInterface"
)

// Interface ids resolved through nvapi_QueryInterface.
const (
	IDSetLatencyMarker uint32 = 0xD9984C05
	IDSleep            uint32 = 0x852CD1D2
	IDSetSleepMode     uint32 = 0xAC1CA9E0
	IDGetLatency       uint32 = 0x1A587F9C
)

// Status mirrors NvAPI_Status.
type Status int32

const (
	StatusOK               Status = 0
	StatusError            Status = -1
	StatusNoImplementation Status = -3
)

func statusCode(s Status) uintptr { return uintptr(uint32(int32(s))) }

// InterfaceName returns the function name behind a latency interface id.
func InterfaceName(id uint32) string {
	switch id {
	case IDSetLatencyMarker:
		return "NvAPI_D3D_SetLatencyMarker"
	case IDSleep:
		return "NvAPI_D3D_Sleep"
	case IDSetSleepMode:
		return "NvAPI_D3D_SetSleepMode"
	case IDGetLatency:
		return "NvAPI_D3D_GetLatency"
	default:
		return fmt.Sprintf("nvapi_%08X", id)
	}
}

// Options configures an Adapter. Hooks and MarkerWrapper override the
// platform callbacks so tests can run against an in-memory fabric.
type Options struct {
	Fabric        intercept.Fabric
	Resolver      intercept.Resolver
	Trigger       *pacing.Trigger
	Fallback      *fallback.Registry
	Logger        *slog.Logger
	Hooks         func(*Adapter) []intercept.Hook
	MarkerWrapper uintptr
}

// Stats holds low-latency channel specific diagnostics.
type Stats struct {
	MarkerCalls       uint64
	SelfCalls         uint64
	Queries           uint64
	MarkerHooked      bool
	MarkerSynthesized bool
}

// Adapter observes the proprietary low-latency marker API.
type Adapter struct {
	set           *intercept.Set
	trigger       *pacing.Trigger
	fallback      *fallback.Registry
	logger        *slog.Logger
	hooks         func(*Adapter) []intercept.Hook
	markerWrapper uintptr

	installed  atomic.Bool
	installing atomic.Bool
	counters   marker.Counters

	markerCalls atomic.Uint64
	selfCalls   atomic.Uint64
	queries     atomic.Uint64
	synthMarker atomic.Bool

	origQuery    atomic.Uintptr
	origMarker   atomic.Uintptr
	markerTarget atomic.Uintptr
}

// New builds an uninstalled adapter.
func New(opts Options) *Adapter {
	a := &Adapter{
		set:           intercept.NewSet(opts.Fabric, opts.Resolver, opts.Logger),
		trigger:       opts.Trigger,
		fallback:      opts.Fallback,
		logger:        opts.Logger,
		hooks:         opts.Hooks,
		markerWrapper: opts.MarkerWrapper,
	}
	if a.hooks == nil {
		a.hooks = platformHooks
	}
	if a.markerWrapper == 0 {
		a.markerWrapper = platformMarkerWrapper(a)
	}
	return a
}

func (a *Adapter) ID() marker.ChannelID { return marker.ChannelReflex }

// Install hooks the driver's interface lookup.
func (a *Adapter) Install() error {
	if a.installed.Load() {
		return nil
	}
	a.installing.Store(true)
	defer a.installing.Store(false)
	hooks := a.hooks(a)
	if len(hooks) == 0 {
		return fmt.Errorf("reflex: %w", intercept.ErrUnsupported)
	}
	originals, err := a.set.Install(hooks)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("reflex channel inactive", "error", err)
		}
		return fmt.Errorf("reflex: %w", err)
	}
	a.origQuery.Store(originals[FnQueryInterface])
	a.installed.Store(true)
	if a.logger != nil {
		a.logger.Info("reflex channel installed")
	}
	return nil
}

// Uninstall removes the lookup hook and the hook on the marker function.
func (a *Adapter) Uninstall() {
	if !a.installed.Swap(false) {
		return
	}
	a.set.Uninstall()
	a.origQuery.Store(0)
	a.origMarker.Store(0)
	a.markerTarget.Store(0)
	if a.logger != nil {
		a.logger.Info("reflex channel uninstalled")
	}
}

func (a *Adapter) Installed() bool          { return a.installed.Load() }
func (a *Adapter) Counters() marker.Snapshot { return a.counters.Snapshot() }

// ResetCounters zeroes marker and call counters.
func (a *Adapter) ResetCounters() {
	a.counters.Reset()
	a.markerCalls.Store(0)
	a.selfCalls.Store(0)
	a.queries.Store(0)
}

// Stats returns low-latency channel diagnostics.
func (a *Adapter) Stats() Stats {
	return Stats{
		MarkerCalls:       a.markerCalls.Load(),
		SelfCalls:         a.selfCalls.Load(),
		Queries:           a.queries.Load(),
		MarkerHooked:      a.origMarker.Load() != 0,
		MarkerSynthesized: a.synthMarker.Load(),
	}
}

// OnQueryInterface post-processes one interface lookup and returns the
// pointer handed back to the caller. It follows the same rules as the
// Vulkan proc-address lookup: a real marker function is hooked in place, a
// missing one is replaced by the wrapper, and the other latency interfaces
// get inert stubs.
func (a *Adapter) OnQueryInterface(id uint32, real uintptr) uintptr {
	a.queries.Add(1)
	switch {
	case id == IDSetLatencyMarker && real != 0:
		if a.markerWrapper == 0 {
			return real
		}
		if !a.markerTarget.CompareAndSwap(0, real) && a.markerTarget.Load() != real {
			if a.logger != nil {
				a.logger.Debug("SetLatencyMarker already hooked elsewhere", "ptr", real)
			}
			return real
		}
		orig, err := a.set.Attach(real, a.markerWrapper)
		if err != nil {
			a.markerTarget.CompareAndSwap(real, 0)
			if a.logger != nil {
				a.logger.Warn("SetLatencyMarker hook failed", "error", err)
			}
			return real
		}
		if a.origMarker.CompareAndSwap(0, orig) && a.logger != nil {
			a.logger.Info("SetLatencyMarker hooked")
		}
		return real
	case id == IDSetLatencyMarker:
		if a.markerWrapper == 0 {
			return 0
		}
		a.fallback.Adopt(InterfaceName(id), a.markerWrapper)
		a.synthMarker.Store(true)
		return a.markerWrapper
	case real == 0 && (id == IDSleep || id == IDSetSleepMode || id == IDGetLatency):
		return a.fallback.Endpoint(InterfaceName(id), statusCode(StatusNoImplementation))
	default:
		return real
	}
}

// OnSetLatencyMarker classifies one SetLatencyMarker call and runs the
// pacing action. The driver's marker enum already uses the shared index
// space.
func (a *Adapter) OnSetLatencyMarker(frameID uint64, markerType uint32, origin marker.Origin) (marker.Event, bool) {
	if origin == marker.SelfModule {
		a.selfCalls.Add(1)
		return marker.Event{}, false
	}
	a.markerCalls.Add(1)
	a.counters.RecordDialect(marker.DialectNative)
	ev := marker.Event{
		Type:        marker.Type(markerType),
		Dialect:     marker.DialectNative,
		FrameID:     frameID,
		HasFrameID:  true,
		Origin:      origin,
		TimestampNs: a.trigger.Now(),
	}
	if !a.counters.Observe(ev) {
		return marker.Event{}, false
	}
	a.trigger.Handle(ev, marker.ChannelReflex)
	return ev, true
}

// SetLatencyMarker handles a call on the marker wrapper and returns the
// status for the caller. forward is nil when only the synthesized wrapper
// exists; the call then succeeds without reaching a driver.
func (a *Adapter) SetLatencyMarker(frameID uint64, markerType uint32, origin marker.Origin, forward func() Status) Status {
	func() {
		defer func() {
			if r := recover(); r != nil && a.logger != nil {
				a.logger.Error("SetLatencyMarker observer panic", "panic", r)
			}
		}()
		a.OnSetLatencyMarker(frameID, markerType, origin)
	}()
	if forward != nil {
		return forward()
	}
	a.fallback.Record(InterfaceName(IDSetLatencyMarker))
	return StatusOK
}

var _ marker.Channel = (*Adapter)(nil)
