package vulkan

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/soocke/marker-pacer-go/domain/fallback"
	"github.com/soocke/marker-pacer-go/domain/intercept"
	"github.com/soocke/marker-pacer-go/domain/marker"
	"github.com/soocke/marker-pacer-go/domain/pacing"
)

// Loader entry points hooked by the extension channel.
const (
	Module                = "vulkan-1.dll"
	FnCreateDevice        = "vkCreateDevice"
	FnGetDeviceProcAddr   = "vkGetDeviceProcAddr"
	FnGetInstanceProcAddr = "vkGetInstanceProcAddr"
)

// Options configures an Adapter. Hooks and MarkerWrapper override the
// platform callbacks so tests can run against an in-memory fabric.
type Options struct {
	Fabric           intercept.Fabric
	Resolver         intercept.Resolver
	Trigger          *pacing.Trigger
	Fallback         *fallback.Registry
	Logger           *slog.Logger
	InjectExtensions bool
	Hooks            func(*Adapter) []intercept.Hook
	MarkerWrapper    uintptr
}

// Stats holds extension-channel specific diagnostics.
type Stats struct {
	MarkerCalls       uint64
	SelfCalls         uint64
	Devices           uint64
	InjectFailures    uint64
	MarkerHooked      bool
	MarkerSynthesized bool
}

// Adapter observes VK_NV_low_latency2 markers and device creation.
type Adapter struct {
	set           *intercept.Set
	trigger       *pacing.Trigger
	fallback      *fallback.Registry
	logger        *slog.Logger
	hooks         func(*Adapter) []intercept.Hook
	markerWrapper uintptr

	installed  atomic.Bool
	installing atomic.Bool
	inject     atomic.Bool
	counters   marker.Counters
	extensions ExtensionSnapshot

	markerCalls    atomic.Uint64
	selfCalls      atomic.Uint64
	devices        atomic.Uint64
	injectFailures atomic.Uint64
	synthMarker    atomic.Bool

	origCreateDevice atomic.Uintptr
	origDeviceProc   atomic.Uintptr
	origInstanceProc atomic.Uintptr
	origMarker       atomic.Uintptr
	markerTarget     atomic.Uintptr
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
	a.inject.Store(opts.InjectExtensions)
	if a.hooks == nil {
		a.hooks = platformHooks
	}
	if a.markerWrapper == 0 {
		a.markerWrapper = platformMarkerWrapper(a)
	}
	return a
}

func (a *Adapter) ID() marker.ChannelID { return marker.ChannelVulkan }

// SetInjectExtensions toggles capability injection for devices created from
// now on.
func (a *Adapter) SetInjectExtensions(on bool) { a.inject.Store(on) }

func (a *Adapter) InjectExtensions() bool { return a.inject.Load() }

// Install hooks device creation and both proc-address lookups.
func (a *Adapter) Install() error {
	if a.installed.Load() {
		return nil
	}
	a.installing.Store(true)
	defer a.installing.Store(false)
	hooks := a.hooks(a)
	if len(hooks) == 0 {
		return fmt.Errorf("vulkan: %w", intercept.ErrUnsupported)
	}
	originals, err := a.set.Install(hooks)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("vulkan channel inactive", "error", err)
		}
		return fmt.Errorf("vulkan: %w", err)
	}
	a.origCreateDevice.Store(originals[FnCreateDevice])
	a.origDeviceProc.Store(originals[FnGetDeviceProcAddr])
	a.origInstanceProc.Store(originals[FnGetInstanceProcAddr])
	a.installed.Store(true)
	if a.logger != nil {
		a.logger.Info("vulkan channel installed", "inject_extensions", a.inject.Load())
	}
	return nil
}

// Uninstall removes every hook, including the one placed on the driver's
// marker function.
func (a *Adapter) Uninstall() {
	if !a.installed.Swap(false) {
		return
	}
	a.set.Uninstall()
	a.origCreateDevice.Store(0)
	a.origDeviceProc.Store(0)
	a.origInstanceProc.Store(0)
	a.origMarker.Store(0)
	a.markerTarget.Store(0)
	if a.logger != nil {
		a.logger.Info("vulkan channel uninstalled")
	}
}

func (a *Adapter) Installed() bool          { return a.installed.Load() }
func (a *Adapter) Counters() marker.Snapshot { return a.counters.Snapshot() }

// ResetCounters zeroes marker and call counters. The extension snapshot and
// install state are kept.
func (a *Adapter) ResetCounters() {
	a.counters.Reset()
	a.markerCalls.Store(0)
	a.selfCalls.Store(0)
	a.devices.Store(0)
	a.injectFailures.Store(0)
}

// Extensions returns the enabled-extension list of the last created device.
func (a *Adapter) Extensions() []string { return a.extensions.Names() }

// ExtensionsInjected reports whether that list includes injected extensions.
func (a *Adapter) ExtensionsInjected() bool { return a.extensions.Injected() }

// Stats returns extension-channel diagnostics.
func (a *Adapter) Stats() Stats {
	return Stats{
		MarkerCalls:       a.markerCalls.Load(),
		SelfCalls:         a.selfCalls.Load(),
		Devices:           a.devices.Load(),
		InjectFailures:    a.injectFailures.Load(),
		MarkerHooked:      a.origMarker.Load() != 0,
		MarkerSynthesized: a.synthMarker.Load(),
	}
}

var _ marker.Channel = (*Adapter)(nil)
