package app

import (
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/soocke/marker-pacer-go/config"
	"github.com/soocke/marker-pacer-go/domain/etw"
	"github.com/soocke/marker-pacer-go/domain/fallback"
	"github.com/soocke/marker-pacer-go/domain/intercept"
	"github.com/soocke/marker-pacer-go/domain/marker"
	"github.com/soocke/marker-pacer-go/domain/pacing"
	"github.com/soocke/marker-pacer-go/domain/reflex"
	"github.com/soocke/marker-pacer-go/domain/synthetic"
	"github.com/soocke/marker-pacer-go/domain/vulkan"
)

// EngineOptions supplies the external collaborators. Nil fields get
// defaults: an in-memory fabric, the platform resolver and clock, and no
// downstream present sink.
type EngineOptions struct {
	Fabric     intercept.Fabric
	Resolver   intercept.Resolver
	Clock      pacing.Clock
	Downstream pacing.Sink
	Memory     etw.Memory
}

// Engine wires the marker channels to one pacing trigger.
type Engine struct {
	logger  *slog.Logger
	enabled [4]atomic.Bool

	Trigger   *pacing.Trigger
	Policy    *ChannelPolicy
	Frames    *FrameStats
	Fallback  *fallback.Registry
	Reflex    *reflex.Adapter
	Vulkan    *vulkan.Adapter
	ETW       *etw.Adapter
	Synthetic *synthetic.Channel

	channels []marker.Channel
}

// ChannelSnapshot is the diagnostics view of one channel.
type ChannelSnapshot struct {
	ID            marker.ChannelID
	Enabled       bool
	Installed     bool
	Authoritative bool
	Counters      marker.Snapshot
}

// Snapshot aggregates every read-only diagnostic the engine exposes. It is
// safe to take at any time, including before install.
type Snapshot struct {
	TakenAt             time.Time
	Channels            []ChannelSnapshot
	State               pacing.State
	SimulationStartOnly bool
	Trigger             pacing.Stats
	PolicyMode          string
	Chosen              string
	Switches            uint64
	Frames              FrameSummary
	Extensions          []string
	ExtensionsInjected  bool
	Fallback            []fallback.Count
	ETW                 etw.Stats
	Vulkan              vulkan.Stats
	Reflex              reflex.Stats
	SyntheticFrames     uint64
}

// NewEngine builds every channel uninstalled.
func NewEngine(cfg *config.Config, opts EngineOptions, logger *slog.Logger) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if opts.Fabric == nil {
		opts.Fabric = intercept.NewTable()
		if logger != nil {
			logger.Info("no native interception fabric supplied; hooks are recorded only")
		}
	}
	if opts.Resolver == nil {
		opts.Resolver = intercept.DefaultResolver()
	}
	if opts.Clock == nil {
		opts.Clock = pacing.DefaultClock()
	}
	e := &Engine{logger: logger}
	e.setEnabled(cfg)
	e.Policy = NewChannelPolicy(cfg.AuthoritativeChannel, time.Duration(cfg.ChannelStaleMs)*time.Millisecond, logger)
	e.Frames = NewFrameStats(opts.Clock, opts.Downstream)
	e.Trigger = pacing.NewTrigger(e.Policy, e.Frames, opts.Clock, logger)
	e.Trigger.SetSimulationStartOnly(cfg.SimulationStartPacing)
	e.Fallback = fallback.NewRegistry(nil, logger)

	e.Reflex = reflex.New(reflex.Options{
		Fabric:   opts.Fabric,
		Resolver: opts.Resolver,
		Trigger:  e.Trigger,
		Fallback: e.Fallback,
		Logger:   logger,
	})
	e.Vulkan = vulkan.New(vulkan.Options{
		Fabric:           opts.Fabric,
		Resolver:         opts.Resolver,
		Trigger:          e.Trigger,
		Fallback:         e.Fallback,
		Logger:           logger,
		InjectExtensions: cfg.InjectVulkanExtensions,
	})
	e.ETW = etw.New(etw.Options{
		Fabric:   opts.Fabric,
		Resolver: opts.Resolver,
		Memory:   opts.Memory,
		Trigger:  e.Trigger,
		Logger:   logger,
	})
	e.Synthetic = synthetic.New(e.Trigger, logger)
	e.channels = []marker.Channel{e.Reflex, e.Vulkan, e.ETW, e.Synthetic}
	return e
}

// Channels returns the channels in priority order.
func (e *Engine) Channels() []marker.Channel { return e.channels }

// Channel returns the channel with id.
func (e *Engine) Channel(id marker.ChannelID) marker.Channel {
	for _, ch := range e.channels {
		if ch.ID() == id {
			return ch
		}
	}
	return nil
}

func (e *Engine) setEnabled(cfg *config.Config) {
	e.enabled[marker.ChannelReflex].Store(cfg.EnableReflex)
	e.enabled[marker.ChannelVulkan].Store(cfg.EnableVulkan)
	e.enabled[marker.ChannelETW].Store(cfg.EnableETW)
	e.enabled[marker.ChannelSynthetic].Store(cfg.SyntheticFPS > 0 || cfg.AuthoritativeChannel == config.ChannelSynthetic)
}

// Enabled reports whether id is switched on in the applied config.
func (e *Engine) Enabled(id marker.ChannelID) bool {
	if id < 0 || int(id) >= len(e.enabled) {
		return false
	}
	return e.enabled[id].Load()
}

// InstallAll installs every enabled channel. Failures leave that channel
// inactive and are returned per channel; they never stop the others.
func (e *Engine) InstallAll() map[marker.ChannelID]error {
	errs := make(map[marker.ChannelID]error)
	for _, ch := range e.channels {
		if !e.Enabled(ch.ID()) {
			continue
		}
		if err := ch.Install(); err != nil {
			errs[ch.ID()] = err
			if e.logger != nil {
				e.logger.Warn("channel inactive", "channel", ch.ID().String(), "error", err)
			}
		}
	}
	if e.logger != nil {
		e.logger.Info("channels installed", "active", e.activeCount(), "failed", len(errs))
	}
	return errs
}

// UninstallAll removes every hook. It is safe to call repeatedly and during
// shutdown.
func (e *Engine) UninstallAll() {
	for i := len(e.channels) - 1; i >= 0; i-- {
		e.channels[i].Uninstall()
	}
}

// AnyInstalled reports whether at least one channel is active.
func (e *Engine) AnyInstalled() bool { return e.activeCount() > 0 }

func (e *Engine) activeCount() int {
	n := 0
	for _, ch := range e.channels {
		if ch.Installed() {
			n++
		}
	}
	return n
}

// AsSelf runs fn with its thread marked as this module, so marker calls the
// host issues from fn are forwarded without being counted or paced.
func (e *Engine) AsSelf(fn func()) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	intercept.SelfCalls.Do(fn)
}

// ResetChannel zeroes the counters of one channel only.
func (e *Engine) ResetChannel(id marker.ChannelID) {
	if ch := e.Channel(id); ch != nil {
		ch.ResetCounters()
	}
}

// ResetAll zeroes every counter. Install state, the tracked registration
// and the captured extension list are kept.
func (e *Engine) ResetAll() {
	for _, ch := range e.channels {
		ch.ResetCounters()
	}
	e.Trigger.ResetStats()
	e.Policy.Reset()
	e.Frames.Reset()
	e.Fallback.Reset()
}

// ApplyConfig pushes runtime-adjustable settings into the engine. Channel
// enable flags take effect on the next InstallAll.
func (e *Engine) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	e.setEnabled(cfg)
	e.Trigger.SetSimulationStartOnly(cfg.SimulationStartPacing)
	e.Policy.SetMode(cfg.AuthoritativeChannel)
	e.Policy.SetStale(time.Duration(cfg.ChannelStaleMs) * time.Millisecond)
	e.Vulkan.SetInjectExtensions(cfg.InjectVulkanExtensions)
}

// Snapshot copies the current diagnostics.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		TakenAt:             time.Now(),
		State:               e.Trigger.State(),
		SimulationStartOnly: e.Trigger.SimulationStartOnly(),
		Trigger:             e.Trigger.Stats(),
		PolicyMode:          e.Policy.Mode(),
		Chosen:              "none",
		Switches:            e.Policy.Switches(),
		Frames:              e.Frames.Summary(),
		Extensions:          e.Vulkan.Extensions(),
		ExtensionsInjected:  e.Vulkan.ExtensionsInjected(),
		Fallback:            e.Fallback.Snapshot(),
		ETW:                 e.ETW.Stats(),
		Vulkan:              e.Vulkan.Stats(),
		Reflex:              e.Reflex.Stats(),
		SyntheticFrames:     e.Synthetic.Frames(),
	}
	if id, ok := e.Policy.Chosen(); ok {
		s.Chosen = id.String()
	}
	for _, ch := range e.channels {
		s.Channels = append(s.Channels, ChannelSnapshot{
			ID:            ch.ID(),
			Enabled:       e.Enabled(ch.ID()),
			Installed:     ch.Installed(),
			Authoritative: e.Policy.IsAuthoritative(ch.ID()),
			Counters:      ch.Counters(),
		})
	}
	return s
}
