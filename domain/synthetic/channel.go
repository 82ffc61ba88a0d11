package synthetic

// Synthetic marker channel. It intercepts nothing: markers are emitted by
// Go code, which makes it the reference channel for tests and for replaying
// a frame cadence in the diagnostics harness.

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/soocke/marker-pacer-go/domain/marker"
	"github.com/soocke/marker-pacer-go/domain/pacing"
)

// FrameSequence is the marker order of one emitted frame.
var FrameSequence = []marker.Type{
	marker.SimulationStart,
	marker.SimulationEnd,
	marker.RenderSubmitStart,
	marker.RenderSubmitEnd,
	marker.PresentStart,
	marker.PresentEnd,
}

// Channel emits markers straight into the pacing trigger.
type Channel struct {
	trigger *pacing.Trigger
	logger  *slog.Logger

	installed atomic.Bool
	counters  marker.Counters
	frames    atomic.Uint64
}

// New returns an uninstalled synthetic channel.
func New(trigger *pacing.Trigger, logger *slog.Logger) *Channel {
	return &Channel{trigger: trigger, logger: logger}
}

func (c *Channel) ID() marker.ChannelID { return marker.ChannelSynthetic }

func (c *Channel) Install() error {
	if !c.installed.Swap(true) && c.logger != nil {
		c.logger.Info("synthetic channel installed")
	}
	return nil
}

func (c *Channel) Uninstall() {
	if c.installed.Swap(false) && c.logger != nil {
		c.logger.Info("synthetic channel uninstalled")
	}
}

func (c *Channel) Installed() bool          { return c.installed.Load() }
func (c *Channel) Counters() marker.Snapshot { return c.counters.Snapshot() }
func (c *Channel) ResetCounters()            { c.counters.Reset(); c.frames.Store(0) }

// Frames returns how many complete frames were emitted.
func (c *Channel) Frames() uint64 { return c.frames.Load() }

// Emit delivers one marker as an external call would. Nothing happens while
// the channel is uninstalled.
func (c *Channel) Emit(t marker.Type, frameID uint64, origin marker.Origin) pacing.Role {
	if !c.installed.Load() || origin == marker.SelfModule {
		return pacing.RoleIgnore
	}
	ev := marker.Event{
		Type:        t,
		Dialect:     marker.DialectNative,
		FrameID:     frameID,
		HasFrameID:  true,
		Origin:      origin,
		TimestampNs: c.trigger.Now(),
	}
	c.counters.RecordDialect(ev.Dialect)
	if !c.counters.Observe(ev) {
		return pacing.RoleIgnore
	}
	return c.trigger.Handle(ev, marker.ChannelSynthetic)
}

// EmitFrame emits FrameSequence for frameID.
func (c *Channel) EmitFrame(frameID uint64) {
	if !c.installed.Load() {
		return
	}
	for _, t := range FrameSequence {
		c.Emit(t, frameID, marker.External)
	}
	c.frames.Add(1)
}

// Replay emits one frame per tick at fps until ctx is done.
func (c *Channel) Replay(ctx context.Context, fps int) {
	if fps <= 0 {
		return
	}
	t := time.NewTicker(time.Second / time.Duration(fps))
	defer t.Stop()
	var frame uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			frame++
			c.EmitFrame(frame)
		}
	}
}

var _ marker.Channel = (*Channel)(nil)
