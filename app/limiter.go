package app

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/soocke/marker-pacer-go/config"
	"github.com/soocke/marker-pacer-go/domain/marker"
	"github.com/soocke/marker-pacer-go/domain/pacing"
)

const (
	channelSlots = int(marker.ChannelSynthetic) + 1
	noChannel    = -1
)

// ChannelPolicy selects the channel whose markers drive pacing. In a fixed
// mode one channel is always authoritative. In auto mode the highest
// priority channel (reflex, vulkan, etw, synthetic) that delivered a begin
// marker within the stale window wins. All methods are lock-free.
type ChannelPolicy struct {
	logger *slog.Logger

	fixed     atomic.Int32
	staleNs   atomic.Uint64
	chosen    atomic.Int32
	switches  atomic.Uint64
	lastBegin [channelSlots]atomic.Uint64
}

// NewChannelPolicy returns a policy for mode, one of the config channel
// names or "auto".
func NewChannelPolicy(mode string, stale time.Duration, logger *slog.Logger) *ChannelPolicy {
	p := &ChannelPolicy{logger: logger}
	p.chosen.Store(noChannel)
	p.SetMode(mode)
	p.SetStale(stale)
	return p
}

// SetMode switches between auto and a fixed channel. Unknown names mean auto.
func (p *ChannelPolicy) SetMode(mode string) {
	id, ok := marker.ParseChannelID(mode)
	if !ok || mode == config.ChannelAuto {
		p.fixed.Store(noChannel)
		return
	}
	p.fixed.Store(int32(id))
	p.chosen.Store(int32(id))
}

// Mode returns the configured mode name.
func (p *ChannelPolicy) Mode() string {
	if f := p.fixed.Load(); f != noChannel {
		return marker.ChannelID(f).String()
	}
	return config.ChannelAuto
}

// SetStale sets how long a channel stays eligible after its last begin.
func (p *ChannelPolicy) SetStale(d time.Duration) {
	if d <= 0 {
		d = 500 * time.Millisecond
	}
	p.staleNs.Store(uint64(d.Nanoseconds()))
}

func (p *ChannelPolicy) ChooseLimiter(nowNs uint64, site marker.ChannelID) {
	if int(site) < 0 || int(site) >= channelSlots {
		return
	}
	p.lastBegin[site].Store(nowNs)
	if f := p.fixed.Load(); f != noChannel {
		p.chosen.Store(f)
		return
	}
	stale := p.staleNs.Load()
	next := int32(noChannel)
	for i := 0; i < channelSlots; i++ {
		last := p.lastBegin[i].Load()
		if last == 0 {
			continue
		}
		if last >= nowNs || nowNs-last <= stale {
			next = int32(i)
			break
		}
	}
	if prev := p.chosen.Swap(next); prev != next {
		p.switches.Add(1)
	}
}

func (p *ChannelPolicy) IsAuthoritative(site marker.ChannelID) bool {
	return p.chosen.Load() == int32(site)
}

// Chosen returns the currently authoritative channel.
func (p *ChannelPolicy) Chosen() (marker.ChannelID, bool) {
	c := p.chosen.Load()
	if c == noChannel {
		return 0, false
	}
	return marker.ChannelID(c), true
}

// Switches counts authority changes in auto mode.
func (p *ChannelPolicy) Switches() uint64 { return p.switches.Load() }

// Reset forgets channel activity. A fixed channel stays chosen.
func (p *ChannelPolicy) Reset() {
	for i := range p.lastBegin {
		p.lastBegin[i].Store(0)
	}
	p.switches.Store(0)
	p.chosen.Store(p.fixed.Load())
}

var _ pacing.Policy = (*ChannelPolicy)(nil)
