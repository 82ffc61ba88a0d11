package app

import (
	"fmt"
	"log/slog"

	"github.com/soocke/marker-pacer-go/domain/marker"
	"github.com/soocke/marker-pacer-go/ui/model"
)

// Diagnostics flattens the snapshot for the diagnostics window.
func (s Snapshot) Diagnostics() model.Diagnostics {
	d := model.Diagnostics{
		State:               s.State.String(),
		SimulationStartOnly: s.SimulationStartOnly,
		PolicyMode:          s.PolicyMode,
		Chosen:              s.Chosen,
		Switches:            s.Switches,
		Suppressed:          s.Trigger.Suppressed,
		Frames: model.FrameSample{
			Begins: s.Frames.Begins,
			Ends:   s.Frames.Ends,
			P50Ms:  s.Frames.P50Ms,
			P95Ms:  s.Frames.P95Ms,
			P99Ms:  s.Frames.P99Ms,
			FPS:    s.Frames.FPS,
		},
		Extensions:         s.Extensions,
		ExtensionsInjected: s.ExtensionsInjected,
	}
	for _, ch := range s.Channels {
		row := model.ChannelSample{
			Name:          ch.ID.String(),
			Enabled:       ch.Enabled,
			Installed:     ch.Installed,
			Authoritative: ch.Authoritative,
			Markers:       ch.Counters.Total(),
			OutOfRange:    ch.Counters.OutOfRange,
			LastFrameID:   ch.Counters.LastFrameID,
			Detail:        s.detail(ch.ID),
		}
		if ch.Counters.HasLast {
			row.LastMarker = ch.Counters.LastMarker.String()
		}
		d.Channels = append(d.Channels, row)
	}
	for _, c := range s.Fallback {
		d.Fallback = append(d.Fallback, model.FallbackSample{Name: c.Name, Calls: c.Calls})
	}
	return d
}

func (s Snapshot) detail(id marker.ChannelID) string {
	switch id {
	case marker.ChannelReflex:
		return fmt.Sprintf("queries=%d self=%d%s", s.Reflex.Queries, s.Reflex.SelfCalls, markerSource(s.Reflex.MarkerHooked, s.Reflex.MarkerSynthesized))
	case marker.ChannelVulkan:
		return fmt.Sprintf("devices=%d inject_fail=%d self=%d%s", s.Vulkan.Devices, s.Vulkan.InjectFailures, s.Vulkan.SelfCalls, markerSource(s.Vulkan.MarkerHooked, s.Vulkan.MarkerSynthesized))
	case marker.ChannelETW:
		return fmt.Sprintf("regs=%d handle=%#x writes=%d unreadable=%d", s.ETW.Registrations, s.ETW.TrackedHandle, s.ETW.Writes, s.ETW.UnreadableDesc)
	case marker.ChannelSynthetic:
		return fmt.Sprintf("frames=%d", s.SyntheticFrames)
	}
	return ""
}

func markerSource(hooked, synthesized bool) string {
	switch {
	case hooked:
		return " marker=hooked"
	case synthesized:
		return " marker=synthesized"
	}
	return ""
}

// LogAttrs renders the per-channel counters for the debug counter logger.
func (s Snapshot) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("state", s.State.String()),
		slog.String("chosen", s.Chosen),
		slog.Uint64("begins", s.Trigger.Begins),
		slog.Uint64("ends", s.Trigger.Ends),
		slog.Uint64("suppressed", s.Trigger.Suppressed),
		slog.Float64("p50_ms", s.Frames.P50Ms),
	}
	for _, ch := range s.Channels {
		attrs = append(attrs, slog.Group(ch.ID.String(),
			slog.Bool("installed", ch.Installed),
			slog.Uint64("markers", ch.Counters.Total()),
			slog.Uint64("out_of_range", ch.Counters.OutOfRange),
		))
	}
	return attrs
}
