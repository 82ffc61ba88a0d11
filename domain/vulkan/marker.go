package vulkan

import "github.com/soocke/marker-pacer-go/domain/marker"

// VkLatencyMarkerNV has no latency-ping slot, so every value from
// VK_LATENCY_MARKER_OUT_OF_BAND_RENDERSUBMIT_START_NV up sits one below the
// shared index.
const firstShifted = 8

// Normalize maps a VkLatencyMarkerNV value into the shared marker space.
func Normalize(v uint32) (marker.Type, bool) {
	if v < firstShifted {
		return marker.Type(v), true
	}
	if v >= marker.Count-1 {
		return marker.Type(v), false
	}
	return marker.Type(v + 1), true
}

// OnSetLatencyMarker classifies one vkSetLatencyMarkerNV call and runs the
// pacing action. The caller forwards the call afterwards.
func (a *Adapter) OnSetLatencyMarker(presentID uint64, vkMarker uint32, origin marker.Origin) (marker.Event, bool) {
	if origin == marker.SelfModule {
		a.selfCalls.Add(1)
		return marker.Event{}, false
	}
	a.markerCalls.Add(1)
	a.counters.RecordDialect(marker.DialectNative)
	t, ok := Normalize(vkMarker)
	if !ok {
		a.counters.RecordOutOfRange()
		return marker.Event{}, false
	}
	ev := marker.Event{
		Type:        t,
		Dialect:     marker.DialectNative,
		FrameID:     presentID,
		HasFrameID:  true,
		Origin:      origin,
		TimestampNs: a.trigger.Now(),
	}
	a.counters.Observe(ev)
	a.trigger.Handle(ev, marker.ChannelVulkan)
	return ev, true
}

// SetLatencyMarker handles a call on the marker wrapper. forward reaches the
// real implementation; when it is nil only the synthesized wrapper exists and
// the call completes silently.
func (a *Adapter) SetLatencyMarker(presentID uint64, vkMarker uint32, origin marker.Origin, forward func()) {
	func() {
		defer func() {
			if r := recover(); r != nil && a.logger != nil {
				a.logger.Error("vkSetLatencyMarkerNV observer panic", "panic", r)
			}
		}()
		a.OnSetLatencyMarker(presentID, vkMarker, origin)
	}()
	if forward != nil {
		forward()
		return
	}
	a.fallback.Record(FnSetLatencyMarker)
}
