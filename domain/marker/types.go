package marker

import "strconv"

// Count is the size of the shared marker index space. Every channel normalizes
// its native marker enum into [0, Count).
const Count = 20

// Type is a normalized pipeline-stage marker index.
type Type uint32

const (
	SimulationStart Type = iota
	SimulationEnd
	RenderSubmitStart
	RenderSubmitEnd
	PresentStart
	PresentEnd
	InputSample
	TriggerFlash
	LatencyPing
	OutOfBandRenderSubmitStart
	OutOfBandRenderSubmitEnd
	OutOfBandPresentStart
	OutOfBandPresentEnd
)

// Valid reports whether t fits the shared index space.
func (t Type) Valid() bool { return t < Count }

func (t Type) String() string {
	switch t {
	case SimulationStart:
		return "simulation_start"
	case SimulationEnd:
		return "simulation_end"
	case RenderSubmitStart:
		return "rendersubmit_start"
	case RenderSubmitEnd:
		return "rendersubmit_end"
	case PresentStart:
		return "present_start"
	case PresentEnd:
		return "present_end"
	case InputSample:
		return "input_sample"
	case TriggerFlash:
		return "trigger_flash"
	case LatencyPing:
		return "latency_ping"
	case OutOfBandRenderSubmitStart:
		return "oob_rendersubmit_start"
	case OutOfBandRenderSubmitEnd:
		return "oob_rendersubmit_end"
	case OutOfBandPresentStart:
		return "oob_present_start"
	case OutOfBandPresentEnd:
		return "oob_present_end"
	default:
		if t.Valid() {
			return "marker_" + strconv.Itoa(int(t))
		}
		return "invalid"
	}
}

// Dialect identifies the wire variant that produced a marker event.
type Dialect uint8

const (
	DialectNone Dialect = iota
	DialectV1
	DialectV2
	DialectV3
	// DialectNative is used by channels with a typed marker field.
	DialectNative

	DialectSlots
)

func (d Dialect) String() string {
	switch d {
	case DialectNone:
		return "none"
	case DialectV1:
		return "v1"
	case DialectV2:
		return "v2"
	case DialectV3:
		return "v3"
	case DialectNative:
		return "native"
	default:
		return "unknown"
	}
}

// Origin tells whether an intercepted call came from this module or from the
// host application / driver.
type Origin uint8

const (
	External Origin = iota
	SelfModule
)

func (o Origin) String() string {
	if o == SelfModule {
		return "self"
	}
	return "external"
}

// Event is built for a single intercepted call and dropped once that call has
// been handled. FrameID is diagnostic only; ordering is by arrival.
type Event struct {
	Type        Type
	Dialect     Dialect
	FrameID     uint64
	HasFrameID  bool
	Origin      Origin
	TimestampNs uint64
}
