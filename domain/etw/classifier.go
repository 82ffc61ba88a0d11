package etw

import (
	"bytes"
	"encoding/binary"

	"github.com/soocke/marker-pacer-go/domain/marker"
)

// eventToken is the TraceLogging event name of marker events. Later dialects
// append "V2" / "V3".
var eventToken = []byte("PCLStatsEvent")

// dialectTagOffset is where the dialect digit sits relative to the token.
var dialectTagOffset = len(eventToken) + 1

// ClassifyMetadata reports the dialect of a metadata blob, or DialectNone if
// blob does not name a marker event. The blob is treated as raw bytes: no
// alignment or terminator is assumed.
func ClassifyMetadata(blob []byte) marker.Dialect {
	if len(blob) < len(eventToken) {
		return marker.DialectNone
	}
	i := bytes.Index(blob, eventToken)
	if i < 0 {
		return marker.DialectNone
	}
	if tag := i + dialectTagOffset; tag < len(blob) {
		switch blob[tag] {
		case '2':
			return marker.DialectV2
		case '3':
			return marker.DialectV3
		}
	}
	return marker.DialectV1
}

// Result is the outcome of classifying one write.
type Result struct {
	Dialect    marker.Dialect
	Marker     marker.Type
	Found      bool
	FrameID    uint64
	HasFrameID bool
	// Skipped counts descriptors that were oversized or unreadable.
	Skipped int
}

// Classify scans descs once. The dialect comes from the first metadata blob;
// the marker is the first non-metadata payload whose leading little-endian
// uint32 lies in [0, marker.Count). An 8-byte descriptor right after the
// marker is taken as the frame id. Unreadable descriptors are skipped.
func Classify(descs []DataDescriptor, mem Memory) Result {
	var res Result
	if len(descs) == 0 || mem == nil {
		return res
	}
	scratch := acquireScratch()
	defer releaseScratch(scratch)
	buf := *scratch

	for i, d := range descs {
		if res.Dialect != marker.DialectNone && res.Found {
			break
		}
		blob, ok := readDescriptor(mem, d, buf)
		if !ok {
			res.Skipped++
			continue
		}
		if dialect := ClassifyMetadata(blob); dialect != marker.DialectNone {
			if res.Dialect == marker.DialectNone {
				res.Dialect = dialect
			}
			continue
		}
		if res.Found || len(blob) < 4 {
			continue
		}
		v := binary.LittleEndian.Uint32(blob)
		if v >= marker.Count {
			continue
		}
		res.Marker = marker.Type(v)
		res.Found = true
		if i+1 < len(descs) && descs[i+1].Size == 8 {
			if id, ok := readDescriptor(mem, descs[i+1], buf); ok {
				res.FrameID = binary.LittleEndian.Uint64(id)
				res.HasFrameID = true
			}
		}
	}
	return res
}

// ExtractMarker returns the marker carried by descs, if any.
func ExtractMarker(descs []DataDescriptor, mem Memory) (marker.Type, bool) {
	res := Classify(descs, mem)
	return res.Marker, res.Found
}

func readDescriptor(mem Memory, d DataDescriptor, buf []byte) ([]byte, bool) {
	if d.Ptr == 0 || d.Size == 0 || d.Size > maxDescriptorSize || int(d.Size) > len(buf) {
		return nil, false
	}
	blob := buf[:d.Size]
	if err := mem.ReadAt(blob, d.Ptr); err != nil {
		return nil, false
	}
	return blob, true
}
