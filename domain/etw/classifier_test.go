package etw

import (
	"encoding/binary"
	"testing"

	"github.com/soocke/marker-pacer-go/domain/marker"
)

// layout maps payloads into a fake address space and returns descriptors
// pointing at them.
type layout struct {
	mem  *SliceMemory
	next uint64
}

func newLayout() *layout { return &layout{mem: NewSliceMemory(), next: 0x10000} }

func (l *layout) add(data []byte) DataDescriptor {
	addr := l.next
	l.mem.Map(addr, data)
	l.next += uint64(len(data)) + 0x1000
	return DataDescriptor{Ptr: addr, Size: uint32(len(data))}
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func metadata(suffix string) []byte {
	// TraceLogging metadata: size prefix, tag byte, then the event name.
	out := []byte{0x20, 0x00, 0x00}
	out = append(out, eventToken...)
	out = append(out, []byte(suffix)...)
	out = append(out, 0x00, 'M', 'a', 'r', 'k', 'e', 'r', 0x00)
	return out
}

func TestClassifyMetadata_NoToken(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("PCLStats"),
		[]byte("SomeOtherProviderEvent with a long enough name"),
		[]byte("PCLStatsEven"),
	}
	for _, c := range cases {
		if d := ClassifyMetadata(c); d != marker.DialectNone {
			t.Fatalf("blob %q: expected none, got %v", c, d)
		}
	}
}

func TestClassifyMetadata_Dialects(t *testing.T) {
	cases := []struct {
		blob []byte
		want marker.Dialect
	}{
		{[]byte("PCLStatsEvent"), marker.DialectV1},
		{metadata(""), marker.DialectV1},
		{metadata("V2"), marker.DialectV2},
		{metadata("V3"), marker.DialectV3},
		{metadata("V4"), marker.DialectV1},
		// Tag must sit at the exact offset.
		{metadata("2"), marker.DialectV1},
	}
	for _, c := range cases {
		if got := ClassifyMetadata(c.blob); got != c.want {
			t.Fatalf("blob %q: expected %v, got %v", c.blob, c.want, got)
		}
	}
}

func TestClassify_ExtractsMarkerAndDialect(t *testing.T) {
	l := newLayout()
	descs := []DataDescriptor{
		l.add(metadata("V3")),
		l.add(u32(uint32(marker.PresentStart))),
		l.add(u64(0xabcdef)),
	}
	res := Classify(descs, l.mem)
	if res.Dialect != marker.DialectV3 || !res.Found || res.Marker != marker.PresentStart {
		t.Fatalf("unexpected result %+v", res)
	}
	if !res.HasFrameID || res.FrameID != 0xabcdef {
		t.Fatalf("expected frame id, got %+v", res)
	}
}

func TestClassify_SkipsOutOfRangeAndShortPayloads(t *testing.T) {
	l := newLayout()
	descs := []DataDescriptor{
		l.add(metadata("")),
		l.add([]byte{1, 2}),
		l.add(u32(20)),
		l.add(u32(0xffffffff)),
		l.add(u32(uint32(marker.RenderSubmitEnd))),
	}
	m, ok := ExtractMarker(descs, l.mem)
	if !ok || m != marker.RenderSubmitEnd {
		t.Fatalf("expected render submit end, got %v %v", m, ok)
	}
}

func TestClassify_NoMarkerNotFound(t *testing.T) {
	l := newLayout()
	descs := []DataDescriptor{l.add(metadata("V2")), l.add(u32(99))}
	if _, ok := ExtractMarker(descs, l.mem); ok {
		t.Fatalf("expected not found")
	}
	if _, ok := ExtractMarker(nil, l.mem); ok {
		t.Fatalf("expected not found on empty descriptor list")
	}
}

func TestClassify_UnreadableDescriptorSkipped(t *testing.T) {
	l := newLayout()
	gone := l.add(u32(uint32(marker.SimulationStart)))
	descs := []DataDescriptor{
		l.add(metadata("V2")),
		gone,
		{Ptr: 0, Size: 4},
		l.add(u32(uint32(marker.PresentEnd))),
	}
	l.mem.Unmap(gone.Ptr)
	res := Classify(descs, l.mem)
	if !res.Found || res.Marker != marker.PresentEnd {
		t.Fatalf("expected present end after skipped descriptors, got %+v", res)
	}
	if res.Skipped != 2 {
		t.Fatalf("expected 2 skipped descriptors, got %d", res.Skipped)
	}
}

func TestClassify_OversizedDescriptorRejected(t *testing.T) {
	l := newLayout()
	big := make([]byte, maxDescriptorSize+1)
	copy(big, u32(uint32(marker.PresentStart)))
	descs := []DataDescriptor{l.add(big)}
	res := Classify(descs, l.mem)
	if res.Found || res.Skipped != 1 {
		t.Fatalf("oversized descriptor must be rejected, got %+v", res)
	}
}

func TestClassify_MetadataNeverTakenAsMarker(t *testing.T) {
	l := newLayout()
	// A metadata blob whose first four bytes decode to a valid index.
	blob := append(u32(3), eventToken...)
	descs := []DataDescriptor{l.add(blob)}
	res := Classify(descs, l.mem)
	if res.Found {
		t.Fatalf("metadata blob must not carry a marker, got %+v", res)
	}
	if res.Dialect != marker.DialectV1 {
		t.Fatalf("expected base dialect, got %v", res.Dialect)
	}
}

func TestReadDescriptors(t *testing.T) {
	l := newLayout()
	raw := make([]byte, 2*descriptorSize)
	binary.LittleEndian.PutUint64(raw[0:], 0x1234)
	binary.LittleEndian.PutUint32(raw[8:], 4)
	binary.LittleEndian.PutUint64(raw[16:], 0x5678)
	binary.LittleEndian.PutUint32(raw[24:], 8)
	arr := l.add(raw)

	descs, err := ReadDescriptors(l.mem, arr.Ptr, 2)
	if err != nil {
		t.Fatalf("read descriptors: %v", err)
	}
	if descs[0].Ptr != 0x1234 || descs[0].Size != 4 || descs[1].Ptr != 0x5678 || descs[1].Size != 8 {
		t.Fatalf("unexpected descriptors %+v", descs)
	}
	if _, err := ReadDescriptors(l.mem, arr.Ptr, 3); err == nil {
		t.Fatalf("expected error reading past the mapped array")
	}
	if _, err := ReadDescriptors(l.mem, arr.Ptr, maxDescriptors+1); err == nil {
		t.Fatalf("expected error for oversized descriptor count")
	}
}
