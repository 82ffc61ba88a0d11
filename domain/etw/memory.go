package etw

import (
	"encoding/binary"
	"errors"
	"sort"
	"sync"
)

const (
	// maxDescriptorSize rejects payloads no well-formed provider produces.
	maxDescriptorSize = 64 << 10
	// maxDescriptors bounds the user-data array of a single write.
	maxDescriptors = 128
	// descriptorSize is sizeof(EVENT_DATA_DESCRIPTOR).
	descriptorSize = 16
)

// ErrUnreadable reports memory that could not be read at classification time.
var ErrUnreadable = errors.New("etw: descriptor memory unreadable")

// DataDescriptor mirrors EVENT_DATA_DESCRIPTOR. Ptr addresses memory owned
// by the provider, which may become invalid at any moment.
type DataDescriptor struct {
	Ptr      uint64
	Size     uint32
	Reserved uint32
}

// Memory reads externally owned memory. ReadAt fills dst completely or fails;
// it must never fault.
type Memory interface {
	ReadAt(dst []byte, addr uint64) error
}

// ReadDescriptors decodes count descriptors starting at addr.
func ReadDescriptors(mem Memory, addr uint64, count uint32) ([]DataDescriptor, error) {
	if count == 0 {
		return nil, nil
	}
	if addr == 0 || count > maxDescriptors || mem == nil {
		return nil, ErrUnreadable
	}
	raw := make([]byte, int(count)*descriptorSize)
	if err := mem.ReadAt(raw, addr); err != nil {
		return nil, err
	}
	out := make([]DataDescriptor, count)
	for i := range out {
		b := raw[i*descriptorSize:]
		out[i] = DataDescriptor{
			Ptr:      binary.LittleEndian.Uint64(b[0:8]),
			Size:     binary.LittleEndian.Uint32(b[8:12]),
			Reserved: binary.LittleEndian.Uint32(b[12:16]),
		}
	}
	return out, nil
}

// SliceMemory serves reads from registered byte regions. Reads that are not
// fully contained in one region fail, like reads of unmapped pages.
type SliceMemory struct {
	mu      sync.RWMutex
	bases   []uint64
	regions map[uint64][]byte
}

// NewSliceMemory returns an empty address space.
func NewSliceMemory() *SliceMemory {
	return &SliceMemory{regions: make(map[uint64][]byte)}
}

// Map places data at addr.
func (m *SliceMemory) Map(addr uint64, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.regions[addr]; !ok {
		m.bases = append(m.bases, addr)
		sort.Slice(m.bases, func(i, j int) bool { return m.bases[i] < m.bases[j] })
	}
	m.regions[addr] = data
}

// Unmap removes the region at addr, as a provider freeing its buffer would.
func (m *SliceMemory) Unmap(addr uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.regions[addr]; !ok {
		return
	}
	delete(m.regions, addr)
	for i, b := range m.bases {
		if b == addr {
			m.bases = append(m.bases[:i], m.bases[i+1:]...)
			break
		}
	}
}

func (m *SliceMemory) ReadAt(dst []byte, addr uint64) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := sort.Search(len(m.bases), func(i int) bool { return m.bases[i] > addr }) - 1
	if i < 0 {
		return ErrUnreadable
	}
	base := m.bases[i]
	region := m.regions[base]
	off := addr - base
	if off > uint64(len(region)) || uint64(len(dst)) > uint64(len(region))-off {
		return ErrUnreadable
	}
	copy(dst, region[off:])
	return nil
}

var _ Memory = (*SliceMemory)(nil)
