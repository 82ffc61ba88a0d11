package etw

import "sync"

// Reusable read buffers for descriptor payloads. Classification runs on the
// provider's logging thread for every write of the tracked provider, so each
// call borrows a buffer instead of allocating up to maxDescriptorSize bytes.
// A buffer must not be touched after it has been returned.

var scratchPool = sync.Pool{
	New: func() any {
		b := make([]byte, maxDescriptorSize)
		return &b
	},
}

// acquireScratch returns a buffer with capacity maxDescriptorSize.
func acquireScratch() *[]byte {
	return scratchPool.Get().(*[]byte)
}

// releaseScratch hands buf back to the pool.
func releaseScratch(buf *[]byte) {
	if buf == nil || cap(*buf) < maxDescriptorSize {
		return
	}
	*buf = (*buf)[:maxDescriptorSize]
	scratchPool.Put(buf)
}
