//go:build windows

package fallback

import (
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
)

// Native callbacks cannot be freed, so one is built per name and result for
// the life of the process and rebound to the latest registry.
type stubSlot struct {
	addr   uintptr
	onCall atomic.Pointer[func()]
}

var (
	stubMu sync.Mutex
	stubs  = make(map[string]*stubSlot)
)

func nativeStub(name string, result uintptr, onCall func()) uintptr {
	stubMu.Lock()
	defer stubMu.Unlock()
	key := name + "/" + strconv.FormatUint(uint64(result), 16)
	s, ok := stubs[key]
	if !ok {
		s = &stubSlot{}
		slot := s
		s.addr = syscall.NewCallback(func(a1, a2, a3, a4 uintptr) uintptr {
			if fn := slot.onCall.Load(); fn != nil {
				(*fn)()
			}
			return result
		})
		stubs[key] = s
	}
	s.onCall.Store(&onCall)
	return s.addr
}
