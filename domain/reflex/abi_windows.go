//go:build windows

package reflex

// Native replacements for nvapi_QueryInterface and the marker interface it
// hands out. Callbacks are created once per process and dispatch to the
// adapter that installed them last.

import (
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/soocke/marker-pacer-go/domain/intercept"
)

var (
	modNvapi           = windows.NewLazySystemDLL(Module)
	procQueryInterface = modNvapi.NewProc(FnQueryInterface)

	active  atomic.Pointer[Adapter]
	selfMod uintptr
	cbOnce  sync.Once

	cbQuery     uintptr
	cbSetMarker uintptr
)

// latencyMarkerParams mirrors NV_LATENCY_MARKER_PARAMS.
type latencyMarkerParams struct {
	Version    uint32
	FrameID    uint64
	MarkerType uint32
	Rsvd       [64]byte
}

func initCallbacks() {
	selfMod = intercept.SelfModule()
	cbQuery = syscall.NewCallback(queryInterfaceHook)
	cbSetMarker = syscall.NewCallback(setLatencyMarkerHook)
	intercept.HookEntries.Add(cbQuery, cbSetMarker)
}

func platformHooks(a *Adapter) []intercept.Hook {
	cbOnce.Do(initCallbacks)
	active.Store(a)
	return []intercept.Hook{{Module: Module, Name: FnQueryInterface, Replacement: cbQuery}}
}

func platformMarkerWrapper(*Adapter) uintptr {
	cbOnce.Do(initCallbacks)
	return cbSetMarker
}

// void* nvapi_QueryInterface(NvU32 id)
func queryInterfaceHook(id uintptr) uintptr {
	a := active.Load()
	var (
		slot       *atomic.Uintptr
		installing func() bool
	)
	if a != nil {
		slot = &a.origQuery
		installing = a.installing.Load
	}
	fn := intercept.CallTarget(slot, installing, func() uintptr {
		if procQueryInterface.Find() != nil {
			return 0
		}
		return procQueryInterface.Addr()
	})
	if fn == 0 {
		return 0
	}
	addr, _, _ := syscall.SyscallN(fn, id)
	if a == nil || !a.Installed() {
		return addr
	}
	return a.OnQueryInterface(uint32(id), addr)
}

// NvAPI_Status NvAPI_D3D_SetLatencyMarker(IUnknown*, NV_LATENCY_MARKER_PARAMS*)
func setLatencyMarkerHook(device, pParams uintptr) uintptr {
	a := active.Load()
	if a == nil {
		return statusCode(StatusError)
	}
	var forward func() Status
	if fn := a.origMarker.Load(); fn != 0 {
		forward = func() Status {
			r, _, _ := syscall.SyscallN(fn, device, pParams)
			return Status(int32(r))
		}
	}
	if pParams == 0 {
		if forward != nil {
			return statusCode(forward())
		}
		return statusCode(StatusError)
	}
	p := (*latencyMarkerParams)(unsafe.Pointer(pParams))
	return statusCode(a.SetLatencyMarker(p.FrameID, p.MarkerType, intercept.CallerOrigin(selfMod), forward))
}
