//go:build windows

package etw

// Native replacements for the advapi32 event API. Callbacks are created once
// per process and dispatch to the adapter that installed them last. When a
// call races with uninstall, the export itself is called, which is the
// unpatched original at that point.

import (
	"runtime/debug"
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/soocke/marker-pacer-go/domain/intercept"
	"github.com/soocke/marker-pacer-go/domain/marker"
)

const errorInvalidFunction = 1

var (
	modAdvapi32            = windows.NewLazySystemDLL(Module)
	procEventRegister      = modAdvapi32.NewProc(FnEventRegister)
	procEventUnregister    = modAdvapi32.NewProc(FnEventUnregister)
	procEventWriteTransfer = modAdvapi32.NewProc(FnEventWriteTransfer)

	active  atomic.Pointer[Adapter]
	selfMod uintptr
	cbOnce  sync.Once

	cbRegister   uintptr
	cbUnregister uintptr
	cbWrite      uintptr
)

func initCallbacks() {
	selfMod = intercept.SelfModule()
	cbRegister = syscall.NewCallback(eventRegisterHook)
	cbUnregister = syscall.NewCallback(eventUnregisterHook)
	cbWrite = syscall.NewCallback(eventWriteTransferHook)
	intercept.HookEntries.Add(cbRegister, cbUnregister, cbWrite)
}

func platformHooks(a *Adapter) []intercept.Hook {
	cbOnce.Do(initCallbacks)
	active.Store(a)
	return []intercept.Hook{
		{Module: Module, Name: FnEventRegister, Replacement: cbRegister},
		{Module: Module, Name: FnEventUnregister, Replacement: cbUnregister},
		{Module: Module, Name: FnEventWriteTransfer, Replacement: cbWrite},
	}
}

func original(a *Adapter, slot *atomic.Uintptr, proc *windows.LazyProc) uintptr {
	var installing func() bool
	if a != nil {
		installing = a.installing.Load
	}
	return intercept.CallTarget(slot, installing, func() uintptr {
		if proc.Find() != nil {
			return 0
		}
		return proc.Addr()
	})
}

func callerOrigin() marker.Origin { return intercept.CallerOrigin(selfMod) }

// observe runs fn and swallows panics so the forward always happens. Faults
// on bad provider pointers are turned into panics for the duration.
func observe(fn func()) {
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() { _ = recover() }()
	fn()
}

// ULONG EventRegister(LPCGUID ProviderId, PENABLECALLBACK EnableCallback,
// PVOID CallbackContext, PREGHANDLE RegHandle)
func eventRegisterHook(providerID, enableCallback, callbackContext, regHandle uintptr) uintptr {
	a := active.Load()
	var slot *atomic.Uintptr
	if a != nil {
		slot = &a.origRegister
	}
	fn := original(a, slot, procEventRegister)
	if fn == 0 {
		return errorInvalidFunction
	}
	r, _, _ := syscall.SyscallN(fn, providerID, enableCallback, callbackContext, regHandle)
	if r == 0 && a != nil && providerID != 0 && regHandle != 0 {
		observe(func() {
			guid := guidAt(providerID)
			handle := *(*uint64)(unsafe.Pointer(regHandle))
			a.OnRegister(guid, handle, callerOrigin())
		})
	}
	return r
}

// ULONG EventUnregister(REGHANDLE RegHandle)
func eventUnregisterHook(regHandle uintptr) uintptr {
	a := active.Load()
	var slot *atomic.Uintptr
	if a != nil {
		slot = &a.origUnregister
		observe(func() { a.OnUnregister(uint64(regHandle)) })
	}
	fn := original(a, slot, procEventUnregister)
	if fn == 0 {
		return errorInvalidFunction
	}
	r, _, _ := syscall.SyscallN(fn, regHandle)
	return r
}

// ULONG EventWriteTransfer(REGHANDLE RegHandle, PCEVENT_DESCRIPTOR EventDescriptor,
// LPCGUID ActivityId, LPCGUID RelatedActivityId, ULONG UserDataCount,
// PEVENT_DATA_DESCRIPTOR UserData)
func eventWriteTransferHook(regHandle, eventDescriptor, activityID, relatedActivityID, userDataCount, userData uintptr) uintptr {
	a := active.Load()
	var slot *atomic.Uintptr
	if a != nil {
		slot = &a.origWrite
		if a.Installed() && uint64(regHandle) == a.tracked.Load() {
			observe(func() {
				a.OnWriteAt(uint64(regHandle), uint64(userData), uint32(userDataCount), callerOrigin())
			})
		}
	}
	fn := original(a, slot, procEventWriteTransfer)
	if fn == 0 {
		return errorInvalidFunction
	}
	r, _, _ := syscall.SyscallN(fn, regHandle, eventDescriptor, activityID, relatedActivityID, userDataCount, userData)
	return r
}
