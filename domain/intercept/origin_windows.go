//go:build windows

package intercept

// Module lookups for the call-origin filter and the loaded-module resolver.
// Only modules that are already mapped are consulted; nothing is loaded here.

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/soocke/marker-pacer-go/domain/marker"
)

const maxCallerFrames = 32

var (
	modKernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procRtlCaptureStackBackTrace = modKernel32.NewProc("RtlCaptureStackBackTrace")
)

// AddressModules resolves code addresses with GetModuleHandleEx.
type AddressModules struct{}

func (AddressModules) ModuleOf(addr uintptr) (uintptr, error) {
	if addr == 0 {
		return 0, errors.New("intercept: nil address")
	}
	var h windows.Handle
	flags := uint32(windows.GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS | windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT)
	if err := windows.GetModuleHandleEx(flags, (*uint16)(unsafe.Pointer(addr)), &h); err != nil {
		return 0, err
	}
	return uintptr(h), nil
}

// SelfModule returns the base of the module this code was linked into.
func SelfModule() uintptr {
	mod, err := AddressModules{}.ModuleOf(reflect.ValueOf(SelfModule).Pointer())
	if err != nil {
		return 0
	}
	return mod
}

// CallerAddress walks the native stack and returns the return address of the
// call that entered the hooked function. Zero means the walk did not reach a
// hook entry frame.
func CallerAddress() uintptr {
	var frames [maxCallerFrames]uintptr
	n, _, _ := procRtlCaptureStackBackTrace.Call(1, maxCallerFrames, uintptr(unsafe.Pointer(&frames[0])), 0)
	if n > maxCallerFrames {
		n = maxCallerFrames
	}
	return CallerFrame(frames[:n], HookEntries)
}

// LoadedModules resolves exports from modules already present in the process.
type LoadedModules struct{}

func (LoadedModules) Resolve(module, name string) (uintptr, error) {
	mod16, err := windows.UTF16PtrFromString(module)
	if err != nil {
		return 0, err
	}
	var h windows.Handle
	if err := windows.GetModuleHandleEx(windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT, mod16, &h); err != nil {
		return 0, fmt.Errorf("%s not loaded: %w", module, ErrResolve)
	}
	addr, err := windows.GetProcAddress(h, name)
	if err != nil || addr == 0 {
		return 0, fmt.Errorf("%s!%s: %w", module, name, ErrResolve)
	}
	return addr, nil
}

// DefaultResolver returns the platform resolver.
func DefaultResolver() Resolver { return LoadedModules{} }

// DefaultOriginFilter returns the platform call-origin filter. Calls whose
// module cannot be resolved count as external.
func DefaultOriginFilter() OriginFilter { return moduleFilter(SelfModule()) }

func currentThreadID() uint32 { return windows.GetCurrentThreadId() }

// SelfCalls marks threads issuing calls on this module's behalf.
var SelfCalls = NewThreadGuard(nil)

// CallerOrigin classifies the current intercepted call.
func CallerOrigin(self uintptr) marker.Origin {
	return moduleFilter(self).Origin(CallerAddress())
}

func moduleFilter(self uintptr) OriginFilter {
	return GuardedFilter{
		Guard: SelfCalls,
		Next:  &ModuleFilter{Self: self, Modules: AddressModules{}, Unresolved: marker.External},
	}
}
