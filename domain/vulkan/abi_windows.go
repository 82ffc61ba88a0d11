//go:build windows

package vulkan

// Native replacements for the Vulkan loader entry points and the driver's
// marker function. Callbacks are created once per process and dispatch to
// the adapter that installed them last.

import (
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/soocke/marker-pacer-go/domain/intercept"
)

var (
	modVulkan               = windows.NewLazySystemDLL(Module)
	procCreateDevice        = modVulkan.NewProc(FnCreateDevice)
	procGetDeviceProcAddr   = modVulkan.NewProc(FnGetDeviceProcAddr)
	procGetInstanceProcAddr = modVulkan.NewProc(FnGetInstanceProcAddr)

	active  atomic.Pointer[Adapter]
	selfMod uintptr
	cbOnce  sync.Once

	cbCreateDevice uintptr
	cbDeviceProc   uintptr
	cbInstanceProc uintptr
	cbSetMarker    uintptr
)

// deviceCreateInfo mirrors VkDeviceCreateInfo.
type deviceCreateInfo struct {
	SType                   uint32
	PNext                   uintptr
	Flags                   uint32
	QueueCreateInfoCount    uint32
	PQueueCreateInfos       uintptr
	EnabledLayerCount       uint32
	PpEnabledLayerNames     uintptr
	EnabledExtensionCount   uint32
	PpEnabledExtensionNames uintptr
	PEnabledFeatures        uintptr
}

// setLatencyMarkerInfo mirrors VkSetLatencyMarkerInfoNV.
type setLatencyMarkerInfo struct {
	SType     uint32
	PNext     uintptr
	PresentID uint64
	Marker    uint32
}

// maxExtensions bounds the extension array read from a create info.
const maxExtensions = 1024

func initCallbacks() {
	selfMod = intercept.SelfModule()
	cbCreateDevice = syscall.NewCallback(createDeviceHook)
	cbDeviceProc = syscall.NewCallback(getDeviceProcAddrHook)
	cbInstanceProc = syscall.NewCallback(getInstanceProcAddrHook)
	cbSetMarker = syscall.NewCallback(setLatencyMarkerHook)
	intercept.HookEntries.Add(cbCreateDevice, cbDeviceProc, cbInstanceProc, cbSetMarker)
}

func platformHooks(a *Adapter) []intercept.Hook {
	cbOnce.Do(initCallbacks)
	active.Store(a)
	return []intercept.Hook{
		{Module: Module, Name: FnCreateDevice, Replacement: cbCreateDevice},
		{Module: Module, Name: FnGetDeviceProcAddr, Replacement: cbDeviceProc},
		{Module: Module, Name: FnGetInstanceProcAddr, Replacement: cbInstanceProc},
	}
}

func platformMarkerWrapper(*Adapter) uintptr {
	cbOnce.Do(initCallbacks)
	return cbSetMarker
}

func original(a *Adapter, slot func(*Adapter) *atomic.Uintptr, proc *windows.LazyProc) uintptr {
	var (
		s          *atomic.Uintptr
		installing func() bool
	)
	if a != nil {
		s = slot(a)
		installing = a.installing.Load
	}
	return intercept.CallTarget(s, installing, func() uintptr {
		if proc.Find() != nil {
			return 0
		}
		return proc.Addr()
	})
}

func readExtensionNames(arr uintptr, count uint32) (names []string, ok bool) {
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		if recover() != nil {
			names, ok = nil, false
		}
	}()
	if count == 0 {
		return nil, true
	}
	if arr == 0 || count > maxExtensions {
		return nil, false
	}
	ptrs := unsafe.Slice((**byte)(unsafe.Pointer(arr)), count)
	names = make([]string, 0, count)
	for _, p := range ptrs {
		names = append(names, windows.BytePtrToString(p))
	}
	return names, true
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// VkResult vkCreateDevice(VkPhysicalDevice, const VkDeviceCreateInfo*,
// const VkAllocationCallbacks*, VkDevice*)
func createDeviceHook(physicalDevice, pCreateInfo, pAllocator, pDevice uintptr) uintptr {
	a := active.Load()
	fn := original(a, func(a *Adapter) *atomic.Uintptr { return &a.origCreateDevice }, procCreateDevice)
	if fn == 0 {
		return resultCode(ErrorInitializationFailed)
	}
	forward := func() Result {
		r, _, _ := syscall.SyscallN(fn, physicalDevice, pCreateInfo, pAllocator, pDevice)
		return Result(int32(r))
	}
	if a == nil || pCreateInfo == 0 {
		return resultCode(forward())
	}
	info := (*deviceCreateInfo)(unsafe.Pointer(pCreateInfo))
	requested, ok := readExtensionNames(info.PpEnabledExtensionNames, info.EnabledExtensionCount)
	if !ok {
		return resultCode(forward())
	}
	res := a.CreateDevice(requested, func(exts []string) Result {
		if sameNames(exts, requested) {
			return forward()
		}
		return createWithExtensions(fn, physicalDevice, info, pAllocator, pDevice, exts)
	})
	return resultCode(res)
}

func createWithExtensions(fn, physicalDevice uintptr, info *deviceCreateInfo, pAllocator, pDevice uintptr, exts []string) Result {
	strs := make([][]byte, len(exts))
	ptrs := make([]uintptr, len(exts))
	for i, e := range exts {
		strs[i] = append([]byte(e), 0)
		ptrs[i] = uintptr(unsafe.Pointer(&strs[i][0]))
	}
	patched := *info
	patched.EnabledExtensionCount = uint32(len(exts))
	if len(ptrs) > 0 {
		patched.PpEnabledExtensionNames = uintptr(unsafe.Pointer(&ptrs[0]))
	}
	r, _, _ := syscall.SyscallN(fn, physicalDevice, uintptr(unsafe.Pointer(&patched)), pAllocator, pDevice)
	runtime.KeepAlive(strs)
	runtime.KeepAlive(ptrs)
	return Result(int32(r))
}

func procAddrHook(a *Adapter, fn, handle, pName uintptr) uintptr {
	if fn == 0 {
		return 0
	}
	addr, _, _ := syscall.SyscallN(fn, handle, pName)
	if a == nil || !a.Installed() || pName == 0 {
		return addr
	}
	name := windows.BytePtrToString((*byte)(unsafe.Pointer(pName)))
	return a.OnGetProcAddr(name, addr)
}

// PFN_vkVoidFunction vkGetDeviceProcAddr(VkDevice, const char*)
func getDeviceProcAddrHook(device, pName uintptr) uintptr {
	a := active.Load()
	fn := original(a, func(a *Adapter) *atomic.Uintptr { return &a.origDeviceProc }, procGetDeviceProcAddr)
	return procAddrHook(a, fn, device, pName)
}

// PFN_vkVoidFunction vkGetInstanceProcAddr(VkInstance, const char*)
func getInstanceProcAddrHook(instance, pName uintptr) uintptr {
	a := active.Load()
	fn := original(a, func(a *Adapter) *atomic.Uintptr { return &a.origInstanceProc }, procGetInstanceProcAddr)
	return procAddrHook(a, fn, instance, pName)
}

// void vkSetLatencyMarkerNV(VkDevice, VkSwapchainKHR,
// const VkSetLatencyMarkerInfoNV*)
func setLatencyMarkerHook(device, swapchain, pInfo uintptr) uintptr {
	a := active.Load()
	if a == nil {
		return 0
	}
	var forward func()
	if fn := a.origMarker.Load(); fn != 0 {
		forward = func() { syscall.SyscallN(fn, device, swapchain, pInfo) }
	}
	if pInfo == 0 {
		if forward != nil {
			forward()
		}
		return 0
	}
	info := (*setLatencyMarkerInfo)(unsafe.Pointer(pInfo))
	a.SetLatencyMarker(info.PresentID, info.Marker, intercept.CallerOrigin(selfMod), forward)
	return 0
}
