package vulkan

// Entry points a driver may report as absent.
const (
	FnSetLatencySleepMode = "vkSetLatencySleepModeNV"
	FnLatencySleep        = "vkLatencySleepNV"
	FnSetLatencyMarker    = "vkSetLatencyMarkerNV"
	FnGetLatencyTimings   = "vkGetLatencyTimingsNV"
)

func isStubbed(name string) bool {
	switch name {
	case FnSetLatencySleepMode, FnLatencySleep, FnGetLatencyTimings:
		return true
	}
	return false
}

// OnGetProcAddr post-processes one proc-address lookup and returns the
// pointer handed back to the caller. A real marker function is hooked in
// place and returned unchanged, so pointers cached earlier also reach the
// wrapper. A missing marker function is replaced by the wrapper; the other
// latency entry points are replaced by inert stubs.
func (a *Adapter) OnGetProcAddr(name string, real uintptr) uintptr {
	switch {
	case name == FnSetLatencyMarker && real != 0:
		if a.markerWrapper == 0 {
			return real
		}
		if !a.markerTarget.CompareAndSwap(0, real) && a.markerTarget.Load() != real {
			// The loader trampoline and the ICD pointer chain into each other;
			// only the first one seen is hooked.
			if a.logger != nil {
				a.logger.Debug("vkSetLatencyMarkerNV already hooked elsewhere", "ptr", real)
			}
			return real
		}
		orig, err := a.set.Attach(real, a.markerWrapper)
		if err != nil {
			a.markerTarget.CompareAndSwap(real, 0)
			if a.logger != nil {
				a.logger.Warn("vkSetLatencyMarkerNV hook failed", "error", err)
			}
			return real
		}
		if a.origMarker.CompareAndSwap(0, orig) && a.logger != nil {
			a.logger.Info("vkSetLatencyMarkerNV hooked")
		}
		return real
	case name == FnSetLatencyMarker:
		if a.markerWrapper == 0 {
			return 0
		}
		a.fallback.Adopt(FnSetLatencyMarker, a.markerWrapper)
		a.synthMarker.Store(true)
		return a.markerWrapper
	case real == 0 && isStubbed(name):
		return a.fallback.Endpoint(name, resultCode(ErrorExtensionNotPresent))
	default:
		return real
	}
}
