package vulkan

import "sync"

// Device extensions requested on top of the application's list when
// injection is enabled.
const (
	ExtLowLatency2       = "VK_NV_low_latency2"
	ExtPresentID         = "VK_KHR_present_id"
	ExtTimelineSemaphore = "VK_KHR_timeline_semaphore"
)

// InjectedExtensions lists the extensions injection adds, in order.
var InjectedExtensions = []string{ExtLowLatency2, ExtPresentID, ExtTimelineSemaphore}

// Augment returns names plus every injected extension not already present.
// added reports whether anything was appended.
func Augment(names []string) (out []string, added bool) {
	out = make([]string, len(names), len(names)+len(InjectedExtensions))
	copy(out, names)
	for _, ext := range InjectedExtensions {
		if !contains(out, ext) {
			out = append(out, ext)
			added = true
		}
	}
	return out, added
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// ExtensionSnapshot is the enabled-extension list of the last created device.
// It is written by device creation and read by diagnostics.
type ExtensionSnapshot struct {
	mu       sync.RWMutex
	names    []string
	injected bool
}

// Store replaces the snapshot with a copy of names.
func (s *ExtensionSnapshot) Store(names []string, injected bool) {
	cp := append([]string(nil), names...)
	s.mu.Lock()
	s.names = cp
	s.injected = injected
	s.mu.Unlock()
}

// Names returns a copy of the captured list.
func (s *ExtensionSnapshot) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.names...)
}

// Injected reports whether the captured list is the augmented one.
func (s *ExtensionSnapshot) Injected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.injected
}
