package vulkan

// Result mirrors VkResult.
type Result int32

const (
	Success                   Result = 0
	ErrorInitializationFailed Result = -3
	ErrorExtensionNotPresent  Result = -7
	ErrorFeatureNotPresent    Result = -8
)

func (r Result) Succeeded() bool { return r >= 0 }

// resultCode is r as a native return register value.
func resultCode(r Result) uintptr { return uintptr(uint32(int32(r))) }

// CreateFunc performs device creation with the given extension list.
type CreateFunc func(extensions []string) Result

// CreateDevice runs one vkCreateDevice call. The requested list is always
// captured. With injection enabled the augmented list is tried first; if
// the driver rejects it, creation is repeated with the unmodified request
// and the snapshot reverts to it.
func (a *Adapter) CreateDevice(requested []string, create CreateFunc) Result {
	a.extensions.Store(requested, false)
	if a.inject.Load() {
		augmented, added := Augment(requested)
		if added {
			a.extensions.Store(augmented, true)
			r := create(augmented)
			if r.Succeeded() {
				a.devices.Add(1)
				if a.logger != nil {
					a.logger.Info("vulkan device created with injected extensions", "extensions", len(augmented))
				}
				return r
			}
			a.injectFailures.Add(1)
			a.extensions.Store(requested, false)
			if a.logger != nil {
				a.logger.Warn("vulkan extension injection failed; retrying with application extensions", "result", int32(r))
			}
		}
	}
	r := create(requested)
	if r.Succeeded() {
		a.devices.Add(1)
	}
	return r
}
