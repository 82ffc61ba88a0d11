package intercept

import (
	"runtime"
	"sync/atomic"
)

// installWaitSpins bounds how long a call that arrives between patching and
// publishing the originals waits.
const installWaitSpins = 10000

// CallTarget returns the address an intercepted call is forwarded to: the
// original published in slot or, once the hook is gone, the export itself.
// While installing reports true the export is still patched, so CallTarget
// waits for the original and returns 0 if it never shows up.
func CallTarget(slot *atomic.Uintptr, installing func() bool, export func() uintptr) uintptr {
	if slot != nil {
		for i := 0; i < installWaitSpins; i++ {
			if fn := slot.Load(); fn != 0 {
				return fn
			}
			if installing == nil || !installing() {
				break
			}
			runtime.Gosched()
		}
		if installing != nil && installing() {
			return 0
		}
	}
	if export == nil {
		return 0
	}
	return export()
}
