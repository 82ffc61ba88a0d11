package intercept

import (
	"slices"
	"sync"
	"sync/atomic"
)

// callbackReturnSpan bounds the distance between a callback entry and the
// return address its CALL into the runtime leaves on the native stack.
const callbackReturnSpan = 8

// CallbackEntries holds the native entry points this module hands out as
// hook replacements. Lookups do not lock.
type CallbackEntries struct {
	mu   sync.Mutex
	list atomic.Pointer[[]uintptr]
}

// Add records entry points. Zero addresses are ignored.
func (c *CallbackEntries) Add(entries ...uintptr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var next []uintptr
	if cur := c.list.Load(); cur != nil {
		next = slices.Clone(*cur)
	}
	for _, e := range entries {
		if e != 0 && !slices.Contains(next, e) {
			next = append(next, e)
		}
	}
	c.list.Store(&next)
}

// ReturnsInto reports whether ret is the return address left by entering one
// of the recorded callbacks.
func (c *CallbackEntries) ReturnsInto(ret uintptr) bool {
	if c == nil {
		return false
	}
	cur := c.list.Load()
	if cur == nil {
		return false
	}
	for _, e := range *cur {
		if ret > e && ret <= e+callbackReturnSpan {
			return true
		}
	}
	return false
}

// HookEntries lists every callback installed as a replacement by this module.
var HookEntries = &CallbackEntries{}

// CallerFrame returns the return address directly above the first callback
// entry frame. A patched entry point jumps into its callback, so that frame
// is where the hooked function returns to in its caller. Zero means no entry
// frame was captured.
func CallerFrame(frames []uintptr, entries *CallbackEntries) uintptr {
	for i := 0; i+1 < len(frames); i++ {
		if entries.ReturnsInto(frames[i]) {
			return frames[i+1]
		}
	}
	return 0
}
