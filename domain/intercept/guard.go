package intercept

import (
	"sync"
	"sync/atomic"

	"github.com/soocke/marker-pacer-go/domain/marker"
)

// ThreadGuard marks OS threads that are currently issuing calls on this
// module's behalf through hooked entry points. Hooks consult it before the
// stack-based filter, since a native stack walk cannot always tell the Go
// runtime's own frames from the caller's.
type ThreadGuard struct {
	threadID func() uint32
	depth    atomic.Int32

	mu     sync.Mutex
	active map[uint32]int
}

// NewThreadGuard returns a guard keyed by threadID. A nil threadID uses the
// platform's current-thread id.
func NewThreadGuard(threadID func() uint32) *ThreadGuard {
	if threadID == nil {
		threadID = currentThreadID
	}
	return &ThreadGuard{threadID: threadID, active: make(map[uint32]int)}
}

// Do runs fn with the calling thread marked as self. The goroutine must stay
// locked to its thread for the duration, which callers arrange with
// runtime.LockOSThread.
func (g *ThreadGuard) Do(fn func()) {
	if g == nil {
		fn()
		return
	}
	id := g.threadID()
	g.depth.Add(1)
	g.mu.Lock()
	g.active[id]++
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		if g.active[id]--; g.active[id] <= 0 {
			delete(g.active, id)
		}
		g.mu.Unlock()
		g.depth.Add(-1)
	}()
	fn()
}

// Active reports whether the current thread is inside Do. It does not lock
// while no thread is guarded.
func (g *ThreadGuard) Active() bool {
	if g == nil || g.depth.Load() == 0 {
		return false
	}
	id := g.threadID()
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active[id] > 0
}

// GuardedFilter reports SelfModule for guarded threads and defers to Next
// otherwise.
type GuardedFilter struct {
	Guard *ThreadGuard
	Next  OriginFilter
}

func (f GuardedFilter) Origin(ret uintptr) marker.Origin {
	if f.Guard.Active() {
		return marker.SelfModule
	}
	if f.Next == nil {
		return marker.External
	}
	return f.Next.Origin(ret)
}

var _ OriginFilter = GuardedFilter{}
