package fallback

import (
	"sync"
	"testing"
)

// fakeStubs hands out fake addresses and keeps the call hooks so tests can
// play the application calling a stub.
type fakeStubs struct {
	mu    sync.Mutex
	next  uintptr
	calls map[uintptr]func()
	built int
}

func newFakeStubs() *fakeStubs { return &fakeStubs{next: 0x7000, calls: make(map[uintptr]func())} }

func (f *fakeStubs) factory(_ string, _ uintptr, onCall func()) uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next += 0x10
	f.calls[f.next] = onCall
	f.built++
	return f.next
}

func (f *fakeStubs) call(addr uintptr) {
	f.mu.Lock()
	fn := f.calls[addr]
	f.mu.Unlock()
	fn()
}

func TestRegistry_EndpointBuiltOnce(t *testing.T) {
	stubs := newFakeStubs()
	r := NewRegistry(stubs.factory, nil)
	a := r.Endpoint("vkLatencySleepNV", 1)
	b := r.Endpoint("vkLatencySleepNV", 1)
	if a == 0 || a != b {
		t.Fatalf("expected stable endpoint, got %#x %#x", a, b)
	}
	if stubs.built != 1 {
		t.Fatalf("expected one stub, built %d", stubs.built)
	}
	if !r.Synthesized("vkLatencySleepNV") || r.Synthesized("vkGetLatencyTimingsNV") {
		t.Fatalf("unexpected synthesized state")
	}
}

func TestRegistry_CountsCallsAndResets(t *testing.T) {
	stubs := newFakeStubs()
	r := NewRegistry(stubs.factory, nil)
	sleep := r.Endpoint("vkLatencySleepNV", 1)
	timings := r.Endpoint("vkGetLatencyTimingsNV", 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				stubs.call(sleep)
			}
		}()
	}
	wg.Wait()
	stubs.call(timings)

	if got := r.Calls("vkLatencySleepNV"); got != 800 {
		t.Fatalf("expected 800 calls, got %d", got)
	}
	snap := r.Snapshot()
	if len(snap) != 2 || snap[0].Name != "vkGetLatencyTimingsNV" || snap[0].Calls != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	r.Reset()
	if r.Calls("vkLatencySleepNV") != 0 || r.Calls("vkGetLatencyTimingsNV") != 0 {
		t.Fatalf("reset must zero counts")
	}
	if r.Endpoint("vkLatencySleepNV", 1) != sleep {
		t.Fatalf("reset must keep endpoints")
	}
}

func TestRegistry_AdoptAndRecord(t *testing.T) {
	r := NewRegistry(newFakeStubs().factory, nil)
	r.Adopt("vkSetLatencyMarkerNV", 0x1234)
	r.Record("vkSetLatencyMarkerNV")
	r.Record("vkSetLatencyMarkerNV")
	if r.Calls("vkSetLatencyMarkerNV") != 2 || !r.Synthesized("vkSetLatencyMarkerNV") {
		t.Fatalf("adopted endpoint not counted")
	}
	if r.Endpoint("vkSetLatencyMarkerNV", 0) != 0x1234 {
		t.Fatalf("adopted endpoint must be returned")
	}
}

func TestRegistry_NilSafe(t *testing.T) {
	var r *Registry
	if r.Endpoint("x", 0) != 0 || r.Calls("x") != 0 || r.Snapshot() != nil {
		t.Fatalf("nil registry must be inert")
	}
	r.Record("x")
	r.Reset()
}
