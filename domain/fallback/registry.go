package fallback

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

// StubFactory builds a native callable for name. The callable runs onCall
// and returns result without touching its arguments.
type StubFactory func(name string, result uintptr, onCall func()) uintptr

// Count is the call count of one synthesized endpoint.
type Count struct {
	Name  string
	Calls uint64
}

type endpoint struct {
	addr  uintptr
	calls atomic.Uint64
}

// Registry hands out inert endpoints for entry points a driver reports as
// absent, and counts how often the application still calls them.
type Registry struct {
	factory StubFactory
	logger  *slog.Logger

	mu        sync.RWMutex
	endpoints map[string]*endpoint
}

// NewRegistry returns an empty registry. A nil factory uses the platform's
// native stubs.
func NewRegistry(factory StubFactory, logger *slog.Logger) *Registry {
	if factory == nil {
		factory = nativeStub
	}
	return &Registry{factory: factory, logger: logger, endpoints: make(map[string]*endpoint)}
}

// Endpoint returns the synthesized endpoint for name, building it on first
// use. Zero means no stub could be built.
func (r *Registry) Endpoint(name string, result uintptr) uintptr {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	e, ok := r.endpoints[name]
	r.mu.RUnlock()
	if ok && e.addr != 0 {
		return e.addr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e = r.entry(name)
	if e.addr == 0 {
		e.addr = r.factory(name, result, func() { e.calls.Add(1) })
		if r.logger != nil {
			r.logger.Info("fallback endpoint synthesized", "name", name, "ok", e.addr != 0)
		}
	}
	return e.addr
}

// Adopt registers an endpoint built by the caller, such as a typed wrapper
// standing in for a missing function, so that its calls show up here.
func (r *Registry) Adopt(name string, addr uintptr) {
	if r == nil {
		return
	}
	r.mu.Lock()
	e := r.entry(name)
	if e.addr == 0 {
		e.addr = addr
	}
	r.mu.Unlock()
}

// Record counts one call to name.
func (r *Registry) Record(name string) {
	if r == nil {
		return
	}
	r.mu.RLock()
	e, ok := r.endpoints[name]
	r.mu.RUnlock()
	if !ok {
		r.mu.Lock()
		e = r.entry(name)
		r.mu.Unlock()
	}
	e.calls.Add(1)
}

// Calls returns how often name was called.
func (r *Registry) Calls(name string) uint64 {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.endpoints[name]; ok {
		return e.calls.Load()
	}
	return 0
}

// Synthesized reports whether an endpoint was handed out for name.
func (r *Registry) Synthesized(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.endpoints[name]
	return ok && e.addr != 0
}

// Snapshot returns all counts sorted by name.
func (r *Registry) Snapshot() []Count {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	out := make([]Count, 0, len(r.endpoints))
	for name, e := range r.endpoints {
		out = append(out, Count{Name: name, Calls: e.calls.Load()})
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Reset zeroes call counts. Endpoints stay valid since callers may have
// cached them.
func (r *Registry) Reset() {
	if r == nil {
		return
	}
	r.mu.RLock()
	for _, e := range r.endpoints {
		e.calls.Store(0)
	}
	r.mu.RUnlock()
}

// entry must be called with mu held for writing.
func (r *Registry) entry(name string) *endpoint {
	e, ok := r.endpoints[name]
	if !ok {
		e = &endpoint{}
		r.endpoints[name] = e
	}
	return e
}
