package intercept

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrResolve reports a named entry point that is not present in its module.
	ErrResolve = errors.New("intercept: entry point not found")
	// ErrHook reports that the fabric rejected a redirection.
	ErrHook = errors.New("intercept: hook rejected")
	// ErrUnsupported reports that native hooks cannot be built on this platform.
	ErrUnsupported = errors.New("intercept: native hooks unsupported on this platform")
)

// Fabric redirects a function pointer to a replacement and yields a callable
// that reaches the original implementation.
type Fabric interface {
	Install(target, replacement uintptr) (original uintptr, ok bool)
	Uninstall(target uintptr)
}

// Resolver finds exported entry points in already loaded modules.
type Resolver interface {
	Resolve(module, name string) (uintptr, error)
}

// Hook describes one named entry point to redirect.
type Hook struct {
	Module      string
	Name        string
	Replacement uintptr
}

type installedHook struct {
	key    string
	target uintptr
	orig   uintptr
}

// Set owns the hooks of one adapter. Install is all-or-nothing: when any hook
// fails, the ones already placed are removed again.
type Set struct {
	fabric   Fabric
	resolver Resolver
	logger   *slog.Logger

	mu    sync.Mutex
	hooks []installedHook
}

// NewSet returns an empty hook set backed by fabric and resolver.
func NewSet(fabric Fabric, resolver Resolver, logger *slog.Logger) *Set {
	return &Set{fabric: fabric, resolver: resolver, logger: logger}
}

// Install resolves and redirects every hook. The returned map holds the
// callable original for each hook name.
func (s *Set) Install(hooks []Hook) (map[string]uintptr, error) {
	if s == nil || s.fabric == nil || s.resolver == nil {
		return nil, ErrUnsupported
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	placed := make([]installedHook, 0, len(hooks))
	rollback := func() {
		for i := len(placed) - 1; i >= 0; i-- {
			s.fabric.Uninstall(placed[i].target)
		}
	}
	for _, h := range hooks {
		target, err := s.resolver.Resolve(h.Module, h.Name)
		if err != nil || target == 0 {
			rollback()
			if err == nil {
				err = ErrResolve
			}
			return nil, fmt.Errorf("%s!%s: %w", h.Module, h.Name, err)
		}
		if h.Replacement == 0 {
			rollback()
			return nil, fmt.Errorf("%s!%s: no replacement: %w", h.Module, h.Name, ErrUnsupported)
		}
		orig, ok := s.fabric.Install(target, h.Replacement)
		if !ok {
			rollback()
			return nil, fmt.Errorf("%s!%s: %w", h.Module, h.Name, ErrHook)
		}
		placed = append(placed, installedHook{key: h.Name, target: target, orig: orig})
	}
	s.hooks = append(s.hooks, placed...)
	originals := make(map[string]uintptr, len(placed))
	for _, p := range placed {
		originals[p.key] = p.orig
	}
	if s.logger != nil {
		s.logger.Debug("hooks installed", "count", len(placed))
	}
	return originals, nil
}

// Attach redirects an already known address, such as a pointer handed out by
// a driver's proc-address lookup. Attaching the same target twice returns the
// first original.
func (s *Set) Attach(target, replacement uintptr) (uintptr, error) {
	if s == nil || s.fabric == nil {
		return 0, ErrUnsupported
	}
	if target == 0 || replacement == 0 {
		return 0, ErrResolve
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.hooks {
		if h.target == target {
			return h.orig, nil
		}
	}
	orig, ok := s.fabric.Install(target, replacement)
	if !ok {
		return 0, ErrHook
	}
	s.hooks = append(s.hooks, installedHook{key: fmt.Sprintf("%#x", target), target: target, orig: orig})
	return orig, nil
}

// Uninstall removes every hook in reverse order of installation.
func (s *Set) Uninstall() {
	if s == nil || s.fabric == nil {
		return
	}
	s.mu.Lock()
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()
	for i := len(hooks) - 1; i >= 0; i-- {
		s.fabric.Uninstall(hooks[i].target)
	}
}

// Len reports the number of hooks currently placed.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hooks)
}
