package intercept

import (
	"fmt"
	"sync"
)

// Table is an in-memory Fabric. It records redirections instead of patching
// code, which makes it the fabric of choice for tests and for channels that
// dispatch in software. The original returned for a target is the target.
type Table struct {
	mu      sync.RWMutex
	entries map[uintptr]uintptr
	reject  map[uintptr]bool
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{entries: make(map[uintptr]uintptr), reject: make(map[uintptr]bool)}
}

func (t *Table) Install(target, replacement uintptr) (uintptr, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if target == 0 || replacement == 0 || t.reject[target] {
		return 0, false
	}
	if _, dup := t.entries[target]; dup {
		return 0, false
	}
	t.entries[target] = replacement
	return target, true
}

func (t *Table) Uninstall(target uintptr) {
	t.mu.Lock()
	delete(t.entries, target)
	t.mu.Unlock()
}

// Reject makes future installs on target fail.
func (t *Table) Reject(target uintptr) {
	t.mu.Lock()
	t.reject[target] = true
	t.mu.Unlock()
}

// Lookup returns the replacement currently installed on target.
func (t *Table) Lookup(target uintptr) (uintptr, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.entries[target]
	return r, ok
}

// Len reports the number of active redirections.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// StaticResolver resolves entry points from a fixed "module!name" map.
type StaticResolver map[string]uintptr

func (r StaticResolver) Resolve(module, name string) (uintptr, error) {
	if addr, ok := r[module+"!"+name]; ok && addr != 0 {
		return addr, nil
	}
	return 0, fmt.Errorf("%s!%s: %w", module, name, ErrResolve)
}

var _ Fabric = (*Table)(nil)
var _ Resolver = StaticResolver(nil)
