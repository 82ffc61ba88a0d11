//go:build windows

package etw

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// ProcessMemory reads this process's memory through ReadProcessMemory, which
// fails with an error instead of faulting when a provider buffer has been
// freed or unmapped between dispatch and read.
type ProcessMemory struct {
	process windows.Handle
}

func (m *ProcessMemory) ReadAt(dst []byte, addr uint64) error {
	if len(dst) == 0 {
		return nil
	}
	var n uintptr
	if err := windows.ReadProcessMemory(m.process, uintptr(addr), &dst[0], uintptr(len(dst)), &n); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if int(n) != len(dst) {
		return ErrUnreadable
	}
	return nil
}

// DefaultMemory reads the current process.
func DefaultMemory() Memory { return &ProcessMemory{process: windows.CurrentProcess()} }
