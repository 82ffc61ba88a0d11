//go:build !windows

package etw

type noMemory struct{}

func (noMemory) ReadAt([]byte, uint64) error { return ErrUnreadable }

// DefaultMemory has nothing to read off Windows.
func DefaultMemory() Memory { return noMemory{} }
