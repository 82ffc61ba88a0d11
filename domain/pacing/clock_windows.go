//go:build windows

package pacing

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modKernel32                   = windows.NewLazySystemDLL("kernel32.dll")
	procQueryPerformanceCounter   = modKernel32.NewProc("QueryPerformanceCounter")
	procQueryPerformanceFrequency = modKernel32.NewProc("QueryPerformanceFrequency")
)

// QPCClock reads QueryPerformanceCounter, the same time base the present
// path and the driver use for their own latency reports.
type QPCClock struct {
	freq int64
}

func (c *QPCClock) NowNs() uint64 {
	var ticks int64
	_, _, _ = procQueryPerformanceCounter.Call(uintptr(unsafe.Pointer(&ticks)))
	// Split to avoid overflowing ticks*1e9.
	sec := ticks / c.freq
	rem := ticks % c.freq
	return uint64(sec)*1_000_000_000 + uint64(rem*1_000_000_000/c.freq)
}

// DefaultClock returns a QPC clock, or an epoch clock if QPC is unavailable.
func DefaultClock() Clock {
	var freq int64
	r1, _, _ := procQueryPerformanceFrequency.Call(uintptr(unsafe.Pointer(&freq)))
	if r1 == 0 || freq <= 0 {
		return NewEpochClock()
	}
	return &QPCClock{freq: freq}
}
