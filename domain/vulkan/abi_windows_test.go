//go:build windows

package vulkan

import (
	"testing"

	"golang.org/x/sys/windows"
)

func TestReadExtensionNames_UnmappedArray(t *testing.T) {
	addr, err := windows.VirtualAlloc(0, 4096, windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	defer windows.VirtualFree(addr, 0, windows.MEM_RELEASE)

	names, ok := readExtensionNames(addr, 2)
	if ok || names != nil {
		t.Fatalf("unreadable array must be reported, got %v %v", names, ok)
	}
}
