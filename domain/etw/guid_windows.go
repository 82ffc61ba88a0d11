//go:build windows

package etw

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func (g GUID) String() string { return windows.GUID(g).String() }

// ParseGUID parses the registry form "{XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX}".
func ParseGUID(s string) (GUID, error) {
	g, err := windows.GUIDFromString(s)
	if err != nil {
		return GUID{}, err
	}
	return GUID(g), nil
}

// guidAt copies the GUID a provider passed by pointer.
func guidAt(p uintptr) GUID { return GUID(*(*windows.GUID)(unsafe.Pointer(p))) }
