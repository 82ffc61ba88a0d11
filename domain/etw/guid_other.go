//go:build !windows

package etw

import (
	"errors"
	"fmt"
)

func (g GUID) String() string {
	return fmt.Sprintf("{%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X}",
		g.Data1, g.Data2, g.Data3,
		g.Data4[0], g.Data4[1], g.Data4[2], g.Data4[3],
		g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}

// ParseGUID needs the Windows GUID parser.
func ParseGUID(string) (GUID, error) {
	return GUID{}, errors.New("etw: GUID parsing unsupported on this platform")
}
