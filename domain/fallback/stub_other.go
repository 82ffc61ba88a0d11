//go:build !windows

package fallback

// nativeStub cannot build native callables here.
func nativeStub(string, uintptr, func()) uintptr { return 0 }
