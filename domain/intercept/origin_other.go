//go:build !windows

package intercept

import "github.com/soocke/marker-pacer-go/domain/marker"

type unsupportedResolver struct{}

func (unsupportedResolver) Resolve(module, name string) (uintptr, error) { return 0, ErrUnsupported }

// SelfModule is unknown off Windows.
func SelfModule() uintptr { return 0 }

// CallerAddress cannot walk foreign stacks off Windows.
func CallerAddress() uintptr { return 0 }

// DefaultResolver returns a resolver that always reports ErrUnsupported.
func DefaultResolver() Resolver { return unsupportedResolver{} }

// DefaultOriginFilter treats every unguarded call as external.
func DefaultOriginFilter() OriginFilter { return GuardedFilter{Guard: SelfCalls, Next: ExternalOnly{}} }

// currentThreadID has no OS thread identity to report here; every caller
// shares one id.
func currentThreadID() uint32 { return 1 }

// SelfCalls marks threads issuing calls on this module's behalf.
var SelfCalls = NewThreadGuard(nil)

// CallerOrigin classifies the current intercepted call.
func CallerOrigin(uintptr) marker.Origin { return DefaultOriginFilter().Origin(0) }
