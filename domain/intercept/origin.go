package intercept

import "github.com/soocke/marker-pacer-go/domain/marker"

// OriginFilter classifies an intercepted call by its return address.
type OriginFilter interface {
	Origin(ret uintptr) marker.Origin
}

// ModuleResolver maps a code address to the base of the module containing it.
type ModuleResolver interface {
	ModuleOf(addr uintptr) (uintptr, error)
}

// ModuleFilter reports SelfModule for calls whose return address lies in the
// module Self. Unresolvable addresses get the Unresolved origin.
type ModuleFilter struct {
	Self       uintptr
	Modules    ModuleResolver
	Unresolved marker.Origin
}

func (f *ModuleFilter) Origin(ret uintptr) marker.Origin {
	if f == nil || f.Modules == nil || ret == 0 || f.Self == 0 {
		return f.unresolved()
	}
	mod, err := f.Modules.ModuleOf(ret)
	if err != nil || mod == 0 {
		return f.unresolved()
	}
	if mod == f.Self {
		return marker.SelfModule
	}
	return marker.External
}

func (f *ModuleFilter) unresolved() marker.Origin {
	if f == nil {
		return marker.External
	}
	return f.Unresolved
}

// ExternalOnly treats every call as external. Channels that cannot observe
// their caller use it.
type ExternalOnly struct{}

func (ExternalOnly) Origin(uintptr) marker.Origin { return marker.External }

var _ OriginFilter = (*ModuleFilter)(nil)
var _ OriginFilter = ExternalOnly{}
