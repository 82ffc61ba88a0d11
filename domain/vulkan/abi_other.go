//go:build !windows

package vulkan

import "github.com/soocke/marker-pacer-go/domain/intercept"

func platformHooks(*Adapter) []intercept.Hook { return nil }

func platformMarkerWrapper(*Adapter) uintptr { return 0 }
