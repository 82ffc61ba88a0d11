//go:build !windows

package etw

import "github.com/soocke/marker-pacer-go/domain/intercept"

func platformHooks(*Adapter) []intercept.Hook { return nil }
