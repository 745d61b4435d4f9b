package cache

import "github.com/sarchlab/cachesim/sim/hooking"

// HookPosAccess marks a lookup in the cache. The detail is "hit" or "miss".
var HookPosAccess = &hooking.HookPos{Name: "CacheAccess"}

// HookPosEvict marks the replacement of a valid line. The item is the
// evicted Line with its full line address and the detail is "clean" or
// "dirty".
var HookPosEvict = &hooking.HookPos{Name: "CacheEvict"}

// AccessInfo is the item of a HookPosAccess hook.
type AccessInfo struct {
	LineAddr uint64
	IsWrite  bool
	CoreID   int
}

func evictDetail(l Line) string {
	if l.Dirty {
		return "dirty"
	}

	return "clean"
}
