// Package memsys chains caches, a shared second-level cache and a DRAM into
// a memory hierarchy and reports the delay of every access.
package memsys

import (
	"fmt"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/dram"
	"github.com/sarchlab/cachesim/sim"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// Hit latencies in cycles.
const (
	ICacheHitLatency = 1
	DCacheHitLatency = 1
	L2HitLatency     = 10
)

// HookPosAccess marks a completed access. The item is an AccessRecord.
var HookPosAccess = &hooking.HookPos{Name: "MemsysAccess"}

// A hierarchy is the part of the memory system that depends on the mode.
// It receives line addresses and returns the delay.
type hierarchy interface {
	access(lineAddr uint64, t AccessType, coreID int) uint64

	// caches lists the caches in report order.
	caches() []*cache.Cache
	dram() dram.Dram
}

// Memsys is the memory system seen by the cores.
type Memsys struct {
	hooking.HookableBase

	mode       sim.Mode
	numCores   int
	lineSize   uint64
	seed       int64
	timeTeller sim.TimeTeller
	hierarchy  hierarchy
	stats      Stats
}

// Name returns the name used in reports.
func (m *Memsys) Name() string {
	return "MEMSYS"
}

// Mode returns the simulation mode the memory system was built for.
func (m *Memsys) Mode() sim.Mode {
	return m.mode
}

// NumCores returns the number of cores the memory system serves.
func (m *Memsys) NumCores() int {
	return m.numCores
}

// LineSize returns the cache line size in bytes.
func (m *Memsys) LineSize() uint64 {
	return m.lineSize
}

// Seed returns the master seed of the random replacement policies.
func (m *Memsys) Seed() int64 {
	return m.seed
}

// Stats returns a copy of the per-access-type counters.
func (m *Memsys) Stats() Stats {
	return m.stats
}

// Caches returns all the caches of the hierarchy in report order.
func (m *Memsys) Caches() []*cache.Cache {
	return m.hierarchy.caches()
}

// Dram returns the main memory, or nil in modes without timing.
func (m *Memsys) Dram() dram.Dram {
	return m.hierarchy.dram()
}

// Access performs an access of a core to a byte address and returns the
// number of cycles it takes. The core ID must be in [0, NumCores()); any
// other core panics.
func (m *Memsys) Access(addr uint64, t AccessType, coreID int) uint64 {
	if coreID < 0 || coreID >= m.numCores {
		panic(fmt.Sprintf("core %d out of range, the memory system has %d cores",
			coreID, m.numCores))
	}

	lineAddr := addr / m.lineSize

	delay := m.hierarchy.access(lineAddr, t, coreID)
	m.stats.record(t, delay)

	if m.NumHooks() > 0 {
		m.InvokeHook(hooking.HookCtx{
			Domain: m,
			Pos:    HookPosAccess,
			Now:    m.timeTeller.Now(),
			Item: AccessRecord{
				Addr:     addr,
				LineAddr: lineAddr,
				Type:     t,
				CoreID:   coreID,
				Delay:    delay,
			},
		})
	}

	return delay
}
