package memsys

import (
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/dram"
	"github.com/sarchlab/cachesim/mem/vm/addresstranslator"
)

// functional has a single data cache and measures hit rates only.
type functional struct {
	dcache *cache.Cache
}

func (h *functional) access(lineAddr uint64, t AccessType, coreID int) uint64 {
	if t == AccessIfetch {
		return 0
	}

	isWrite := t.IsWrite()
	if h.dcache.Access(lineAddr, isWrite, coreID) == cache.Miss {
		h.dcache.Install(lineAddr, isWrite, coreID)
	}

	return 0
}

func (h *functional) caches() []*cache.Cache {
	return []*cache.Cache{h.dcache}
}

func (h *functional) dram() dram.Dram {
	return nil
}

// shared has one instruction cache and one data cache used by all cores.
type shared struct {
	icache *cache.Cache
	dcache *cache.Cache
	l2     *secondLevel
}

func (h *shared) access(lineAddr uint64, t AccessType, coreID int) uint64 {
	l1, latency := h.dcache, uint64(DCacheHitLatency)
	if t == AccessIfetch {
		l1, latency = h.icache, ICacheHitLatency
	}

	delay, missed := accessL1(l1, h.l2, lineAddr, t.IsWrite(), coreID)
	if !missed {
		return latency
	}

	evicted := l1.LastEvicted()
	if evicted.Valid && evicted.Dirty {
		h.l2.access(evicted.Tag, true, coreID)
	}

	return latency + delay
}

func (h *shared) caches() []*cache.Cache {
	return []*cache.Cache{h.icache, h.dcache, h.l2.cache}
}

func (h *shared) dram() dram.Dram {
	return h.l2.dram
}

// perCore gives each core its own L1 caches and translates virtual
// addresses so that the cores do not share physical lines.
type perCore struct {
	icaches    []*cache.Cache
	dcaches    []*cache.Cache
	l2         *secondLevel
	translator *addresstranslator.Translator
}

func (h *perCore) access(vLineAddr uint64, t AccessType, coreID int) uint64 {
	lineAddr := h.translator.Translate(vLineAddr, coreID)

	l1, latency := h.dcaches[coreID], uint64(DCacheHitLatency)
	if t == AccessIfetch {
		l1, latency = h.icaches[coreID], ICacheHitLatency
	}

	delay, missed := accessL1(l1, h.l2, lineAddr, t.IsWrite(), coreID)
	if !missed {
		return latency
	}

	// The writeback belongs to whoever owned the evicted line.
	evicted := l1.LastEvicted()
	if evicted.Valid && evicted.Dirty {
		h.l2.access(evicted.Tag, true, evicted.CoreID)
		evicted.Valid = false
	}

	return latency + delay
}

func (h *perCore) caches() []*cache.Cache {
	list := make([]*cache.Cache, 0, 2*len(h.icaches)+1)
	for i := range h.icaches {
		list = append(list, h.icaches[i], h.dcaches[i])
	}

	return append(list, h.l2.cache)
}

func (h *perCore) dram() dram.Dram {
	return h.l2.dram
}

// accessL1 looks the line up in an L1 cache and, on a miss, fetches it
// through the second level and installs it. It returns the delay beyond the L1 hit
// latency and whether the lookup missed. Writing back the evicted line is
// left to the caller.
func accessL1(
	l1 *cache.Cache,
	l2 *secondLevel,
	lineAddr uint64,
	isWrite bool,
	coreID int,
) (delay uint64, missed bool) {
	if l1.Access(lineAddr, isWrite, coreID) == cache.Hit {
		return 0, false
	}

	delay = l2.access(lineAddr, false, coreID)
	l1.Install(lineAddr, isWrite, coreID)

	return delay, true
}

// secondLevel is the shared L2 cache backed by DRAM. Every access below the
// L1 caches goes through it, demand misses and writebacks alike.
type secondLevel struct {
	cache *cache.Cache
	dram  dram.Dram
}

// access looks the line up in the L2. A writeback is treated as a write so that the line
// becomes dirty.
func (l *secondLevel) access(lineAddr uint64, isWriteback bool, coreID int) uint64 {
	delay := uint64(L2HitLatency)

	if l.cache.Access(lineAddr, isWriteback, coreID) == cache.Hit {
		return delay
	}

	delay += l.dram.Access(lineAddr, false)
	l.cache.Install(lineAddr, isWriteback, coreID)

	evicted := l.cache.LastEvicted()
	if evicted.Valid && evicted.Dirty {
		l.dram.Access(evicted.Tag, true)
		evicted.Valid = false
	}

	return delay
}
