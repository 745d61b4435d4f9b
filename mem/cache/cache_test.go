package cache

import (
	"bytes"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/sim"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// sameSet returns the i-th line address that maps to setID in a cache with
// numSets sets.
func sameSet(setID, i, numSets int) uint64 {
	return uint64(setID + i*numSets)
}

var _ = Describe("Cache", func() {
	var (
		clock *sim.Clock
		c     *Cache
	)

	BeforeEach(func() {
		clock = sim.NewClock(1)

		var err error
		c, err = MakeBuilder().
			WithByteSize(32 * KB).
			WithWayAssociativity(8).
			WithLineSize(64).
			WithTimeTeller(clock).
			Build("DCACHE")
		Expect(err).NotTo(HaveOccurred())
	})

	fill := func(setID int, isWrite bool) {
		for i := range c.NumWays() {
			clock.Advance(1)
			addr := sameSet(setID, i, c.NumSets())
			Expect(c.Access(addr, isWrite, 0)).To(Equal(Miss))
			c.Install(addr, isWrite, 0)
		}
	}

	Context("when empty", func() {
		It("should miss and count the access", func() {
			Expect(c.Access(0x6b8b4567, false, 0)).To(Equal(Miss))
			Expect(c.Stats().ReadAccess).To(Equal(uint64(1)))
			Expect(c.Stats().ReadMiss).To(Equal(uint64(1)))
		})

		It("should hit after install", func() {
			Expect(c.Access(0x6b8b4567, false, 0)).To(Equal(Miss))
			c.Install(0x6b8b4567, false, 0)

			clock.Advance(1)
			Expect(c.Access(0x6b8b4567, false, 0)).To(Equal(Hit))
			Expect(c.Stats().ReadAccess).To(Equal(uint64(2)))
			Expect(c.Stats().ReadMiss).To(Equal(uint64(1)))
		})

		It("should not hit for another core", func() {
			c.Install(0x40, false, 0)
			Expect(c.Access(0x40, false, 1)).To(Equal(Miss))
		})

		It("should install into way 0 with the residual tag", func() {
			addr := uint64(0x6b8b4567)
			c.Install(addr, false, 0)

			setID := int(addr % 64)
			line := c.Line(setID, 0)
			Expect(line.Valid).To(BeTrue())
			Expect(line.CoreID).To(Equal(0))
			Expect(line.Tag).To(Equal(addr / 64))
			Expect(line.LastAccessTime).To(Equal(uint64(1)))
			Expect(c.LastEvicted().Valid).To(BeFalse())
			Expect(c.Stats().DirtyEvicts).To(BeZero())
		})
	})

	It("should fill all ways with distinct tags", func() {
		fill(5, false)

		tags := map[uint64]bool{}
		for w := range c.NumWays() {
			line := c.Line(5, w)
			Expect(line.Valid).To(BeTrue())
			Expect(line.Tag).To(Equal(uint64(w)))
			tags[line.Tag] = true
		}
		Expect(tags).To(HaveLen(8))
		Expect(c.Stats().DirtyEvicts).To(BeZero())
	})

	It("should evict the least recently touched line", func() {
		fill(5, false)

		clock.Advance(1)
		Expect(c.Access(sameSet(5, 0, 64), false, 0)).To(Equal(Hit))

		clock.Advance(1)
		c.Install(sameSet(5, 8, 64), false, 0)

		Expect(c.LastEvicted().Tag).To(Equal(sameSet(5, 1, 64)))
		Expect(c.Line(5, 1).Tag).To(Equal(uint64(8)))
	})

	It("should evict way 0 on the ninth install without a dirty eviction", func() {
		fill(5, false)

		clock.Advance(1)
		addr := sameSet(5, 8, 64)
		Expect(c.Access(addr, false, 0)).To(Equal(Miss))
		c.Install(addr, false, 0)

		Expect(c.LastEvicted().Valid).To(BeTrue())
		Expect(c.LastEvicted().Tag).To(Equal(sameSet(5, 0, 64)))
		Expect(c.Line(5, 0).Tag).To(Equal(uint64(8)))
		Expect(c.Stats().DirtyEvicts).To(BeZero())
	})

	It("should count a dirty eviction when the victim was written", func() {
		fill(5, true)

		clock.Advance(1)
		addr := sameSet(5, 8, 64)
		Expect(c.Access(addr, true, 0)).To(Equal(Miss))
		c.Install(addr, true, 0)

		Expect(c.LastEvicted().Dirty).To(BeTrue())
		Expect(c.Stats().DirtyEvicts).To(Equal(uint64(1)))
		Expect(c.Stats().WriteAccess).To(Equal(uint64(9)))
		Expect(c.Stats().WriteMiss).To(Equal(uint64(9)))
	})

	It("should mark a line dirty on a write hit only", func() {
		c.Install(0x80, false, 1)

		clock.Advance(3)
		Expect(c.Access(0x80, false, 1)).To(Equal(Hit))
		line := c.Line(0, 0)
		Expect(line.Dirty).To(BeFalse())
		Expect(line.LastAccessTime).To(Equal(uint64(4)))

		clock.Advance(1)
		Expect(c.Access(0x80, true, 1)).To(Equal(Hit))
		line = c.Line(0, 0)
		Expect(line.Dirty).To(BeTrue())
		Expect(line.Tag).To(Equal(uint64(2)))
		Expect(line.CoreID).To(Equal(1))
		Expect(line.LastAccessTime).To(Equal(uint64(5)))
		Expect(c.Stats().WriteAccess).To(Equal(uint64(1)))
		Expect(c.Stats().WriteMiss).To(BeZero())
	})

	It("should reconstruct the evicted line address exactly", func() {
		fill(63, false)

		c.Install(sameSet(63, 100, 64), false, 0)
		Expect(c.LastEvicted().Tag).To(Equal(sameSet(63, 0, 64)))
	})

	It("should invoke hooks", func() {
		h := hooking.NewCountHook()
		c.AcceptHook(h)

		fill(2, true)
		c.Access(sameSet(2, 0, 64), false, 0)
		c.Install(sameSet(2, 9, 64), false, 0)

		Expect(h.Count("CacheAccess.miss")).To(Equal(uint64(8)))
		Expect(h.Count("CacheAccess.hit")).To(Equal(uint64(1)))
		Expect(h.Count("CacheEvict.dirty")).To(Equal(uint64(1)))
	})

	It("should print stats", func() {
		c.Access(1, false, 0)
		c.Install(1, false, 0)
		c.Access(1, false, 0)
		c.Access(2, true, 0)

		buf := new(bytes.Buffer)
		c.PrintStats(buf, "DCACHE")

		Expect(buf.String()).To(ContainSubstring(
			"\nDCACHE_READ_ACCESS    \t\t :          2"))
		Expect(buf.String()).To(ContainSubstring(
			"\nDCACHE_READ_MISSPERC  \t\t :     50.000"))
		Expect(buf.String()).To(ContainSubstring(
			"\nDCACHE_WRITE_MISSPERC \t\t :    100.000"))
		Expect(buf.String()).To(HaveSuffix("DIRTY_EVICTS   \t\t :          0\n"))
	})
})

var _ = Describe("Cache with partition policy", func() {
	var (
		clock *sim.Clock
		c     *Cache
	)

	BeforeEach(func() {
		clock = sim.NewClock(0)

		var err error
		c, err = MakeBuilder().
			WithByteSize(4 * 64).
			WithWayAssociativity(4).
			WithPolicy(PolicyPartition).
			WithPartitionCore0Ways(2).
			WithTimeTeller(clock).
			Build("L2CACHE")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should take ways from core 1 while core 0 is under quota", func() {
		for i := range 4 {
			clock.Advance(1)
			c.Install(uint64(i), false, 1)
		}

		for _, core := range []int{0, 1} {
			clock.Advance(1)
			setID := 0
			way := c.FindVictim(setID, core)
			Expect(c.Line(setID, way).CoreID).To(Equal(1))
		}

		clock.Advance(1)
		c.Install(10, false, 0)
		Expect(c.LastEvicted().CoreID).To(Equal(1))
		Expect(c.LastEvicted().Tag).To(Equal(uint64(0)))
	})

	It("should evict from the requester once quotas are met", func() {
		c.Install(0, false, 0)
		clock.Advance(1)
		c.Install(1, false, 1)
		clock.Advance(1)
		c.Install(2, false, 0)
		clock.Advance(1)
		c.Install(3, false, 1)

		clock.Advance(1)
		c.Install(4, false, 1)

		Expect(c.LastEvicted().Tag).To(Equal(uint64(1)))
	})
})

var _ = Describe("Cache with random policy", func() {
	build := func(seed int64) *Cache {
		c, err := MakeBuilder().
			WithByteSize(8 * 64).
			WithWayAssociativity(8).
			WithPolicy(PolicyRandom).
			WithRandSource(rand.New(rand.NewSource(seed))).
			Build("C")
		Expect(err).NotTo(HaveOccurred())

		return c
	}

	It("should be reproducible with the same seed", func() {
		a, b := build(7), build(7)

		for i := range 100 {
			a.Install(uint64(i), false, 0)
			b.Install(uint64(i), false, 0)
			Expect(a.LastEvicted()).To(Equal(b.LastEvicted()))
		}
	})
})
