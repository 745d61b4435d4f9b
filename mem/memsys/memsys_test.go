package memsys

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/vm/addresstranslator"
	"github.com/sarchlab/cachesim/sim"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// One set, one way.
var tinyCache = CacheConfig{ByteSize: 64, WayAssociativity: 1}

var _ = Describe("Builder", func() {
	It("should build a single data cache in mode A", func() {
		m, err := MakeBuilder().Build()

		Expect(err).NotTo(HaveOccurred())
		Expect(m.Mode()).To(Equal(sim.ModeA))
		Expect(m.Dram()).To(BeNil())
		Expect(m.Caches()).To(HaveLen(1))
		Expect(m.Caches()[0].Name()).To(Equal("DCACHE"))
	})

	It("should build shared caches in mode B", func() {
		m, err := MakeBuilder().WithMode(sim.ModeB).Build()

		Expect(err).NotTo(HaveOccurred())
		Expect(names(m.Caches())).To(Equal(
			[]string{"ICACHE", "DCACHE", "L2CACHE"}))
		Expect(m.Dram()).NotTo(BeNil())
	})

	It("should build per-core caches in mode D", func() {
		m, err := MakeBuilder().
			WithMode(sim.ModeD).
			WithNumCores(2).
			Build()

		Expect(err).NotTo(HaveOccurred())
		Expect(names(m.Caches())).To(Equal([]string{
			"ICACHE_0", "DCACHE_0", "ICACHE_1", "DCACHE_1", "L2CACHE",
		}))
	})

	It("should use the L2 policy only in per-core modes", func() {
		m, err := MakeBuilder().
			WithMode(sim.ModeE).
			WithNumCores(2).
			WithL2ReplacementPolicy(cache.PolicyPartition).
			WithPartitionCore0Ways(8).
			Build()

		Expect(err).NotTo(HaveOccurred())
		caches := m.Caches()
		Expect(caches[0].Policy()).To(Equal(cache.PolicyLRU))
		Expect(caches[4].Policy()).To(Equal(cache.PolicyPartition))
	})

	It("should keep the master seed", func() {
		m, err := MakeBuilder().WithMode(sim.ModeB).WithSeed(42).Build()

		Expect(err).NotTo(HaveOccurred())
		Expect(m.Seed()).To(Equal(int64(42)))
	})

	It("should reject more than two cores", func() {
		_, err := MakeBuilder().WithNumCores(3).Build()

		Expect(err).To(MatchError(ErrTooManyCores))
	})

	It("should require two cores in per-core modes", func() {
		_, err := MakeBuilder().WithMode(sim.ModeF).WithNumCores(1).Build()

		Expect(err).To(MatchError(addresstranslator.ErrUnsupportedCoreCount))
	})

	It("should reject an unknown mode", func() {
		_, err := MakeBuilder().WithMode(sim.Mode(9)).Build()

		Expect(err).To(MatchError(sim.ErrUnknownMode))
	})

	It("should reject a bad cache geometry", func() {
		_, err := MakeBuilder().
			WithDCache(CacheConfig{ByteSize: 100, WayAssociativity: 8}).
			Build()

		Expect(err).To(MatchError(cache.ErrInvalidGeometry))
	})
})

var _ = Describe("Memsys", func() {
	var (
		mockCtrl *gomock.Controller
		dram     *MockDram
		clock    *sim.Clock
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		dram = NewMockDram(mockCtrl)
		clock = sim.NewClock(0)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("in mode A", func() {
		var m *Memsys

		BeforeEach(func() {
			var err error
			m, err = MakeBuilder().WithTimeTeller(clock).Build()
			Expect(err).NotTo(HaveOccurred())
		})

		It("should report no delay", func() {
			Expect(m.Access(0x1000, AccessLoad, 0)).To(Equal(uint64(0)))
			Expect(m.Access(0x1000, AccessStore, 0)).To(Equal(uint64(0)))
		})

		It("should ignore instruction fetches", func() {
			m.Access(0x1000, AccessIfetch, 0)

			dcache := m.Caches()[0]
			Expect(dcache.Stats().ReadAccess).To(BeZero())
			Expect(m.Stats().IfetchAccess).To(Equal(uint64(1)))
		})

		It("should allocate on a miss", func() {
			m.Access(0x1000, AccessLoad, 0)
			m.Access(0x1010, AccessLoad, 0)

			s := m.Caches()[0].Stats()
			Expect(s.ReadAccess).To(Equal(uint64(2)))
			Expect(s.ReadMiss).To(Equal(uint64(1)))
		})
	})

	Context("in mode B", func() {
		var m *Memsys

		BeforeEach(func() {
			var err error
			m, err = MakeBuilder().
				WithMode(sim.ModeB).
				WithNumCores(2).
				WithDCache(tinyCache).
				WithL2Cache(tinyCache).
				WithTimeTeller(clock).
				WithDram(dram).
				Build()
			Expect(err).NotTo(HaveOccurred())
		})

		It("should go to DRAM on a cold miss", func() {
			dram.EXPECT().Access(uint64(0), false).Return(uint64(100))

			Expect(m.Access(0, AccessLoad, 0)).To(Equal(uint64(111)))
		})

		It("should cost the hit latency on a hit", func() {
			dram.EXPECT().Access(uint64(0), false).Return(uint64(100))

			m.Access(0, AccessLoad, 0)
			Expect(m.Access(8, AccessLoad, 0)).To(Equal(uint64(DCacheHitLatency)))
		})

		It("should find the line in the L2 after an instruction fetch", func() {
			dram.EXPECT().Access(uint64(0), false).Return(uint64(100))

			Expect(m.Access(0, AccessIfetch, 0)).To(Equal(uint64(111)))
			Expect(m.Access(0, AccessLoad, 0)).To(Equal(uint64(11)))
		})

		It("should write dirty lines back through the L2 to DRAM", func() {
			gomock.InOrder(
				dram.EXPECT().Access(uint64(0), false).Return(uint64(100)),
				dram.EXPECT().Access(uint64(1), false).Return(uint64(100)),
				// Writeback of line 0 misses the L2 holding line 1.
				dram.EXPECT().Access(uint64(0), false).Return(uint64(100)),
				dram.EXPECT().Access(uint64(2), false).Return(uint64(100)),
				dram.EXPECT().Access(uint64(0), true).Return(uint64(100)),
			)

			Expect(m.Access(0, AccessStore, 0)).To(Equal(uint64(111)))
			Expect(m.Access(64, AccessLoad, 0)).To(Equal(uint64(111)))
			Expect(m.Access(128, AccessLoad, 0)).To(Equal(uint64(111)))

			dcache := m.Caches()[1]
			l2 := m.Caches()[2]
			Expect(dcache.Stats().DirtyEvicts).To(Equal(uint64(1)))
			Expect(l2.Stats().WriteAccess).To(Equal(uint64(1)))
			Expect(l2.Stats().DirtyEvicts).To(Equal(uint64(1)))
		})

		It("should average delays per access type", func() {
			dram.EXPECT().Access(uint64(0), false).Return(uint64(100))

			m.Access(0, AccessLoad, 0)
			m.Access(0, AccessLoad, 0)

			Expect(m.Stats().LoadAccess).To(Equal(uint64(2)))
			Expect(m.Stats().AvgLoadDelay()).To(Equal(56.0))
			Expect(m.Stats().AvgStoreDelay()).To(Equal(0.0))
		})

		It("should invoke the access hook", func() {
			dram.EXPECT().Access(uint64(0), false).Return(uint64(100))

			var records []AccessRecord
			hook := hooking.HookFunc(func(ctx hooking.HookCtx) {
				records = append(records, ctx.Item.(AccessRecord))
			})
			m.AcceptHook(&hook)

			clock.Set(7)
			m.Access(0x20, AccessStore, 1)

			Expect(records).To(Equal([]AccessRecord{{
				Addr:     0x20,
				LineAddr: 0,
				Type:     AccessStore,
				CoreID:   1,
				Delay:    111,
			}}))
		})
	})

	Context("in mode D", func() {
		var m *Memsys

		BeforeEach(func() {
			var err error
			m, err = MakeBuilder().
				WithMode(sim.ModeD).
				WithNumCores(2).
				WithTimeTeller(clock).
				WithDram(dram).
				Build()
			Expect(err).NotTo(HaveOccurred())
		})

		It("should keep the cores apart", func() {
			core1Line := uint64(1) << 21 * 64

			dram.EXPECT().Access(uint64(0), false).Return(uint64(100))
			dram.EXPECT().Access(core1Line, false).Return(uint64(100))

			Expect(m.Access(0, AccessLoad, 0)).To(Equal(uint64(111)))
			Expect(m.Access(0, AccessLoad, 1)).To(Equal(uint64(111)))
			Expect(m.Access(0, AccessLoad, 0)).To(Equal(uint64(1)))
			Expect(m.Access(0, AccessLoad, 1)).To(Equal(uint64(1)))
		})

		It("should write back a dirty victim under its owner", func() {
			m, err := MakeBuilder().
				WithMode(sim.ModeD).
				WithNumCores(2).
				WithDCache(tinyCache).
				WithTimeTeller(clock).
				WithDram(dram).
				Build()
			Expect(err).NotTo(HaveOccurred())

			core1Line := uint64(1) << 21 * 64

			gomock.InOrder(
				dram.EXPECT().Access(core1Line, false).Return(uint64(100)),
				dram.EXPECT().Access(core1Line+1, false).Return(uint64(100)),
			)

			Expect(m.Access(0, AccessStore, 1)).To(Equal(uint64(111)))
			Expect(m.Access(64, AccessLoad, 1)).To(Equal(uint64(111)))

			dcache1 := m.Caches()[3]
			l2 := m.Caches()[4]
			Expect(dcache1.Name()).To(Equal("DCACHE_1"))
			Expect(dcache1.Stats().DirtyEvicts).To(Equal(uint64(1)))
			Expect(dcache1.LastEvicted().Valid).To(BeFalse())
			Expect(l2.Stats().WriteAccess).To(Equal(uint64(1)))
			Expect(l2.Stats().WriteMiss).To(BeZero())

			// The writeback hit the L2 line of core 1 and dirtied it.
			setID := int(core1Line % uint64(l2.NumSets()))
			line := l2.Line(setID, 0)
			Expect(line.Valid).To(BeTrue())
			Expect(line.Dirty).To(BeTrue())
			Expect(line.CoreID).To(Equal(1))
			Expect(line.Tag).To(Equal(core1Line / uint64(l2.NumSets())))
		})

		It("should reject cores it does not have", func() {
			Expect(func() { m.Access(0, AccessLoad, 2) }).To(Panic())
			Expect(func() { m.Access(0, AccessLoad, -1) }).To(Panic())
		})

		It("should use the instruction cache of the core", func() {
			dram.EXPECT().Access(uint64(0), false).Return(uint64(100))

			m.Access(0, AccessIfetch, 0)

			Expect(m.Caches()[0].Stats().ReadAccess).To(Equal(uint64(1)))
			Expect(m.Caches()[2].Stats().ReadAccess).To(BeZero())
		})
	})

	It("should print the report of every level", func() {
		m, err := MakeBuilder().
			WithMode(sim.ModeB).
			WithTimeTeller(clock).
			WithDram(dram).
			Build()
		Expect(err).NotTo(HaveOccurred())

		dram.EXPECT().Access(uint64(0), false).Return(uint64(100))
		dram.EXPECT().PrintStats(gomock.Any())

		m.Access(0, AccessLoad, 0)

		var buf bytes.Buffer
		m.PrintStats(&buf)

		out := buf.String()
		Expect(out).To(ContainSubstring(
			"\nMEMSYS_LOAD_ACCESS    \t\t : %10d", 1))
		Expect(out).To(ContainSubstring(
			"\nMEMSYS_LOAD_AVGDELAY  \t\t : %10.3f", 111.0))
		Expect(out).To(ContainSubstring("ICACHE_READ_ACCESS"))
		Expect(out).To(ContainSubstring("L2CACHE_READ_ACCESS"))
	})
})

func names(caches []*cache.Cache) []string {
	list := make([]string, 0, len(caches))
	for _, c := range caches {
		list = append(list, c.Name())
	}

	return list
}
