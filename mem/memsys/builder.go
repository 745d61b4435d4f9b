package memsys

import (
	"errors"
	"fmt"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/dram"
	"github.com/sarchlab/cachesim/mem/vm/addresstranslator"
	"github.com/sarchlab/cachesim/sim"
)

// ErrTooManyCores is returned when more cores are requested than the memory
// system can keep apart.
var ErrTooManyCores = errors.New("unsupported number of cores")

// MaxCores is the largest number of cores a memory system can serve.
const MaxCores = 2

// CacheConfig is the geometry of one cache level.
type CacheConfig struct {
	ByteSize         uint64
	WayAssociativity int
}

// Builder can build memory systems.
type Builder struct {
	mode       sim.Mode
	numCores   int
	lineSize   uint64
	dcache     CacheConfig
	icache     CacheConfig
	l2cache    CacheConfig
	policy     cache.Policy
	l2Policy   cache.Policy
	core0Ways  int
	pagePolicy dram.PagePolicy
	timeTeller sim.TimeTeller
	rng        *sim.PartitionedRNG
	dram       dram.Dram
}

// MakeBuilder creates a builder for a mode A memory system with one core,
// 64-byte lines, 32KB 8-way L1 caches, a 1MB 16-way L2 and LRU everywhere.
func MakeBuilder() Builder {
	return Builder{
		mode:       sim.ModeA,
		numCores:   1,
		lineSize:   64,
		dcache:     CacheConfig{ByteSize: 32 * cache.KB, WayAssociativity: 8},
		icache:     CacheConfig{ByteSize: 32 * cache.KB, WayAssociativity: 8},
		l2cache:    CacheConfig{ByteSize: 1024 * cache.KB, WayAssociativity: 16},
		policy:     cache.PolicyLRU,
		l2Policy:   cache.PolicyLRU,
		pagePolicy: dram.PagePolicyFixed,
	}
}

// WithMode sets the simulation mode, which decides the hierarchy shape.
func (b Builder) WithMode(m sim.Mode) Builder {
	b.mode = m
	return b
}

// WithNumCores sets the number of cores.
func (b Builder) WithNumCores(n int) Builder {
	b.numCores = n
	return b
}

// WithLineSize sets the line size shared by all caches.
func (b Builder) WithLineSize(n uint64) Builder {
	b.lineSize = n
	return b
}

// WithDCache sets the geometry of the data caches.
func (b Builder) WithDCache(c CacheConfig) Builder {
	b.dcache = c
	return b
}

// WithICache sets the geometry of the instruction caches.
func (b Builder) WithICache(c CacheConfig) Builder {
	b.icache = c
	return b
}

// WithL2Cache sets the geometry of the shared L2 cache.
func (b Builder) WithL2Cache(c CacheConfig) Builder {
	b.l2cache = c
	return b
}

// WithReplacementPolicy sets the policy of the L1 caches. In modes without
// per-core caches, it is also the policy of the L2.
func (b Builder) WithReplacementPolicy(p cache.Policy) Builder {
	b.policy = p
	return b
}

// WithL2ReplacementPolicy sets the policy of the L2 in per-core modes.
func (b Builder) WithL2ReplacementPolicy(p cache.Policy) Builder {
	b.l2Policy = p
	return b
}

// WithPartitionCore0Ways sets the number of ways reserved for core 0 by the
// partition policy.
func (b Builder) WithPartitionCore0Ways(n int) Builder {
	b.core0Ways = n
	return b
}

// WithPagePolicy sets the DRAM page policy.
func (b Builder) WithPagePolicy(p dram.PagePolicy) Builder {
	b.pagePolicy = p
	return b
}

// WithTimeTeller sets the clock shared by all caches.
func (b Builder) WithTimeTeller(t sim.TimeTeller) Builder {
	b.timeTeller = t
	return b
}

// WithSeed sets the master seed of the random replacement policy.
func (b Builder) WithSeed(seed int64) Builder {
	b.rng = sim.NewPartitionedRNG(seed)
	return b
}

// WithDram replaces the DRAM model built from the page policy.
func (b Builder) WithDram(d dram.Dram) Builder {
	b.dram = d
	return b
}

// Build validates the configuration and builds the memory system.
func (b Builder) Build() (*Memsys, error) {
	if !b.mode.IsValid() {
		return nil, fmt.Errorf("%w: %s", sim.ErrUnknownMode, b.mode)
	}

	if b.numCores < 1 || b.numCores > MaxCores {
		return nil, fmt.Errorf("%w: %d (at most %d)",
			ErrTooManyCores, b.numCores, MaxCores)
	}

	if b.timeTeller == nil {
		b.timeTeller = sim.NewClock(0)
	}

	if b.rng == nil {
		b.rng = sim.NewPartitionedRNG(0)
	}

	h, err := b.buildHierarchy()
	if err != nil {
		return nil, err
	}

	return &Memsys{
		mode:       b.mode,
		numCores:   b.numCores,
		lineSize:   b.lineSize,
		seed:       b.rng.Seed(),
		timeTeller: b.timeTeller,
		hierarchy:  h,
	}, nil
}

func (b Builder) buildHierarchy() (hierarchy, error) {
	switch {
	case !b.mode.IsTimed():
		return b.buildFunctional()
	case b.mode.IsMultiCore():
		return b.buildPerCore()
	default:
		return b.buildShared()
	}
}

func (b Builder) buildFunctional() (*functional, error) {
	dcache, err := b.buildCache("DCACHE", b.dcache, b.policy)
	if err != nil {
		return nil, err
	}

	return &functional{dcache: dcache}, nil
}

func (b Builder) buildShared() (*shared, error) {
	icache, err := b.buildCache("ICACHE", b.icache, b.policy)
	if err != nil {
		return nil, err
	}

	dcache, err := b.buildCache("DCACHE", b.dcache, b.policy)
	if err != nil {
		return nil, err
	}

	l2, err := b.buildSecondLevel(b.policy)
	if err != nil {
		return nil, err
	}

	return &shared{icache: icache, dcache: dcache, l2: l2}, nil
}

func (b Builder) buildPerCore() (*perCore, error) {
	translator, err := addresstranslator.MakeBuilder().
		WithLineSize(b.lineSize).
		WithNumCores(b.numCores).
		Build()
	if err != nil {
		return nil, err
	}

	h := &perCore{translator: translator}

	for i := range b.numCores {
		icache, err := b.buildCache(fmt.Sprintf("ICACHE_%d", i), b.icache, b.policy)
		if err != nil {
			return nil, err
		}

		dcache, err := b.buildCache(fmt.Sprintf("DCACHE_%d", i), b.dcache, b.policy)
		if err != nil {
			return nil, err
		}

		h.icaches = append(h.icaches, icache)
		h.dcaches = append(h.dcaches, dcache)
	}

	h.l2, err = b.buildSecondLevel(b.l2Policy)
	if err != nil {
		return nil, err
	}

	return h, nil
}

func (b Builder) buildSecondLevel(policy cache.Policy) (*secondLevel, error) {
	l2, err := b.buildCache("L2CACHE", b.l2cache, policy)
	if err != nil {
		return nil, err
	}

	d := b.dram
	if d == nil {
		d, err = dram.MakeBuilder().
			WithPagePolicy(b.pagePolicy).
			WithLineSize(b.lineSize).
			Build()
		if err != nil {
			return nil, err
		}
	}

	return &secondLevel{cache: l2, dram: d}, nil
}

func (b Builder) buildCache(
	name string,
	cfg CacheConfig,
	policy cache.Policy,
) (*cache.Cache, error) {
	return cache.MakeBuilder().
		WithByteSize(cfg.ByteSize).
		WithWayAssociativity(cfg.WayAssociativity).
		WithLineSize(b.lineSize).
		WithPolicy(policy).
		WithPartitionCore0Ways(b.core0Ways).
		WithRandSource(b.rng.ForSubsystem(name)).
		WithTimeTeller(b.timeTeller).
		Build(name)
}
