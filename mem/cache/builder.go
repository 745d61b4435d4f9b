package cache

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
	"github.com/sarchlab/cachesim/sim"
)

// Errors returned when a cache cannot be built from its configuration.
var (
	ErrTooManyWays     = errors.New("associativity exceeds the maximum")
	ErrInvalidGeometry = errors.New("invalid cache geometry")
	ErrInvalidQuota    = errors.New("invalid partition quota")
)

// KB is the number of bytes in a kilobyte.
const KB = 1024

// Builder can build caches.
type Builder struct {
	timeTeller       sim.TimeTeller
	rng              *rand.Rand
	byteSize         uint64
	wayAssociativity int
	lineSize         uint64
	policy           Policy
	core0Ways        int
}

// MakeBuilder creates a new builder. By default, it builds a 32KB, 8-way
// LRU cache with 64-byte lines.
func MakeBuilder() Builder {
	return Builder{
		byteSize:         32 * KB,
		wayAssociativity: 8,
		lineSize:         64,
		policy:           PolicyLRU,
	}
}

// WithTimeTeller sets the clock that stamps line accesses.
func (b Builder) WithTimeTeller(t sim.TimeTeller) Builder {
	b.timeTeller = t
	return b
}

// WithRandSource sets the random source of the random replacement policy.
func (b Builder) WithRandSource(rng *rand.Rand) Builder {
	b.rng = rng
	return b
}

// WithByteSize sets the capacity of the cache.
func (b Builder) WithByteSize(byteSize uint64) Builder {
	b.byteSize = byteSize
	return b
}

// WithWayAssociativity sets the number of ways of each set.
func (b Builder) WithWayAssociativity(ways int) Builder {
	b.wayAssociativity = ways
	return b
}

// WithLineSize sets the line size in bytes.
func (b Builder) WithLineSize(lineSize uint64) Builder {
	b.lineSize = lineSize
	return b
}

// WithPolicy sets the replacement policy.
func (b Builder) WithPolicy(p Policy) Builder {
	b.policy = p
	return b
}

// WithPartitionCore0Ways sets the number of ways of each set reserved for
// core 0 under the partition policy. The remaining ways belong to core 1.
func (b Builder) WithPartitionCore0Ways(n int) Builder {
	b.core0Ways = n
	return b
}

// Validate checks the configuration without building anything.
func (b Builder) Validate() error {
	if b.wayAssociativity > MaxWays {
		return fmt.Errorf("%w: %d ways requested, at most %d supported",
			ErrTooManyWays, b.wayAssociativity, MaxWays)
	}

	if b.wayAssociativity <= 0 || b.lineSize == 0 || b.byteSize == 0 {
		return fmt.Errorf("%w: size %d, ways %d, line size %d",
			ErrInvalidGeometry, b.byteSize, b.wayAssociativity, b.lineSize)
	}

	setSize := b.lineSize * uint64(b.wayAssociativity)
	if b.byteSize%setSize != 0 {
		return fmt.Errorf("%w: size %d is not a multiple of the set size %d",
			ErrInvalidGeometry, b.byteSize, setSize)
	}

	if b.policy < PolicyLRU || b.policy > PolicyPartition {
		return fmt.Errorf("%w: %d", ErrUnknownPolicy, int(b.policy))
	}

	if b.policy == PolicyPartition &&
		(b.core0Ways < 0 || b.core0Ways > b.wayAssociativity) {
		return fmt.Errorf("%w: %d of %d ways for core 0",
			ErrInvalidQuota, b.core0Ways, b.wayAssociativity)
	}

	return nil
}

// Build builds a cache.
func (b Builder) Build(name string) (*Cache, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("cache %s: %w", name, err)
	}

	numSets := int(b.byteSize / (b.lineSize * uint64(b.wayAssociativity)))

	c := &Cache{
		name:         name,
		timeTeller:   b.timeTeller,
		policy:       b.policy,
		tags:         tagging.NewTagArray(numSets, b.wayAssociativity),
		victimFinder: b.createVictimFinder(),
	}

	if c.timeTeller == nil {
		c.timeTeller = sim.NewClock(0)
	}

	return c, nil
}

func (b Builder) createVictimFinder() tagging.VictimFinder {
	switch b.policy {
	case PolicyRandom:
		rng := b.rng
		if rng == nil {
			rng = rand.New(rand.NewSource(0))
		}

		return tagging.NewRandomVictimFinder(rng)
	case PolicyPartition:
		return tagging.NewPartitionVictimFinder(b.core0Ways)
	default:
		return tagging.NewLRUVictimFinder()
	}
}
