package sim

import (
	"hash/fnv"
	"math/rand"
)

// PartitionedRNG hands out one deterministic random source per named
// subsystem. Two runs with the same master seed draw the same numbers for
// the same subsystem, no matter in which order the subsystems are created.
//
// Not thread-safe.
type PartitionedRNG struct {
	seed       int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		seed:       seed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// Seed returns the master seed.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

// ForSubsystem returns the random source of the named subsystem, creating it
// on first use. The derived seed is masterSeed XOR fnv1a64(name).
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if r, ok := p.subsystems[name]; ok {
		return r
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(name))

	derived := p.seed ^ int64(h.Sum64())
	r := rand.New(rand.NewSource(derived))
	p.subsystems[name] = r

	return r
}
