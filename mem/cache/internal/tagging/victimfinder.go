package tagging

import (
	"math/rand"
)

// A VictimFinder decides which line of a full set should be evicted to make
// room for a line requested by coreID. Sets that still have an invalid line
// never reach a VictimFinder.
type VictimFinder interface {
	FindVictim(set *Set, coreID int) int
}

// LRUVictimFinder evicts the least recently used line.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed lru evictor
func NewLRUVictimFinder() *LRUVictimFinder {
	e := new(LRUVictimFinder)
	return e
}

// FindVictim returns the way with the oldest access time. Ties go to the
// lowest way.
func (e *LRUVictimFinder) FindVictim(set *Set, _ int) int {
	return oldestOf(set, func(*Line) bool { return true })
}

// RandomVictimFinder evicts a uniformly chosen way.
type RandomVictimFinder struct {
	rng *rand.Rand
}

// NewRandomVictimFinder creates a RandomVictimFinder that draws from rng.
func NewRandomVictimFinder(rng *rand.Rand) *RandomVictimFinder {
	return &RandomVictimFinder{rng: rng}
}

// FindVictim returns a random way.
func (e *RandomVictimFinder) FindVictim(set *Set, _ int) int {
	return e.rng.Intn(len(set.Lines))
}

// PartitionVictimFinder implements static way partitioning between two
// cores. Core 0 is guaranteed Core0Ways ways of every set and core 1 the
// rest.
type PartitionVictimFinder struct {
	Core0Ways int
}

// NewPartitionVictimFinder creates a PartitionVictimFinder.
func NewPartitionVictimFinder(core0Ways int) *PartitionVictimFinder {
	return &PartitionVictimFinder{Core0Ways: core0Ways}
}

// FindVictim picks the core that loses a line and then evicts the least
// recently used line of that core. The requester loses a line unless one
// core is below its quota, in which case the other core does. Core 0 being
// below quota is checked first.
func (e *PartitionVictimFinder) FindVictim(set *Set, coreID int) int {
	core0Lines, core1Lines := 0, 0

	for i := range set.Lines {
		if set.Lines[i].CoreID == 0 {
			core0Lines++
		} else {
			core1Lines++
		}
	}

	core1Ways := len(set.Lines) - e.Core0Ways
	victimCore := coreID

	if core0Lines < e.Core0Ways {
		victimCore = 1
	} else if core1Lines < core1Ways {
		victimCore = 0
	}

	return oldestOf(set, func(l *Line) bool { return l.CoreID == victimCore })
}

// oldestOf returns the first way with the smallest access time among the
// lines accepted by filter. It returns way 0 when no line is accepted.
func oldestOf(set *Set, filter func(*Line) bool) int {
	victim := -1

	for i := range set.Lines {
		l := &set.Lines[i]
		if !filter(l) {
			continue
		}

		if victim < 0 || l.LastAccessTime < set.Lines[victim].LastAccessTime {
			victim = i
		}
	}

	if victim < 0 {
		return 0
	}

	return victim
}
