// Package cache models a set-associative cache with a configurable
// replacement policy. It only keeps tags and bookkeeping; no data is stored.
package cache

import (
	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
	"github.com/sarchlab/cachesim/sim"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// MaxWays is the largest associativity a cache can be built with.
const MaxWays = 16

// Line is the bookkeeping of one cache line.
type Line = tagging.Line

// Outcome is the result of probing a cache.
type Outcome int

// The possible outcomes of a lookup.
const (
	Miss Outcome = iota
	Hit
)

func (o Outcome) String() string {
	if o == Hit {
		return "hit"
	}

	return "miss"
}

// Cache is a set-associative cache. All addresses it receives are line
// addresses.
type Cache struct {
	hooking.HookableBase

	name         string
	timeTeller   sim.TimeTeller
	policy       Policy
	tags         *tagging.TagArray
	victimFinder tagging.VictimFinder

	lastEvicted Line
	stats       Stats
}

// Name returns the name of the cache.
func (c *Cache) Name() string {
	return c.name
}

// NumSets returns the number of sets.
func (c *Cache) NumSets() int {
	return c.tags.NumSets
}

// NumWays returns the associativity.
func (c *Cache) NumWays() int {
	return c.tags.NumWays
}

// Policy returns the replacement policy.
func (c *Cache) Policy() Policy {
	return c.policy
}

// Stats returns a copy of the statistics.
func (c *Cache) Stats() Stats {
	return c.stats
}

// Line returns a copy of the line stored at the given set and way.
func (c *Cache) Line(setID, wayID int) Line {
	return c.tags.GetSet(setID).Lines[wayID]
}

// LastEvicted returns the line that the latest Install replaced. Its Tag is
// the full line address. The caller may invalidate it once it has been
// written back.
func (c *Cache) LastEvicted() *Line {
	return &c.lastEvicted
}

// Access looks the line up in the cache. On a hit, the line is touched and,
// for writes, marked dirty. The access counter of the kind is always incremented and the
// miss counter only on a miss. A miss does not allocate; call Install.
func (c *Cache) Access(lineAddr uint64, isWrite bool, coreID int) Outcome {
	set, way := c.tags.Lookup(lineAddr, coreID)

	if isWrite {
		c.stats.WriteAccess++
	} else {
		c.stats.ReadAccess++
	}

	outcome := Miss
	if way >= 0 {
		outcome = Hit

		line := &set.Lines[way]
		if isWrite {
			line.Dirty = true
		}

		line.LastAccessTime = c.timeTeller.Now()
	} else if isWrite {
		c.stats.WriteMiss++
	} else {
		c.stats.ReadMiss++
	}

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    HookPosAccess,
			Now:    c.timeTeller.Now(),
			Item:   AccessInfo{LineAddr: lineAddr, IsWrite: isWrite, CoreID: coreID},
			Detail: outcome.String(),
		})
	}

	return outcome
}

// FindVictim selects the way of the set that the next line requested by
// coreID should go to. An invalid way is always preferred; otherwise the
// replacement policy decides. Evicting a dirty line counts as a dirty
// eviction.
func (c *Cache) FindVictim(setID, coreID int) int {
	set := c.tags.GetSet(setID)

	if way := set.FirstInvalid(); way >= 0 {
		return way
	}

	victim := c.victimFinder.FindVictim(set, coreID)

	line := &set.Lines[victim]
	if line.Valid && line.Dirty {
		c.stats.DirtyEvicts++
	}

	return victim
}

// Install places lineAddr into the cache for coreID, replacing the way chosen
// by FindVictim. The replaced line, valid or not, is kept as the last
// evicted line.
func (c *Cache) Install(lineAddr uint64, isWrite bool, coreID int) {
	setID, tag := c.tags.Split(lineAddr)
	victim := c.FindVictim(setID, coreID)
	set := c.tags.GetSet(setID)

	c.lastEvicted = set.Lines[victim]
	c.lastEvicted.Tag = c.tags.Join(c.lastEvicted.Tag, setID)

	set.Lines[victim] = Line{
		Tag:            tag,
		Valid:          true,
		Dirty:          isWrite,
		CoreID:         coreID,
		LastAccessTime: c.timeTeller.Now(),
	}

	if c.lastEvicted.Valid && c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    HookPosEvict,
			Now:    c.timeTeller.Now(),
			Item:   c.lastEvicted,
			Detail: evictDetail(c.lastEvicted),
		})
	}
}
