package cache

import (
	"fmt"
	"io"
)

// Stats are the counters of a cache. They only grow.
type Stats struct {
	ReadAccess  uint64
	WriteAccess uint64
	ReadMiss    uint64
	WriteMiss   uint64
	DirtyEvicts uint64
}

// ReadMissRate returns the fraction of reads that missed.
func (s Stats) ReadMissRate() float64 {
	if s.ReadAccess == 0 {
		return 0
	}

	return float64(s.ReadMiss) / float64(s.ReadAccess)
}

// WriteMissRate returns the fraction of writes that missed.
func (s Stats) WriteMissRate() float64 {
	if s.WriteAccess == 0 {
		return 0
	}

	return float64(s.WriteMiss) / float64(s.WriteAccess)
}

// PrintStats writes the statistics of the cache, each field prefixed with
// header.
func (c *Cache) PrintStats(w io.Writer, header string) {
	s := c.stats

	fmt.Fprintf(w, "\n%s_READ_ACCESS    \t\t : %10d", header, s.ReadAccess)
	fmt.Fprintf(w, "\n%s_WRITE_ACCESS   \t\t : %10d", header, s.WriteAccess)
	fmt.Fprintf(w, "\n%s_READ_MISS      \t\t : %10d", header, s.ReadMiss)
	fmt.Fprintf(w, "\n%s_WRITE_MISS     \t\t : %10d", header, s.WriteMiss)
	fmt.Fprintf(w, "\n%s_READ_MISSPERC  \t\t : %10.3f", header, 100*s.ReadMissRate())
	fmt.Fprintf(w, "\n%s_WRITE_MISSPERC \t\t : %10.3f", header, 100*s.WriteMissRate())
	fmt.Fprintf(w, "\n%s_DIRTY_EVICTS   \t\t : %10d", header, s.DirtyEvicts)
	fmt.Fprintf(w, "\n")
}
