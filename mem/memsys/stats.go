package memsys

import (
	"fmt"
	"io"
)

// Stats are the per-access-type counters of a memory system.
type Stats struct {
	IfetchAccess uint64
	LoadAccess   uint64
	StoreAccess  uint64
	IfetchDelay  uint64
	LoadDelay    uint64
	StoreDelay   uint64
}

func (s *Stats) record(t AccessType, delay uint64) {
	switch t {
	case AccessIfetch:
		s.IfetchAccess++
		s.IfetchDelay += delay
	case AccessLoad:
		s.LoadAccess++
		s.LoadDelay += delay
	case AccessStore:
		s.StoreAccess++
		s.StoreDelay += delay
	}
}

func avg(total, n uint64) float64 {
	if n == 0 {
		return 0
	}

	return float64(total) / float64(n)
}

// AvgIfetchDelay returns the average delay of instruction fetches.
func (s Stats) AvgIfetchDelay() float64 { return avg(s.IfetchDelay, s.IfetchAccess) }

// AvgLoadDelay returns the average delay of loads.
func (s Stats) AvgLoadDelay() float64 { return avg(s.LoadDelay, s.LoadAccess) }

// AvgStoreDelay returns the average delay of stores.
func (s Stats) AvgStoreDelay() float64 { return avg(s.StoreDelay, s.StoreAccess) }

// PrintStats writes the memory system counters followed by the counters of
// every cache and of the DRAM.
func (m *Memsys) PrintStats(w io.Writer) {
	const header = "MEMSYS"

	s := m.stats

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "\n%s_IFETCH_ACCESS  \t\t : %10d", header, s.IfetchAccess)
	fmt.Fprintf(w, "\n%s_LOAD_ACCESS    \t\t : %10d", header, s.LoadAccess)
	fmt.Fprintf(w, "\n%s_STORE_ACCESS   \t\t : %10d", header, s.StoreAccess)
	fmt.Fprintf(w, "\n%s_IFETCH_AVGDELAY\t\t : %10.3f", header, s.AvgIfetchDelay())
	fmt.Fprintf(w, "\n%s_LOAD_AVGDELAY  \t\t : %10.3f", header, s.AvgLoadDelay())
	fmt.Fprintf(w, "\n%s_STORE_AVGDELAY \t\t : %10.3f", header, s.AvgStoreDelay())
	fmt.Fprintf(w, "\n")

	for _, c := range m.Caches() {
		c.PrintStats(w, c.Name())
	}

	if d := m.Dram(); d != nil {
		d.PrintStats(w)
	}
}
