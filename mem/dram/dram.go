// Package dram provides the main memory timing models used below the last
// level cache. A model only reports how many cycles an access takes.
package dram

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnknownPagePolicy is returned when a page policy name cannot be
// recognized.
var ErrUnknownPagePolicy = errors.New("unknown DRAM page policy")

// Dram is a main memory that can tell the latency of line accesses.
type Dram interface {
	// Access returns the latency in cycles of reading or writing the line.
	Access(lineAddr uint64, isWrite bool) uint64

	// Stats returns the access counters.
	Stats() Stats

	// PrintStats writes the counters in the report format.
	PrintStats(w io.Writer)
}

// PagePolicy selects how the row buffers are managed.
type PagePolicy int

// The supported page policies.
const (
	// PagePolicyFixed ignores row buffers; every access costs the same.
	PagePolicyFixed PagePolicy = iota
	// PagePolicyOpen keeps the last accessed row of a bank open.
	PagePolicyOpen
	// PagePolicyClose closes the row after every access.
	PagePolicyClose
)

// ParsePagePolicy converts a page policy name to a PagePolicy.
func ParsePagePolicy(s string) (PagePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed":
		return PagePolicyFixed, nil
	case "open", "open-page":
		return PagePolicyOpen, nil
	case "close", "closed", "close-page":
		return PagePolicyClose, nil
	default:
		return PagePolicyFixed, fmt.Errorf("%w: %q", ErrUnknownPagePolicy, s)
	}
}

func (p PagePolicy) String() string {
	switch p {
	case PagePolicyFixed:
		return "fixed"
	case PagePolicyOpen:
		return "open"
	case PagePolicyClose:
		return "close"
	default:
		return fmt.Sprintf("PagePolicy(%d)", int(p))
	}
}

// Stats are the counters of a DRAM.
type Stats struct {
	ReadAccess  uint64
	WriteAccess uint64
	ReadDelay   uint64
	WriteDelay  uint64
}

// AvgReadDelay returns the average latency of reads.
func (s Stats) AvgReadDelay() float64 {
	if s.ReadAccess == 0 {
		return 0
	}

	return float64(s.ReadDelay) / float64(s.ReadAccess)
}

// AvgWriteDelay returns the average latency of writes.
func (s Stats) AvgWriteDelay() float64 {
	if s.WriteAccess == 0 {
		return 0
	}

	return float64(s.WriteDelay) / float64(s.WriteAccess)
}

type statsHolder struct {
	stats Stats
}

func (h *statsHolder) Stats() Stats {
	return h.stats
}

func (h *statsHolder) record(isWrite bool, delay uint64) {
	if isWrite {
		h.stats.WriteAccess++
		h.stats.WriteDelay += delay

		return
	}

	h.stats.ReadAccess++
	h.stats.ReadDelay += delay
}

func (h *statsHolder) PrintStats(w io.Writer) {
	s := h.stats

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "\nDRAM_READ_ACCESS     \t\t : %10d", s.ReadAccess)
	fmt.Fprintf(w, "\nDRAM_WRITE_ACCESS    \t\t : %10d", s.WriteAccess)
	fmt.Fprintf(w, "\nDRAM_READ_DELAY_AVG  \t\t : %10.3f", s.AvgReadDelay())
	fmt.Fprintf(w, "\nDRAM_WRITE_DELAY_AVG \t\t : %10.3f", s.AvgWriteDelay())
	fmt.Fprintf(w, "\n")
}
