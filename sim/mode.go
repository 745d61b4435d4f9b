package sim

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned when a mode name cannot be recognized.
var ErrUnknownMode = errors.New("unknown simulation mode")

// Mode selects the shape of the simulated memory hierarchy.
type Mode int

// The supported modes.
const (
	// ModeA uses a single data cache and does not model timing.
	ModeA Mode = iota
	// ModeB uses shared L1 caches, a shared L2 and a fixed-latency DRAM.
	ModeB
	// ModeC is ModeB with a row-buffer DRAM.
	ModeC
	// ModeD uses per-core L1 caches, a shared L2 and virtual memory.
	ModeD
	// ModeE is ModeD with the L2 partitioned between the two cores.
	ModeE
	// ModeF is ModeD with a close-page DRAM.
	ModeF
)

var modeNames = []string{"A", "B", "C", "D", "E", "F"}

// ParseMode converts a mode letter (case-insensitive) to a Mode.
func ParseMode(s string) (Mode, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}

	return ModeA, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) String() string {
	if m < ModeA || m > ModeF {
		return fmt.Sprintf("Mode(%d)", int(m))
	}

	return modeNames[m]
}

// IsValid tells if the mode is one of the supported modes.
func (m Mode) IsValid() bool {
	return m >= ModeA && m <= ModeF
}

// IsTimed tells if accesses in this mode report a delay.
func (m Mode) IsTimed() bool {
	return m != ModeA
}

// IsMultiCore tells if the mode has per-core L1 caches and translates
// virtual addresses.
func (m Mode) IsMultiCore() bool {
	return m >= ModeD
}
