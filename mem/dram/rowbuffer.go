package dram

// Timing holds the DRAM command latencies in cycles.
type Timing struct {
	// ACT opens a row.
	ACT uint64
	// CAS reads or writes the open row.
	CAS uint64
	// PRE closes the open row.
	PRE uint64
	// Bus moves the line over the memory bus.
	Bus uint64
}

type bank struct {
	openRow  uint64
	rowValid bool
}

// RowBuffer is a banked DRAM where each bank holds a row buffer. Lines are
// interleaved across banks at row granularity.
type RowBuffer struct {
	statsHolder

	policy      PagePolicy
	timing      Timing
	linesPerRow uint64
	banks       []bank
}

// locate returns the bank and the row of a line address.
func (d *RowBuffer) locate(lineAddr uint64) (bankID int, row uint64) {
	rowAddr := lineAddr / d.linesPerRow
	numBanks := uint64(len(d.banks))

	return int(rowAddr % numBanks), rowAddr / numBanks
}

// Access returns the latency of the access and updates the row buffer.
func (d *RowBuffer) Access(lineAddr uint64, isWrite bool) uint64 {
	bankID, row := d.locate(lineAddr)
	b := &d.banks[bankID]
	t := d.timing

	var delay uint64

	switch {
	case d.policy == PagePolicyClose:
		delay = t.ACT + t.CAS + t.Bus
	case b.rowValid && b.openRow == row:
		delay = t.CAS + t.Bus
	case b.rowValid:
		delay = t.PRE + t.ACT + t.CAS + t.Bus
	default:
		delay = t.ACT + t.CAS + t.Bus
	}

	if d.policy == PagePolicyOpen {
		b.openRow = row
		b.rowValid = true
	}

	d.record(isWrite, delay)

	return delay
}
