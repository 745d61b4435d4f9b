package dram

// FixedLatency is a DRAM where every access takes the same number of
// cycles.
type FixedLatency struct {
	statsHolder

	latency uint64
}

// Access returns the fixed latency.
func (d *FixedLatency) Access(_ uint64, isWrite bool) uint64 {
	d.record(isWrite, d.latency)
	return d.latency
}
