package dram

import (
	"errors"
	"fmt"
)

// ErrInvalidOrganization is returned when the bank or row geometry cannot
// be built.
var ErrInvalidOrganization = errors.New("invalid DRAM organization")

// Builder can build DRAM models.
type Builder struct {
	policy        PagePolicy
	fixedLatency  uint64
	timing        Timing
	numBanks      int
	rowBufferSize uint64
	lineSize      uint64
}

// MakeBuilder creates a builder with default configuration: a fixed 100
// cycle latency, or for row-buffer policies 16 banks with 1KB row buffers
// and 45-cycle ACT/CAS/PRE plus a 10-cycle bus.
func MakeBuilder() Builder {
	return Builder{
		policy:       PagePolicyFixed,
		fixedLatency: 100,
		timing: Timing{
			ACT: 45,
			CAS: 45,
			PRE: 45,
			Bus: 10,
		},
		numBanks:      16,
		rowBufferSize: 1024,
		lineSize:      64,
	}
}

// WithPagePolicy sets the page policy.
func (b Builder) WithPagePolicy(p PagePolicy) Builder {
	b.policy = p
	return b
}

// WithFixedLatency sets the latency used by the fixed policy.
func (b Builder) WithFixedLatency(n uint64) Builder {
	b.fixedLatency = n
	return b
}

// WithTiming sets the command latencies used by the row-buffer policies.
func (b Builder) WithTiming(t Timing) Builder {
	b.timing = t
	return b
}

// WithNumBanks sets the number of banks.
func (b Builder) WithNumBanks(n int) Builder {
	b.numBanks = n
	return b
}

// WithRowBufferSize sets the size of a row buffer in bytes.
func (b Builder) WithRowBufferSize(n uint64) Builder {
	b.rowBufferSize = n
	return b
}

// WithLineSize sets the cache line size in bytes.
func (b Builder) WithLineSize(n uint64) Builder {
	b.lineSize = n
	return b
}

// Build creates the DRAM model selected by the page policy.
func (b Builder) Build() (Dram, error) {
	switch b.policy {
	case PagePolicyFixed:
		return &FixedLatency{latency: b.fixedLatency}, nil
	case PagePolicyOpen, PagePolicyClose:
		return b.buildRowBuffer()
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownPagePolicy, int(b.policy))
	}
}

func (b Builder) buildRowBuffer() (*RowBuffer, error) {
	if b.numBanks <= 0 {
		return nil, fmt.Errorf("%w: %d banks", ErrInvalidOrganization, b.numBanks)
	}

	if b.lineSize == 0 || b.rowBufferSize < b.lineSize ||
		b.rowBufferSize%b.lineSize != 0 {
		return nil, fmt.Errorf("%w: row buffer %d, line %d",
			ErrInvalidOrganization, b.rowBufferSize, b.lineSize)
	}

	return &RowBuffer{
		policy:      b.policy,
		timing:      b.timing,
		linesPerRow: b.rowBufferSize / b.lineSize,
		banks:       make([]bank, b.numBanks),
	}, nil
}
