package addresstranslator

import (
	"errors"
	"fmt"
)

// ErrInvalidPageSize is returned when the page size is not a positive
// multiple of the line size.
var ErrInvalidPageSize = errors.New("invalid page size")

// A Builder can create address translators
type Builder struct {
	log2PageSize uint64
	lineSize     uint64
	numCores     int
}

// MakeBuilder creates a new builder with 4KB pages, 64-byte lines and two
// cores.
func MakeBuilder() Builder {
	return Builder{
		log2PageSize: 12,
		lineSize:     64,
		numCores:     2,
	}
}

// WithLog2PageSize sets the page size as a power of 2
func (b Builder) WithLog2PageSize(n uint64) Builder {
	b.log2PageSize = n
	return b
}

// WithLineSize sets the cache line size in bytes.
func (b Builder) WithLineSize(n uint64) Builder {
	b.lineSize = n
	return b
}

// WithNumCores sets the number of cores that share the physical memory.
func (b Builder) WithNumCores(n int) Builder {
	b.numCores = n
	return b
}

// Build creates a translator.
func (b Builder) Build() (*Translator, error) {
	if b.numCores != 2 {
		return nil, fmt.Errorf("%w: got %d", ErrUnsupportedCoreCount, b.numCores)
	}

	pageSize := uint64(1) << b.log2PageSize
	if b.lineSize == 0 || pageSize < b.lineSize || pageSize%b.lineSize != 0 {
		return nil, fmt.Errorf("%w: page %d, line %d",
			ErrInvalidPageSize, pageSize, b.lineSize)
	}

	return &Translator{
		linesPerPage: pageSize / b.lineSize,
	}, nil
}
