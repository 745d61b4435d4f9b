// Package trace reads memory access traces and records the accesses a
// memory system serves.
//
// A trace is a text file with one access per line: a type letter (I, L or S)
// followed by a hexadecimal byte address. Blank lines and lines starting with
// # are skipped. Files ending in .gz are decompressed on the fly.
package trace

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/cachesim/mem/memsys"
)

// ErrMalformedRecord is returned when a trace line cannot be parsed.
var ErrMalformedRecord = errors.New("malformed trace record")

// Record is one access of a trace.
type Record struct {
	Type memsys.AccessType
	Addr uint64
}

// Reader reads records from a trace one by one.
type Reader struct {
	name    string
	scanner *bufio.Scanner
	closers []io.Closer
	line    int
}

// Open opens a trace file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(path, ".gz") {
		r := NewReader(path, f)
		r.closers = append(r.closers, f)

		return r, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("trace %s: %w", path, err)
	}

	r := NewReader(path, gz)
	r.closers = append(r.closers, gz, f)

	return r, nil
}

// NewReader reads a trace from r. The name is only used in error messages.
func NewReader(name string, r io.Reader) *Reader {
	return &Reader{
		name:    name,
		scanner: bufio.NewScanner(r),
	}
}

// Name returns the name of the trace.
func (r *Reader) Name() string {
	return r.name
}

// Read returns the next record. It returns io.EOF after the last record.
func (r *Reader) Read() (Record, error) {
	for r.scanner.Scan() {
		r.line++

		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		rec, err := ParseRecord(text)
		if err != nil {
			return Record{}, fmt.Errorf("%s:%d: %w", r.name, r.line, err)
		}

		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("%s: %w", r.name, err)
	}

	return Record{}, io.EOF
}

// Close closes the underlying files.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}

	r.closers = nil

	return errors.Join(errs...)
}

// ParseRecord parses a single trace line such as "L 0x7ffd1234".
func ParseRecord(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Record{}, fmt.Errorf("%w: %q", ErrMalformedRecord, line)
	}

	t, err := memsys.ParseAccessType(fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	hex := strings.TrimPrefix(strings.ToLower(fields[1]), "0x")

	addr, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: bad address %q", ErrMalformedRecord, fields[1])
	}

	return Record{Type: t, Addr: addr}, nil
}
