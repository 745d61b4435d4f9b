// Package addresstranslator maps per-core virtual line addresses to physical
// line addresses so that cores running unrelated programs never alias.
package addresstranslator

import (
	"errors"
)

// ErrUnsupportedCoreCount is returned when the translator is asked to serve a
// number of cores other than two.
var ErrUnsupportedCoreCount = errors.New("address translation supports exactly two cores")

const (
	lowFieldMask  = 0xFFFFF
	highFieldBits = 20
	coreShift     = 21
)

// ConvertVPNToPFN maps a virtual page number of a core to a physical frame
// number. The low 20 bits of the page number are kept in place, while the
// core ID and the remaining high bits are moved to bit 21 and above, which
// keeps the frames of core 0 and core 1 disjoint.
func ConvertVPNToPFN(vpn uint64, coreID int) uint64 {
	low := vpn & lowFieldMask
	high := vpn >> highFieldBits

	return low + (uint64(coreID) << coreShift) + (high << coreShift)
}

// Translator converts virtual line addresses to physical line addresses.
type Translator struct {
	linesPerPage uint64
}

// Translate returns the physical line address of a virtual line address
// issued by coreID. The offset of the line within its page is kept.
func (t *Translator) Translate(vLineAddr uint64, coreID int) uint64 {
	vpn := vLineAddr / t.linesPerPage
	offset := vLineAddr % t.linesPerPage

	pfn := ConvertVPNToPFN(vpn, coreID)

	return pfn*t.linesPerPage + offset
}
