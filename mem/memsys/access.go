package memsys

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAccessType is returned when an access type cannot be recognized.
var ErrUnknownAccessType = errors.New("unknown access type")

// AccessType tells what kind of access a core issues.
type AccessType int

// The access types.
const (
	AccessIfetch AccessType = iota
	AccessLoad
	AccessStore
)

// ParseAccessType accepts the single-letter trace codes (I, L, S) as well as
// the full names, case-insensitively.
func ParseAccessType(s string) (AccessType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "I", "IFETCH":
		return AccessIfetch, nil
	case "L", "LOAD":
		return AccessLoad, nil
	case "S", "STORE":
		return AccessStore, nil
	default:
		return AccessLoad, fmt.Errorf("%w: %q", ErrUnknownAccessType, s)
	}
}

func (t AccessType) String() string {
	switch t {
	case AccessIfetch:
		return "IFETCH"
	case AccessLoad:
		return "LOAD"
	case AccessStore:
		return "STORE"
	default:
		return fmt.Sprintf("AccessType(%d)", int(t))
	}
}

// IsWrite tells if the access modifies the line.
func (t AccessType) IsWrite() bool {
	return t == AccessStore
}

// AccessRecord is the item of a HookPosAccess hook.
type AccessRecord struct {
	Addr     uint64
	LineAddr uint64
	Type     AccessType
	CoreID   int
	Delay    uint64
}
