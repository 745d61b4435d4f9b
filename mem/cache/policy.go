package cache

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPolicy is returned when a replacement policy cannot be
// recognized.
var ErrUnknownPolicy = errors.New("unknown replacement policy")

// Policy selects how a victim is chosen from a full set.
type Policy int

// The supported replacement policies. The numeric values match the policy
// IDs used by trace-driven configurations.
const (
	PolicyLRU Policy = iota
	PolicyRandom
	PolicyPartition
)

var policyNames = map[string]Policy{
	"0":         PolicyLRU,
	"lru":       PolicyLRU,
	"1":         PolicyRandom,
	"rand":      PolicyRandom,
	"random":    PolicyRandom,
	"2":         PolicyPartition,
	"swp":       PolicyPartition,
	"partition": PolicyPartition,
}

// ParsePolicy converts a policy name or ID to a Policy.
func ParsePolicy(s string) (Policy, error) {
	p, ok := policyNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return PolicyLRU, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}

	return p, nil
}

func (p Policy) String() string {
	switch p {
	case PolicyLRU:
		return "lru"
	case PolicyRandom:
		return "random"
	case PolicyPartition:
		return "partition"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}
