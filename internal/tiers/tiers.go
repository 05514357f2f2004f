package tiers

import (
	"fmt"
	"strings"
)

// Tier is a subscription level. Levels are totally ordered (FREE < PRO <
// ELITE) so access checks are a single comparison instead of string
// matching scattered across handlers.
type Tier int

const (
	Free Tier = iota
	Pro
	Elite
)

func (t Tier) String() string {
	switch t {
	case Free:
		return "FREE"
	case Pro:
		return "PRO"
	case Elite:
		return "ELITE"
	default:
		return "FREE"
	}
}

// Meets reports whether t grants access to a capability requiring the given
// tier. Equal tier is always sufficient.
func (t Tier) Meets(required Tier) bool {
	return t >= required
}

// Parse resolves a tier name, defaulting to Free for anything unknown or
// empty. Gating must fail closed: a caller with an unreadable tier is
// treated as the least privileged, never the most.
func Parse(s string) Tier {
	t, err := ParseStrict(s)
	if err != nil {
		return Free
	}
	return t
}

// ParseStrict resolves a tier name and rejects unknown values. Used where
// the input is operator-supplied (admin tier changes, config) and a typo
// should be an error rather than a silent downgrade.
func ParseStrict(s string) (Tier, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FREE":
		return Free, nil
	case "PRO":
		return Pro, nil
	case "ELITE":
		return Elite, nil
	default:
		return Free, fmt.Errorf("unknown tier %q", s)
	}
}

// All returns every tier in ascending order.
func All() []Tier {
	return []Tier{Free, Pro, Elite}
}
