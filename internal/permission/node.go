package permission

import (
	"fmt"
	"strings"
)

// State is the tri-state value a node assigns to a permission.
type State int

const (
	StateUndefined State = iota
	StateAllow
	StateDeny
)

func (s State) String() string {
	switch s {
	case StateUndefined:
		return "UNDEFINED"
	case StateAllow:
		return "ALLOW"
	case StateDeny:
		return "DENY"
	default:
		return fmt.Sprintf("STATE(%d)", int(s))
	}
}

func (s State) Valid() bool {
	return s >= StateUndefined && s <= StateDeny
}

// ParseState accepts the names returned by String, case-insensitively.
func ParseState(name string) (State, error) {
	switch strings.ToUpper(name) {
	case "UNDEFINED", "":
		return StateUndefined, nil
	case "ALLOW":
		return StateAllow, nil
	case "DENY":
		return StateDeny, nil
	default:
		return StateUndefined, fmt.Errorf("unknown permission state %q", name)
	}
}

// Node is a per-(role, target) override. A mask bit of 0 leaves the
// permission undefined; a mask bit of 1 allows it when the matching code bit
// is 1 and denies it otherwise.
type Node struct {
	Code       uint64
	Mask       uint64
	TargetType TargetType
}

// GetState returns the state of a permission. For multi-bit values every bit
// must be decided for the node to decide, and every bit must be granted for
// it to allow.
func (n Node) GetState(value uint64) State {
	if n.Mask&value != value {
		return StateUndefined
	}
	if n.Code&value != value {
		return StateDeny
	}
	return StateAllow
}

// SetState returns a copy of n with the permission set to s. Undefined bits
// are cleared in both code and mask.
func (n Node) SetState(value uint64, s State) Node {
	switch s {
	case StateAllow:
		n.Mask |= value
		n.Code |= value
	case StateDeny:
		n.Mask |= value
		n.Code &^= value
	default:
		n.Mask &^= value
		n.Code &^= value
	}
	return n
}

// IsEmpty reports whether the node decides nothing, which resolves the same
// as the node not existing.
func (n Node) IsEmpty() bool {
	return n.Mask == 0
}
