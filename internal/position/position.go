package position

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Position is a channel or category position in a planet's channel tree.
// Each of the four bytes, most significant first, holds the 1-based sibling
// order at that depth, or 0 when the tree does not extend that deep.
type Position uint32

const (
	// MaxDepth is the deepest index a position can describe (4 levels total).
	MaxDepth = 3
	// MaxLocalPosition is the largest sibling order a single level can hold.
	MaxLocalPosition = 255

	levels = MaxDepth + 1
)

var (
	ErrMalformedPosition    = errors.New("malformed channel position")
	ErrDepthExceeded        = errors.New("channel depth exceeded")
	ErrInvalidLocalPosition = errors.New("local position must be between 1 and 255")
)

func shift(depth int) uint {
	return uint(8 * (MaxDepth - depth))
}

func byteAt(p Position, depth int) uint32 {
	return (uint32(p) >> shift(depth)) & 0xFF
}

// Validate checks the depth-contiguity invariant: at least the top byte is
// set and no non-zero byte follows a zero byte.
func Validate(p Position) error {
	_, err := Depth(p)
	return err
}

// Depth returns the index of the last non-zero byte.
func Depth(p Position) (int, error) {
	depth := -1
	for i := 0; i < levels; i++ {
		if byteAt(p, i) == 0 {
			break
		}
		depth = i
	}
	if depth < 0 {
		return 0, fmt.Errorf("%w: %s has no top-level byte", ErrMalformedPosition, p.Hex())
	}
	// everything below the depth byte must be zero
	if depth < MaxDepth && uint32(p)&(0xFFFFFFFF>>uint(8*(depth+1))) != 0 {
		return 0, fmt.Errorf("%w: %s has a gap below depth %d", ErrMalformedPosition, p.Hex(), depth)
	}
	return depth, nil
}

// LocalPosition returns the sibling order of the node at its own depth.
func LocalPosition(p Position) (int, error) {
	depth, err := Depth(p)
	if err != nil {
		return 0, err
	}
	return int(byteAt(p, depth)), nil
}

// TopLevel returns the position of a depth-0 node with the given sibling order.
func TopLevel(order int) (Position, error) {
	if order < 1 || order > MaxLocalPosition {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidLocalPosition, order)
	}
	return Position(uint32(order) << shift(0)), nil
}

// AppendRelativePosition returns the position of a child of parent with the
// given sibling order.
func AppendRelativePosition(parent Position, order int) (Position, error) {
	depth, err := Depth(parent)
	if err != nil {
		return 0, err
	}
	if depth >= MaxDepth {
		return 0, fmt.Errorf("%w: %s is already at depth %d", ErrDepthExceeded, parent.Hex(), MaxDepth)
	}
	if order < 1 || order > MaxLocalPosition {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidLocalPosition, order)
	}
	return parent | Position(uint32(order)<<shift(depth+1)), nil
}

// DescendantBounds returns the half-open range [lower, upper) that holds p and
// every position in its subtree, and nothing else. Bounds are 64-bit so that a
// top-level node at order 255 does not overflow.
func DescendantBounds(p Position) (lower, upper uint64, err error) {
	depth, err := Depth(p)
	if err != nil {
		return 0, 0, err
	}
	lower = uint64(p)
	upper = lower + uint64(1)<<shift(depth)
	return lower, upper, nil
}

// Parent returns the position of p's parent. Top-level positions return 0,
// the planet root.
func Parent(p Position) (Position, error) {
	depth, err := Depth(p)
	if err != nil {
		return 0, err
	}
	return p &^ Position(uint32(0xFF)<<shift(depth)), nil
}

// Ancestors returns every ancestor of p, immediate parent first.
func Ancestors(p Position) ([]Position, error) {
	depth, err := Depth(p)
	if err != nil {
		return nil, err
	}
	ancestors := make([]Position, 0, depth)
	for d := depth - 1; d >= 0; d-- {
		ancestors = append(ancestors, p&^Position(0xFFFFFFFF>>uint(8*(d+1))))
	}
	return ancestors, nil
}

// Path returns the sibling order at each level from the top down to p.
func Path(p Position) ([]uint8, error) {
	depth, err := Depth(p)
	if err != nil {
		return nil, err
	}
	path := make([]uint8, depth+1)
	for i := range path {
		path[i] = uint8(byteAt(p, i))
	}
	return path, nil
}

// DirectChildMask returns the mask selecting the byte that holds the local
// position of a direct child of a node at the given depth.
func DirectChildMask(depth int) (uint32, error) {
	if depth < 0 || depth >= MaxDepth {
		return 0, fmt.Errorf("%w: nodes at depth %d have no children", ErrDepthExceeded, depth)
	}
	return uint32(0xFF) << shift(depth+1), nil
}

// Parse accepts either a hex value ("0x01020000") or a dotted path ("1.2").
func Parse(s string) (Position, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("parse position %q: %w", s, err)
		}
		p := Position(v)
		if err := Validate(p); err != nil {
			return 0, err
		}
		return p, nil
	}

	parts := strings.Split(s, ".")
	if len(parts) > levels {
		return 0, fmt.Errorf("%w: %q has more than %d levels", ErrDepthExceeded, s, levels)
	}

	var p Position
	for i, part := range parts {
		order, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("parse position %q: %w", s, err)
		}
		if i == 0 {
			p, err = TopLevel(order)
		} else {
			p, err = AppendRelativePosition(p, order)
		}
		if err != nil {
			return 0, err
		}
	}
	return p, nil
}

// Hex formats the raw value as 0x-prefixed, zero padded hex.
func (p Position) Hex() string {
	return fmt.Sprintf("0x%08X", uint32(p))
}

// String formats p as a dotted path, or as hex when p is malformed.
func (p Position) String() string {
	path, err := Path(p)
	if err != nil {
		return p.Hex()
	}
	parts := make([]string, len(path))
	for i, b := range path {
		parts[i] = strconv.Itoa(int(b))
	}
	return strings.Join(parts, ".")
}
