package rolebitset

import (
	"fmt"
	"iter"
	"math/bits"
)

const (
	// MaxRoles is the number of roles a planet can define.
	MaxRoles  = 256
	WordCount = MaxRoles / 64
)

// RoleBitset records which planet roles a member holds. Bit (id % 64) of word
// (id / 64) is set iff the member holds the role with local id id.
type RoleBitset [WordCount]uint64

// Default holds only local role id 0, the planet's default role.
var Default = RoleBitset{1}

func checkId(localRoleId int) {
	if localRoleId < 0 || localRoleId >= MaxRoles {
		panic(fmt.Sprintf("rolebitset: local role id %d out of range [0, %d)", localRoleId, MaxRoles))
	}
}

// WordMask returns the word index and single-bit mask for a local role id. A
// storage layer applies grants as word |= mask and revokes as word &^= mask.
func WordMask(localRoleId int) (word int, mask uint64) {
	checkId(localRoleId)
	return localRoleId >> 6, uint64(1) << (localRoleId & 63)
}

func (b RoleBitset) HasRole(localRoleId int) bool {
	word, mask := WordMask(localRoleId)
	return b[word]&mask != 0
}

// SetRole returns a copy of b with exactly one bit set or cleared.
func (b RoleBitset) SetRole(localRoleId int, value bool) RoleBitset {
	word, mask := WordMask(localRoleId)
	if value {
		b[word] |= mask
	} else {
		b[word] &^= mask
	}
	return b
}

// RoleIds yields the local id of every held role in ascending order.
func (b RoleBitset) RoleIds() iter.Seq[int] {
	return func(yield func(int) bool) {
		for word, bitsLeft := range b {
			for bitsLeft != 0 {
				offset := bits.TrailingZeros64(bitsLeft)
				if !yield(word<<6 + offset) {
					return
				}
				bitsLeft &^= uint64(1) << offset
			}
		}
	}
}

func (b RoleBitset) Count() int {
	count := 0
	for _, word := range b {
		count += bits.OnesCount64(word)
	}
	return count
}

func (b RoleBitset) IsEmpty() bool {
	return b == RoleBitset{}
}

// FromRoleIds builds a bitset holding exactly the given local role ids.
func FromRoleIds(localRoleIds ...int) RoleBitset {
	var b RoleBitset
	for _, id := range localRoleIds {
		b = b.SetRole(id, true)
	}
	return b
}

// Words returns the bitset as signed words, the representation stored by
// databases without an unsigned 64-bit column type.
func (b RoleBitset) Words() [WordCount]int64 {
	var words [WordCount]int64
	for i, w := range b {
		words[i] = int64(w)
	}
	return words
}

func FromWords(words [WordCount]int64) RoleBitset {
	var b RoleBitset
	for i, w := range words {
		b[i] = uint64(w)
	}
	return b
}
