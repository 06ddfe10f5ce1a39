package ecs

import (
	"math/bits"
	"strconv"
	"strings"
)

// MaxComponentTypes is the number of component types a registry can hold,
// one bit of ComponentMask each.
const MaxComponentTypes = 64

// ComponentMask is a bitset of component types.
type ComponentMask uint64

// MaskOf returns the mask with the bits of the given type ids set.
func MaskOf(ids ...ComponentTypeId) ComponentMask {
	var m ComponentMask
	for _, id := range ids {
		m = m.Set(id)
	}
	return m
}

// Set returns m with the bit for id set.
func (m ComponentMask) Set(id ComponentTypeId) ComponentMask {
	return m | 1<<id
}

// Clear returns m with the bit for id cleared.
func (m ComponentMask) Clear(id ComponentTypeId) ComponentMask {
	return m &^ (1 << id)
}

// Has reports whether the bit for id is set.
func (m ComponentMask) Has(id ComponentTypeId) bool {
	return m&(1<<id) != 0
}

// Contains reports whether every bit of other is also set in m.
func (m ComponentMask) Contains(other ComponentMask) bool {
	return m&other == other
}

// Count returns the number of set bits.
func (m ComponentMask) Count() int {
	return bits.OnesCount64(uint64(m))
}

// IsEmpty reports whether no bit is set.
func (m ComponentMask) IsEmpty() bool {
	return m == 0
}

func (m ComponentMask) String() string {
	if m == 0 {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for rest := uint64(m); rest != 0; rest &= rest - 1 {
		if !first {
			sb.WriteByte(',')
		}
		first = false
		sb.WriteString(strconv.Itoa(bits.TrailingZeros64(rest)))
	}
	sb.WriteByte('}')
	return sb.String()
}
