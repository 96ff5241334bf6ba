package slabv1

import "math/bits"

// KeyBits is the width of a node key in bits.
const KeyBits = 128

// Key is the 128-bit composite key ordering leaves in a slab. The high 64
// bits carry the price, the low 64 bits a per-book sequence component, so
// keys order by price first and arrival second and can never collide.
type Key struct {
	Hi uint64
	Lo uint64
}

// NewKey builds a key from its price and sequence components.
func NewKey(price, seq uint64) Key {
	return Key{Hi: price, Lo: seq}
}

// Price returns the price component of the key.
func (k Key) Price() uint64 {
	return k.Hi
}

// Seq returns the raw low 64 bits of the key.
func (k Key) Seq() uint64 {
	return k.Lo
}

// Less reports whether k orders strictly before other.
func (k Key) Less(other Key) bool {
	if k.Hi != other.Hi {
		return k.Hi < other.Hi
	}
	return k.Lo < other.Lo
}

// Equal reports whether both keys are identical.
func (k Key) Equal(other Key) bool {
	return k.Hi == other.Hi && k.Lo == other.Lo
}

// Bit returns the key bit at position i, counting from the most significant
// bit (bit 0) down. Must hold 0 <= i < KeyBits.
func (k Key) Bit(i uint32) uint32 {
	if i < 64 {
		return uint32(k.Hi>>(63-i)) & 1
	}
	return uint32(k.Lo>>(127-i)) & 1
}

// criticalBit returns the position of the most significant bit at which the
// two keys differ. The second return value is false when the keys are equal.
func criticalBit(a, b Key) (uint32, bool) {
	if x := a.Hi ^ b.Hi; x != 0 {
		return uint32(bits.LeadingZeros64(x)), true
	}
	if x := a.Lo ^ b.Lo; x != 0 {
		return 64 + uint32(bits.LeadingZeros64(x)), true
	}
	return 0, false
}

// sharedPrefix reports whether key matches prefix on the first n bits.
func sharedPrefix(key, prefix Key, n uint32) bool {
	pos, ok := criticalBit(key, prefix)
	return !ok || pos >= n
}
