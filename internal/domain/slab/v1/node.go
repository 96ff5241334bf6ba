package slabv1

import "encoding/binary"

// Node tags. Every slot starts with a one-byte discriminant; slots are
// uniform in size so handle-to-offset arithmetic stays trivial.
const (
	tagFree  byte = 0x00
	tagInner byte = 0x01
	tagLeaf  byte = 0x02
)

// Handle addresses a node slot inside a slab. Zero is reserved as "none".
type Handle = uint32

// None is the null handle.
const None Handle = 0

// Fixed field widths of the leaf payload, in declaration order.
const (
	keySize   = 16
	ownerSize = 32
	tokenSize = 32
)

// Computed record sizes. The slot size is the tag byte plus the largest
// payload (the leaf), so every node variant fits in the same slot.
const (
	leafPayloadSize  = keySize + ownerSize + 8 + 8 + 1 + tokenSize
	innerPayloadSize = 4 + keySize + 2*4
	freePayloadSize  = 4
	slotSize         = 1 + leafPayloadSize
	headerSize       = 16
)

// Leaf payload offsets relative to the slot start (after the tag byte).
const (
	leafKeyOff      = 1
	leafOwnerOff    = leafKeyOff + keySize
	leafQuantityOff = leafOwnerOff + ownerSize
	leafClientIDOff = leafQuantityOff + 8
	leafFeeTierOff  = leafClientIDOff + 8
	leafTokenOff    = leafFeeTierOff + 1
)

// Inner payload offsets relative to the slot start.
const (
	innerPrefixLenOff = 1
	innerKeyOff       = innerPrefixLenOff + 4
	innerChildrenOff  = innerKeyOff + keySize
)

// LeafNode is the materialized form of a leaf slot: a resting order.
type LeafNode struct {
	Key           Key
	Owner         [ownerSize]byte
	Quantity      uint64
	ClientOrderID uint64
	FeeTier       uint8
	GatewayToken  [tokenSize]byte
}

// LeafRef is a view over a leaf slot's bytes inside the slab buffer.
// Accessors read and write the backing buffer directly; no copying occurs.
type LeafRef []byte

// Key returns the leaf's composite key.
func (r LeafRef) Key() Key {
	return Key{
		Hi: binary.LittleEndian.Uint64(r[leafKeyOff:]),
		Lo: binary.LittleEndian.Uint64(r[leafKeyOff+8:]),
	}
}

// Owner returns the 256-bit owner identity.
func (r LeafRef) Owner() (owner [ownerSize]byte) {
	copy(owner[:], r[leafOwnerOff:leafOwnerOff+ownerSize])
	return owner
}

// Quantity returns the resting quantity.
func (r LeafRef) Quantity() uint64 {
	return binary.LittleEndian.Uint64(r[leafQuantityOff:])
}

// SetQuantity overwrites the resting quantity in place.
func (r LeafRef) SetQuantity(q uint64) {
	binary.LittleEndian.PutUint64(r[leafQuantityOff:], q)
}

// ClientOrderID returns the caller-assigned order id.
func (r LeafRef) ClientOrderID() uint64 {
	return binary.LittleEndian.Uint64(r[leafClientIDOff:])
}

// FeeTier returns the owner's fee tier at placement time.
func (r LeafRef) FeeTier() uint8 {
	return r[leafFeeTierOff]
}

// GatewayToken returns the authorization credential the order was placed under.
func (r LeafRef) GatewayToken() (token [tokenSize]byte) {
	copy(token[:], r[leafTokenOff:leafTokenOff+tokenSize])
	return token
}

// Node materializes the leaf slot into a LeafNode copy.
func (r LeafRef) Node() LeafNode {
	return LeafNode{
		Key:           r.Key(),
		Owner:         r.Owner(),
		Quantity:      r.Quantity(),
		ClientOrderID: r.ClientOrderID(),
		FeeTier:       r.FeeTier(),
		GatewayToken:  r.GatewayToken(),
	}
}

func writeLeaf(slot []byte, leaf *LeafNode) {
	slot[0] = tagLeaf
	binary.LittleEndian.PutUint64(slot[leafKeyOff:], leaf.Key.Hi)
	binary.LittleEndian.PutUint64(slot[leafKeyOff+8:], leaf.Key.Lo)
	copy(slot[leafOwnerOff:], leaf.Owner[:])
	binary.LittleEndian.PutUint64(slot[leafQuantityOff:], leaf.Quantity)
	binary.LittleEndian.PutUint64(slot[leafClientIDOff:], leaf.ClientOrderID)
	slot[leafFeeTierOff] = leaf.FeeTier
	copy(slot[leafTokenOff:], leaf.GatewayToken[:])
}

func writeInner(slot []byte, prefixLen uint32, prefix Key, children [2]Handle) {
	slot[0] = tagInner
	binary.LittleEndian.PutUint32(slot[innerPrefixLenOff:], prefixLen)
	binary.LittleEndian.PutUint64(slot[innerKeyOff:], prefix.Hi)
	binary.LittleEndian.PutUint64(slot[innerKeyOff+8:], prefix.Lo)
	binary.LittleEndian.PutUint32(slot[innerChildrenOff:], children[0])
	binary.LittleEndian.PutUint32(slot[innerChildrenOff+4:], children[1])
}

func innerPrefixLen(slot []byte) uint32 {
	return binary.LittleEndian.Uint32(slot[innerPrefixLenOff:])
}

func innerPrefix(slot []byte) Key {
	return Key{
		Hi: binary.LittleEndian.Uint64(slot[innerKeyOff:]),
		Lo: binary.LittleEndian.Uint64(slot[innerKeyOff+8:]),
	}
}

func innerChild(slot []byte, dir uint32) Handle {
	return binary.LittleEndian.Uint32(slot[innerChildrenOff+4*dir:])
}

func setInnerChild(slot []byte, dir uint32, h Handle) {
	binary.LittleEndian.PutUint32(slot[innerChildrenOff+4*dir:], h)
}

func writeFree(slot []byte, next Handle) {
	for i := range slot {
		slot[i] = 0
	}
	slot[0] = tagFree
	binary.LittleEndian.PutUint32(slot[1:], next)
}

func freeNext(slot []byte) Handle {
	return binary.LittleEndian.Uint32(slot[1:])
}
