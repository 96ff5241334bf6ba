// Package slabv1 implements a critbit tree over a fixed-capacity node arena
// that lives entirely inside a caller-owned byte buffer. Nodes are addressed
// by integer handles and reused through a free list; the tree performs no
// heap allocation after construction.
package slabv1

import (
	"encoding/binary"
	"errors"
)

var (
	// ErrOutOfSpace is returned when both the free list and the unused
	// slot counter are exhausted.
	ErrOutOfSpace = errors.New("slab has no free node slots")
	// ErrDuplicateKey is returned on inserting a key that is already
	// present. Unreachable while keys carry a fresh sequence component,
	// but a defined outcome regardless.
	ErrDuplicateKey = errors.New("key already present in slab")
	// ErrBufferTooSmall is returned when the backing buffer cannot hold
	// the header and at least one node slot.
	ErrBufferTooSmall = errors.New("slab buffer too small")
)

// Header field offsets.
const (
	hdrRootOff       = 0
	hdrLeafCountOff  = 4
	hdrFreeHeadOff   = 8
	hdrNextUnusedOff = 12
)

// Slab is a node arena plus the critbit index built over it. The zero buffer
// is a valid empty slab, so a freshly allocated (zeroed) byte slice needs no
// explicit formatting.
type Slab struct {
	buf      []byte
	capacity uint32
}

// RequiredBufferSize returns the byte length a backing buffer needs to hold
// maxNodes node slots. A tree of n leaves uses at most 2n-1 nodes, so a book
// side sized for n resting orders should pass 2n.
func RequiredBufferSize(maxNodes uint32) int {
	return headerSize + int(maxNodes)*slotSize
}

// NewSlab wraps buf as a slab. The buffer is owned by the caller and must
// outlive the slab; capacity is fixed by the buffer length and never grows.
func NewSlab(buf []byte) (*Slab, error) {
	if len(buf) < headerSize+slotSize {
		return nil, ErrBufferTooSmall
	}

	return &Slab{
		buf:      buf,
		capacity: uint32((len(buf) - headerSize) / slotSize),
	}, nil
}

// Capacity returns the fixed number of node slots.
func (s *Slab) Capacity() uint32 {
	return s.capacity
}

// LeafCount returns the number of leaves currently present.
func (s *Slab) LeafCount() uint32 {
	return binary.LittleEndian.Uint32(s.buf[hdrLeafCountOff:])
}

// Buffer exposes the raw backing bytes, for snapshotting.
func (s *Slab) Buffer() []byte {
	return s.buf
}

// Reset wipes the slab back to empty without reallocating.
func (s *Slab) Reset() {
	for i := range s.buf {
		s.buf[i] = 0
	}
}

func (s *Slab) root() Handle {
	return binary.LittleEndian.Uint32(s.buf[hdrRootOff:])
}

func (s *Slab) setRoot(h Handle) {
	binary.LittleEndian.PutUint32(s.buf[hdrRootOff:], h)
}

func (s *Slab) setLeafCount(n uint32) {
	binary.LittleEndian.PutUint32(s.buf[hdrLeafCountOff:], n)
}

func (s *Slab) freeHead() Handle {
	return binary.LittleEndian.Uint32(s.buf[hdrFreeHeadOff:])
}

func (s *Slab) setFreeHead(h Handle) {
	binary.LittleEndian.PutUint32(s.buf[hdrFreeHeadOff:], h)
}

func (s *Slab) nextUnused() uint32 {
	return binary.LittleEndian.Uint32(s.buf[hdrNextUnusedOff:])
}

func (s *Slab) setNextUnused(n uint32) {
	binary.LittleEndian.PutUint32(s.buf[hdrNextUnusedOff:], n)
}

// slot returns the byte window of handle h. Handles are 1-based so that the
// zero handle can mean "none".
func (s *Slab) slot(h Handle) []byte {
	off := headerSize + int(h-1)*slotSize
	return s.buf[off : off+slotSize]
}

// allocate pops a slot from the free list, or bumps the unused counter when
// the free list is empty.
func (s *Slab) allocate() (Handle, error) {
	if h := s.freeHead(); h != None {
		s.setFreeHead(freeNext(s.slot(h)))
		return h, nil
	}

	used := s.nextUnused()
	if used >= s.capacity {
		return None, ErrOutOfSpace
	}
	s.setNextUnused(used + 1)
	return used + 1, nil
}

// release returns slot h to the free list, threading it exactly once.
func (s *Slab) release(h Handle) {
	writeFree(s.slot(h), s.freeHead())
	s.setFreeHead(h)
}
