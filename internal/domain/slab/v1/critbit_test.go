package slabv1

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSlab(t *testing.T, maxNodes uint32) *Slab {
	t.Helper()
	s, err := NewSlab(make([]byte, RequiredBufferSize(maxNodes)))
	require.NoError(t, err)
	return s
}

func testLeaf(key Key) *LeafNode {
	return &LeafNode{
		Key:      key,
		Quantity: 1,
	}
}

func collectKeys(s *Slab) []Key {
	var keys []Key
	s.Walk(func(leaf LeafRef) bool {
		keys = append(keys, leaf.Key())
		return true
	})
	return keys
}

// Test 1: A zeroed buffer is a valid empty slab
func TestNewSlab_EmptyBuffer(t *testing.T) {
	s := newTestSlab(t, 8)

	assert.Equal(t, uint32(0), s.LeafCount())

	_, ok := s.FindMin()
	assert.False(t, ok)
	_, ok = s.FindMax()
	assert.False(t, ok)
}

// Test 2: Buffer below the minimum size is rejected
func TestNewSlab_BufferTooSmall(t *testing.T) {
	_, err := NewSlab(make([]byte, 10))
	assert.ErrorIs(t, err, ErrBufferTooSmall)
}

// Test 3: Insert then find a single leaf
func TestSlab_InsertSingleLeaf(t *testing.T) {
	s := newTestSlab(t, 8)

	key := NewKey(100, 1)
	_, err := s.InsertLeaf(testLeaf(key))
	require.NoError(t, err)

	assert.Equal(t, uint32(1), s.LeafCount())

	h, ok := s.FindMin()
	require.True(t, ok)
	leaf, ok := s.Leaf(h)
	require.True(t, ok)
	assert.True(t, key.Equal(leaf.Key()))
}

// Test 4: Walk visits keys in ascending order regardless of insert order
func TestSlab_WalkAscending(t *testing.T) {
	s := newTestSlab(t, 64)

	keys := []Key{
		NewKey(50, 3),
		NewKey(10, 7),
		NewKey(50, 1),
		NewKey(99, 2),
		NewKey(10, 4),
		NewKey(1, 9),
	}
	for _, k := range keys {
		_, err := s.InsertLeaf(testLeaf(k))
		require.NoError(t, err)
	}

	got := collectKeys(s)
	require.Len(t, got, len(keys))

	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	for i := range keys {
		assert.True(t, keys[i].Equal(got[i]), "position %d", i)
	}
}

// Test 5: FindMin and FindMax return the extreme keys
func TestSlab_FindMinMax(t *testing.T) {
	s := newTestSlab(t, 16)

	for _, k := range []Key{NewKey(5, 1), NewKey(2, 8), NewKey(9, 3)} {
		_, err := s.InsertLeaf(testLeaf(k))
		require.NoError(t, err)
	}

	h, ok := s.FindMin()
	require.True(t, ok)
	leaf, _ := s.Leaf(h)
	assert.True(t, NewKey(2, 8).Equal(leaf.Key()))

	h, ok = s.FindMax()
	require.True(t, ok)
	leaf, _ = s.Leaf(h)
	assert.True(t, NewKey(9, 3).Equal(leaf.Key()))
}

// Test 6: Keys differing only in the low word order correctly
func TestSlab_LowWordOrdering(t *testing.T) {
	s := newTestSlab(t, 16)

	for _, k := range []Key{NewKey(7, 300), NewKey(7, 2), NewKey(7, 90)} {
		_, err := s.InsertLeaf(testLeaf(k))
		require.NoError(t, err)
	}

	got := collectKeys(s)
	require.Len(t, got, 3)
	assert.Equal(t, uint64(2), got[0].Seq())
	assert.Equal(t, uint64(90), got[1].Seq())
	assert.Equal(t, uint64(300), got[2].Seq())
}

// Test 7: Duplicate keys are rejected without modifying the tree
func TestSlab_DuplicateKey(t *testing.T) {
	s := newTestSlab(t, 8)

	key := NewKey(42, 42)
	_, err := s.InsertLeaf(testLeaf(key))
	require.NoError(t, err)

	_, err = s.InsertLeaf(testLeaf(key))
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, uint32(1), s.LeafCount())
}

// Test 8: Remove by key returns the leaf and prunes the tree
func TestSlab_RemoveByKey(t *testing.T) {
	s := newTestSlab(t, 16)

	keys := []Key{NewKey(1, 1), NewKey(2, 2), NewKey(3, 3)}
	for _, k := range keys {
		_, err := s.InsertLeaf(&LeafNode{Key: k, Quantity: k.Price()})
		require.NoError(t, err)
	}

	removed, ok := s.RemoveByKey(NewKey(2, 2))
	require.True(t, ok)
	assert.Equal(t, uint64(2), removed.Quantity)
	assert.Equal(t, uint32(2), s.LeafCount())

	got := collectKeys(s)
	require.Len(t, got, 2)
	assert.True(t, NewKey(1, 1).Equal(got[0]))
	assert.True(t, NewKey(3, 3).Equal(got[1]))

	// Removing an absent key reports a miss.
	_, ok = s.RemoveByKey(NewKey(2, 2))
	assert.False(t, ok)
}

// Test 9: Removing down to one leaf and then to empty keeps the tree valid
func TestSlab_RemoveToEmpty(t *testing.T) {
	s := newTestSlab(t, 8)

	_, err := s.InsertLeaf(testLeaf(NewKey(1, 1)))
	require.NoError(t, err)
	_, err = s.InsertLeaf(testLeaf(NewKey(2, 2)))
	require.NoError(t, err)

	_, ok := s.RemoveByKey(NewKey(1, 1))
	require.True(t, ok)
	_, ok = s.RemoveByKey(NewKey(2, 2))
	require.True(t, ok)

	assert.Equal(t, uint32(0), s.LeafCount())
	_, ok = s.FindMin()
	assert.False(t, ok)

	// The slab is reusable after emptying.
	_, err = s.InsertLeaf(testLeaf(NewKey(5, 5)))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), s.LeafCount())
}

// Test 10: Allocation fails once every slot is used, and released slots are
// reused
func TestSlab_CapacityAndFreeList(t *testing.T) {
	// 8 slots hold 4 leaves: each leaf past the first brings an inner node,
	// plus the first leaf and its eventual pairing.
	s := newTestSlab(t, 8)

	var inserted []Key
	for i := uint64(1); ; i++ {
		key := NewKey(i, i)
		if _, err := s.InsertLeaf(testLeaf(key)); err != nil {
			assert.ErrorIs(t, err, ErrOutOfSpace)
			break
		}
		inserted = append(inserted, key)
		require.Less(t, len(inserted), 100, "slab never filled up")
	}
	require.NotEmpty(t, inserted)

	// Free a leaf and the freed slots must satisfy the next insert.
	_, ok := s.RemoveByKey(inserted[0])
	require.True(t, ok)

	_, err := s.InsertLeaf(testLeaf(NewKey(1000, 1000)))
	assert.NoError(t, err)
}

// Test 11: Failed insert leaves the structure untouched
func TestSlab_FailedInsertIsAtomic(t *testing.T) {
	s := newTestSlab(t, 8)

	for i := uint64(1); ; i++ {
		if _, err := s.InsertLeaf(testLeaf(NewKey(i, i))); err != nil {
			break
		}
	}
	before := collectKeys(s)
	count := s.LeafCount()

	_, err := s.InsertLeaf(testLeaf(NewKey(5000, 5000)))
	require.ErrorIs(t, err, ErrOutOfSpace)

	assert.Equal(t, count, s.LeafCount())
	after := collectKeys(s)
	require.Len(t, after, len(before))
	for i := range before {
		assert.True(t, before[i].Equal(after[i]))
	}
}

// Test 12: Randomized inserts and removals agree with a sorted reference
func TestSlab_RandomizedAgainstReference(t *testing.T) {
	s := newTestSlab(t, 512)
	rng := rand.New(rand.NewSource(7))
	reference := make(map[Key]bool)

	for i := 0; i < 2000; i++ {
		key := NewKey(uint64(rng.Intn(20)), uint64(rng.Intn(10)))
		if rng.Intn(2) == 0 {
			_, err := s.InsertLeaf(testLeaf(key))
			if reference[key] {
				assert.ErrorIs(t, err, ErrDuplicateKey)
			} else if err == nil {
				reference[key] = true
			}
		} else {
			_, ok := s.RemoveByKey(key)
			assert.Equal(t, reference[key], ok)
			delete(reference, key)
		}
	}

	expected := make([]Key, 0, len(reference))
	for k := range reference {
		expected = append(expected, k)
	}
	sort.Slice(expected, func(i, j int) bool { return expected[i].Less(expected[j]) })

	got := collectKeys(s)
	require.Len(t, got, len(expected))
	assert.Equal(t, uint32(len(expected)), s.LeafCount())
	for i := range expected {
		assert.True(t, expected[i].Equal(got[i]), "position %d", i)
	}
}

// Test 13: Leaf payload fields survive the trip through the slab
func TestSlab_LeafPayloadRoundTrip(t *testing.T) {
	s := newTestSlab(t, 8)

	var owner [32]byte
	var token [32]byte
	owner[0], owner[31] = 0xAA, 0xBB
	token[0], token[31] = 0x11, 0x22

	in := &LeafNode{
		Key:           NewKey(123, 456),
		Owner:         owner,
		Quantity:      789,
		ClientOrderID: 321,
		FeeTier:       5,
		GatewayToken:  token,
	}
	h, err := s.InsertLeaf(in)
	require.NoError(t, err)

	leaf, ok := s.Leaf(h)
	require.True(t, ok)
	assert.Equal(t, *in, leaf.Node())
}

// Test 14: SetQuantity rewrites the resting quantity in place
func TestSlab_SetQuantity(t *testing.T) {
	s := newTestSlab(t, 8)

	h, err := s.InsertLeaf(&LeafNode{Key: NewKey(1, 1), Quantity: 10})
	require.NoError(t, err)

	leaf, ok := s.Leaf(h)
	require.True(t, ok)
	leaf.SetQuantity(4)

	leaf, _ = s.Leaf(h)
	assert.Equal(t, uint64(4), leaf.Quantity())
}

// Test 15: WalkDesc mirrors Walk
func TestSlab_WalkDesc(t *testing.T) {
	s := newTestSlab(t, 32)

	for i := uint64(1); i <= 5; i++ {
		_, err := s.InsertLeaf(testLeaf(NewKey(i, i)))
		require.NoError(t, err)
	}

	var desc []Key
	s.WalkDesc(func(leaf LeafRef) bool {
		desc = append(desc, leaf.Key())
		return true
	})
	require.Len(t, desc, 5)
	for i := range desc {
		assert.Equal(t, uint64(5-i), desc[i].Price())
	}
}

// Test 16: Walk stops when the callback returns false
func TestSlab_WalkEarlyStop(t *testing.T) {
	s := newTestSlab(t, 32)

	for i := uint64(1); i <= 5; i++ {
		_, err := s.InsertLeaf(testLeaf(NewKey(i, i)))
		require.NoError(t, err)
	}

	visited := 0
	s.Walk(func(leaf LeafRef) bool {
		visited++
		return visited < 3
	})
	assert.Equal(t, 3, visited)
}

// Test 17: FilterLeaves collects only matching keys
func TestSlab_FilterLeaves(t *testing.T) {
	s := newTestSlab(t, 32)

	var ownerA, ownerB [32]byte
	ownerA[0] = 0x01
	ownerB[0] = 0x02

	for i := uint64(1); i <= 6; i++ {
		owner := ownerA
		if i%2 == 0 {
			owner = ownerB
		}
		_, err := s.InsertLeaf(&LeafNode{Key: NewKey(i, i), Owner: owner, Quantity: 1})
		require.NoError(t, err)
	}

	keys := s.FilterLeaves(func(leaf LeafRef) bool {
		return leaf.Owner() == ownerB
	})
	require.Len(t, keys, 3)
	for _, k := range keys {
		assert.Equal(t, uint64(0), k.Price()%2)
	}
}

// Test 18: Reset clears the slab back to empty
func TestSlab_Reset(t *testing.T) {
	s := newTestSlab(t, 8)

	_, err := s.InsertLeaf(testLeaf(NewKey(1, 1)))
	require.NoError(t, err)
	_, err = s.InsertLeaf(testLeaf(NewKey(2, 2)))
	require.NoError(t, err)

	s.Reset()

	assert.Equal(t, uint32(0), s.LeafCount())
	_, ok := s.FindMin()
	assert.False(t, ok)

	_, err = s.InsertLeaf(testLeaf(NewKey(3, 3)))
	assert.NoError(t, err)
}
