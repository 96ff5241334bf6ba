package slabv1

// InsertLeaf adds a leaf to the tree and returns its handle. Inserting an
// existing key fails with ErrDuplicateKey; a full arena fails with
// ErrOutOfSpace. A failed insert releases anything it allocated, so the tree
// is untouched on error.
func (s *Slab) InsertLeaf(leaf *LeafNode) (Handle, error) {
	root := s.root()
	if root == None {
		h, err := s.allocate()
		if err != nil {
			return None, err
		}
		writeLeaf(s.slot(h), leaf)
		s.setRoot(h)
		s.setLeafCount(s.LeafCount() + 1)
		return h, nil
	}

	// Walk down tracking the parent link so the split can reattach.
	var (
		parent    Handle = None
		parentDir uint32
		cur              = root
	)
	for {
		slot := s.slot(cur)
		var critPos uint32

		switch slot[0] {
		case tagLeaf:
			pos, ok := criticalBit(leaf.Key, LeafRef(slot).Key())
			if !ok {
				return None, ErrDuplicateKey
			}
			critPos = pos

		case tagInner:
			prefixLen := innerPrefixLen(slot)
			pos, ok := criticalBit(leaf.Key, innerPrefix(slot))
			if ok && pos < prefixLen {
				critPos = pos
				break
			}
			// Shares the whole prefix; descend by the bit after it.
			parent = cur
			parentDir = leaf.Key.Bit(prefixLen)
			cur = innerChild(slot, parentDir)
			continue
		}

		// Split cur at critPos: a new inner node takes cur's place with
		// the existing subtree and the new leaf as children.
		leafH, err := s.allocate()
		if err != nil {
			return None, err
		}
		innerH, err := s.allocate()
		if err != nil {
			s.release(leafH)
			return None, err
		}

		writeLeaf(s.slot(leafH), leaf)
		var children [2]Handle
		dir := leaf.Key.Bit(critPos)
		children[dir] = leafH
		children[1-dir] = cur
		writeInner(s.slot(innerH), critPos, leaf.Key, children)

		if parent == None {
			s.setRoot(innerH)
		} else {
			setInnerChild(s.slot(parent), parentDir, innerH)
		}
		s.setLeafCount(s.LeafCount() + 1)
		return leafH, nil
	}
}

// RemoveByKey detaches the leaf with the given key, splices its parent out of
// the tree and returns a copy of the removed leaf. The second return value is
// false when the key is absent.
func (s *Slab) RemoveByKey(key Key) (LeafNode, bool) {
	var (
		grandparent Handle = None
		grandDir    uint32
		parent      Handle = None
		parentDir   uint32
		cur                = s.root()
	)
	if cur == None {
		return LeafNode{}, false
	}

	for {
		slot := s.slot(cur)
		if slot[0] == tagLeaf {
			if !LeafRef(slot).Key().Equal(key) {
				return LeafNode{}, false
			}
			break
		}

		prefixLen := innerPrefixLen(slot)
		if !sharedPrefix(key, innerPrefix(slot), prefixLen) {
			return LeafNode{}, false
		}
		grandparent, grandDir = parent, parentDir
		parent, parentDir = cur, key.Bit(prefixLen)
		cur = innerChild(slot, parentDir)
	}

	removed := LeafRef(s.slot(cur)).Node()

	if parent == None {
		s.setRoot(None)
	} else {
		// Promote the sibling into the grandparent's child slot; the
		// parent inner node disappears with the leaf.
		sibling := innerChild(s.slot(parent), 1-parentDir)
		if grandparent == None {
			s.setRoot(sibling)
		} else {
			setInnerChild(s.slot(grandparent), grandDir, sibling)
		}
		s.release(parent)
	}
	s.release(cur)
	s.setLeafCount(s.LeafCount() - 1)
	return removed, true
}

// FindMin returns the handle of the leaf with the smallest key.
func (s *Slab) FindMin() (Handle, bool) {
	return s.findExtreme(0)
}

// FindMax returns the handle of the leaf with the largest key.
func (s *Slab) FindMax() (Handle, bool) {
	return s.findExtreme(1)
}

func (s *Slab) findExtreme(dir uint32) (Handle, bool) {
	cur := s.root()
	if cur == None {
		return None, false
	}
	for {
		slot := s.slot(cur)
		if slot[0] == tagLeaf {
			return cur, true
		}
		cur = innerChild(slot, dir)
	}
}

// Leaf returns a view over the leaf slot at h. The view aliases the backing
// buffer and is invalidated by the next mutation.
func (s *Slab) Leaf(h Handle) (LeafRef, bool) {
	if h == None || h > s.capacity {
		return nil, false
	}
	slot := s.slot(h)
	if slot[0] != tagLeaf {
		return nil, false
	}
	return LeafRef(slot), true
}

// Walk visits every leaf in ascending key order until fn returns false.
func (s *Slab) Walk(fn func(LeafRef) bool) {
	s.walk(0, fn)
}

// WalkDesc visits every leaf in descending key order until fn returns false.
func (s *Slab) WalkDesc(fn func(LeafRef) bool) {
	s.walk(1, fn)
}

func (s *Slab) walk(first uint32, fn func(LeafRef) bool) {
	root := s.root()
	if root == None {
		return
	}

	// Iterative in-order traversal; depth is bounded by the key width.
	stack := make([]Handle, 0, KeyBits)
	stack = append(stack, root)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		slot := s.slot(cur)
		if slot[0] == tagLeaf {
			if !fn(LeafRef(slot)) {
				return
			}
			continue
		}
		stack = append(stack, innerChild(slot, 1-first))
		stack = append(stack, innerChild(slot, first))
	}
}

// FilterLeaves collects the keys of every leaf satisfying pred. This is a
// full O(n) scan reserved for administrative operations such as pruning; the
// matching path never calls it.
func (s *Slab) FilterLeaves(pred func(LeafRef) bool) []Key {
	var keys []Key
	s.Walk(func(leaf LeafRef) bool {
		if pred(leaf) {
			keys = append(keys, leaf.Key())
		}
		return true
	})
	return keys
}
