// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocator

import (
	"testing"
	"unsafe"
)

// TestSizeClassPoolOverflowThenRecovers is spec scenario 3 (§8): a
// block_size=64, page_count=2 pool fills both pages (2*blocksPerPage(64)
// blocks), the next allocation comes from backend overflow, and once
// everything is freed the pool is fully reusable from cache again.
func TestSizeClassPoolOverflowThenRecovers(t *testing.T) {
	be := newBackend()
	pool, err := newOwnedSizeClassPool(be, 64, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	capacity := 2 * blocksPerPage(64)

	var held []unsafe.Pointer
	for i := 0; i < capacity; i++ {
		p, err := pool.allocate()
		if err != nil {
			t.Fatal(err)
		}
		held = append(held, p)
	}
	if pool.overflow != 0 {
		t.Fatalf("expected no overflow yet, got %d", pool.overflow)
	}

	overflowPtr, err := pool.allocate()
	if err != nil {
		t.Fatal(err)
	}
	if pool.overflow != 1 {
		t.Fatalf("expected one overflow block, got %d", pool.overflow)
	}
	if pool.contains(overflowPtr) {
		t.Fatal("overflow block must not be page-resident")
	}

	if err := pool.deallocate(overflowPtr); err != nil {
		t.Fatal(err)
	}
	for _, p := range held {
		if err := pool.deallocate(p); err != nil {
			t.Fatal(err)
		}
	}
	if pool.issued != 0 || pool.overflow != 0 {
		t.Fatalf("expected pool fully drained, got issued=%d overflow=%d", pool.issued, pool.overflow)
	}

	// Pool must be entirely servable from cache again.
	var reissued []unsafe.Pointer
	for i := 0; i < capacity; i++ {
		p, err := pool.allocate()
		if err != nil {
			t.Fatal(err)
		}
		if !pool.contains(p) {
			t.Fatalf("block %d should be cache-resident after drain, got %p", i, p)
		}
		reissued = append(reissued, p)
	}
	for _, p := range reissued {
		pool.deallocate(p)
	}
}

func TestSizeClassPoolNoOverlap(t *testing.T) {
	be := newBackend()
	pool, err := newOwnedSizeClassPool(be, 32, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	n := 4 * blocksPerPage(32)
	ptrs := make([]unsafe.Pointer, 0, n)
	seen := map[unsafe.Pointer]bool{}
	for i := 0; i < n; i++ {
		p, err := pool.allocate()
		if err != nil {
			t.Fatal(err)
		}
		if seen[p] {
			t.Fatalf("pointer %p issued twice while still outstanding", p)
		}
		seen[p] = true
		ptrs = append(ptrs, p)
	}
	for _, p := range ptrs {
		pool.deallocate(p)
	}
}

func TestRoundupPow2(t *testing.T) {
	cases := map[int]int{
		0: 1, 1: 1, 2: 2, 3: 4, 7: 8, 8: 8, 9: 16,
		1023: 1024, 1024: 1024, 1025: 2048,
	}
	for in, want := range cases {
		if got := roundupPow2(in); got != want {
			t.Errorf("roundupPow2(%d) = %d, want %d", in, got, want)
		}
	}
}
