// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocator

import (
	"testing"
	"unsafe"
)

func newTestPage(t *testing.T, blockSize int) (unsafe.Pointer, func()) {
	t.Helper()
	be := newBackend()
	base, err := be.mmapRegion(PageSize)
	if err != nil {
		t.Fatal(err)
	}
	initPage(base, blockSize, nil)
	return base, func() {
		if err := be.munmapRegion(base, PageSize); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPageAllocExhaustsThenReturnsNil(t *testing.T) {
	const blockSize = 64
	base, done := newTestPage(t, blockSize)
	defer done()

	n := blocksPerPage(blockSize)
	seen := map[unsafe.Pointer]bool{}
	for i := 0; i < n; i++ {
		p := allocBlockFrom(base)
		if p == nil {
			t.Fatalf("page exhausted early at block %d/%d", i, n)
		}
		if seen[p] {
			t.Fatalf("duplicate block pointer %p", p)
		}
		seen[p] = true
	}
	if p := allocBlockFrom(base); p != nil {
		t.Fatalf("expected nil once page is full, got %p", p)
	}
}

func TestPageDeallocReissue(t *testing.T) {
	const blockSize = 32
	base, done := newTestPage(t, blockSize)
	defer done()

	p1 := allocBlockFrom(base)
	p2 := allocBlockFrom(base)
	if p1 == nil || p2 == nil {
		t.Fatal("expected two blocks")
	}
	deallocBlockInto(base, p1)
	p3 := allocBlockFrom(base)
	if p3 != p1 {
		t.Fatalf("expected LIFO reissue of freed block, got %p want %p", p3, p1)
	}
}

func TestPageBaseOfRecoversPageFromInteriorPointer(t *testing.T) {
	const blockSize = 16
	base, done := newTestPage(t, blockSize)
	defer done()

	for i := 0; i < 3; i++ {
		p := allocBlockFrom(base)
		if p == nil {
			t.Fatal("unexpected exhaustion")
		}
		if got := pageBaseOf(p); got != base {
			t.Fatalf("pageBaseOf(%p) = %p, want %p", p, got, base)
		}
	}
}

func TestPoolOfRoundTrip(t *testing.T) {
	const blockSize = 64
	be := newBackend()
	base, err := be.mmapRegion(PageSize)
	if err != nil {
		t.Fatal(err)
	}
	defer be.munmapRegion(base, PageSize)

	pool := &SizeClassPool{blockSize: blockSize}
	initPage(base, blockSize, pool)
	ptr := allocBlockFrom(base)
	if got := poolOf(pageBaseOf(ptr)); got != pool {
		t.Fatalf("poolOf = %p, want %p", got, pool)
	}
}
