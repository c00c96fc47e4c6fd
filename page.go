// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocator

import "unsafe"

// freeNode is the intrusive free-list link threaded through the first word
// of every free block. It mirrors the teacher's node{prev, next *node} but
// needs only a single direction since pages never need to splice from the
// middle of the list.
type freeNode struct {
	next *freeNode
}

// pageMeta is the header written at offset 0 of every page. poolAddr is
// stored as a uintptr rather than a *SizeClassPool: the page lives in
// backend-mapped memory the Go GC never scans, so a typed pointer field
// here would be invisible to the garbage collector as a reference keeping
// the pool alive. The pool is instead kept alive by its owning ThreadCache
// (an ordinary, GC-tracked Go value); poolAddr is just a bit pattern we
// convert back on lookup.
type pageMeta struct {
	poolAddr uintptr
	free     *freeNode
}

var sizeOfPageMeta = unsafe.Sizeof(pageMeta{})

// pageMetaAt views the page starting at base as its header.
func pageMetaAt(base unsafe.Pointer) *pageMeta {
	return (*pageMeta)(base)
}

// pageDataAt returns the address of the first block in the page at base.
func pageDataAt(base unsafe.Pointer) unsafe.Pointer {
	return unsafe.Pointer(uintptr(base) + uintptr(pageHeaderSize))
}

// pageBaseOf recovers the PageSize-aligned base of the page containing ptr.
// This is the mask-recovery invariant the whole design rests on (§9 of the
// spec): valid only because every page is exactly PageSize bytes and
// PageSize-aligned.
func pageBaseOf(ptr unsafe.Pointer) unsafe.Pointer {
	return unsafe.Pointer(uintptr(ptr) &^ uintptr(PageSize-1))
}

// initPage writes the header and threads the free list through every block
// slot, terminating with nil. blockSize must be >= wordSize.
func initPage(base unsafe.Pointer, blockSize int, pool *SizeClassPool) {
	meta := pageMetaAt(base)
	meta.poolAddr = uintptr(unsafe.Pointer(pool))

	n := blocksPerPage(blockSize)
	data := pageDataAt(base)
	var head, prev *freeNode
	for i := 0; i < n; i++ {
		cur := (*freeNode)(unsafe.Pointer(uintptr(data) + uintptr(i*blockSize)))
		if prev == nil {
			head = cur
		} else {
			prev.next = cur
		}
		prev = cur
	}
	if prev != nil {
		prev.next = nil
	}
	meta.free = head
}

// allocBlockFrom pops the head of the page's free list, or returns nil if
// the page is full.
func allocBlockFrom(base unsafe.Pointer) unsafe.Pointer {
	meta := pageMetaAt(base)
	n := meta.free
	if n == nil {
		return nil
	}
	meta.free = n.next
	return unsafe.Pointer(n)
}

// deallocBlockInto pushes ptr back onto the page's free list. The caller
// must guarantee ptr was issued by this exact page.
func deallocBlockInto(base unsafe.Pointer, ptr unsafe.Pointer) {
	debugCheckResidency(uintptr(base), uintptr(ptr), uintptr(base)+uintptr(PageSize))
	n := (*freeNode)(ptr)
	n.next = pageMetaAt(base).free
	pageMetaAt(base).free = n
}

// poolOf recovers the owning pool of the page at base.
func poolOf(base unsafe.Pointer) *SizeClassPool {
	return (*SizeClassPool)(unsafe.Pointer(pageMetaAt(base).poolAddr))
}
