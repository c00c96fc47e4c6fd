// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocator

import (
	"unsafe"

	"github.com/cznic/mathutil"
)

// roundupPow2 returns the smallest power of two >= x, for x > 0; 0 maps to
// 1 (SizeZero case, §7). This is the "fixed form" called out in the
// spec's Design Notes: the original round2pow checked (x & (x-1)) == 0
// first, and this keeps that check rather than the earlier off-by-one
// variant that doubled exact powers of two.
func roundupPow2(x int) int {
	if x <= 0 {
		return 1
	}
	if x&(x-1) == 0 {
		return x
	}
	return 1 << uint(mathutil.BitLen(x))
}

// SizeClassPool owns a run of same-size-class pages plus first-fit
// allocation across them, falling back to backend overflow once every
// page is full. It is an ordinary, GC-tracked Go value: only the pages it
// owns live in backend-mapped memory (see page.go's doc comment on why a
// typed Go pointer may not live inside that memory).
type SizeClassPool struct {
	blockSize int
	pageCount int
	firstPage unsafe.Pointer
	pageEnd   unsafe.Pointer

	owned     bool
	ownedBase unsafe.Pointer
	ownedSize int

	be *backend

	issued   int // outstanding blocks, including overflow
	overflow int // outstanding overflow blocks specifically
}

// newOwnedSizeClassPool mmaps its own backing region (one pool, standalone
// use outside of a ThreadCache). This is §4.2's "owned mode".
func newOwnedSizeClassPool(be *backend, blockSize, pageCount int) (*SizeClassPool, error) {
	rawBase, rawSize, aligned, err := be.alignedRegion(pageCount)
	if err != nil {
		return nil, err
	}
	p := &SizeClassPool{
		blockSize: blockSize,
		pageCount: pageCount,
		firstPage: aligned,
		pageEnd:   unsafe.Pointer(uintptr(aligned) + uintptr(pageCount*PageSize)),
		owned:     true,
		ownedBase: rawBase,
		ownedSize: rawSize,
		be:        be,
	}
	p.initPages()
	return p, nil
}

// newBorrowedSizeClassPool places itself over caller-supplied, already
// PageSize-aligned memory (§4.2's "borrowed mode"), used by ThreadCache to
// pack all eight pools back-to-back in one contiguous allocation.
func newBorrowedSizeClassPool(be *backend, blockSize, pageCount int, pageBase unsafe.Pointer) *SizeClassPool {
	p := &SizeClassPool{
		blockSize: blockSize,
		pageCount: pageCount,
		firstPage: pageBase,
		pageEnd:   unsafe.Pointer(uintptr(pageBase) + uintptr(pageCount*PageSize)),
		owned:     false,
		be:        be,
	}
	p.initPages()
	return p
}

func (p *SizeClassPool) initPages() {
	for i := 0; i < p.pageCount; i++ {
		initPage(p.pageAt(i), p.blockSize, p)
	}
}

func (p *SizeClassPool) pageAt(i int) unsafe.Pointer {
	return unsafe.Pointer(uintptr(p.firstPage) + uintptr(i*PageSize))
}

// allocate scans pages first-fit; since every page in a pool serves blocks
// of the same size, first-fit and best-fit coincide, so there is no reason
// to reorder pages on free.
func (p *SizeClassPool) allocate() (unsafe.Pointer, error) {
	for i := 0; i < p.pageCount; i++ {
		if ptr := allocBlockFrom(p.pageAt(i)); ptr != nil {
			p.issued++
			return ptr, nil
		}
	}

	ptr, err := p.be.allocRawFor(p.blockSize, p)
	if err != nil {
		return nil, err
	}
	p.issued++
	p.overflow++
	return ptr, nil
}

// contains reports whether ptr falls inside this pool's page range.
func (p *SizeClassPool) contains(ptr unsafe.Pointer) bool {
	return uintptr(ptr) >= uintptr(p.firstPage) && uintptr(ptr) < uintptr(p.pageEnd)
}

// deallocate is the checked entry point: it performs the range test itself
// before recovering the page, routing overflow blocks to the backend. Used
// when a SizeClassPool is consulted directly rather than through a
// ThreadCache (which has already done an equivalent, cheaper region test).
// freeRaw credits this pool's issued/overflow counters itself, via the
// owner tag stashed in the block's rawHeader.
func (p *SizeClassPool) deallocate(ptr unsafe.Pointer) error {
	if !p.contains(ptr) {
		return p.be.freeRaw(ptr)
	}
	p.deallocateUnchecked(ptr)
	return nil
}

// deallocateUnchecked skips the range test; callers must already know ptr
// is resident in one of this pool's pages.
func (p *SizeClassPool) deallocateUnchecked(ptr unsafe.Pointer) {
	deallocBlockInto(pageBaseOf(ptr), ptr)
	p.issued--
}

// Close releases the pool's own backing allocation, if owned. Borrowed
// pools are released by whoever owns their region (the ThreadCache).
func (p *SizeClassPool) Close() error {
	if !p.owned {
		return nil
	}
	return p.be.munmapRegion(p.ownedBase, p.ownedSize)
}
