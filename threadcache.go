// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocator

import (
	"math/bits"
	"unsafe"
)

// ThreadCache is the per-goroutine composition of one SizeClassPool per
// size class, packed into a single contiguous backend region.
//
// Go exposes no OS-thread-local-storage API to user code, and goroutines
// are not OS threads, so there is no way for this package to transparently
// pin a ThreadCache to "the calling thread" the way the original does.
// Instead ThreadCache follows the same contract the teacher's own
// Allocator type already does: it is a plain struct, not internally
// synchronized, meant to be held and reused by whichever single goroutine
// owns it. A block allocated through one ThreadCache and freed through a
// different one is a cross-goroutine free; per §5 that is structurally
// safe (the range test below simply fails to recognize the pointer and
// routes it to the backend) but leaks the slot from the originating
// cache's perspective until that cache is the one to free it.
type ThreadCache struct {
	pools [8]*SizeClassPool

	regionBegin unsafe.Pointer
	regionEnd   unsafe.Pointer

	rawBase unsafe.Pointer
	rawSize int

	be *backend
}

var smallestClassTZ = bits.TrailingZeros(uint(SmallestClass))

// NewThreadCache carves one contiguous, PageSize-aligned backend region
// into eight borrowed-mode SizeClassPools, one per DefaultSizeClasses
// entry, in a single allocation.
func NewThreadCache(be *backend) (*ThreadCache, error) {
	totalPages := 0
	for _, sc := range DefaultSizeClasses {
		totalPages += sc.PageCount
	}

	rawBase, rawSize, aligned, err := be.alignedRegion(totalPages)
	if err != nil {
		return nil, err
	}

	tc := &ThreadCache{
		be:          be,
		rawBase:     rawBase,
		rawSize:     rawSize,
		regionBegin: aligned,
		regionEnd:   unsafe.Pointer(uintptr(aligned) + uintptr(totalPages*PageSize)),
	}

	cur := aligned
	for i, sc := range DefaultSizeClasses {
		tc.pools[i] = newBorrowedSizeClassPool(be, sc.BlockSize, sc.PageCount, cur)
		cur = unsafe.Pointer(uintptr(cur) + uintptr(sc.PageCount*PageSize))
	}
	return tc, nil
}

// poolIndex maps a size class's block size to its slot in pools, via
// trailing-zero-count on the power-of-two block size — the same "hack"
// comment the original get_pool_id carries: the smallest class is 8 == 2^3,
// so subtracting its trailing-zero count re-bases the index to 0.
func poolIndex(rounded int) int {
	return bits.TrailingZeros(uint(rounded)) - smallestClassTZ
}

// Allocate services size from the cache when size is within Threshold,
// otherwise forwards straight to the backend. size == 0 rounds up to the
// smallest class (SizeZero, §7): implementation-defined but stable.
func (tc *ThreadCache) Allocate(size int) (unsafe.Pointer, error) {
	if size > Threshold {
		return tc.be.allocRaw(size)
	}
	rounded := roundupPow2(size)
	if rounded < SmallestClass {
		rounded = SmallestClass
	}
	return tc.pools[poolIndex(rounded)].allocate()
}

// inRegion reports whether ptr falls within this cache's contiguous page
// region: [regionBegin, regionEnd).
func (tc *ThreadCache) inRegion(ptr unsafe.Pointer) bool {
	return uintptr(ptr) >= uintptr(tc.regionBegin) && uintptr(ptr) < uintptr(tc.regionEnd)
}

// Deallocate recovers the owning page by address mask when ptr is cache
// resident, and its pool via the page header, skipping the pool's own
// range test (already performed here). Anything outside the region — a
// large allocation, an overflow block, or a pointer from a different
// cache's region — goes to the backend.
func (tc *ThreadCache) Deallocate(ptr unsafe.Pointer) error {
	if ptr == nil {
		return nil
	}
	if !tc.inRegion(ptr) {
		return tc.be.freeRaw(ptr)
	}
	page := pageBaseOf(ptr)
	poolOf(page).deallocateUnchecked(ptr)
	return nil
}

// Stats reports outstanding blocks per size class, for tests and the
// top-level Allocator facade's own Stats.
type Stats struct {
	Outstanding [8]int
	Overflow    [8]int
}

func (tc *ThreadCache) Stats() Stats {
	var s Stats
	for i, p := range tc.pools {
		s.Outstanding[i] = p.issued
		s.Overflow[i] = p.overflow
	}
	return s
}

// Close releases the cache's contiguous backend region as a single free,
// matching §3's "destroyed on thread exit; contiguous memory is released
// to the system as a single free."
func (tc *ThreadCache) Close() error {
	return tc.be.munmapRegion(tc.rawBase, tc.rawSize)
}
