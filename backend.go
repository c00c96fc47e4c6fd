// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocator

import "unsafe"

// rawHeader prefixes every pointer handed out directly by the backend (as
// opposed to a cache block): large user requests above Threshold, and pool
// overflow blocks. munmap needs the original size back, and Go (unlike
// libc free) gives us none at free time, so we stash it the same way the
// teacher's own page{size int} field does for its big-allocation path.
//
// owner is 0 for a plain large direct allocation, or the address of the
// *SizeClassPool an overflow block was issued from. Like pageMeta.poolAddr
// (page.go), it is kept as a uintptr rather than a typed pointer: this
// header lives in backend-mapped memory the GC does not scan.
type rawHeader struct {
	size  int
	owner uintptr
}

var rawHeaderSize = roundup(int(unsafe.Sizeof(rawHeader{})), wordSize)

// backend is the SystemBackEnd component: a thin, stateless-from-the-
// caller's-perspective adapter over the platform's page allocator. sysMmap
// and sysMunmap are implemented per-OS in backend_unix.go / backend_windows.go,
// mirroring the teacher's mmap_unix.go / mmap_windows.go split.
type backend struct{}

func newBackend() *backend { return &backend{} }

// mmapRegion requests a raw, page-aligned chunk of exactly size bytes
// (size must already be a multiple of the OS page size) for carving into
// cache pages. The caller is responsible for remembering base/size to
// later call munmapRegion.
func (b *backend) mmapRegion(size int) (unsafe.Pointer, error) {
	return sysMmap(size)
}

func (b *backend) munmapRegion(base unsafe.Pointer, size int) error {
	return sysMunmap(base, size)
}

// allocRaw returns a pointer to size usable bytes, preceded by a hidden
// rawHeader recording the real mmap length so freeRaw can unmap correctly.
// Used for allocations above Threshold; owner is left 0.
func (b *backend) allocRaw(size int) (unsafe.Pointer, error) {
	return b.allocRawFor(size, nil)
}

// allocRawFor is allocRaw tagged with the owning pool, for a SizeClassPool's
// overflow path (§4.2): freeRaw uses the tag to keep that pool's issued and
// overflow counters correct no matter which layer (the pool itself, or a
// ThreadCache bypassing straight to the backend) ends up freeing the block.
func (b *backend) allocRawFor(size int, owner *SizeClassPool) (unsafe.Pointer, error) {
	total := size + rawHeaderSize
	base, err := sysMmap(total)
	if err != nil {
		return nil, err
	}
	hdr := (*rawHeader)(base)
	hdr.size = total
	hdr.owner = uintptr(unsafe.Pointer(owner))
	return unsafe.Pointer(uintptr(base) + uintptr(rawHeaderSize)), nil
}

// freeRaw returns a pointer previously produced by allocRaw/allocRawFor to
// the OS, first crediting the owning pool's counters if it was an overflow
// block. A nil ptr is a no-op.
func (b *backend) freeRaw(ptr unsafe.Pointer) error {
	if ptr == nil {
		return nil
	}
	base := unsafe.Pointer(uintptr(ptr) - uintptr(rawHeaderSize))
	hdr := (*rawHeader)(base)
	if hdr.owner != 0 {
		pool := (*SizeClassPool)(unsafe.Pointer(hdr.owner))
		pool.issued--
		pool.overflow--
	}
	return sysMunmap(base, hdr.size)
}

// alignedRegion over-allocates by one page and realigns, the same dance
// FixedBlockSizeMemPool::create and MemPool::create perform in the
// original C++: portable aligned allocation isn't guaranteed by every
// mmap implementation, so we ask for one extra page of slack and round the
// returned address up. rawBase/rawSize are kept by the caller for the
// eventual munmapRegion; aligned is the PageSize-aligned usable start.
func (b *backend) alignedRegion(pageCount int) (rawBase unsafe.Pointer, rawSize int, aligned unsafe.Pointer, err error) {
	rawSize = (pageCount + 1) * PageSize
	rawBase, err = b.mmapRegion(rawSize)
	if err != nil {
		return nil, 0, nil, err
	}
	mask := uintptr(PageSize - 1)
	base := uintptr(rawBase)
	aligned = unsafe.Pointer((base + mask) &^ mask)
	return rawBase, rawSize, aligned, nil
}
