// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocator

// PageSize is the byte size of a single cache page. It must be a power of
// two; masking an interior pointer with ^(PageSize-1) must yield the page's
// base address.
const PageSize = 4096

// wordSize is the machine word size in bytes; block sizes below it cannot
// host the intrusive free-list pointer.
const wordSize = 8

// SizeClass pairs a cached block size with how many pages are dedicated to
// it. Reproduced verbatim from the original SizeDist table.
type SizeClass struct {
	BlockSize int
	PageCount int
}

// DefaultSizeClasses is the compile-time size-class table. Index i backs
// ThreadCache.pools[i].
var DefaultSizeClasses = [8]SizeClass{
	{8, 16},
	{16, 16},
	{32, 16},
	{64, 8},
	{128, 8},
	{256, 4},
	{512, 4},
	{1024, 4},
}

// SmallestClass and Threshold bound what the cache will serve; requests
// above Threshold bypass the per-goroutine pools entirely, and requests
// below SmallestClass (including 0) are served from the smallest class.
const (
	SmallestClass = 8
	Threshold     = 1024
)

// pageHeaderSize is sizeof(pageMeta) rounded up to word alignment, matching
// the teacher's headerSize = roundup(sizeof(page{}), mallocAllign) pattern.
var pageHeaderSize = roundup(int(sizeOfPageMeta), wordSize)

// blocksPerPage reports how many block_size blocks fit after the header.
func blocksPerPage(blockSize int) int {
	return (PageSize - pageHeaderSize) / blockSize
}

// roundup returns the smallest multiple of m that is >= n. m must be a
// power of two.
func roundup(n, m int) int { return (n + m - 1) &^ (m - 1) }
