// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.

//go:build darwin || dragonfly || freebsd || linux || openbsd || solaris || netbsd

package allocator

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

var osPageSize = unix.Getpagesize()

// sysMmap requests an anonymous, zero-filled mapping of size bytes from
// the kernel. unix.Mmap returns memory aligned to the OS page boundary,
// which is the raw building block alignedRegion rounds up from.
func sysMmap(size int) (unsafe.Pointer, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(&b[0]), nil
}

// sysMunmap releases a region previously returned by sysMmap. Unlike the
// teacher's raw syscall.Syscall(SYS_MUNMAP, ...) we go through
// x/sys/unix.Munmap directly on a reconstructed slice header, since
// nothing here needs munmap's return value beyond the error.
func sysMunmap(addr unsafe.Pointer, size int) error {
	var b []byte
	sh := (*sliceHeader)(unsafe.Pointer(&b))
	sh.Data = addr
	sh.Len = size
	sh.Cap = size
	return unix.Munmap(b)
}
