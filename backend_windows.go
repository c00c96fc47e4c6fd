// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.

//go:build windows

package allocator

import (
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

// mmap on Windows is a two-step process: CreateFileMapping gets a handle,
// MapViewOfFile turns it into an address. handleByAddr recovers the handle
// at unmap time. Unlike the teacher's unguarded map, this one is mutex
// protected: §5 requires the back-end to be safely shared across however
// many ThreadCache-holding goroutines call into it concurrently.
var (
	handleMu     sync.Mutex
	handleByAddr = map[uintptr]windows.Handle{}
)

func sysMmap(size int) (unsafe.Pointer, error) {
	maxSizeHigh := uint32(int64(size) >> 32)
	maxSizeLow := uint32(int64(size) & 0xFFFFFFFF)
	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, maxSizeHigh, maxSizeLow, nil)
	if h == 0 {
		return nil, os.NewSyscallError("CreateFileMapping", err)
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if addr == 0 {
		return nil, os.NewSyscallError("MapViewOfFile", err)
	}

	if addr&uintptr(osPageMask) != 0 {
		panic("internal error: mapped address not page-aligned")
	}

	handleMu.Lock()
	handleByAddr[addr] = h
	handleMu.Unlock()
	return unsafe.Pointer(addr), nil
}

func sysMunmap(addr unsafe.Pointer, size int) error {
	a := uintptr(addr)
	if err := windows.UnmapViewOfFile(a); err != nil {
		return err
	}

	handleMu.Lock()
	h, ok := handleByAddr[a]
	delete(handleByAddr, a)
	handleMu.Unlock()
	if !ok {
		return os.ErrInvalid
	}

	return windows.CloseHandle(h)
}

var osPageSize = os.Getpagesize()
var osPageMask = osPageSize - 1
