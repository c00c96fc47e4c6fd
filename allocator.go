// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package allocator implements a front-end caching memory allocator: small
// allocations are served from preallocated, page-structured size-class
// pools; large allocations are forwarded to the system page allocator.
//
// Changelog
//
// 2026-07-30 Reworked from a flat shared-free-list allocator into a
// page/pool/ThreadCache hierarchy with pointer-recoverable ownership.
package allocator

import "unsafe"

// Allocator is the public facade: it owns a lazily-created ThreadCache and
// routes every call through it; a Deallocate made before the cache exists
// goes to the backend directly. Its zero value is ready for use — same as
// the teacher's Allocator — except the very first Allocate through it
// allocates the cache region.
//
// An Allocator is not safe for concurrent use by multiple goroutines: per
// §5, hold one per goroutine for the lock-free fast path.
type Allocator struct {
	be *backend
	tc *ThreadCache

	allocs int // net outstanding allocations, for leak assertions in tests
	bytes  int // bytes currently mapped for the cache region (large and overflow blocks are not counted)
}

// NewAllocator returns a ready-to-use facade.
func NewAllocator() *Allocator {
	return &Allocator{be: newBackend()}
}

func (a *Allocator) cache() (*ThreadCache, error) {
	if a.tc != nil {
		return a.tc, nil
	}
	tc, err := NewThreadCache(a.be)
	if err != nil {
		return nil, err
	}
	a.tc = tc
	a.bytes += tc.rawSize
	return tc, nil
}

// Allocate returns a pointer to at least size usable bytes, aligned to at
// least the machine word size, or a non-nil error on backend exhaustion
// (Go's analogue of the C "null on OOM" contract: no ambient null-means-
// failure convention, so the error carries that signal instead).
func (a *Allocator) Allocate(size int) (unsafe.Pointer, error) {
	tracef("Allocate(%#x)", size)
	tc, err := a.cache()
	if err != nil {
		tracef(" error %v\n", err)
		return nil, err
	}
	p, err := tc.Allocate(size)
	if err == nil {
		a.allocs++
	}
	tracef(" %p %v\n", p, err)
	return p, err
}

// Deallocate returns ptr, previously produced by Allocate on this same
// Allocator, to the allocator. A nil ptr is a no-op.
func (a *Allocator) Deallocate(ptr unsafe.Pointer) error {
	tracef("Deallocate(%p)", ptr)
	if ptr == nil {
		return nil
	}
	var err error
	if a.tc == nil {
		// No cache exists yet, so ptr can only have come from a direct
		// backend allocation (there's nothing else it could be).
		err = a.be.freeRaw(ptr)
	} else {
		err = a.tc.Deallocate(ptr)
	}
	if err == nil {
		a.allocs--
	}
	tracef(" %v\n", err)
	return err
}

// FacadeStats is what Allocator.Stats reports: the facade's
// outstanding-allocation counter plus, when a cache exists, its
// per-size-class breakdown.
type FacadeStats struct {
	Allocs     int
	CacheBytes int
	PoolStats  Stats
	HasCache   bool
}

func (a *Allocator) Stats() FacadeStats {
	s := FacadeStats{Allocs: a.allocs, CacheBytes: a.bytes}
	if a.tc != nil {
		s.HasCache = true
		s.PoolStats = a.tc.Stats()
	}
	return s
}

// Close releases the Allocator's cache region, if one was created. It is
// not necessary to Close an Allocator when exiting a process — same as
// the teacher's own doc comment for Allocator.Close.
func (a *Allocator) Close() error {
	if a.tc == nil {
		return nil
	}
	err := a.tc.Close()
	a.bytes -= a.tc.rawSize
	a.tc = nil
	return err
}
