// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocator

import "unsafe"

// sliceHeader mirrors the runtime layout of a Go slice, the same trick the
// teacher plays with reflect.SliceHeader in Malloc/UnsafeMalloc. Data is
// typed as unsafe.Pointer rather than uintptr: since we only ever point it
// at backend-owned (non-Go-heap) memory for the lifetime of the call, this
// keeps the pattern valid under stricter unsafe.Pointer rules than
// reflect.SliceHeader's uintptr field allows.
type sliceHeader struct {
	Data unsafe.Pointer
	Len  int
	Cap  int
}

// bytesAt reconstructs a []byte view over n bytes starting at p, used when
// handing cache/backend memory to a caller that wants Go's usual slice API.
func bytesAt(p unsafe.Pointer, n int) []byte {
	var b []byte
	sh := (*sliceHeader)(unsafe.Pointer(&b))
	sh.Data = p
	sh.Len = n
	sh.Cap = n
	return b
}
