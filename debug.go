// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocator

import (
	"fmt"
	"os"
)

// trace gates the same kind of one-line-per-call stderr tracing the
// teacher's Malloc/Free/Calloc use; off by default, flip for local
// debugging. There is no structured logging library here because the
// teacher itself has none for this concern — see DESIGN.md.
var trace = false

func tracef(format string, args ...interface{}) {
	if !trace {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

// debugCheckResidency mirrors MemPage::deallocate_block's #ifndef NDEBUG
// bounds check: it never aborts (the contract is unchecked, §7), it only
// logs a diagnostic line when trace is enabled and ptr looks wrong.
func debugCheckResidency(page, ptr, pageEnd uintptr) {
	if !trace {
		return
	}
	if ptr < page || ptr >= pageEnd {
		tracef("allocator: deallocate %#x outside page [%#x, %#x)\n", ptr, page, pageEnd)
	}
}
