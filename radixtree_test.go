// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocator

import (
	"testing"

	"github.com/cznic/mathutil"
)

func TestRadixTreePutGetOverwriteRemove(t *testing.T) {
	rt := NewRadixTree[int]()

	if _, ok := rt.Get(42); ok {
		t.Fatal("expected miss on empty tree")
	}

	rt.Put(42, 1)
	if v, ok := rt.Get(42); !ok || v != 1 {
		t.Fatalf("Get(42) = %v, %v; want 1, true", v, ok)
	}

	rt.Put(42, 2)
	if v, ok := rt.Get(42); !ok || v != 2 {
		t.Fatalf("overwrite: Get(42) = %v, %v; want 2, true", v, ok)
	}

	rt.Remove(42)
	if _, ok := rt.Get(42); ok {
		t.Fatal("expected miss after Remove")
	}

	// Remove on an absent key is a no-op, not an error.
	rt.Remove(99999)
}

func randKey(t *testing.T, rng *mathutil.FC32) uint64 {
	t.Helper()
	hi := uint64(uint32(rng.Next()))
	lo := uint64(uint32(rng.Next()))
	return hi<<32 | lo
}

// TestRadixTreeMapEquivalence is spec scenario 4: repeated batches of
// put(random_ptr, random_size), checked against a plain map after every
// batch.
func TestRadixTreeMapEquivalence(t *testing.T) {
	rt := NewRadixTree[int]()
	model := map[uint64]int{}

	rng, err := mathutil.NewFC32(0, 1<<30, true)
	if err != nil {
		t.Fatal(err)
	}
	rng.Seed(11)

	const outerRounds = 2000
	const opsPerRound = 25

	for round := 0; round < outerRounds; round++ {
		for i := 0; i < opsPerRound; i++ {
			key := randKey(t, rng)
			val := rng.Next()
			rt.Put(key, val)
			model[key] = val
		}
		for key, want := range model {
			got, ok := rt.Get(key)
			if !ok || got != want {
				t.Fatalf("round %d: Get(%#x) = %v, %v; want %v, true", round, key, got, ok, want)
			}
		}
	}
}

func TestRadixTreeGenericValue(t *testing.T) {
	type payload struct {
		size  int
		class string
	}
	rt := NewRadixTree[payload]()
	rt.Put(0xDEADBEEF, payload{size: 64, class: "small"})
	v, ok := rt.Get(0xDEADBEEF)
	if !ok || v.size != 64 || v.class != "small" {
		t.Fatalf("Get = %+v, %v", v, ok)
	}
}

func TestRadixTreeConfigurableWidths(t *testing.T) {
	rt := NewRadixTreeWithWidths[int](4, 2)
	const key = 0x1234
	rt.Put(key, 7)
	if v, ok := rt.Get(key); !ok || v != 7 {
		t.Fatalf("Get(%#x) = %v, %v; want 7, true", key, v, ok)
	}
	rt.Remove(key)
	if _, ok := rt.Get(key); ok {
		t.Fatal("expected miss after Remove")
	}
}
