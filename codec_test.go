// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sballoc

import (
	"math/rand"
	"testing"
)

// Pack/unpack round-trip, per spec.md §9's call for property tests on the
// bit-packing codec.
func TestPackUnpackRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10000; i++ {
		size := int(rng.Int31n(1<<20)) &^ (A - 1)
		allocated := rng.Intn(2) == 0

		w := pack(size, allocated)
		if got := unpackSize(w); got != size {
			t.Fatalf("size round-trip: got %d, want %d", got, size)
		}
		if got := unpackAlloc(w); got != allocated {
			t.Fatalf("alloc round-trip: got %v, want %v", got, allocated)
		}
	}
}

func TestHeaderFooterRoundTrip(t *testing.T) {
	a := newTestAllocator(t)

	block := a.base
	size, allocated, err := a.readHeader(block)
	if err != nil {
		t.Fatal(err)
	}
	if !allocated || size != minBlockSize {
		t.Fatalf("prologue header = (%d, %v), want (%d, true)", size, allocated, minBlockSize)
	}
	footerAllocated, err := a.readFooter(block, size)
	if err != nil {
		t.Fatal(err)
	}
	if footerAllocated != allocated {
		t.Fatal("prologue header/footer disagree")
	}
}

func TestPredSuccRoundTrip(t *testing.T) {
	a := newTestAllocator(t)

	block := a.nextBlock(a.base, minBlockSize) // the initial CHUNK free block
	if err := a.writePred(block, 12345); err != nil {
		t.Fatal(err)
	}
	if err := a.writeSucc(block, 67890); err != nil {
		t.Fatal(err)
	}
	pred, err := a.readPred(block)
	if err != nil {
		t.Fatal(err)
	}
	succ, err := a.readSucc(block)
	if err != nil {
		t.Fatal(err)
	}
	if pred != 12345 || succ != 67890 {
		t.Fatalf("got pred=%d succ=%d, want 12345/67890", pred, succ)
	}
}

func TestAsizeClamp(t *testing.T) {
	cases := []struct{ n, want int }{
		{1, minBlockSize},
		{minBlockSize - overhead, minBlockSize},
		{100, 112},
	}
	for _, c := range cases {
		if got := asize(c.n); got != c.want {
			t.Fatalf("asize(%d) = %d, want %d", c.n, got, c.want)
		}
		if got := asize(c.n); got%A != 0 {
			t.Fatalf("asize(%d) = %d is not %d-aligned", c.n, got, A)
		}
	}
}
