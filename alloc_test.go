// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sballoc

import (
	"bytes"
	"testing"
)

func newTestAllocator(t *testing.T) *Allocator {
	t.Helper()
	a, err := NewAllocator(NewMemHeapProvider())
	if err != nil {
		t.Fatal(err)
	}
	return a
}

// Scenario 1 from spec.md §8.
func TestAllocateFreeOneByte(t *testing.T) {
	a := newTestAllocator(t)

	p, err := a.Allocate(1)
	if err != nil {
		t.Fatal(err)
	}
	if p == nilPointer {
		t.Fatal("allocate(1) returned nil")
	}
	if p%A != 0 {
		t.Fatalf("pointer %d is not %d-aligned", p, A)
	}

	if err := a.Free(p); err != nil {
		t.Fatal(err)
	}
	if err := a.Check(nil); err != nil {
		t.Fatal(err)
	}
}

// Request of 1 byte yields a block of minBlockSize (spec.md §8 Boundary
// behaviours).
func TestAllocateOneByteYieldsMinBlock(t *testing.T) {
	a := newTestAllocator(t)

	p, err := a.Allocate(1)
	if err != nil {
		t.Fatal(err)
	}
	size, allocated, err := a.readHeader(p - WORD)
	if err != nil {
		t.Fatal(err)
	}
	if !allocated {
		t.Fatal("block not marked allocated")
	}
	if size != minBlockSize {
		t.Fatalf("got block size %d, want %d", size, minBlockSize)
	}
}

// Scenario 2 from spec.md §8: two adjacent allocations, freed in order,
// coalesce into one free block.
func TestFreeCoalescesTwoAdjacent(t *testing.T) {
	a := newTestAllocator(t)

	pa, err := a.Allocate(24)
	if err != nil {
		t.Fatal(err)
	}
	pb, err := a.Allocate(24)
	if err != nil {
		t.Fatal(err)
	}

	if err := a.Free(pa); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(pb); err != nil {
		t.Fatal(err)
	}

	if err := a.Check(nil); err != nil {
		t.Fatal(err)
	}
	if n := countFreeBlocks(t, a); n != 1 {
		t.Fatalf("got %d free blocks, want 1", n)
	}
}

// Scenario 3 from spec.md §8: freeing a block sandwiched between two free
// blocks merges all three and removes both neighbours from their buckets.
func TestFreeSandwichedBlockTripleMerges(t *testing.T) {
	a := newTestAllocator(t)

	// Drain the initial CHUNK-sized free block down to a 96-byte tail -
	// exactly enough for three 32-byte blocks with no slack left over -
	// so that freeing all three really does reconstruct a single free
	// block of their combined size, with no untouched filler space left
	// to also get swept into the merge.
	if _, err := a.Allocate(CHUNK - 96 - overhead); err != nil {
		t.Fatal(err)
	}

	pa, err := a.Allocate(24)
	if err != nil {
		t.Fatal(err)
	}
	pb, err := a.Allocate(24)
	if err != nil {
		t.Fatal(err)
	}
	pc, err := a.Allocate(24)
	if err != nil {
		t.Fatal(err)
	}

	sizeA, _, err := a.readHeader(pa - WORD)
	if err != nil {
		t.Fatal(err)
	}
	sizeB, _, err := a.readHeader(pb - WORD)
	if err != nil {
		t.Fatal(err)
	}
	sizeC, _, err := a.readHeader(pc - WORD)
	if err != nil {
		t.Fatal(err)
	}

	if err := a.Free(pa); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(pc); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(pb); err != nil {
		t.Fatal(err)
	}

	if err := a.Check(nil); err != nil {
		t.Fatal(err)
	}
	if n := countFreeBlocks(t, a); n != 1 {
		t.Fatalf("got %d free blocks, want 1", n)
	}

	block := a.base
	var mergedSize int
	for {
		size, allocated, err := a.readHeader(block)
		if err != nil {
			t.Fatal(err)
		}
		if size == 0 && allocated {
			break
		}
		if !allocated {
			mergedSize = size
		}
		block = a.nextBlock(block, size)
	}

	if want := sizeA + sizeB + sizeC; mergedSize != want {
		t.Fatalf("merged size = %d, want %d", mergedSize, want)
	}
}

// Scenario 4 from spec.md §8: growing a small allocation either resizes in
// place or migrates, preserving contents either way.
func TestResizeGrowPreservesContents(t *testing.T) {
	a := newTestAllocator(t)

	p, err := a.Allocate(16)
	if err != nil {
		t.Fatal(err)
	}
	want := bytes.Repeat([]byte{0x5a}, 16)
	if _, err := a.p.WriteAt(want, p); err != nil {
		t.Fatal(err)
	}

	q, err := a.Resize(p, 3000)
	if err != nil {
		t.Fatal(err)
	}
	if q == nilPointer {
		t.Fatal("resize returned nil")
	}

	got := make([]byte, 16)
	if _, err := a.p.ReadAt(got, q); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("contents not preserved: got %x want %x", got, want)
	}
	if err := a.Check(nil); err != nil {
		t.Fatal(err)
	}
}

// Scenario 5 from spec.md §8.
func TestResizeGrowLargePreservesPrefix(t *testing.T) {
	a := newTestAllocator(t)

	p, err := a.Allocate(100)
	if err != nil {
		t.Fatal(err)
	}
	pattern := bytes.Repeat([]byte{0xa5}, 100)
	if _, err := a.p.WriteAt(pattern, p); err != nil {
		t.Fatal(err)
	}

	q, err := a.Resize(p, 10000)
	if err != nil {
		t.Fatal(err)
	}
	if q == nilPointer {
		t.Fatal("resize returned nil")
	}

	got := make([]byte, 100)
	if _, err := a.p.ReadAt(got, q); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, pattern) {
		t.Fatal("prefix not preserved across resize-grow")
	}
}

func TestResizeToSameSizeRoundTrips(t *testing.T) {
	a := newTestAllocator(t)

	p, err := a.Allocate(50)
	if err != nil {
		t.Fatal(err)
	}
	pattern := bytes.Repeat([]byte{0x11}, 50)
	if _, err := a.p.WriteAt(pattern, p); err != nil {
		t.Fatal(err)
	}

	q, err := a.Resize(p, 50)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 50)
	if _, err := a.p.ReadAt(got, q); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, pattern) {
		t.Fatal("contents changed on same-size resize")
	}
}

// spec.md §9: resize(p, 0) frees and returns nil - the corrected behaviour,
// not the "return ptr" bug one mm_realloc source variant has.
func TestResizeToZeroFreesAndReturnsNil(t *testing.T) {
	a := newTestAllocator(t)

	p, err := a.Allocate(40)
	if err != nil {
		t.Fatal(err)
	}
	q, err := a.Resize(p, 0)
	if err != nil {
		t.Fatal(err)
	}
	if q != nilPointer {
		t.Fatalf("resize(p, 0) = %d, want nil", q)
	}
	if err := a.Check(nil); err != nil {
		t.Fatal(err)
	}
}

func TestFreeNilIsNoop(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.Free(nilPointer); err != nil {
		t.Fatal(err)
	}
}

func TestAllocateZeroReturnsNil(t *testing.T) {
	a := newTestAllocator(t)
	p, err := a.Allocate(0)
	if err != nil {
		t.Fatal(err)
	}
	if p != nilPointer {
		t.Fatalf("allocate(0) = %d, want nil", p)
	}
}

// Request exactly equal to chunk_size - overhead triggers exactly one
// heap growth beyond the initial one performed by NewAllocator.
func TestAllocateAtChunkBoundaryGrowsOnce(t *testing.T) {
	a := newTestAllocator(t)

	// Drain the initial CHUNK-sized free block first.
	if _, err := a.Allocate(CHUNK - overhead - A); err != nil {
		t.Fatal(err)
	}

	before := a.p.CurrentBreak()
	if _, err := a.Allocate(CHUNK - overhead); err != nil {
		t.Fatal(err)
	}
	after := a.p.CurrentBreak()
	if after-before != CHUNK {
		t.Fatalf("break advanced by %d, want exactly one CHUNK (%d)", after-before, CHUNK)
	}
}

func countFreeBlocks(t *testing.T, a *Allocator) int {
	t.Helper()
	n := 0
	block := a.base
	for {
		size, allocated, err := a.readHeader(block)
		if err != nil {
			t.Fatal(err)
		}
		if size == 0 && allocated {
			return n
		}
		if !allocated {
			n++
		}
		block = a.nextBlock(block, size)
	}
}
