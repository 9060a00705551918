// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sballoc

import "testing"

func TestCheckPassesOnFreshHeap(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.Check(nil); err != nil {
		t.Fatal(err)
	}
}

func TestCheckPassesAfterAllocateFreeChurn(t *testing.T) {
	a := newTestAllocator(t)
	var live []Pointer
	sizes := []int{8, 100, 4000, 1, 64, 500}
	for _, s := range sizes {
		p, err := a.Allocate(s)
		if err != nil {
			t.Fatal(err)
		}
		live = append(live, p)
	}
	for i, p := range live {
		if i%2 == 0 {
			if err := a.Free(p); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := a.Check(nil); err != nil {
		t.Fatal(err)
	}
}

// Check detects an expected-free block that is actually marked allocated,
// without the reporter, stopping at the first violation.
func TestCheckDetectsBadFreeListTag(t *testing.T) {
	a := newTestAllocator(t)

	chunk := a.nextBlock(a.base, minBlockSize)
	size, _, err := a.readHeader(chunk)
	if err != nil {
		t.Fatal(err)
	}
	// Corrupt the header in place to claim "allocated" while the block
	// is still linked into its free list.
	if err := a.writeTags(chunk, size, true); err != nil {
		t.Fatal(err)
	}

	err = a.Check(nil)
	if err == nil {
		t.Fatal("expected Check to detect the corrupted tag")
	}
	ce, ok := err.(*ConsistencyError)
	if !ok {
		t.Fatalf("got error of type %T, want *ConsistencyError", err)
	}
	if ce.Type != ErrExpFreeTag && ce.Type != ErrHeaderFooterMismatch {
		t.Fatalf("got ConsistencyErrType %v, want ErrExpFreeTag or ErrHeaderFooterMismatch", ce.Type)
	}
}

// With a reporter that always continues, Check collects every violation
// instead of stopping at the first.
func TestCheckReporterSeesAllViolations(t *testing.T) {
	a := newTestAllocator(t)

	chunk := a.nextBlock(a.base, minBlockSize)
	size, _, err := a.readHeader(chunk)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.writeTags(chunk, size, true); err != nil {
		t.Fatal(err)
	}

	var seen []error
	err = a.Check(func(e error) bool {
		seen = append(seen, e)
		return true
	})
	if err != nil {
		t.Fatalf("Check returned %v with an always-continue reporter, want nil", err)
	}
	if len(seen) == 0 {
		t.Fatal("reporter saw no violations")
	}
}

// A reporter that returns false stops Check exactly like a nil reporter
// would, surfacing the violation as Check's own return value.
func TestCheckReporterCanStopEarly(t *testing.T) {
	a := newTestAllocator(t)

	chunk := a.nextBlock(a.base, minBlockSize)
	size, _, err := a.readHeader(chunk)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.writeTags(chunk, size, true); err != nil {
		t.Fatal(err)
	}

	calls := 0
	err = a.Check(func(e error) bool {
		calls++
		return false
	})
	if err == nil {
		t.Fatal("expected Check to stop and return the violation")
	}
	if calls != 1 {
		t.Fatalf("reporter called %d times, want exactly 1", calls)
	}
}
