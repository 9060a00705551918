// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sballoc

// HeapProvider is the external, "sbrk-like" collaborator the allocator
// grows its address space through. It never shrinks: Grow only extends.
//
// In addition to the current_break/grow contract from spec.md §6, a
// HeapProvider exposes ReadAt/WriteAt over the bytes it already owns, since
// the allocator's block layout lives directly in the heap's own bytes
// rather than behind a separate indirection table - see spec.md §9's design
// note on modeling links as safe arithmetic over a single owned byte slice.
//
// Modeled on lldb.Filer, trimmed to the subset this allocator's simpler
// (no-transaction, grow-only, single-goroutine) contract actually needs.
// A HeapProvider is not safe for concurrent use, matching spec.md §5.
type HeapProvider interface {
	// CurrentBreak returns the current end-of-heap address.
	CurrentBreak() Pointer

	// Grow advances the break by delta bytes (delta must be a positive
	// multiple of WORD) and returns the break's previous value. It
	// returns a non-nil error, and leaves the break unchanged, if the
	// provider cannot satisfy the request.
	Grow(delta int) (prevBreak Pointer, err error)

	// ReadAt reads len(b) bytes starting at off, which must lie within
	// [0, CurrentBreak()).
	ReadAt(b []byte, off Pointer) (n int, err error)

	// WriteAt writes len(b) bytes starting at off, which must lie within
	// [0, CurrentBreak()).
	WriteAt(b []byte, off Pointer) (n int, err error)
}
