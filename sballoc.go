// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package sballoc implements a segregated-fit dynamic memory allocator over a
single contiguous, monotonically-growable byte region supplied by an
external, "sbrk-like" HeapProvider.

Heap layout

The heap is a linear sequence of blocks starting with a fixed-size prologue
and ending with a zero-size epilogue header:

	[ prologue ][ block ][ block ] ... [ block ][ epilogue ]

Every block, free or allocated, carries a header word and a footer word at
its first and last WORD-sized slots. Both words encode the same
{size, allocated} pair, which lets the allocator discover a block's left
neighbour in O(1) by reading the word immediately preceding the block
(Knuth's boundary-tag technique). Free blocks additionally overlay a
predecessor and successor pointer on the first two aligned slots of their
payload — those slots thread the block into one of BUCKETS doubly linked
free lists, selected by bucketOf(size).

	+--------+------------------------------------+--------+
	| header |           payload / links          | footer |
	+--------+------------------------------------+--------+

Allocate rounds a request up to an A-aligned block size, searches the free
lists first-fit starting at the matching bucket, splits the winning block if
the remainder would still meet minBlockSize, and otherwise asks the
HeapProvider for more address space. Free decodes the block, coalesces it
with any free neighbours via the boundary tags, and reinserts the (possibly
enlarged) result. Resize attempts an in-place shrink, in-place forward
coalesce, or falls back to allocate+copy+free.

This package owns no global state: every heap lives in an *Allocator value
that exclusively holds the HeapProvider and the free-list registry.
*/
package sballoc

// Tunables, per spec: compile-time constants with recognized effects.
const (
	// A is the payload alignment in bytes. Every returned pointer is a
	// multiple of A, and every block size is a multiple of A.
	A = 8

	// WORD is the width, in bytes, of a header or footer word.
	WORD = 4

	// CHUNK is the default heap-extension granularity.
	CHUNK = 4096

	// BUCKETS is the number of segregated free-list size classes.
	BUCKETS = 16

	// minBlockSize is the smallest permissible block: two header/footer
	// words plus two WORD-sized link slots, so even the smallest free
	// block can hold a predecessor and successor pointer.
	minBlockSize = 4 * WORD

	// overhead is the header+footer bookkeeping cost of any block.
	overhead = 2 * WORD

	// allocBit marks a header/footer word as belonging to an allocated
	// (or sentinel) block.
	allocBit = uint32(1)
)

// roundUp rounds n up to the next multiple of mult. mult must be a power of
// two.
func roundUp(n, mult int) int {
	return (n + mult - 1) &^ (mult - 1)
}
