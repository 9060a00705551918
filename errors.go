// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sballoc

import "fmt"

// ConsistencyErrType enumerates the invariant violations Check can detect,
// mirroring the shape of lldb's own ErrILSEQ.Type constants (ErrExpFreeTag,
// ErrSmall, ErrHead, ...), referenced throughout falloc.go's nfo/alloc/free
// paths even where the type definition wasn't itself among this module's
// retrieved sources.
type ConsistencyErrType int

const (
	_ ConsistencyErrType = iota
	// ErrExpFreeTag: a block reached through a free-list link is marked
	// allocated.
	ErrExpFreeTag
	// ErrHeaderFooterMismatch: a block's header and footer disagree.
	ErrHeaderFooterMismatch
	// ErrAdjacentFree: two adjacent free blocks were not coalesced.
	ErrAdjacentFree
	// ErrWrongBucket: a free block is linked into a bucket whose size
	// range does not cover it.
	ErrWrongBucket
	// ErrBadLink: a free-list pred/succ pair does not round-trip
	// (succ(pred(x)) != x or pred(succ(x)) != x).
	ErrBadLink
	// ErrCount: the heap-walk free-block count does not match the
	// free-list population.
	ErrCount
	// ErrCoverage: the heap walk did not exactly cover
	// [heapStart, heapEnd).
	ErrCoverage
)

func (t ConsistencyErrType) String() string {
	switch t {
	case ErrExpFreeTag:
		return "expected free block tag"
	case ErrHeaderFooterMismatch:
		return "header/footer mismatch"
	case ErrAdjacentFree:
		return "adjacent free blocks not coalesced"
	case ErrWrongBucket:
		return "free block in wrong bucket"
	case ErrBadLink:
		return "broken free-list link"
	case ErrCount:
		return "free-block count mismatch"
	case ErrCoverage:
		return "heap walk did not cover the heap"
	default:
		return "unknown consistency error"
	}
}

// ConsistencyError reports the first invariant violation Check finds. Other
// Allocator operations do not themselves check for it and continue to
// assume the invariants hold - Check is a diagnostic, not a guard, per
// spec.md §7.
type ConsistencyError struct {
	Type ConsistencyErrType
	Off  Pointer
	Arg  int64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("sballoc: consistency violation %s at offset %d (arg %d)", e.Type, e.Off, e.Arg)
}

// OutOfMemoryError reports that the HeapProvider could not satisfy a Grow
// request. The heap is left exactly as it was before the call.
type OutOfMemoryError struct {
	Requested int
	Cause     error
}

func (e *OutOfMemoryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sballoc: out of memory growing heap by %d bytes: %v", e.Requested, e.Cause)
	}
	return fmt.Sprintf("sballoc: out of memory growing heap by %d bytes", e.Requested)
}

func (e *OutOfMemoryError) Unwrap() error { return e.Cause }

// InvalidArgumentError reports a caller or provider error cheap enough for
// this package to detect inline, mirroring lldb.ErrINVAL's
// {description, argument} shape.
type InvalidArgumentError struct {
	Msg string
	Arg int64
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("sballoc: %s (%d)", e.Msg, e.Arg)
}
