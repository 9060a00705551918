// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// A memory-only implementation of HeapProvider.

package sballoc

import (
	"io"

	"github.com/cznic/mathutil"
)

const (
	pgBits = 12
	pgSize = 1 << pgBits
	pgMask = pgSize - 1
)

var zeroPage [pgSize]byte

var _ HeapProvider = (*MemHeapProvider)(nil)

// MemHeapProvider is a memory-backed HeapProvider, paged the way
// lldb.MemFiler pages its own backing store, so that a heap with large
// sparse free regions doesn't force one giant contiguous Go slice
// allocation.
type MemHeapProvider struct {
	pages map[int64]*[pgSize]byte
	size  int64
}

// NewMemHeapProvider returns a fresh, zero-size MemHeapProvider.
func NewMemHeapProvider() *MemHeapProvider {
	return &MemHeapProvider{pages: map[int64]*[pgSize]byte{}}
}

// CurrentBreak implements HeapProvider.
func (f *MemHeapProvider) CurrentBreak() Pointer { return f.size }

// Grow implements HeapProvider.
func (f *MemHeapProvider) Grow(delta int) (Pointer, error) {
	if delta <= 0 {
		return 0, &InvalidArgumentError{"MemHeapProvider.Grow: delta must be positive", int64(delta)}
	}
	prev := f.size
	f.size += int64(delta)
	return prev, nil
}

// ReadAt implements HeapProvider.
func (f *MemHeapProvider) ReadAt(b []byte, off Pointer) (n int, err error) {
	avail := f.size - off
	pgI := off >> pgBits
	pgO := int(off & pgMask)
	rem := len(b)
	if int64(rem) > avail {
		rem = int(avail)
		err = io.EOF
	}
	for rem != 0 && avail > 0 {
		pg := f.pages[pgI]
		if pg == nil {
			pg = &zeroPage
		}
		nc := copy(b[:mathutil.Min(rem, pgSize-pgO)], pg[pgO:])
		pgI++
		pgO = 0
		rem -= nc
		n += nc
		b = b[nc:]
	}
	return
}

// WriteAt implements HeapProvider.
func (f *MemHeapProvider) WriteAt(b []byte, off Pointer) (n int, err error) {
	if off+int64(len(b)) > f.size {
		return 0, &InvalidArgumentError{"MemHeapProvider.WriteAt: write past break", off + int64(len(b))}
	}

	pgI := off >> pgBits
	pgO := int(off & pgMask)
	for len(b) != 0 {
		pg := f.pages[pgI]
		if pg == nil {
			pg = new([pgSize]byte)
			f.pages[pgI] = pg
		}
		nc := copy(pg[pgO:], b)
		pgI++
		pgO = 0
		n += nc
		b = b[nc:]
	}
	return
}
