// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// A basic os.File backed HeapProvider.

package sballoc

import (
	"os"

	"github.com/cznic/fileutil"
	"github.com/cznic/mathutil"
)

var _ HeapProvider = (*FileProvider)(nil)

// FileProvider is an os.File backed HeapProvider that keeps the heap's bytes
// in a file. NewAllocator accepts only a fresh (zero-length) file, so an
// existing heap file cannot be re-attached. It grows the file with Truncate, the
// same way lldb.SimpleFileFiler does, and offers no structural-consistency
// guarantees beyond what the OS gives a single Truncate/WriteAt call -
// exactly SimpleFileFiler's documented trade-off, which is acceptable here
// since sballoc has no transaction model of its own to hook into anyway.
type FileProvider struct {
	file *os.File
	size int64
}

// NewFileProvider returns a new FileProvider backed by f. f must already be
// open for reading and writing; a freshly created, zero-length file starts
// a new heap.
func NewFileProvider(f *os.File) (*FileProvider, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return &FileProvider{file: f, size: fi.Size()}, nil
}

// CurrentBreak implements HeapProvider.
func (f *FileProvider) CurrentBreak() Pointer { return f.size }

// Grow implements HeapProvider.
func (f *FileProvider) Grow(delta int) (Pointer, error) {
	if delta <= 0 {
		return 0, &InvalidArgumentError{"FileProvider.Grow: delta must be positive", int64(delta)}
	}
	prev := f.size
	newSize := f.size + int64(delta)
	if err := f.file.Truncate(newSize); err != nil {
		return 0, &OutOfMemoryError{Requested: delta, Cause: err}
	}
	f.size = newSize
	return prev, nil
}

// ReadAt implements HeapProvider.
func (f *FileProvider) ReadAt(b []byte, off Pointer) (int, error) {
	return f.file.ReadAt(b, off)
}

// WriteAt implements HeapProvider.
func (f *FileProvider) WriteAt(b []byte, off Pointer) (int, error) {
	f.size = mathutil.MaxInt64(f.size, off+int64(len(b)))
	return f.file.WriteAt(b, off)
}

// CompactFreeSpace hole-punches the physical backing of the byte range
// [off, off+size), returning pages to the OS without changing the logical
// file size CurrentBreak reports - the same "leak" discard lldb documents
// for large free blocks in falloc.go's "Long unused block" section,
// generalized from that single-tag format to a plain byte range. It must
// only ever be called by a caller that already knows [off, off+size) is the
// interior of a single free block; sballoc's own Allocate/Free/Resize never
// call it, since spec.md's heap-extension model never needs to shrink
// physical usage for the allocator to stay correct.
func (f *FileProvider) CompactFreeSpace(off, size int64) error {
	return fileutil.PunchHole(f.file, off, size)
}
