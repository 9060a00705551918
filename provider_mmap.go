// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !windows

// An anonymous-mmap backed HeapProvider.

package sballoc

import "golang.org/x/sys/unix"

var _ HeapProvider = (*MmapProvider)(nil)

// MmapProvider reserves one large anonymous mapping up front with a single
// unix.Mmap call and treats Grow as advancing a logical break within that
// reservation, never remapping. This is the "reserve big, commit lazily"
// technique used to back a buddy pool's arena; applied here to a
// segregated-fit heap instead, Grow's cost stays O(1) for the whole
// lifetime of the provider and CurrentBreak never invalidates a previously
// returned Pointer.
//
// capacity bytes of virtual address space are reserved; Grow fails once the
// logical break would exceed it, surfacing as an out-of-memory condition
// from Allocate/Resize exactly as a real sbrk running out of address space
// would.
type MmapProvider struct {
	data     []byte
	capacity int
	size     int64
}

// NewMmapProvider reserves capacity bytes of anonymous, zero-filled memory
// and returns a HeapProvider over it. Close must be called to release the
// mapping.
func NewMmapProvider(capacity int) (*MmapProvider, error) {
	data, err := unix.Mmap(-1, 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, err
	}
	return &MmapProvider{data: data, capacity: capacity}, nil
}

// Close unmaps the reservation. The provider, and any Allocator built on
// it, must not be used afterwards.
func (f *MmapProvider) Close() error {
	err := unix.Munmap(f.data)
	f.data = nil
	return err
}

// CurrentBreak implements HeapProvider.
func (f *MmapProvider) CurrentBreak() Pointer { return f.size }

// Grow implements HeapProvider.
func (f *MmapProvider) Grow(delta int) (Pointer, error) {
	if delta <= 0 {
		return 0, &InvalidArgumentError{"MmapProvider.Grow: delta must be positive", int64(delta)}
	}
	newSize := f.size + int64(delta)
	if newSize > int64(f.capacity) {
		return 0, &OutOfMemoryError{Requested: delta, Cause: unix.ENOMEM}
	}
	prev := f.size
	f.size = newSize
	return prev, nil
}

// ReadAt implements HeapProvider.
func (f *MmapProvider) ReadAt(b []byte, off Pointer) (int, error) {
	if off < 0 || off+int64(len(b)) > f.size {
		return 0, &InvalidArgumentError{"MmapProvider.ReadAt: out of range", off}
	}
	return copy(b, f.data[off:off+int64(len(b))]), nil
}

// WriteAt implements HeapProvider.
func (f *MmapProvider) WriteAt(b []byte, off Pointer) (int, error) {
	if off < 0 || off+int64(len(b)) > f.size {
		return 0, &InvalidArgumentError{"MmapProvider.WriteAt: out of range", off}
	}
	return copy(f.data[off:off+int64(len(b))], b), nil
}
