// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sballoc

// Allocator orchestrates allocate/free/resize over a single HeapProvider.
// It owns the heap's base offset and the 16-bucket free-list registry
// exclusively; there is no package-level mutable state (spec.md §9), and an
// Allocator is not safe for concurrent use (spec.md §5).
type Allocator struct {
	p       HeapProvider
	base    Pointer // offset of the prologue header
	buckets [BUCKETS]Pointer
}

// NewAllocator establishes the prologue, epilogue, and an initial CHUNK
// extension over a fresh HeapProvider (CurrentBreak() == 0), and returns an
// Allocator ready to serve Allocate/Free/Resize. It is the equivalent of
// spec.md §6's init(); there is no separate Init call because a HeapProvider
// has no useful pre-NewAllocator state to mutate. Grounded on
// lldb.NewAllocator's shape (build the in-memory structure, no implicit
// global state).
func NewAllocator(p HeapProvider) (*Allocator, error) {
	a := &Allocator{p: p, base: padBytes}

	if p.CurrentBreak() != 0 {
		// Re-attaching to an already-initialized heap is out of scope:
		// spec.md's Persistence section says "None". A FileProvider
		// reopened against an existing non-empty file is a caller
		// error, not a case this allocator recovers from.
		return nil, &InvalidArgumentError{"NewAllocator: provider is not fresh", p.CurrentBreak()}
	}

	// padBytes of alignment padding + prologue (minBlockSize) + epilogue
	// (WORD).
	if _, err := p.Grow(padBytes + minBlockSize + WORD); err != nil {
		return nil, &OutOfMemoryError{Requested: padBytes + minBlockSize + WORD, Cause: err}
	}

	if err := a.writeTags(a.base, minBlockSize, true); err != nil {
		return nil, err
	}

	epilogue := a.base + minBlockSize
	if err := a.writeWord(epilogue, pack(0, true)); err != nil {
		return nil, err
	}

	if err := a.growHeap(CHUNK); err != nil {
		return nil, err
	}

	return a, nil
}

// growHeap is the only path that increases heap_end. It asks p for delta
// more bytes (rounded up to A), overwrites the old epilogue with the header
// of a fresh free block spanning the new region, writes a new epilogue at
// the new end, and coalesces the fresh block with a possibly-free
// predecessor - per spec.md §4.6's "Heap extension" paragraph.
func (a *Allocator) growHeap(delta int) error {
	delta = roundUp(delta, A)

	oldBreak, err := a.p.Grow(delta)
	if err != nil {
		return &OutOfMemoryError{Requested: delta, Cause: err}
	}

	newBlock := oldBreak - WORD // the old epilogue header becomes the new free block's header
	// The grown region is [oldBreak, oldBreak+delta); together with the
	// reclaimed WORD bytes of the old epilogue that's delta+WORD bytes
	// for [newBlock, newBreak), of which WORD bytes go to the new
	// epilogue, leaving delta bytes for the free block itself.
	newSize := delta

	if err := a.writeTags(newBlock, newSize, false); err != nil {
		return err
	}
	if err := a.clearLinks(newBlock); err != nil {
		return err
	}

	newEpilogue := a.nextBlock(newBlock, newSize)
	if err := a.writeWord(newEpilogue, pack(0, true)); err != nil {
		return err
	}

	return a.coalesce(newBlock, newSize)
}

// Allocate returns a Pointer to at least size usable bytes, or nilPointer if
// the request cannot be satisfied (size == 0, or the heap cannot grow
// enough). Implements spec.md §4.6.
func (a *Allocator) Allocate(size int) (Pointer, error) {
	if size == 0 {
		return nilPointer, nil
	}

	want := asize(size)

	if block, blockSize, found, err := a.firstFit(want); err != nil {
		return nilPointer, err
	} else if found {
		if err := a.freeListRemove(block, blockSize); err != nil {
			return nilPointer, err
		}
		return a.place(block, blockSize, want)
	}

	extend := want
	if extend < CHUNK {
		extend = CHUNK
	}
	if err := a.growHeap(extend); err != nil {
		if _, ok := err.(*OutOfMemoryError); ok {
			return nilPointer, nil
		}
		return nilPointer, err
	}

	block, blockSize, found, err := a.firstFit(want)
	if err != nil {
		return nilPointer, err
	}
	if !found {
		// growHeap(extend >= want) guarantees a fit; reaching here
		// means the registry is inconsistent.
		return nilPointer, &ConsistencyError{Type: ErrCount, Off: a.p.CurrentBreak()}
	}
	if err := a.freeListRemove(block, blockSize); err != nil {
		return nilPointer, err
	}
	return a.place(block, blockSize, want)
}

// firstFit performs the first-fit scan of spec.md §4.6 step 3: starting at
// bucketOf(want), scan buckets in order, and within a bucket scan in
// insertion (LIFO) order, returning the first block whose size is >= want.
func (a *Allocator) firstFit(want int) (block Pointer, size int, found bool, err error) {
	start := bucketOf(want)
	err = a.freeListIterate(start, func(b Pointer, s int) error {
		if s >= want {
			block, size, found = b, s, true
			return errStopIteration
		}
		return nil
	})
	if err == errStopIteration {
		err = nil
	}
	return
}

// Free deallocates ptr, which must have been returned by Allocate or Resize
// of this Allocator and not yet freed. Free(nilPointer) is a no-op.
func (a *Allocator) Free(ptr Pointer) error {
	if ptr == nilPointer {
		return nil
	}

	block := ptr - WORD
	size, _, err := a.readHeader(block)
	if err != nil {
		return err
	}

	if err := a.writeTags(block, size, false); err != nil {
		return err
	}
	if err := a.clearLinks(block); err != nil {
		return err
	}
	return a.coalesce(block, size)
}

// Resize implements spec.md §4.6's Resize semantics, including the §9
// decision that Resize(ptr, 0) frees and returns (nilPointer, nil) rather
// than the buggy "return ptr" behaviour one mm_realloc source variant has.
func (a *Allocator) Resize(ptr Pointer, newSize int) (Pointer, error) {
	if newSize == 0 {
		return nilPointer, a.Free(ptr)
	}
	if ptr == nilPointer {
		return a.Allocate(newSize)
	}

	want := asize(newSize)
	block := ptr - WORD
	cur, _, err := a.readHeader(block)
	if err != nil {
		return nilPointer, err
	}

	switch {
	case want <= cur && cur < want+minBlockSize:
		// Fits exactly or with slack too small to split.
		return ptr, nil

	case cur >= want+minBlockSize:
		return ptr, a.shrinkInPlace(block, cur, want)

	default:
		return a.growInPlaceOrMigrate(ptr, block, cur, want, newSize)
	}
}

// shrinkInPlace splits block into a want-sized allocated head and a free
// tail, merging the tail with a free right neighbour first if there is one.
func (a *Allocator) shrinkInPlace(block Pointer, cur, want int) error {
	if err := a.writeTags(block, want, true); err != nil {
		return err
	}

	tail := a.nextBlock(block, want)
	tailSize := cur - want

	right := a.nextBlock(tail, tailSize)
	rSize, rAlloc, err := a.readHeader(right)
	if err != nil {
		return err
	}
	if !rAlloc {
		if err := a.freeListRemove(right, rSize); err != nil {
			return err
		}
		tailSize += rSize
	}

	if err := a.writeTags(tail, tailSize, false); err != nil {
		return err
	}
	if err := a.clearLinks(tail); err != nil {
		return err
	}
	return a.freeListInsert(tail, tailSize)
}

// growInPlaceOrMigrate implements spec.md §4.6's "Needs growth" branch: try
// to extend the heap when the block is at its tail, then try absorbing a
// free right neighbour, and only then fall back to allocate+copy+free.
func (a *Allocator) growInPlaceOrMigrate(ptr, block Pointer, cur, want, newSize int) (Pointer, error) {
	right := a.nextBlock(block, cur)
	rSize, rAlloc, err := a.readHeader(right)
	if err != nil {
		return nilPointer, err
	}

	if rSize == 0 && rAlloc {
		// right is the epilogue: extend the heap so there is
		// something to (maybe) absorb.
		extend := want - cur
		if extend < CHUNK {
			extend = CHUNK
		}
		if err := a.growHeap(extend); err != nil {
			if _, ok := err.(*OutOfMemoryError); !ok {
				return nilPointer, err
			}
			// Growth failed; fall through to allocate+copy+free,
			// which will itself fail cleanly if still short.
		} else if rSize, rAlloc, err = a.readHeader(right); err != nil {
			return nilPointer, err
		}
	}

	if !rAlloc && cur+rSize >= want {
		if err := a.freeListRemove(right, rSize); err != nil {
			return nilPointer, err
		}
		merged := cur + rSize
		if _, err := a.place(block, merged, want); err != nil {
			return nilPointer, err
		}
		return ptr, nil
	}

	newPtr, err := a.Allocate(newSize)
	if err != nil {
		return nilPointer, err
	}
	if newPtr == nilPointer {
		// Old block left intact, per spec.md §7: "Resize failure
		// never invalidates the original block."
		return nilPointer, nil
	}

	n := cur - overhead
	if newSize < n {
		n = newSize
	}
	buf := make([]byte, n)
	if _, err := a.p.ReadAt(buf, ptr); err != nil {
		return nilPointer, err
	}
	if _, err := a.p.WriteAt(buf, newPtr); err != nil {
		return nilPointer, err
	}

	if err := a.Free(ptr); err != nil {
		return nilPointer, err
	}
	return newPtr, nil
}
